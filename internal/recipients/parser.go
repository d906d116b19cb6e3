package recipients

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"bulkmail/internal/models"
)

const (
	nameColumn  = "name"
	emailColumn = "email"
)

// MalformedInputError reports a file that could not be read as a table.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("recipient file is not a readable table: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// SchemaError reports required columns missing from the header row.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("recipient file must contain column(s): %s", strings.Join(e.Missing, ", "))
}

// Parse reads a CSV whose header row must contain the literal columns "name"
// and "email". The match is exact and case-sensitive; column order does not
// matter and extra columns are ignored. Cell values are kept raw, with no
// trimming and no address validation — a bad address surfaces later as a
// send-time failure.
//
// A header-only file yields an empty slice. Parse is a pure function of the
// reader contents; re-invoke it on a fresh reader to restart.
func Parse(r io.Reader) ([]models.RecipientRecord, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &MalformedInputError{Err: errors.New("file is empty")}
	}
	if err != nil {
		return nil, &MalformedInputError{Err: err}
	}

	nameIdx, emailIdx := -1, -1
	for i, col := range header {
		switch col {
		case nameColumn:
			if nameIdx == -1 {
				nameIdx = i
			}
		case emailColumn:
			if emailIdx == -1 {
				emailIdx = i
			}
		}
	}

	var missing []string
	if nameIdx == -1 {
		missing = append(missing, nameColumn)
	}
	if emailIdx == -1 {
		missing = append(missing, emailColumn)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	records := make([]models.RecipientRecord, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedInputError{Err: err}
		}

		records = append(records, models.RecipientRecord{
			Name:  row[nameIdx],
			Email: row[emailIdx],
		})
	}

	return records, nil
}
