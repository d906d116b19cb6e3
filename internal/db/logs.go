package db

import (
	"context"

	"bulkmail/internal/models"
)

// InsertLog appends one send attempt. Each insert is an independent,
// immediately committed write; a crash mid-run leaves exactly the logs for
// recipients already processed.
func (s *Store) InsertLog(ctx context.Context, entry *models.EmailLog) error {
	return s.Pool.QueryRow(ctx,
		`INSERT INTO email_logs
		 (subject, recipient_email, recipient_name, body, status, error_message, sent_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NOW())
		 RETURNING id, sent_at`,
		entry.Subject,
		entry.RecipientEmail,
		entry.RecipientName,
		entry.Body,
		entry.Status,
		entry.ErrorMessage,
	).Scan(&entry.ID, &entry.SentAt)
}

func (s *Store) ListLogs(ctx context.Context) ([]models.EmailLog, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, subject, recipient_email, recipient_name, body, status, error_message, sent_at
		 FROM email_logs
		 ORDER BY sent_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]models.EmailLog, 0)
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.Subject, &l.RecipientEmail, &l.RecipientName,
			&l.Body, &l.Status, &l.ErrorMessage, &l.SentAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// DeleteLogs removes the given log ids and reports how many rows actually
// existed. Unknown ids are a no-op, not an error.
func (s *Store) DeleteLogs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := s.Pool.Exec(ctx, `DELETE FROM email_logs WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
