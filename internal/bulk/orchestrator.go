package bulk

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bulkmail/internal/email"
	"bulkmail/internal/metrics"
	"bulkmail/internal/models"
	"bulkmail/internal/recipients"
	"bulkmail/internal/render"
)

// Store is the durable state a run needs: one template lookup up front and
// one append-only log write per recipient.
type Store interface {
	GetTemplate(ctx context.Context, id int64) (*models.EmailTemplate, error)
	InsertLog(ctx context.Context, entry *models.EmailLog) error
}

type Orchestrator struct {
	Store     Store
	Transport email.Transport
	Logger    *zap.Logger
	From      string
}

// Run executes one bulk send of the given template against the uploaded file.
//
// Template lookup and file parsing happen before any email is sent; an error
// there aborts the run with zero logs written. Inside the loop recipients are
// processed strictly one at a time in file order, and a per-recipient failure
// is converted into a FAILED log entry rather than aborting the batch. There
// is no deduplication: a duplicate row is sent and logged twice.
func (o *Orchestrator) Run(ctx context.Context, templateID int64, file io.Reader, fileName string) (models.Summary, error) {
	tmpl, err := o.Store.GetTemplate(ctx, templateID)
	if err != nil {
		return models.Summary{}, err
	}

	recs, err := recipients.Parse(file)
	if err != nil {
		return models.Summary{}, err
	}

	log := o.Logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.Int64("template_id", templateID),
	)
	log.Info("bulk send started",
		zap.String("file", fileName),
		zap.Int("recipients", len(recs)),
	)

	var summary models.Summary
	for _, rec := range recs {
		entry := models.EmailLog{
			RecipientEmail: rec.Email,
			RecipientName:  rec.Name,
		}

		if err := o.sendOne(tmpl, rec, fileName, &entry); err != nil {
			entry.Status = models.StatusFailed
			entry.ErrorMessage = err.Error()
			summary.ErrorCount++
			metrics.EmailFailures.Inc()

			log.Error("send failed",
				zap.String("to", rec.Email),
				zap.Error(err),
			)
		} else {
			entry.Status = models.StatusSuccess
			summary.SuccessCount++
			metrics.EmailsSent.Inc()

			log.Info("email sent", zap.String("to", rec.Email))
		}

		if err := o.Store.InsertLog(ctx, &entry); err != nil {
			log.Error("failed to write send log",
				zap.String("to", rec.Email),
				zap.Error(err),
			)
		}
	}

	metrics.BulkRuns.Inc()
	log.Info("bulk send completed",
		zap.Int("success", summary.SuccessCount),
		zap.Int("failed", summary.ErrorCount),
	)

	return summary, nil
}

// sendOne renders and delivers one message, filling entry with the subject
// and body that were actually attempted. When rendering itself fails the
// original template text is logged in place of a rendered copy.
func (o *Orchestrator) sendOne(tmpl *models.EmailTemplate, rec models.RecipientRecord, fileName string, entry *models.EmailLog) error {
	entry.Subject = tmpl.Subject
	entry.Body = tmpl.Body

	rendered, err := render.Render(tmpl, rec, fileName)
	if err != nil {
		return err
	}

	entry.Subject = rendered.Subject
	entry.Body = rendered.Body

	return o.Transport.Send(email.Message{
		From:     o.From,
		To:       rec.Email,
		Subject:  rendered.Subject,
		HTMLBody: rendered.Body,
		TextBody: render.PlainText(rendered.Body),
	})
}
