package bulk

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bulkmail/internal/db"
	"bulkmail/internal/email"
	"bulkmail/internal/models"
	"bulkmail/internal/recipients"
)

type fakeStore struct {
	templates map[int64]*models.EmailTemplate
	logs      []models.EmailLog
	insertErr error
}

func (f *fakeStore) GetTemplate(_ context.Context, id int64) (*models.EmailTemplate, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) InsertLog(_ context.Context, entry *models.EmailLog) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.logs = append(f.logs, *entry)
	return nil
}

// fakeTransport fails delivery for addresses listed in failWith.
type fakeTransport struct {
	sent     []email.Message
	failWith map[string]string
}

func (f *fakeTransport) Send(msg email.Message) error {
	if cause, ok := f.failWith[msg.To]; ok {
		return &email.DeliveryError{Cause: errors.New(cause)}
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newOrchestrator(store *fakeStore, transport *fakeTransport) *Orchestrator {
	return &Orchestrator{
		Store:     store,
		Transport: transport,
		Logger:    zap.NewNop(),
		From:      "noreply@bulkmail.local",
	}
}

func welcomeTemplate() *models.EmailTemplate {
	return &models.EmailTemplate{
		ID:      1,
		Name:    "welcome",
		Subject: "Hello {{.name}}",
		Body:    "Welcome {{.name}}!",
	}
}

func TestRunAllSuccess(t *testing.T) {
	store := &fakeStore{templates: map[int64]*models.EmailTemplate{1: welcomeTemplate()}}
	transport := &fakeTransport{}
	o := newOrchestrator(store, transport)

	file := strings.NewReader("name,email\nAnn,ann@x.com\n")
	summary, err := o.Run(context.Background(), 1, file, "recipients.csv")
	require.NoError(t, err)

	assert.Equal(t, models.Summary{SuccessCount: 1, ErrorCount: 0}, summary)
	require.Len(t, store.logs, 1)

	entry := store.logs[0]
	assert.Equal(t, "Hello Ann", entry.Subject)
	assert.Equal(t, "Welcome Ann!", entry.Body)
	assert.Equal(t, "ann@x.com", entry.RecipientEmail)
	assert.Equal(t, "Ann", entry.RecipientName)
	assert.Equal(t, models.StatusSuccess, entry.Status)
	assert.Empty(t, entry.ErrorMessage)

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "noreply@bulkmail.local", transport.sent[0].From)
	assert.Equal(t, "ann@x.com", transport.sent[0].To)
}

func TestRunPartialFailureContinues(t *testing.T) {
	store := &fakeStore{templates: map[int64]*models.EmailTemplate{1: welcomeTemplate()}}
	transport := &fakeTransport{failWith: map[string]string{"bad": "invalid address"}}
	o := newOrchestrator(store, transport)

	file := strings.NewReader("name,email\nBo,bad\nAnn,ann@x.com\n")
	summary, err := o.Run(context.Background(), 1, file, "recipients.csv")
	require.NoError(t, err)

	assert.Equal(t, models.Summary{SuccessCount: 1, ErrorCount: 1}, summary)
	require.Len(t, store.logs, 2)

	failed := store.logs[0]
	assert.Equal(t, models.StatusFailed, failed.Status)
	assert.Equal(t, "invalid address", failed.ErrorMessage)
	assert.Equal(t, "Hello Bo", failed.Subject)
	assert.Equal(t, "Welcome Bo!", failed.Body)

	succeeded := store.logs[1]
	assert.Equal(t, models.StatusSuccess, succeeded.Status)
	assert.Empty(t, succeeded.ErrorMessage)
	assert.Equal(t, "ann@x.com", succeeded.RecipientEmail)
}

func TestRunLogCountMatchesRows(t *testing.T) {
	store := &fakeStore{templates: map[int64]*models.EmailTemplate{1: welcomeTemplate()}}
	transport := &fakeTransport{failWith: map[string]string{"b@x.com": "mailbox full"}}
	o := newOrchestrator(store, transport)

	file := strings.NewReader("name,email\nA,a@x.com\nB,b@x.com\nC,c@x.com\n")
	summary, err := o.Run(context.Background(), 1, file, "f.csv")
	require.NoError(t, err)

	assert.Len(t, store.logs, 3)
	assert.Equal(t, 3, summary.SuccessCount+summary.ErrorCount)
	for _, entry := range store.logs {
		if entry.Status == models.StatusFailed {
			assert.NotEmpty(t, entry.ErrorMessage)
		} else {
			assert.Equal(t, models.StatusSuccess, entry.Status)
			assert.Empty(t, entry.ErrorMessage)
		}
	}
}

func TestRunHeaderOnlyFile(t *testing.T) {
	store := &fakeStore{templates: map[int64]*models.EmailTemplate{1: welcomeTemplate()}}
	transport := &fakeTransport{}
	o := newOrchestrator(store, transport)

	summary, err := o.Run(context.Background(), 1, strings.NewReader("name,email\n"), "f.csv")
	require.NoError(t, err)

	assert.Equal(t, models.Summary{}, summary)
	assert.Empty(t, store.logs)
	assert.Empty(t, transport.sent)
}

func TestRunMissingColumnAbortsBeforeSending(t *testing.T) {
	store := &fakeStore{templates: map[int64]*models.EmailTemplate{1: welcomeTemplate()}}
	transport := &fakeTransport{}
	o := newOrchestrator(store, transport)

	file := strings.NewReader("name,phone\nAnn,555-1234\n")
	_, err := o.Run(context.Background(), 1, file, "f.csv")

	var schemaErr *recipients.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Empty(t, store.logs)
	assert.Empty(t, transport.sent)
}

func TestRunUnknownTemplate(t *testing.T) {
	store := &fakeStore{templates: map[int64]*models.EmailTemplate{}}
	transport := &fakeTransport{}
	o := newOrchestrator(store, transport)

	_, err := o.Run(context.Background(), 42, strings.NewReader("name,email\nAnn,ann@x.com\n"), "f.csv")

	require.ErrorIs(t, err, db.ErrNotFound)
	assert.Empty(t, store.logs)
	assert.Empty(t, transport.sent)
}

func TestRunDuplicateRowsSentTwice(t *testing.T) {
	store := &fakeStore{templates: map[int64]*models.EmailTemplate{1: welcomeTemplate()}}
	transport := &fakeTransport{}
	o := newOrchestrator(store, transport)

	file := strings.NewReader("name,email\nAnn,ann@x.com\nAnn,ann@x.com\n")
	summary, err := o.Run(context.Background(), 1, file, "f.csv")
	require.NoError(t, err)

	assert.Equal(t, models.Summary{SuccessCount: 2, ErrorCount: 0}, summary)
	assert.Len(t, store.logs, 2)
	assert.Len(t, transport.sent, 2)
}

func TestRunRenderFailureLogsOriginalTemplateText(t *testing.T) {
	tmpl := &models.EmailTemplate{
		ID:      1,
		Name:    "broken",
		Subject: "Hello {{.name",
		Body:    "Welcome {{.name}}!",
	}
	store := &fakeStore{templates: map[int64]*models.EmailTemplate{1: tmpl}}
	transport := &fakeTransport{}
	o := newOrchestrator(store, transport)

	file := strings.NewReader("name,email\nAnn,ann@x.com\n")
	summary, err := o.Run(context.Background(), 1, file, "f.csv")
	require.NoError(t, err)

	assert.Equal(t, models.Summary{SuccessCount: 0, ErrorCount: 1}, summary)
	require.Len(t, store.logs, 1)

	entry := store.logs[0]
	assert.Equal(t, models.StatusFailed, entry.Status)
	assert.NotEmpty(t, entry.ErrorMessage)
	assert.Equal(t, "Hello {{.name", entry.Subject)
	assert.Equal(t, "Welcome {{.name}}!", entry.Body)
	assert.Empty(t, transport.sent)
}

func TestRunContinuesWhenLogWriteFails(t *testing.T) {
	store := &fakeStore{
		templates: map[int64]*models.EmailTemplate{1: welcomeTemplate()},
		insertErr: errors.New("db unavailable"),
	}
	transport := &fakeTransport{}
	o := newOrchestrator(store, transport)

	file := strings.NewReader("name,email\nA,a@x.com\nB,b@x.com\n")
	summary, err := o.Run(context.Background(), 1, file, "f.csv")
	require.NoError(t, err)

	assert.Equal(t, models.Summary{SuccessCount: 2, ErrorCount: 0}, summary)
	assert.Len(t, transport.sent, 2)
}
