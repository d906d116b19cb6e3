package models

import "time"

type LogStatus string

const (
	StatusSuccess LogStatus = "SUCCESS"
	StatusFailed  LogStatus = "FAILED"
)

// EmailTemplate is a named, reusable pair of parameterized subject/body text.
// Timestamps are assigned by the store.
type EmailTemplate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailLog records one attempted send. It stores a rendered snapshot of the
// message; later template edits or deletes never alter historical logs.
// Status SUCCESS implies an empty ErrorMessage, FAILED a non-empty one.
type EmailLog struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"`
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sent_at"`
	Status         LogStatus `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// RecipientRecord is one row of an uploaded recipient file. It is consumed by
// the send loop and never persisted on its own.
type RecipientRecord struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RenderedMessage is a template with recipient fields substituted in.
type RenderedMessage struct {
	Subject string
	Body    string
}

// Summary is the terminal result of one bulk send run.
type Summary struct {
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
}
