package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Message is one fully rendered mail for a single recipient. TextBody is the
// plain-text fallback for the HTML body.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Transport attempts delivery of a single message. A failed attempt returns a
// *DeliveryError carrying a human-readable cause.
type Transport interface {
	Send(msg Message) error
}

// DeliveryError is a per-recipient delivery failure.
type DeliveryError struct {
	Cause error
}

func (e *DeliveryError) Error() string { return e.Cause.Error() }
func (e *DeliveryError) Unwrap() error { return e.Cause }

// Sender delivers messages over SMTP.
type Sender struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (s *Sender) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	m.AddAlternative("text/html", msg.HTMLBody)

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return &DeliveryError{Cause: fmt.Errorf("smtp send error: %w", err)}
	}

	return nil
}
