// Package notify delivers contact form emails: a confirmation to the sender
// and an alert to the site operators. Delivery is best effort.
package notify

import (
	"context"
	"log/slog"
	"strings"
)

// Message is a fully rendered email.
type Message struct {
	From    string
	To      []string
	ReplyTo []string
	Subject string
	HTML    string
	Text    string
}

// Mailer hands a message to an email provider.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. Used in development.
type LogMailer struct{}

// Send logs msg at INFO level.
func (LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("email (log mailer)",
		"from", msg.From,
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
