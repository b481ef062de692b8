// Package mailer delivers transactional emails such as password reset pins.
package mailer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"storemaster/internal/apperror"
)

// Mailer sends a plain text message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer delivers mail through the SendGrid v3 API.
type SendGridMailer struct {
	client  sendClient
	from    *mail.Email
	timeout time.Duration
}

// NewSendGridMailer creates a mailer sending as fromAddress.
func NewSendGridMailer(apiKey, fromAddress string, timeout time.Duration) *SendGridMailer {
	return &SendGridMailer{
		client:  sendgrid.NewSendClient(apiKey),
		from:    mail.NewEmail("StoreMaster", fromAddress),
		timeout: timeout,
	}
}

// Send delivers the message. Non-2xx responses are upstream failures.
func (m *SendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), body, "")
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return &apperror.UpstreamError{Op: "sendgrid send", Retryable: true, Err: err}
	}
	if resp.StatusCode >= 300 {
		return &apperror.UpstreamError{
			Op:        "sendgrid send",
			Retryable: resp.StatusCode >= 500,
			Err:       fmt.Errorf("status %d: %s", resp.StatusCode, resp.Body),
		}
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no SendGrid key is configured.
type LogMailer struct{}

// Send logs the message.
func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	log.Printf("Mail to %s: %s\n%s", to, subject, body)
	return nil
}
