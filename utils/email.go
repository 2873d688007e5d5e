// utils/email.go
package utils

import (
	"context"
	"fmt"
	"html"

	"github.com/keighl/postmark"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers a single HTML email
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewMailer picks the delivery provider named in cfg. With no provider the
// messages are only logged.
func NewMailer(cfg Config, logger zerolog.Logger) Mailer {
	switch cfg.EmailProvider {
	case "postmark":
		return &PostmarkMailer{client: postmark.NewClient(cfg.PostmarkAPIToken, ""), from: cfg.EmailSender}
	case "sendgrid":
		return &SendgridMailer{client: sendgrid.NewSendClient(cfg.SendgridAPIKey), from: cfg.EmailSender}
	default:
		return &LogMailer{logger: logger}
	}
}

// PostmarkMailer sends email through Postmark
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

// Send implements Mailer
func (m *PostmarkMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendgridMailer sends email through SendGrid
type SendgridMailer struct {
	client *sendgrid.Client
	from   string
}

// Send implements Mailer
func (m *SendgridMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewSingleEmail(mail.NewEmail("", m.from), subject, mail.NewEmail("", to), "", htmlBody)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct {
	logger zerolog.Logger
}

// Send implements Mailer
func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.logger.Info().Str("to", to).Str("subject", subject).Str("body", htmlBody).Msg("email not sent, no provider configured")
	return nil
}

// ResetPasswordEmail renders the password reset message
func ResetPasswordEmail(name, resetURL string) (subject, body string) {
	body = fmt.Sprintf(
		"<p>Hello %s,</p><p>Please click the following link to reset your password:</p><a href=\"%s\">Reset Password</a>",
		html.EscapeString(name), html.EscapeString(resetURL),
	)
	return "Reset Password", body
}
