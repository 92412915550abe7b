package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/mamadbah2/stockreport/internal/config"
)

// Sender delivers HTML emails.
type Sender interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// Dialer is the subset of *gomail.Dialer used by SMTPMailer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends mail through an SMTP relay using gomail.
type SMTPMailer struct {
	dialer Dialer
	from   string
}

// NewSMTPMailer builds a mailer from configuration.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return NewSMTPMailerWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From)
}

// NewSMTPMailerWithDialer builds a mailer around an existing dialer.
func NewSMTPMailerWithDialer(dialer Dialer, from string) *SMTPMailer {
	return &SMTPMailer{dialer: dialer, from: from}
}

// Send composes and sends a single message to every recipient.
func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("send mail: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
