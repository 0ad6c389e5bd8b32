// Package notify turns domain events into emails.
package notify

import (
	"context"
	"log"

	mail "gopkg.in/mail.v2"

	"github.com/iliyamo/kaku-api/internal/config"
)

// Mail is one outbound email. Text, when set, is sent as the plain
// alternative of HTML.
type Mail struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers a Mail.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// SMTPMailer sends through an SMTP relay. A new session is dialed per mail.
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return &SMTPMailer{dialer: d, from: cfg.From}
}

func (s *SMTPMailer) Send(ctx context.Context, m Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := mail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	switch {
	case m.Text != "" && m.HTML != "":
		msg.SetBody("text/plain", m.Text)
		msg.AddAlternative("text/html", m.HTML)
	case m.HTML != "":
		msg.SetBody("text/html", m.HTML)
	default:
		msg.SetBody("text/plain", m.Text)
	}
	return s.dialer.DialAndSend(msg)
}

// LogMailer writes mails to the log instead of sending them. Used when no
// SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, m Mail) error {
	log.Printf("mail: to=%s subject=%q (%d bytes, not sent: SMTP_HOST empty)", m.To, m.Subject, len(m.HTML)+len(m.Text))
	return nil
}

// NewMailer picks SMTP when a host is configured and the log mailer otherwise.
func NewMailer(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}
