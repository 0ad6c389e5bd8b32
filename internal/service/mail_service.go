package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/iliyamo/kaku-api/internal/apperr"
	"github.com/iliyamo/kaku-api/internal/identity"
	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/notify"
)

// MailService sends mail on behalf of authenticated callers and delivers
// provider password reset links.
type MailService struct {
	mailer   notify.Mailer
	provider identity.Provider
}

func NewMailService(m notify.Mailer, p identity.Provider) *MailService {
	if p == nil {
		p = identity.Unconfigured{}
	}
	return &MailService{mailer: m, provider: p}
}

// EmailInput is an ad-hoc message. At least one of Text and HTML is needed.
type EmailInput struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// SendEmail delivers in synchronously. Unlike notifications, a delivery
// failure is returned to the caller.
func (s *MailService) SendEmail(ctx context.Context, in EmailInput) error {
	if strings.TrimSpace(in.Text) == "" && strings.TrimSpace(in.HTML) == "" {
		return apperr.Validation("text or html is required")
	}
	err := s.mailer.Send(ctx, notify.Mail{
		To:      model.NormalizeEmail(in.To),
		Subject: strings.TrimSpace(in.Subject),
		Text:    in.Text,
		HTML:    in.HTML,
	})
	if err != nil {
		return apperr.Internal("Error sending email", err)
	}
	return nil
}

// SendPasswordReset mails a reset link for the provider account under
// email. Unknown emails succeed silently so callers cannot learn which
// accounts exist.
func (s *MailService) SendPasswordReset(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	link, err := s.provider.PasswordResetLink(ctx, email)
	switch {
	case errors.Is(err, identity.ErrAccountNotFound):
		log.Printf("mail: password reset requested for unknown account %s", email)
		return nil
	case errors.Is(err, identity.ErrNotConfigured):
		return apperr.Internal("password reset unavailable", err)
	case err != nil:
		return apperr.Internal("identity provider: reset link", err)
	}
	m, err := notify.PasswordResetMail(email, link)
	if err != nil {
		return apperr.Internal("render reset mail", err)
	}
	if err := s.mailer.Send(ctx, m); err != nil {
		return apperr.Internal("Error sending email", err)
	}
	return nil
}
