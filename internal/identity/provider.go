// Package identity adapts the external identity provider that owns
// credentials for provider-registered users.
package identity

import (
	"context"
	"errors"

	"github.com/iliyamo/kaku-api/internal/model"
)

var (
	// ErrInvalidCredential is returned for malformed, expired or revoked tokens.
	ErrInvalidCredential = errors.New("identity: invalid credential")
	// ErrAccountNotFound is returned when the provider has no such subject.
	ErrAccountNotFound = errors.New("identity: account not found")
	// ErrEmailExists is returned when the provider already holds the email.
	ErrEmailExists = errors.New("identity: email already exists")
	// ErrNotConfigured is returned by every call on Unconfigured.
	ErrNotConfigured = errors.New("identity: provider not configured")
)

// Account is what the provider needs to create a login.
type Account struct {
	Email       string
	Password    string
	DisplayName string // omitted when empty
}

// Claims is the verified payload of a provider credential. Role defaults to
// user when the token carries no role claim.
type Claims struct {
	SubjectID string
	Email     string
	Role      model.Role
}

// Verifier checks provider-issued credentials.
type Verifier interface {
	VerifyCredential(ctx context.Context, token string) (Claims, error)
}

// Provider is the full surface used by the user service.
type Provider interface {
	Verifier
	CreateAccount(ctx context.Context, a Account) (string, error)
	SetRoleClaim(ctx context.Context, uid string, role model.Role) error
	SetEnabled(ctx context.Context, uid string, enabled bool) error
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// Unconfigured stands in when no service account is supplied.
type Unconfigured struct{}

func (Unconfigured) VerifyCredential(context.Context, string) (Claims, error) {
	return Claims{}, ErrNotConfigured
}

func (Unconfigured) CreateAccount(context.Context, Account) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) SetRoleClaim(context.Context, string, model.Role) error {
	return ErrNotConfigured
}

func (Unconfigured) SetEnabled(context.Context, string, bool) error {
	return ErrNotConfigured
}

func (Unconfigured) PasswordResetLink(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}
