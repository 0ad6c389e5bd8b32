package identity

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/iliyamo/kaku-api/internal/config"
	"github.com/iliyamo/kaku-api/internal/model"
)

// authClient is the part of *auth.Client the adapter calls.
type authClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// Firebase implements Provider on Firebase Authentication. The role lives
// in the "role" custom claim.
type Firebase struct {
	client authClient
}

// NewFirebase initializes the Admin SDK from cfg. It returns an error when
// no credentials are configured.
func NewFirebase(ctx context.Context, cfg config.FirebaseConfig) (*Firebase, error) {
	var opt option.ClientOption
	switch {
	case cfg.ServiceAccount != "":
		opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccount))
	case cfg.CredentialsFile != "":
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	default:
		return nil, ErrNotConfigured
	}
	var fbConf *firebase.Config
	if cfg.ProjectID != "" {
		fbConf = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConf, opt)
	if err != nil {
		return nil, fmt.Errorf("identity: init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: init firebase auth: %w", err)
	}
	return &Firebase{client: client}, nil
}

// New returns the Firebase provider, or Unconfigured when credentials are
// absent or fail to load. The fallback is logged.
func New(ctx context.Context, cfg config.FirebaseConfig) Provider {
	if !cfg.Configured() {
		log.Printf("identity: no firebase service account, provider-backed routes disabled")
		return Unconfigured{}
	}
	fb, err := NewFirebase(ctx, cfg)
	if err != nil {
		log.Printf("identity: %v, provider-backed routes disabled", err)
		return Unconfigured{}
	}
	return fb
}

func (f *Firebase) CreateAccount(ctx context.Context, a Account) (string, error) {
	params := (&auth.UserToCreate{}).Email(a.Email).Password(a.Password)
	if a.DisplayName != "" {
		params = params.DisplayName(a.DisplayName)
	}
	rec, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return rec.UID, nil
}

func (f *Firebase) SetRoleClaim(ctx context.Context, uid string, role model.Role) error {
	err := f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{"role": string(role)})
	if err != nil && auth.IsUserNotFound(err) {
		return ErrAccountNotFound
	}
	return err
}

func (f *Firebase) SetEnabled(ctx context.Context, uid string, enabled bool) error {
	_, err := f.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Disabled(!enabled))
	if err != nil && auth.IsUserNotFound(err) {
		return ErrAccountNotFound
	}
	return err
}

// VerifyCredential also rejects tokens of revoked sessions and disabled
// accounts, so a deactivation takes effect before the token expires.
func (f *Firebase) VerifyCredential(ctx context.Context, token string) (Claims, error) {
	tok, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return Claims{}, ErrInvalidCredential
	}
	c := Claims{SubjectID: tok.UID, Role: model.RoleUser}
	if email, ok := tok.Claims["email"].(string); ok {
		c.Email = model.NormalizeEmail(email)
	}
	if raw, ok := tok.Claims["role"].(string); ok {
		if role, valid := model.ParseRole(raw); valid {
			c.Role = role
		}
	}
	return c, nil
}

func (f *Firebase) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := f.client.PasswordResetLink(ctx, model.NormalizeEmail(email))
	if err != nil && (auth.IsEmailNotFound(err) || auth.IsUserNotFound(err)) {
		return "", ErrAccountNotFound
	}
	return link, err
}
