package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/kaku-api/internal/apperr"
	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/repository"
	"github.com/iliyamo/kaku-api/internal/utils"
)

// AuthService implements the local password and self-issued token path.
type AuthService struct {
	users  UserStore
	secret string
	ttl    time.Duration
	cost   int
}

func NewAuthService(users UserStore, secret string, ttl time.Duration, bcryptCost int) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{users: users, secret: secret, ttl: ttl, cost: bcryptCost}
}

// RegisterInput carries a registration request. An empty Role means user.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      model.Role
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (in RegisterInput) role() (model.Role, error) {
	if in.Role == "" {
		return model.RoleUser, nil
	}
	r, ok := model.ParseRole(string(in.Role))
	if !ok {
		return "", apperr.Validation("invalid role")
	}
	return r, nil
}

// Register creates a local user with a bcrypt-hashed password and returns
// it with a fresh token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role, err := in.role()
	if err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(in.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal("storage failure", err)
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal("storage failure", err)
	}
	return s.issue(u)
}

// Login checks the password of the user registered under email.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, apperr.InvalidCredential("Invalid password")
	}
	if !u.IsActive {
		return nil, apperr.Forbidden("account is deactivated")
	}
	return s.issue(u)
}

// Profile returns the user behind a self-issued token.
func (s *AuthService) Profile(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	return u, nil
}

func (s *AuthService) issue(u *model.User) (*AuthResult, error) {
	tok, err := utils.NewAccessToken(s.secret, u.ID, u.Email, string(u.Role), s.ttl)
	if err != nil {
		return nil, apperr.Internal("sign token", err)
	}
	return &AuthResult{User: u, Token: tok.Token}, nil
}
