package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/iliyamo/kaku-api/internal/apperr"
	"github.com/iliyamo/kaku-api/internal/identity"
	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/repository"
)

// UserService manages users whose credentials live at the identity
// provider, and the admin operations on any user.
//
// Role and activation changes write to the provider first. If that write
// fails the local row is left untouched. Users the provider does not know
// (local registrations) are updated locally only.
type UserService struct {
	users    UserStore
	provider identity.Provider
}

func NewUserService(users UserStore, provider identity.Provider) *UserService {
	if provider == nil {
		provider = identity.Unconfigured{}
	}
	return &UserService{users: users, provider: provider}
}

// RegisterUser creates the provider account, sets its role claim and
// mirrors it locally under the provider subject id.
func (s *UserService) RegisterUser(ctx context.Context, in RegisterInput) (*model.User, error) {
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

	uid, err := s.provider.CreateAccount(ctx, identity.Account{
		Email:       email,
		Password:    in.Password,
		DisplayName: model.DisplayName(in.FirstName, in.LastName),
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal("identity provider: create account", err)
	}
	if err := s.provider.SetRoleClaim(ctx, uid, role); err != nil {
		log.Printf("users: account %s created but role claim failed: %v", uid, err)
		return nil, apperr.Internal("identity provider: set role", err)
	}

	u, err := s.users.GetByID(ctx, uid)
	switch {
	case err == nil:
		u.Email = email
		u.FirstName = strings.TrimSpace(in.FirstName)
		u.LastName = strings.TrimSpace(in.LastName)
		u.Role = role
		if err := s.users.Save(ctx, u); err != nil {
			return nil, storeErr(err, "User not found")
		}
	case errors.Is(err, repository.ErrNotFound):
		u = &model.User{
			ID:        uid,
			Email:     email,
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
			Role:      role,
			IsActive:  true,
		}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, apperr.Conflict("User already exists")
			}
			return nil, apperr.Internal("storage failure", err)
		}
	default:
		return nil, apperr.Internal("storage failure", err)
	}
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	return u, nil
}

// GetAllUsers lists every user ordered by email.
func (s *UserService) GetAllUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Internal("storage failure", err)
	}
	return users, nil
}

func (s *UserService) UpdateUserRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("invalid role")
	}
	return s.mutate(ctx, id,
		func(uid string) error { return s.provider.SetRoleClaim(ctx, uid, role) },
		func(u *model.User) { u.Role = role })
}

func (s *UserService) ActivateUser(ctx context.Context, id string) (*model.User, error) {
	return s.setActive(ctx, id, true)
}

func (s *UserService) DeactivateUser(ctx context.Context, id string) (*model.User, error) {
	return s.setActive(ctx, id, false)
}

func (s *UserService) setActive(ctx context.Context, id string, active bool) (*model.User, error) {
	return s.mutate(ctx, id,
		func(uid string) error { return s.provider.SetEnabled(ctx, uid, active) },
		func(u *model.User) { u.IsActive = active })
}

// SetNotifications updates the caller's email opt-in. It is local only.
func (s *UserService) SetNotifications(ctx context.Context, id string, enabled bool) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	u.NotificationsEnabled = enabled
	if err := s.users.Save(ctx, u); err != nil {
		return nil, storeErr(err, "User not found")
	}
	return u, nil
}

// mutate runs the provider write, then the local one.
func (s *UserService) mutate(ctx context.Context, id string, remote func(uid string) error, local func(u *model.User)) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "User not found")
	}
	if err := remote(u.ID); err != nil {
		switch {
		case errors.Is(err, identity.ErrAccountNotFound), errors.Is(err, identity.ErrNotConfigured):
			log.Printf("users: %s has no provider account, updating locally: %v", u.ID, err)
		default:
			return nil, apperr.Internal("identity provider update failed", err)
		}
	}
	local(u)
	if err := s.users.Save(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			log.Printf("users: provider updated for %s but local save lost a race", u.ID)
		}
		return nil, storeErr(err, "User not found")
	}
	return u, nil
}
