package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/kaku-api/internal/model"
)

// UserRepo persists users in the `users` table.
type UserRepo struct{ DB *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u. The caller assigns the id. Email is normalized and the
// version starts at 1. A taken email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = model.NormalizeEmail(u.Email)
	u.Version = 1
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).Take(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Exists reports whether a user with id is stored.
func (r *UserRepo) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns all users ordered by email.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	if err := r.DB.WithContext(ctx).Order("email ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListNotifiable returns active users that opted in to notifications.
func (r *UserRepo) ListNotifiable(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.DB.WithContext(ctx).
		Where("notifications_enabled = ? AND is_active = ?", true, true).
		Order("email ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Save writes u if its version still matches the stored row, otherwise
// ErrConflict. A missing row is also reported as ErrConflict.
func (r *UserRepo) Save(ctx context.Context, u *model.User) error {
	u.Email = model.NormalizeEmail(u.Email)
	return saveVersioned(r.DB.WithContext(ctx), u, &u.Version)
}
