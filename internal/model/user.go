package model

import (
	"strings"
	"time"
)

// Role is the authorization role of a user. Role values travel in token
// payloads and provider claims, so they are kept lower case.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User represents an account as stored in the `users` table.
//
// Fields:
//
//	ID                   – opaque identifier. A UUID for locally registered
//	                       users, the identity provider's subject id otherwise.
//	Email                – unique, normalized email address.
//	PasswordHash         – bcrypt hash; empty when the provider owns credentials.
//	Role                 – user or admin.
//	IsActive             – false once an admin deactivates the account.
//	NotificationsEnabled – opt-in flag for email notifications.
//	Version              – optimistic concurrency counter, bumped on every save.
type User struct {
	ID                   string    `gorm:"primaryKey;size:128" json:"id"`
	Email                string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName            string    `gorm:"size:100" json:"firstName"`
	LastName             string    `gorm:"size:100" json:"lastName"`
	PasswordHash         string    `gorm:"size:255" json:"-"`
	Role                 Role      `gorm:"size:16;not null" json:"role"`
	IsActive             bool      `gorm:"not null" json:"isActive"`
	NotificationsEnabled bool      `gorm:"not null" json:"notificationsEnabled"`
	Version              int64     `gorm:"not null" json:"version"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName joins first and last name the way the identity provider expects.
func DisplayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
