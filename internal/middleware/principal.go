package middleware // package middleware provides authentication, authorization, caching and rate limiting for Echo routes

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/model"
)

// Source tells which identity system vouched for a caller.
type Source string

const (
	SourceToken    Source = "token"    // self-issued HS256 token
	SourceProvider Source = "provider" // identity provider credential
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Email  string
	Role   model.Role
	Source Source
}

const principalKey = "principal"

// setPrincipal stores p on the context. user_id and role are also set as
// plain strings for handlers and the rate limiter.
func setPrincipal(c echo.Context, p Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.UserID)
	c.Set("role", string(p.Role))
}

// PrincipalFrom returns the caller stored by an authenticate middleware.
func PrincipalFrom(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

// currentUserID returns the caller's id or "anon".
func currentUserID(c echo.Context) string {
	if p, ok := PrincipalFrom(c); ok && p.UserID != "" {
		return p.UserID
	}
	return "anon"
}
