package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/repository"
)

// AccountLookup loads the local user behind a principal.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RequireActive rejects callers whose local account is deactivated, so a
// deactivation takes effect before their token expires. Principals with no
// local row pass. It must run after an authenticate middleware.
func RequireActive(accounts AccountLookup) echo.MiddlewareFunc {
	if accounts == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return unauthorized(c, "authentication required")
			}
			u, err := accounts.GetByID(c.Request().Context(), p.UserID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return next(c)
			case err != nil:
				log.Printf("auth: load account %s: %v", p.UserID, err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
			case !u.IsActive:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account is deactivated"})
			}
			return next(c)
		}
	}
}
