package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a self-issued Bearer
// token and stores the caller as a Principal. The secret must match the one
// used when issuing tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return unauthorized(c, "missing bearer token")
			}
			p, ok := fromToken(secret, raw)
			if !ok {
				return unauthorized(c, "invalid token")
			}
			setPrincipal(c, p)
			return next(c)
		}
	}
}

func fromToken(secret, raw string) (Principal, bool) {
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return Principal{}, false
	}
	role, ok := model.ParseRole(claims.Role)
	if !ok {
		role = model.RoleUser
	}
	return Principal{UserID: claims.ID, Email: claims.Email, Role: role, Source: SourceToken}, true
}

// bearer extracts the token from "Authorization: Bearer <token>".
func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(auth[7:])
	return raw, raw != ""
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
}
