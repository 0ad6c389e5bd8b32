package middleware

import (
	"errors"
	"log"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/identity"
)

// ProviderAuth verifies an identity provider credential sent as a Bearer
// token. The role comes from the credential's claim and defaults to user.
func ProviderAuth(v identity.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return unauthorized(c, "missing bearer token")
			}
			p, ok := fromProvider(c, v, raw)
			if !ok {
				return unauthorized(c, "invalid token")
			}
			setPrincipal(c, p)
			return next(c)
		}
	}
}

// Authenticate accepts either a self-issued token or a provider credential.
// The self-issued check runs first since it needs no network call.
func Authenticate(secret string, v identity.Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return unauthorized(c, "missing bearer token")
			}
			p, ok := fromToken(secret, raw)
			if !ok {
				p, ok = fromProvider(c, v, raw)
			}
			if !ok {
				return unauthorized(c, "invalid token")
			}
			setPrincipal(c, p)
			return next(c)
		}
	}
}

func fromProvider(c echo.Context, v identity.Verifier, raw string) (Principal, bool) {
	if v == nil {
		return Principal{}, false
	}
	claims, err := v.VerifyCredential(c.Request().Context(), raw)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidCredential) && !errors.Is(err, identity.ErrNotConfigured) {
			log.Printf("auth: provider verification failed: %v", err)
		}
		return Principal{}, false
	}
	return Principal{UserID: claims.SubjectID, Email: claims.Email, Role: claims.Role, Source: SourceProvider}, true
}
