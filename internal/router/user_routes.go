package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/middleware"
	"github.com/iliyamo/kaku-api/internal/model"
)

// RegisterUsers registers provider-backed user endpoints under /api/users.
// Admin writes drop the event and task caches since both embed users.
func RegisterUsers(e *echo.Echo, d Deps) {
	provider := middleware.ProviderAuth(d.Verifier)
	admin := middleware.RequireRole(model.RoleAdmin)
	active := middleware.RequireActive(d.Accounts)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis, nsEvents, nsTasks)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)

	g := e.Group("/api/users")
	g.POST("/register", d.Users.Register, limit)
	if d.Mail != nil {
		g.POST("/password-reset", d.Mail.PasswordReset, limit)
	}
	g.GET("/profile", d.Users.Profile, provider, active)
	g.PUT("/profile/notifications", d.Users.SetNotifications,
		middleware.Authenticate(d.JWTSecret, d.Verifier), active, invalidate)

	g.GET("", d.Users.List, provider, active, admin)
	g.PUT("/:id/role", d.Users.UpdateRole, provider, active, admin, invalidate)
	g.PUT("/:id/activate", d.Users.Activate, provider, active, admin, invalidate)
	g.PUT("/:id/deactivate", d.Users.Deactivate, provider, active, admin, invalidate)
}
