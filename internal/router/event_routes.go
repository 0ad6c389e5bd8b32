package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/middleware"
	"github.com/iliyamo/kaku-api/internal/model"
)

// RegisterEvents registers /api/events. Reads are public and cached; writes
// accept either credential scheme.
func RegisterEvents(e *echo.Echo, d Deps) {
	auth := middleware.Authenticate(d.JWTSecret, d.Verifier)
	active := middleware.RequireActive(d.Accounts)
	cache := middleware.NewRedisCache(d.Cache, d.Redis, nsEvents)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis, nsEvents, nsTasks)

	g := e.Group("/api/events")
	g.GET("", d.Events.List, cache)
	g.GET("/admin/all", d.Events.ListAll, auth, active, middleware.RequireRole(model.RoleAdmin))
	g.GET("/:id", d.Events.Get, cache)

	w := []echo.MiddlewareFunc{auth, active, invalidate}
	g.POST("", d.Events.Create, w...)
	g.PUT("/:id", d.Events.Update, w...)
	g.DELETE("/:id", d.Events.Delete, w...)
	g.POST("/:id/participants", d.Events.AddParticipant, w...)
	g.DELETE("/:id/participants", d.Events.RemoveParticipant, w...)
}
