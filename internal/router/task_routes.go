package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/middleware"
	"github.com/iliyamo/kaku-api/internal/model"
)

// RegisterTasks registers /api/tasks with the same access rules as events.
func RegisterTasks(e *echo.Echo, d Deps) {
	auth := middleware.Authenticate(d.JWTSecret, d.Verifier)
	active := middleware.RequireActive(d.Accounts)
	cache := middleware.NewRedisCache(d.Cache, d.Redis, nsTasks)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis, nsTasks)

	g := e.Group("/api/tasks")
	g.GET("", d.Tasks.List, cache)
	g.GET("/admin/all", d.Tasks.ListAll, auth, active, middleware.RequireRole(model.RoleAdmin))
	g.GET("/:id", d.Tasks.Get, cache)

	w := []echo.MiddlewareFunc{auth, active, invalidate}
	g.POST("", d.Tasks.Create, w...)
	g.PUT("/:id", d.Tasks.Update, w...)
	g.DELETE("/:id", d.Tasks.Delete, w...)
	g.POST("/:id/assign", d.Tasks.Assign, w...)
	g.PUT("/:id/status", d.Tasks.UpdateStatus, w...)
}
