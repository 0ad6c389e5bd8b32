package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/iliyamo/kaku-api/internal/config"
	"github.com/iliyamo/kaku-api/internal/handler"
	"github.com/iliyamo/kaku-api/internal/identity"
	"github.com/iliyamo/kaku-api/internal/middleware"
	"github.com/iliyamo/kaku-api/internal/model"
)

// Deps carries everything the route table needs. Redis may be nil, in which
// case caching and rate limiting are skipped.
type Deps struct {
	DB        *gorm.DB
	JWTSecret string
	Verifier  identity.Verifier
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	// Accounts, when set, lets authenticated routes refuse deactivated users.
	Accounts middleware.AccountLookup

	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Events *handler.EventHandler
	Tasks  *handler.TaskHandler
	Mail   *handler.MailHandler
}

// Namespaces invalidated by writes. Tasks embed their event, and both embed
// users, so a write may drop more than its own namespace.
const (
	nsEvents = "events"
	nsTasks  = "tasks"
)

// Register installs the validator and every route on e.
func Register(e *echo.Echo, d Deps) {
	e.Validator = handler.NewValidator()
	if d.Verifier == nil {
		d.Verifier = identity.Unconfigured{}
	}
	RegisterRoutes(e, d)
	RegisterAuth(e, d)
	RegisterUsers(e, d)
	RegisterEvents(e, d)
	RegisterTasks(e, d)
	RegisterNotifications(e, d)
}

// RegisterRoutes registers routes that need no credentials.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))
}

// RegisterAuth registers the self-issued token endpoints under /api/auth.
func RegisterAuth(e *echo.Echo, d Deps) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis)
	jwt := middleware.JWTAuth(d.JWTSecret)
	active := middleware.RequireActive(d.Accounts)

	g := e.Group("/api/auth")
	g.POST("/register", d.Auth.Register, limit)
	g.POST("/login", d.Auth.Login, limit)
	g.GET("/profile", d.Auth.Profile, jwt, active)
	g.GET("/users", d.Auth.AdminCheck, jwt, active, middleware.RequireRole(model.RoleAdmin))
}

// RegisterNotifications registers the ad-hoc mail endpoint.
func RegisterNotifications(e *echo.Echo, d Deps) {
	if d.Mail == nil {
		return
	}
	e.POST("/api/notifications/email", d.Mail.SendEmail,
		middleware.Authenticate(d.JWTSecret, d.Verifier),
		middleware.RequireActive(d.Accounts),
		middleware.NewTokenBucket(d.RateLimit, d.Redis))
}
