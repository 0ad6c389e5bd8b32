package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Health reports whether the process is up and its database answers. It
// returns plain text so load balancers can match on the body.
func Health(db *gorm.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db == nil {
			return c.String(http.StatusOK, "ok")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return c.String(http.StatusServiceUnavailable, "db unavailable")
		}
		ctx, cancel := requestCtx(c)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "db unavailable")
		}
		return c.String(http.StatusOK, "ok")
	}
}
