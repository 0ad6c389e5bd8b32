package handler // package handler binds HTTP requests to the domain services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/apperr"
	"github.com/iliyamo/kaku-api/internal/middleware"
	"github.com/iliyamo/kaku-api/internal/model"
)

// requestTimeout bounds every storage round trip made by a handler.
const requestTimeout = 5 * time.Second

// Validator adapts go-playground/validator to echo.Validator. Field names in
// messages are the json names the client sent.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return apperr.Validation(describe(fields[0]))
	}
	return apperr.Validation(err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fe.Field() + " is invalid"
	}
}

// bindJSON decodes the request body into dst and validates it. Path and
// query parameters are not bound.
func bindJSON(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return err
		}
		return apperr.Validation(err.Error())
	}
	return nil
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:        http.StatusBadRequest,
	apperr.KindUnauthorized:      http.StatusUnauthorized,
	apperr.KindInvalidCredential: http.StatusUnauthorized,
	apperr.KindForbidden:         http.StatusForbidden,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindConflict:          http.StatusConflict,
}

// respondError writes err as {"error": message}. Internal failures are
// logged and never leak their cause.
func respondError(c echo.Context, err error) error {
	status, ok := statusByKind[apperr.KindOf(err)]
	if !ok {
		log.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
	return c.JSON(status, echo.Map{"error": apperr.MessageOf(err)})
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// caller returns the authenticated principal.
func caller(c echo.Context) (middleware.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.UserID == "" {
		return p, apperr.Unauthorized("missing credentials")
	}
	return p, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}, apperr.Validation("Invalid date format")
	}
	return t, nil
}

// optionalDate parses a query parameter. Missing or malformed values yield nil.
func optionalDate(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := model.ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

// dateField converts a patched date string to a patched instant.
func dateField(f model.Field[string]) (model.Field[time.Time], error) {
	switch {
	case !f.Set:
		return model.Field[time.Time]{}, nil
	case f.Null:
		return model.Null[time.Time](), nil
	}
	t, err := parseDate(f.Value)
	if err != nil {
		return model.Field[time.Time]{}, err
	}
	return model.Some(t), nil
}

// userIDBody is the {userId} payload of participant and assignment calls.
type userIDBody struct {
	UserID string `json:"userId" validate:"required"`
}
