package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/service"
)

// AuthHandler serves the local password and self-issued token endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin"`
}

func (r registerReq) input() service.RegisterInput {
	return service.RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
		Role:      model.Role(r.Role),
	}
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates a local user and returns it with a token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Auth.Register(ctx, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Profile returns the user behind the bearer token as {"user": ...}.
func (h *AuthHandler) Profile(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Auth.Profile(ctx, p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u})
}

// AdminCheck answers once the role check in front of it has passed.
func (h *AuthHandler) AdminCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Admin access granted"})
}
