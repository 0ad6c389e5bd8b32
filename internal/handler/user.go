package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/service"
)

// UserHandler serves provider-backed registration and the admin user
// operations.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(u *service.UserService) *UserHandler {
	return &UserHandler{Users: u}
}

type providerRegisterReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin"`
}

type roleReq struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type notificationsReq struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// userSummary is the public projection of a user returned by this handler.
type userSummary struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Role                 model.Role `json:"role"`
	IsActive             bool       `json:"isActive"`
	NotificationsEnabled bool       `json:"notificationsEnabled"`
}

func summarize(u *model.User) userSummary {
	return userSummary{
		ID:                   u.ID,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Role:                 u.Role,
		IsActive:             u.IsActive,
		NotificationsEnabled: u.NotificationsEnabled,
	}
}

func (h *UserHandler) Register(c echo.Context) error {
	var req providerRegisterReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.RegisterUser(ctx, service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      model.Role(req.Role),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User created successfully", "user": summarize(u)})
}

func (h *UserHandler) Profile(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetUserByID(ctx, p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, summarize(u))
}

// SetNotifications toggles the caller's email opt-in.
func (h *UserHandler) SetNotifications(c echo.Context) error {
	p, err := caller(c)
	if err != nil {
		return respondError(c, err)
	}
	var req notificationsReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.SetNotifications(ctx, p.UserID, *req.Enabled)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, summarize(u))
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	users, err := h.Users.GetAllUsers(ctx)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]userSummary, 0, len(users))
	for i := range users {
		out = append(out, summarize(&users[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req roleReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.UpdateUserRole(ctx, c.Param("id"), model.Role(req.Role))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User role updated successfully", "user": summarize(u)})
}

func (h *UserHandler) Activate(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.ActivateUser(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User activated successfully", "user": summarize(u)})
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.DeactivateUser(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deactivated successfully", "user": summarize(u)})
}
