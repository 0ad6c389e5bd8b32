package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/service"
)

// MailHandler serves ad-hoc mail for signed-in callers and password resets.
type MailHandler struct {
	Mail *service.MailService
}

func NewMailHandler(m *service.MailService) *MailHandler {
	return &MailHandler{Mail: m}
}

type emailReq struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

type resetReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *MailHandler) SendEmail(c echo.Context) error {
	var req emailReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	err := h.Mail.SendEmail(ctx, service.EmailInput{To: req.To, Subject: req.Subject, Text: req.Text, HTML: req.HTML})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// PasswordReset answers the same way whether or not the account exists.
func (h *MailHandler) PasswordReset(c echo.Context) error {
	var req resetReq
	if err := bindJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Mail.SendPasswordReset(ctx, req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "If the account exists, a password reset email has been sent"})
}
