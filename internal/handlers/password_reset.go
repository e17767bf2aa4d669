package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/services"
)

const resetRequestedMessage = "If an account exists with this email/phone, you will receive reset instructions"

// PasswordResetHandler serves the forgot/reset password flow.
type PasswordResetHandler struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewPasswordResetHandler(auth *services.AuthService, log *zap.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{auth: auth, log: log}
}

// ForgotPassword answers the same way whether or not the account exists. The
// token is handed to the delivery channel, never to the caller.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email or phone number is required")
	}

	token, err := h.auth.ForgotPassword(c.UserContext(), identifier)
	if err != nil {
		return err
	}
	if token != "" {
		h.log.Debug("password reset token issued", zap.Int("tokenLength", len(token)))
	}
	return respond(c, fiber.StatusOK, resetRequestedMessage, nil)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := bind(c, "resetPassword", &req); err != nil {
		return err
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Password reset successfully", nil)
}
