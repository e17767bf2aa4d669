package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/services"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
	log  *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

func sessionBody(s *services.Session) fiber.Map {
	return fiber.Map{
		"user":      s.User,
		"token":     s.Token,
		"expiresIn": int64(s.ExpiresIn.Seconds()),
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, "user", &req); err != nil {
		return err
	}

	session, err := h.auth.Register(c.UserContext(), services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		Role:      models.Role(req.Role),
	})
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated,
		"Registration successful. Please verify your email and phone number.",
		sessionBody(session))
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Login authenticates with an email or phone number.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := bind(c, "login", &req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), strings.TrimSpace(req.Identifier), req.Password)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Login successful", sessionBody(session))
}

// Logout is stateless; clients discard the token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if id, err := currentUserID(c); err == nil {
		h.log.Info("user logged out", zap.String("userId", id.String()))
	}
	return respond(c, fiber.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Me(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"user": user})
}

// Refresh trades a valid token for a new one.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	session, err := h.auth.Refresh(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Token refreshed successfully", fiber.Map{
		"token":     session.Token,
		"expiresIn": int64(session.ExpiresIn.Seconds()),
	})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Token == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Verification token is required")
	}

	user, err := h.auth.VerifyEmail(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Email verified successfully", fiber.Map{"user": user})
}

func (h *AuthHandler) VerifyPhone(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Phone == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Phone number and verification code are required")
	}

	user, err := h.auth.VerifyPhone(c.UserContext(), strings.TrimSpace(req.Phone), strings.TrimSpace(req.Code))
	if err != nil {
		if errors.Is(err, errs.ErrInvalidVerification) {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid phone number or verification code")
		}
		return err
	}
	return respond(c, fiber.StatusOK, "Phone number verified successfully", fiber.Map{"user": user})
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Email is required")
	}

	if err := h.auth.ResendEmailVerification(c.UserContext(), req.Email); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Verification email sent successfully", nil)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bind(c, "changePassword", &req); err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.UserContext(), id, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Password changed successfully", nil)
}
