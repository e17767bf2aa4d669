package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/logging"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
	"github.com/example/bazzarly/internal/utils"
)

const (
	userContextKey = "currentUserID"
	roleContextKey = "currentUserRole"
	userRecordKey  = "currentUser"
)

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", errs.ErrUnauthorized
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errs.ErrInvalidToken
	}
	return parts[1], nil
}

// RequireAuth validates the bearer token and loads the user id and role into context.
func RequireAuth(secret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return err
		}

		userID, role, err := utils.ParseToken(secret, token)
		if err != nil {
			logging.Security(log, "invalid token", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return errs.ErrInvalidToken
		}

		c.Locals(userContextKey, userID)
		c.Locals(roleContextKey, models.Role(role))
		return c.Next()
	}
}

// OptionalAuth loads the user when a valid token is present and carries on
// anonymously otherwise.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return c.Next()
		}
		if userID, role, err := utils.ParseToken(secret, token); err == nil {
			c.Locals(userContextKey, userID)
			c.Locals(roleContextKey, models.Role(role))
		}
		return c.Next()
	}
}

// RequireActive rejects tokens whose account has since been suspended, banned
// or otherwise deactivated. It must run after RequireAuth.
func RequireActive(users repository.UserRepository, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := loadUser(c, users)
		if err != nil {
			return err
		}
		if user.Status != models.UserActive {
			logging.Security(log, "inactive account write rejected",
				zap.String("userId", user.ID.String()),
				zap.String("status", string(user.Status)),
				zap.String("path", c.Path()),
			)
			return errs.ErrAccountInactive
		}
		return c.Next()
	}
}

// RequirePermission loads the authenticated user and rejects accounts that are
// not active or lack perm. It must run after RequireAuth.
func RequirePermission(users repository.UserRepository, perm models.Permission, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := loadUser(c, users)
		if err != nil {
			return err
		}
		if user.Status != models.UserActive {
			return errs.ErrAccountInactive
		}
		if !user.HasPermission(perm) {
			logging.Security(log, "permission denied",
				zap.String("userId", user.ID.String()),
				zap.String("permission", string(perm)),
				zap.String("path", c.Path()),
			)
			return errs.ErrForbidden
		}
		return c.Next()
	}
}

func loadUser(c *fiber.Ctx, users repository.UserRepository) (*models.User, error) {
	if user, ok := c.Locals(userRecordKey).(*models.User); ok {
		return user, nil
	}
	id, ok := GetCurrentUserID(c)
	if !ok {
		return nil, errs.ErrUnauthorized
	}
	user, err := users.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", errs.ErrInvalidToken)
		}
		return nil, err
	}
	c.Locals(userRecordKey, user)
	return user, nil
}

// CurrentUser returns the account loaded by RequirePermission, or loads it.
func CurrentUser(c *fiber.Ctx, users repository.UserRepository) (*models.User, error) {
	return loadUser(c, users)
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	if id, ok := c.Locals(userContextKey).(uuid.UUID); ok {
		return id, true
	}
	return uuid.Nil, false
}

// GetCurrentRole returns the role carried by the token.
func GetCurrentRole(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(roleContextKey).(models.Role)
	return role
}
