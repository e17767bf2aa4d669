package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository/memory"
	"github.com/example/bazzarly/internal/utils"
)

const secret = "middleware-secret"

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(errs.StatusCode(err)).SendString(err.Error())
		},
	})
}

func get(t *testing.T, app *fiber.App, header string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func token(t *testing.T, id uuid.UUID, role models.Role, issued time.Time) string {
	t.Helper()
	tok, err := utils.GenerateToken(secret, id, string(role), time.Hour, issued)
	require.NoError(t, err)
	return tok
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   error
	}{
		{"", errs.ErrUnauthorized},
		{"Token abc", errs.ErrInvalidToken},
		{"Bearer ", errs.ErrInvalidToken},
		{"bearer abc", nil},
	}
	for _, tc := range cases {
		app := fiber.New()
		var got error
		app.Get("/", func(c *fiber.Ctx) error {
			_, got = bearerToken(c)
			return nil
		})
		get(t, app, tc.header)
		if tc.want == nil {
			assert.NoError(t, got, tc.header)
		} else {
			assert.True(t, errors.Is(got, tc.want), tc.header)
		}
	}
}

func TestRequireAuth(t *testing.T) {
	id := uuid.New()
	app := newApp()
	app.Get("/", RequireAuth(secret, zap.NewNop()), func(c *fiber.Ctx) error {
		uid, ok := GetCurrentUserID(c)
		require.True(t, ok)
		return c.SendString(uid.String() + " " + string(GetCurrentRole(c)))
	})

	status, body := get(t, app, "Bearer "+token(t, id, models.RoleStoreOwner, time.Now()))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, id.String()+" store_owner", body)

	status, _ = get(t, app, "Bearer "+token(t, id, models.RoleUser, time.Now().Add(-2*time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = get(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestOptionalAuthContinuesAnonymously(t *testing.T) {
	app := newApp()
	app.Get("/", OptionalAuth(secret), func(c *fiber.Ctx) error {
		if _, ok := GetCurrentUserID(c); ok {
			return c.SendString("user")
		}
		return c.SendString("anonymous")
	})

	_, body := get(t, app, "Bearer not-a-token")
	assert.Equal(t, "anonymous", body)

	_, body = get(t, app, "Bearer "+token(t, uuid.New(), models.RoleUser, time.Now()))
	assert.Equal(t, "user", body)
}

func TestRequirePermission(t *testing.T) {
	repos := memory.New(models.DefaultRules(), time.Now).Repositories()
	store := func(role models.Role, status models.UserStatus) *models.User {
		u := models.NewUser("Staff", "Member", uuid.NewString()+"@example.com", "", models.RoleUser, time.Now())
		u.Role = role
		u.Status = status
		require.NoError(t, repos.Users.Create(context.Background(), u))
		return u
	}

	app := newApp()
	app.Get("/", RequireAuth(secret, zap.NewNop()), RequirePermission(repos.Users, models.PermManageUsers, zap.NewNop()),
		func(c *fiber.Ctx) error {
			user, err := CurrentUser(c, repos.Users)
			require.NoError(t, err)
			return c.SendString(user.Email)
		})

	admin := store(models.RoleAdmin, models.UserActive)
	status, body := get(t, app, "Bearer "+token(t, admin.ID, admin.Role, time.Now()))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, admin.Email, body)

	plain := store(models.RoleUser, models.UserActive)
	status, _ = get(t, app, "Bearer "+token(t, plain.ID, plain.Role, time.Now()))
	assert.Equal(t, http.StatusForbidden, status)

	suspended := store(models.RoleAdmin, models.UserSuspended)
	status, body = get(t, app, "Bearer "+token(t, suspended.ID, suspended.Role, time.Now()))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, errs.ErrAccountInactive.Error(), body)

	status, _ = get(t, app, "Bearer "+token(t, uuid.New(), models.RoleAdmin, time.Now()))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRequireActive(t *testing.T) {
	repos := memory.New(models.DefaultRules(), time.Now).Repositories()
	u := models.NewUser("Sam", "Seller", "sam@example.com", "", models.RoleUser, time.Now())
	u.Status = models.UserActive
	require.NoError(t, repos.Users.Create(context.Background(), u))

	app := newApp()
	app.Get("/", RequireAuth(secret, zap.NewNop()), RequireActive(repos.Users, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	header := "Bearer " + token(t, u.ID, u.Role, time.Now())

	status, body := get(t, app, header)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)

	u.Status = models.UserBanned
	require.NoError(t, repos.Users.Update(context.Background(), u))

	status, body = get(t, app, header)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, errs.ErrAccountInactive.Error(), body)
}

func TestRateLimit(t *testing.T) {
	app := newApp()
	app.Get("/", RateLimit("test", 1, time.Minute, "slow down", zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	status, _ := get(t, app, "")
	assert.Equal(t, http.StatusOK, status)
	status, body := get(t, app, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, body, "slow down")
}
