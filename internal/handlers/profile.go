package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/services"
)

// ProfileHandler serves the signed-in user's own account.
type ProfileHandler struct {
	users *services.UserService
}

func NewProfileHandler(users *services.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.users.Profile(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"user": user})
}

type profileRequest struct {
	FirstName *string              `json:"firstName"`
	LastName  *string              `json:"lastName"`
	Phone     *string              `json:"phone"`
	Avatar    *string              `json:"avatar"`
	Bio       *string              `json:"bio"`
	Location  *models.UserLocation `json:"location"`
}

// Update edits profile fields. Email, role and status are not editable here.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := bindPartial(c, "profile", &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.UserContext(), id, services.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Avatar:    req.Avatar,
		Bio:       req.Bio,
		Location:  req.Location,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Profile updated successfully", fiber.Map{"user": user})
}

type preferencesRequest struct {
	Notifications *models.NotificationPreferences `json:"notifications"`
	Privacy       *models.PrivacyPreferences      `json:"privacy"`
	Language      *string                         `json:"language"`
	Currency      *string                         `json:"currency"`
}

func (h *ProfileHandler) UpdatePreferences(c *fiber.Ctx) error {
	id, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req preferencesRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdatePreferences(c.UserContext(), id, services.PreferencesInput{
		Notifications: req.Notifications,
		Privacy:       req.Privacy,
		Language:      req.Language,
		Currency:      req.Currency,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Preferences updated successfully", fiber.Map{"user": user})
}
