package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/services"
)

// MarketingHandler manages promotional ads and the platform settings.
type MarketingHandler struct {
	catalog *services.CatalogService
}

// NewMarketingHandler constructs MarketingHandler.
func NewMarketingHandler(catalog *services.CatalogService) *MarketingHandler {
	return &MarketingHandler{catalog: catalog}
}

// Ads

func (h *MarketingHandler) ListAds(c *fiber.Ctx) error {
	ads, err := h.catalog.Ads(c.UserContext(), true)
	if err != nil {
		return err
	}
	return ok(c, ads)
}

func (h *MarketingHandler) AdminListAds(c *fiber.Ctx) error {
	ads, err := h.catalog.Ads(c.UserContext(), false)
	if err != nil {
		return err
	}
	return ok(c, ads)
}

type adRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Image       *string    `json:"image"`
	Link        *string    `json:"link"`
	Discount    *string    `json:"discount"`
	ValidUntil  *time.Time `json:"validUntil"`
	IsActive    *bool      `json:"isActive"`
	SortOrder   *int       `json:"sortOrder"`
}

func (r adRequest) input() services.AdInput {
	return services.AdInput{
		Title:       r.Title,
		Description: r.Description,
		Image:       r.Image,
		Link:        r.Link,
		Discount:    r.Discount,
		ValidUntil:  r.ValidUntil,
		IsActive:    r.IsActive,
		SortOrder:   r.SortOrder,
	}
}

func (h *MarketingHandler) CreateAd(c *fiber.Ctx) error {
	var req adRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Title == nil || *req.Title == "" {
		return errs.NewValidation("Validation failed", map[string]string{"title": "title is required"})
	}

	ad, err := h.catalog.CreateAd(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Ad created successfully", ad)
}

func (h *MarketingHandler) UpdateAd(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "ad")
	if err != nil {
		return err
	}
	var req adRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	ad, err := h.catalog.UpdateAd(c.UserContext(), id, req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Ad updated successfully", ad)
}

func (h *MarketingHandler) DeleteAd(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "ad")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteAd(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Settings

func (h *MarketingHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.catalog.Settings(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, settings)
}

func (h *MarketingHandler) UpdateSettings(c *fiber.Ctx) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req services.SettingsInput
	if err := decode(c, &req); err != nil {
		return err
	}

	settings, err := h.catalog.UpdateSettings(c.UserContext(), adminID, req)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Settings updated successfully", settings)
}
