package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
	"github.com/example/bazzarly/internal/services"
	"github.com/example/bazzarly/internal/utils"
	"github.com/example/bazzarly/internal/validation"
)

// StoreHandler serves storefronts and store management.
type StoreHandler struct {
	stores *services.StoreService
}

func NewStoreHandler(stores *services.StoreService) *StoreHandler {
	return &StoreHandler{stores: stores}
}

type storeRequest struct {
	Name               *string                      `json:"name"`
	Description        *string                      `json:"description"`
	Tagline            *string                      `json:"tagline"`
	Email              *string                      `json:"email"`
	Phone              *string                      `json:"phone"`
	Website            *string                      `json:"website"`
	SocialMedia        *models.SocialLinks          `json:"socialMedia"`
	BusinessType       *string                      `json:"businessType"`
	BusinessCategory   *string                      `json:"businessCategory"`
	SubCategory        *string                      `json:"subCategory"`
	TaxID              *string                      `json:"taxId"`
	BusinessLicense    *string                      `json:"businessLicense"`
	RegistrationNumber *string                      `json:"registrationNumber"`
	EstablishedYear    *int                         `json:"establishedYear"`
	Branding           *models.StoreBranding        `json:"branding"`
	Policies           *models.StorePolicies        `json:"policies"`
	Settings           *services.StoreSettingsInput `json:"settings"`
	Addresses          []models.StoreAddress        `json:"addresses"`
	Hours              []models.StoreHours          `json:"hours"`
	Deals              []models.StoreDeal           `json:"deals"`
}

func (r storeRequest) input() services.StoreInput {
	return services.StoreInput{
		Name:               r.Name,
		Description:        r.Description,
		Tagline:            r.Tagline,
		Email:              r.Email,
		Phone:              r.Phone,
		Website:            r.Website,
		SocialMedia:        r.SocialMedia,
		BusinessType:       r.BusinessType,
		BusinessCategory:   r.BusinessCategory,
		SubCategory:        r.SubCategory,
		TaxID:              r.TaxID,
		BusinessLicense:    r.BusinessLicense,
		RegistrationNumber: r.RegistrationNumber,
		EstablishedYear:    r.EstablishedYear,
		Branding:           r.Branding,
		Policies:           r.Policies,
		Settings:           r.Settings,
		Addresses:          r.Addresses,
		Hours:              r.Hours,
		Deals:              r.Deals,
	}
}

// Create opens a store for the current user. New stores wait for approval.
func (h *StoreHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req storeRequest
	if err := bind(c, "store", &req); err != nil {
		return err
	}

	store, err := h.stores.Create(c.UserContext(), userID, req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Store created successfully and is pending approval", store)
}

func (h *StoreHandler) List(c *fiber.Ctx) error {
	params, err := validQuery(c, validation.ValidateListQuery, "Invalid query parameters")
	if err != nil {
		return err
	}
	pg := utils.PaginationFrom(params)

	stores, total, err := h.stores.List(c.UserContext(), repository.StoreFilter{
		Search:   stringParam(params, "search"),
		Category: strings.TrimSpace(c.Query("category")),
		Offset:   pg.Offset,
		Limit:    pg.Limit,
	})
	if err != nil {
		return err
	}
	return paginated(c, stores, pg.Meta(total))
}

// GetBySlug serves the public storefront.
func (h *StoreHandler) GetBySlug(c *fiber.Ctx) error {
	store, err := h.stores.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Store not found")
		}
		return err
	}
	return ok(c, store)
}

func (h *StoreHandler) Manage(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "store")
	if err != nil {
		return err
	}
	store, err := h.stores.Manage(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return ok(c, store)
}

func (h *StoreHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "store")
	if err != nil {
		return err
	}
	var req storeRequest
	if err := bindPartial(c, "store", &req); err != nil {
		return err
	}

	store, err := h.stores.Update(c.UserContext(), userID, id, req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Store updated successfully", store)
}

type storeAdminRequest struct {
	UserID      uuid.UUID `json:"userId"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
}

func (h *StoreHandler) AddAdmin(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "store")
	if err != nil {
		return err
	}
	var req storeAdminRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.UserID == uuid.Nil {
		return errs.NewValidation("Validation failed", map[string]string{"userId": "userId is required"})
	}

	perms := make([]models.StorePermission, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		perms = append(perms, models.StorePermission(p))
	}
	store, err := h.stores.AddAdmin(c.UserContext(), userID, id, services.StoreAdminInput{
		UserID:      req.UserID,
		Role:        models.StoreAdminRole(req.Role),
		Permissions: perms,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Store admin added successfully", store)
}

func (h *StoreHandler) RemoveAdmin(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "store")
	if err != nil {
		return err
	}
	adminID, err := pathID(c, "userId", "user")
	if err != nil {
		return err
	}

	store, err := h.stores.RemoveAdmin(c.UserContext(), userID, id, adminID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Store admin removed successfully", store)
}
