package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/services"
)

// CatalogHandler manages categories.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories returns active categories with their listing counts.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.Categories(c.UserContext(), true)
	if err != nil {
		return err
	}
	return ok(c, categories)
}

// AdminListCategories includes inactive categories.
func (h *CatalogHandler) AdminListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.Categories(c.UserContext(), false)
	if err != nil {
		return err
	}
	return ok(c, categories)
}

// GetCategory accepts an id or a slug.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	category, err := h.catalog.Category(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Category not found")
		}
		return err
	}
	return ok(c, category)
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	ParentID    *string `json:"parentId"`
	SortOrder   *int    `json:"sortOrder"`
	IsActive    *bool   `json:"isActive"`
}

func (r categoryRequest) input() services.CategoryInput {
	return services.CategoryInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Icon:        r.Icon,
		ParentID:    r.ParentID,
		SortOrder:   r.SortOrder,
		IsActive:    r.IsActive,
	}
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := decode(c, &req); err != nil {
		return err
	}
	if req.Name == nil || *req.Name == "" {
		return errs.NewValidation("Validation failed", map[string]string{"name": "name is required"})
	}

	category, err := h.catalog.CreateCategory(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Category created successfully", category)
}

func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "category")
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	category, err := h.catalog.UpdateCategory(c.UserContext(), id, req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Category updated successfully", category)
}

func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "category")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
