package handlers

import (
	"context"
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

// ProductHandler serves listings for buyers and sellers.
type ProductHandler struct {
	products *services.ProductService
	catalog  *services.CatalogService
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(products *services.ProductService, catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{products: products, catalog: catalog}
}

// productFilter turns validated query params into a repository filter. An
// unknown category yields ok=false so the caller can answer with no results.
func (h *ProductHandler) productFilter(c *fiber.Ctx, params map[string]any) (repository.ProductFilter, utils.Pagination, bool, error) {
	pg := utils.PaginationFrom(params)
	filter := repository.ProductFilter{
		MinPrice:   floatParam(params, "minPrice"),
		MaxPrice:   floatParam(params, "maxPrice"),
		Location:   stringParam(params, "location"),
		Condition:  stringParam(params, "condition"),
		StockLevel: stringParam(params, "availability"),
		SortBy:     stringParam(params, "sortBy"),
		Offset:     pg.Offset,
		Limit:      pg.Limit,
	}

	if ref := strings.TrimSpace(stringParam(params, "category")); ref != "" {
		category, err := h.catalog.Category(c.UserContext(), ref)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return filter, pg, false, nil
			}
			return filter, pg, false, err
		}
		filter.CategoryID = &category.ID
	}
	return filter, pg, true, nil
}

// List returns purchasable listings.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	params, err := validQuery(c, validation.ValidateProductQuery, "Invalid query parameters")
	if err != nil {
		return err
	}
	filter, pg, found, err := h.productFilter(c, params)
	if err != nil {
		return err
	}
	if !found {
		return paginated(c, []models.PublicProduct{}, pg.Meta(0))
	}

	products, total, err := h.products.List(c.UserContext(), filter, viewer(c))
	if err != nil {
		return err
	}
	return paginated(c, products, pg.Meta(total))
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	product, err := h.products.Get(c.UserContext(), id, viewer(c))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return err
	}
	return ok(c, product)
}

type productRequest struct {
	Title            *string                 `json:"title"`
	Description      *string                 `json:"description"`
	ShortDescription *string                 `json:"shortDescription"`
	Price            *float64                `json:"price"`
	OriginalPrice    *float64                `json:"originalPrice"`
	MinPrice         *float64                `json:"minPrice"`
	Currency         *string                 `json:"currency"`
	IsNegotiable     *bool                   `json:"isNegotiable"`
	CategoryID       *string                 `json:"categoryId"`
	Tags             []string                `json:"tags"`
	Brand            *string                 `json:"brand"`
	Model            *string                 `json:"model"`
	Condition        *string                 `json:"condition"`
	Quantity         *int                    `json:"quantity"`
	Location         *string                 `json:"location"`
	LocationDetails  *models.ProductLocation `json:"locationDetails"`
	Contact          *models.ProductContact  `json:"contact"`
	Images           []services.ImageInput   `json:"images"`
	AllowOffers      *bool                   `json:"allowOffers"`
	AllowQuestions   *bool                   `json:"allowQuestions"`
	UrgentSale       *bool                   `json:"urgentSale"`
	IsPublic         *bool                   `json:"isPublic"`
	StoreID          *uuid.UUID              `json:"storeId"`
}

func (r productRequest) input() services.ProductInput {
	return services.ProductInput{
		Title:            r.Title,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		Price:            r.Price,
		OriginalPrice:    r.OriginalPrice,
		MinPrice:         r.MinPrice,
		Currency:         r.Currency,
		IsNegotiable:     r.IsNegotiable,
		Category:         r.CategoryID,
		Tags:             r.Tags,
		Brand:            r.Brand,
		Model:            r.Model,
		Condition:        r.Condition,
		Quantity:         r.Quantity,
		Location:         r.Location,
		LocationDetails:  r.LocationDetails,
		Contact:          r.Contact,
		Images:           r.Images,
		AllowOffers:      r.AllowOffers,
		AllowQuestions:   r.AllowQuestions,
		UrgentSale:       r.UrgentSale,
		IsPublic:         r.IsPublic,
		StoreID:          r.StoreID,
	}
}

// Create lists a new product, pending review unless moderation is off.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req productRequest
	if err := bind(c, "product", &req); err != nil {
		return err
	}

	product, err := h.products.Create(c.UserContext(), userID, req.input())
	if err != nil {
		return err
	}

	message := "Product created successfully"
	if product.Moderation.Status == models.ModerationPending {
		message = "Product created successfully and is pending review"
	}
	return respond(c, fiber.StatusCreated, message, product)
}

// Update edits a listing. Only submitted fields change.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	var req productRequest
	if err := bindPartial(c, "product", &req); err != nil {
		return err
	}

	product, err := h.products.Update(c.UserContext(), userID, id, req.input())
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Product updated successfully", product)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.UserContext(), userID, id); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Product deleted successfully", nil)
}

// Mine lists every listing of the current user, in any state.
func (h *ProductHandler) Mine(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	params, err := validQuery(c, validation.ValidateListQuery, "Invalid query parameters")
	if err != nil {
		return err
	}
	pg := utils.PaginationFrom(params)

	products, total, err := h.products.ListMine(c.UserContext(), userID, repository.ProductFilter{
		Query:  stringParam(params, "search"),
		Offset: pg.Offset,
		Limit:  pg.Limit,
	})
	if err != nil {
		return err
	}
	return paginated(c, products, pg.Meta(total))
}

type commentRequest struct {
	Message  string     `json:"message"`
	Type     string     `json:"type"`
	IsPublic *bool      `json:"isPublic"`
	ParentID *uuid.UUID `json:"parentId"`
}

func (h *ProductHandler) Comment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bind(c, "comment", &req); err != nil {
		return err
	}

	comment, err := h.products.Comment(c.UserContext(), userID, id, services.CommentRequest{
		Message:  req.Message,
		Type:     models.CommentType(req.Type),
		IsPublic: req.IsPublic,
		ParentID: req.ParentID,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Comment added successfully", comment)
}

type offerRequest struct {
	Amount  float64 `json:"amount"`
	Message string  `json:"message"`
}

func (h *ProductHandler) Offer(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	var req offerRequest
	if err := bind(c, "offer", &req); err != nil {
		return err
	}

	offer, err := h.products.Offer(c.UserContext(), userID, id, req.Amount, req.Message)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, "Offer sent successfully", offer)
}

type soldRequest struct {
	BuyerID    *uuid.UUID `json:"buyerId"`
	FinalPrice *float64   `json:"finalPrice"`
}

func (h *ProductHandler) MarkSold(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	var req soldRequest
	if err := decode(c, &req); err != nil {
		return err
	}

	product, err := h.products.MarkSold(c.UserContext(), userID, id, req.BuyerID, req.FinalPrice)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Product marked as sold", product)
}

type availabilityChange func(ctx context.Context, userID, id uuid.UUID) (*models.Product, error)

func (h *ProductHandler) changeAvailability(c *fiber.Ctx, change availabilityChange, message string) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	product, err := change(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, message, product)
}

func (h *ProductHandler) Reserve(c *fiber.Ctx) error {
	return h.changeAvailability(c, h.products.Reserve, "Product reserved")
}

// Release returns a reserved or pending listing to sale.
func (h *ProductHandler) Release(c *fiber.Ctx) error {
	return h.changeAvailability(c, h.products.Release, "Product is available again")
}

func (h *ProductHandler) MarkPending(c *fiber.Ctx) error {
	return h.changeAvailability(c, h.products.MarkPending, "Product marked as pending sale")
}

func (h *ProductHandler) Flag(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return errs.NewValidation("Validation failed", map[string]string{"reason": "reason is required"})
	}

	if err := h.products.Flag(c.UserContext(), userID, id, req.Reason); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Product reported. Our team will review it shortly.", nil)
}

func (h *ProductHandler) search(c *fiber.Ctx, query string, params map[string]any) error {
	filter, pg, found, err := h.productFilter(c, params)
	if err != nil {
		return err
	}

	results := []models.PublicProduct{}
	var total int64
	if found {
		if results, total, err = h.products.Search(c.UserContext(), query, filter, viewer(c)); err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"query":   query,
			"results": results,
			"count":   len(results),
		},
		"pagination": pg.Meta(total),
	})
}

// Search answers GET /api/search?q=...
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	params, err := validQuery(c, validation.ValidateSearchQuery, "Invalid search query")
	if err != nil {
		return err
	}
	return h.search(c, stringParam(params, "q"), params)
}

// SearchBody answers POST /api/search with {"q": ...}.
func (h *ProductHandler) SearchBody(c *fiber.Ctx) error {
	var req struct {
		Q string `json:"q"`
	}
	if err := bind(c, "search", &req); err != nil {
		return err
	}
	return h.search(c, req.Q, map[string]any{})
}
