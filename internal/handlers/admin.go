package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/middleware"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
	"github.com/example/bazzarly/internal/services"
	"github.com/example/bazzarly/internal/utils"
	"github.com/example/bazzarly/internal/validation"
)

// AdminHandler serves the admin console.
type AdminHandler struct {
	svc   *services.Services
	users repository.UserRepository
	log   *zap.Logger
}

// NewAdminHandler constructs AdminHandler. users resolves the acting admin.
func NewAdminHandler(svc *services.Services, users repository.UserRepository, log *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, users: users, log: log}
}

// Dashboard returns the overview for ?range=7d|30d|90d|1y.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.svc.Stats.Dashboard(c.UserContext(), c.Query("range", "30d"))
	if err != nil {
		return err
	}
	return ok(c, dashboard)
}

// Analytics returns ?type=users|stores|products, or the overview otherwise.
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	report, err := h.svc.Stats.Analytics(c.UserContext(), c.Query("type"), c.Query("range", "30d"))
	if err != nil {
		return err
	}
	return ok(c, report)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	params, err := validQuery(c, validation.ValidateListQuery, "Invalid query parameters")
	if err != nil {
		return err
	}
	pg := utils.PaginationFrom(params)

	users, total, err := h.svc.Users.List(c.UserContext(), repository.UserFilter{
		Search: stringParam(params, "search"),
		Role:   strings.TrimSpace(c.Query("role")),
		Status: strings.TrimSpace(c.Query("status")),
		Offset: pg.Offset,
		Limit:  pg.Limit,
	})
	if err != nil {
		return err
	}
	return paginated(c, users, pg.Meta(total))
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "user")
	if err != nil {
		return err
	}
	detail, err := h.svc.Users.Detail(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, detail)
}

type adminUserRequest struct {
	Status           *string  `json:"status"`
	Role             *string  `json:"role"`
	Permissions      []string `json:"permissions"`
	SuspensionReason *string  `json:"suspensionReason"`
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "user")
	if err != nil {
		return err
	}
	var req adminUserRequest
	if err := bind(c, "adminUserUpdate", &req); err != nil {
		return err
	}
	actor, err := middleware.CurrentUser(c, h.users)
	if err != nil {
		return err
	}

	in := services.AdminUserUpdate{
		Permissions:      req.Permissions,
		SuspensionReason: req.SuspensionReason,
	}
	if req.Status != nil {
		status := models.UserStatus(*req.Status)
		in.Status = &status
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		in.Role = &role
	}

	user, err := h.svc.Users.AdminUpdate(c.UserContext(), actor, id, in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "User updated successfully", user)
}

func (h *AdminHandler) ListStores(c *fiber.Ctx) error {
	params, err := validQuery(c, validation.ValidateListQuery, "Invalid query parameters")
	if err != nil {
		return err
	}
	pg := utils.PaginationFrom(params)

	stores, total, err := h.svc.Stores.AdminList(c.UserContext(), repository.StoreFilter{
		Search:   stringParam(params, "search"),
		Status:   strings.TrimSpace(c.Query("status")),
		Category: strings.TrimSpace(c.Query("category")),
		Offset:   pg.Offset,
		Limit:    pg.Limit,
	})
	if err != nil {
		return err
	}
	return paginated(c, stores, pg.Meta(total))
}

func (h *AdminHandler) SetStoreStatus(c *fiber.Ctx) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "store")
	if err != nil {
		return err
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(c, &req); err != nil {
		return err
	}

	store, err := h.svc.Stores.SetStatus(c.UserContext(), adminID, id, models.StoreStatus(req.Status))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Store status updated successfully", store)
}

func (h *AdminHandler) VerifyStore(c *fiber.Ctx) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "store")
	if err != nil {
		return err
	}
	req := struct {
		Verified *bool `json:"verified"`
	}{}
	if err := decode(c, &req); err != nil {
		return err
	}
	verified := req.Verified == nil || *req.Verified

	store, err := h.svc.Stores.Verify(c.UserContext(), adminID, id, verified)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, "Store verification updated successfully", store)
}

// ListProducts filters by ?status (moderation), ?sellerType and ?flagged=true.
func (h *AdminHandler) ListProducts(c *fiber.Ctx) error {
	params, err := validQuery(c, validation.ValidateListQuery, "Invalid query parameters")
	if err != nil {
		return err
	}
	pg := utils.PaginationFrom(params)

	products, total, err := h.svc.Products.AdminList(c.UserContext(), repository.ProductFilter{
		Query:      stringParam(params, "search"),
		Moderation: strings.TrimSpace(c.Query("status")),
		SellerType: strings.TrimSpace(c.Query("sellerType")),
		Flagged:    c.QueryBool("flagged"),
		Offset:     pg.Offset,
		Limit:      pg.Limit,
	})
	if err != nil {
		return err
	}
	return paginated(c, products, pg.Meta(total))
}

type moderationRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// ModerateProduct approves or rejects a pending or flagged listing.
func (h *AdminHandler) ModerateProduct(c *fiber.Ctx) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	var req moderationRequest
	if err := bind(c, "moderation", &req); err != nil {
		return err
	}

	product, err := h.svc.Products.Moderate(c.UserContext(), adminID, id, req.Action, req.Reason)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fmt.Sprintf("Product %sd successfully", req.Action), product)
}
