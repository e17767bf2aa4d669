package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/events"
	"github.com/example/bazzarly/internal/logging"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

// ProductService implements the listing lifecycle.
type ProductService struct {
	repos repository.Repositories
	opts  Options
}

type ImageInput struct {
	URL       string `json:"url"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"isPrimary"`
}

// ProductInput carries listing fields. Nil fields are left unchanged on update.
// Location is the free-text place shown in listings; LocationDetails adds the
// structured address.
type ProductInput struct {
	Title            *string
	Description      *string
	ShortDescription *string
	Price            *float64
	OriginalPrice    *float64
	MinPrice         *float64
	Currency         *string
	IsNegotiable     *bool
	Category         *string
	Tags             []string
	Brand            *string
	Model            *string
	Condition        *string
	Quantity         *int
	Location         *string
	LocationDetails  *models.ProductLocation
	Contact          *models.ProductContact
	Images           []ImageInput
	AllowOffers      *bool
	AllowQuestions   *bool
	UrgentSale       *bool
	IsPublic         *bool
	StoreID          *uuid.UUID
}

func (s *ProductService) apply(ctx context.Context, p *models.Product, in ProductInput, maxImages int) error {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ShortDescription != nil {
		p.ShortDescription = *in.ShortDescription
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = in.OriginalPrice
	}
	if in.MinPrice != nil {
		p.MinPrice = in.MinPrice
	}
	if in.Currency != nil && *in.Currency != "" {
		p.Currency = strings.ToUpper(*in.Currency)
	}
	if in.IsNegotiable != nil {
		p.IsNegotiable = *in.IsNegotiable
	}
	if in.Category != nil {
		category, err := s.repos.Categories.Resolve(ctx, *in.Category)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return fmt.Errorf("%w: category not found", errs.ErrBadRequest)
			}
			return err
		}
		p.CategoryID = category.ID
		p.Category = category
	}
	if in.Tags != nil {
		tags := make([]string, 0, len(in.Tags))
		for _, t := range in.Tags {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				tags = append(tags, t)
			}
		}
		p.Tags = tags
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.Model != nil {
		p.ModelName = *in.Model
	}
	if in.Condition != nil {
		p.Condition = *in.Condition
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return fmt.Errorf("%w: quantity cannot be negative", errs.ErrBadRequest)
		}
		p.Quantity = *in.Quantity
	}
	if in.LocationDetails != nil {
		p.Location = *in.LocationDetails
	}
	if in.Location != nil {
		p.Location.Label = strings.TrimSpace(*in.Location)
		if p.Location.City == "" {
			p.Location.City = p.Location.Label
		}
	}
	if in.Contact != nil {
		p.Contact = *in.Contact
	}
	if in.Images != nil {
		if maxImages > 0 && len(in.Images) > maxImages {
			return fmt.Errorf("%w: at most %d images per product", errs.ErrBadRequest, maxImages)
		}
		images := make([]models.ProductImage, 0, len(in.Images))
		for _, img := range in.Images {
			if img.URL == "" {
				continue
			}
			images = append(images, models.ProductImage{
				BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: s.opts.Now()},
				ProductID: p.ID,
				URL:       img.URL,
				Alt:       img.Alt,
				IsPrimary: img.IsPrimary,
			})
		}
		p.Images = images
	}
	if in.AllowOffers != nil {
		p.Settings.AllowOffers = *in.AllowOffers
	}
	if in.AllowQuestions != nil {
		p.Settings.AllowQuestions = *in.AllowQuestions
	}
	if in.UrgentSale != nil {
		p.Settings.UrgentSale = *in.UrgentSale
	}
	if in.IsPublic != nil {
		p.Settings.IsPublic = *in.IsPublic
	}
	return nil
}

// Create lists a product for sellerID. Store listings require manage_products
// on the store and count against the store plan; individual listings count
// against the platform limit. Listings skip review when the store auto-approves
// or moderation is switched off.
func (s *ProductService) Create(ctx context.Context, sellerID uuid.UUID, in ProductInput) (*models.Product, error) {
	settings, err := s.repos.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	seller, err := s.repos.Users.FindByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	title := ""
	if in.Title != nil {
		title = *in.Title
	}
	product := models.NewProduct(sellerID, title, now)
	product.Currency = settings.Payments.DefaultCurrency

	var store *models.Store
	if in.StoreID != nil {
		if store, err = s.repos.Stores.FindByID(ctx, *in.StoreID); err != nil {
			return nil, err
		}
		if !store.CanUserManage(sellerID, string(models.StoreManageProducts)) {
			return nil, fmt.Errorf("%w: you cannot list products for this store", errs.ErrForbidden)
		}
		if store.Status != models.StoreActive || !store.Settings.IsActive {
			return nil, fmt.Errorf("%w: store is not active", errs.ErrForbidden)
		}
		count, err := s.repos.Products.CountByStore(ctx, store.ID)
		if err != nil {
			return nil, err
		}
		if limit := store.Subscription.Limits.Products; limit > 0 && count >= int64(limit) {
			return nil, fmt.Errorf("%w: the %s plan allows %d products", errs.ErrLimitReached, store.Subscription.Plan, limit)
		}
		product.SellerType = models.SellerStore
		product.StoreID = &store.ID
	} else {
		count, err := s.repos.Products.CountBySeller(ctx, sellerID)
		if err != nil {
			return nil, err
		}
		if limit := settings.Limits.MaxProductsPerUser; count >= int64(limit) {
			return nil, fmt.Errorf("%w: at most %d products per user", errs.ErrLimitReached, limit)
		}
	}

	if err := s.apply(ctx, product, in, settings.Limits.MaxImagesPerProduct); err != nil {
		return nil, err
	}

	if !settings.Features.ProductModeration || (store != nil && store.Settings.AutoApproveProducts) {
		product.Moderation.Status = models.ModerationApproved
		product.Moderation.ApprovedAt = &now
	}

	if err := s.repos.Products.Create(ctx, product); err != nil {
		return nil, err
	}

	logging.Business(s.opts.Log, "product created",
		zap.String("productId", product.ID.String()),
		zap.String("sellerId", sellerID.String()),
		zap.Float64("price", product.Price),
		zap.String("moderation", string(product.Moderation.Status)),
	)
	s.opts.Events.Publish(ctx, product.ID.String(), events.ProductCreated, map[string]any{
		"productId":  product.ID,
		"sellerId":   sellerID,
		"sellerType": product.SellerType,
		"categoryId": product.CategoryID,
		"price":      product.Price,
	})

	if product.Moderation.Status == models.ModerationPending {
		s.opts.Notifier.NotifyPendingProduct(ctx, s.notification(product, seller, store))
	}
	return product, nil
}

func (s *ProductService) notification(p *models.Product, seller *models.User, store *models.Store) ProductNotification {
	n := ProductNotification{
		ProductID:  p.ID.String(),
		Title:      p.Title,
		Price:      p.Price,
		Currency:   p.Currency,
		SellerType: string(p.SellerType),
	}
	switch {
	case store != nil:
		n.SellerName = store.Name
	case seller != nil:
		n.SellerName = seller.FullName()
	}
	return n
}

// Viewer identifies who is looking at a listing. A nil *Viewer is anonymous.
type Viewer struct {
	ID   uuid.UUID
	Role models.Role
}

func (v *Viewer) id() *uuid.UUID {
	if v == nil {
		return nil
	}
	return &v.ID
}

func (v *Viewer) staff() bool {
	return v != nil && (v.Role == models.RoleAdmin || v.Role == models.RoleSuperAdmin)
}

// Get records a view and returns the projection for viewer. Listings that are
// not approved or not public are visible only to the seller and staff.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID, viewer *Viewer) (*models.PublicProduct, error) {
	product, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	owner := viewer != nil && viewer.ID == product.SellerID
	visible := product.Moderation.Status == models.ModerationApproved && product.Settings.IsPublic
	if !visible && !owner && !viewer.staff() {
		return nil, fmt.Errorf("%w: product not found", errs.ErrNotFound)
	}

	now := s.opts.Now()
	if err := s.repos.Products.AddView(ctx, id, viewer.id(), now); err != nil {
		return nil, err
	}
	product.AddView(viewer.id(), now)

	s.opts.Events.Publish(ctx, id.String(), events.ProductViewed, map[string]any{
		"productId": id,
		"viewerId":  viewer.id(),
	})

	out := product.ToPublicJSON(viewer.id(), now)
	return &out, nil
}

func (s *ProductService) project(products []models.Product, viewer *Viewer) []models.PublicProduct {
	now := s.opts.Now()
	out := make([]models.PublicProduct, 0, len(products))
	for i := range products {
		out = append(out, products[i].ToPublicJSON(viewer.id(), now))
	}
	return out
}

// List returns purchasable listings matching filter.
func (s *ProductService) List(ctx context.Context, filter repository.ProductFilter, viewer *Viewer) ([]models.PublicProduct, int64, error) {
	filter.PublicOnly = true
	filter.Now = s.opts.Now()
	products, total, err := s.repos.Products.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return s.project(products, viewer), total, nil
}

// Search is List over a free-text query.
func (s *ProductService) Search(ctx context.Context, query string, filter repository.ProductFilter, viewer *Viewer) ([]models.PublicProduct, int64, error) {
	filter.Query = strings.TrimSpace(query)
	results, total, err := s.List(ctx, filter, viewer)
	if err != nil {
		return nil, 0, err
	}

	logging.Business(s.opts.Log, "search performed",
		zap.String("query", filter.Query),
		zap.Int64("results", total),
	)
	s.opts.Events.Publish(ctx, "", events.SearchPerformed, map[string]any{
		"query":    filter.Query,
		"results":  total,
		"viewerId": viewer.id(),
	})
	return results, total, nil
}

// ListMine returns every listing of sellerID regardless of state.
func (s *ProductService) ListMine(ctx context.Context, sellerID uuid.UUID, filter repository.ProductFilter) ([]models.Product, int64, error) {
	filter.SellerID = &sellerID
	filter.PublicOnly = false
	return s.repos.Products.List(ctx, filter)
}

// AdminList returns listings for the moderation console.
func (s *ProductService) AdminList(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	filter.PublicOnly = false
	return s.repos.Products.List(ctx, filter)
}

// canEdit grants the seller of an individual listing and store admins with
// manage_products on a store listing.
func (s *ProductService) canEdit(ctx context.Context, userID uuid.UUID, p *models.Product) (bool, error) {
	if p.CanUserEdit(userID) {
		return true, nil
	}
	if p.SellerType != models.SellerStore || p.StoreID == nil {
		return false, nil
	}
	store, err := s.repos.Stores.FindByID(ctx, *p.StoreID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return store.CanUserManage(userID, string(models.StoreManageProducts)), nil
}

// mutateOwned runs fn on the product after checking edit rights.
func (s *ProductService) mutateOwned(ctx context.Context, userID, id uuid.UUID, fn func(*models.Product) error) (*models.Product, error) {
	current, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.canEdit(ctx, userID, current)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: you cannot modify this product", errs.ErrForbidden)
	}
	return s.repos.Products.Mutate(ctx, id, fn)
}

func (s *ProductService) Update(ctx context.Context, userID, id uuid.UUID, in ProductInput) (*models.Product, error) {
	settings, err := s.repos.Settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	in.StoreID = nil
	return s.mutateOwned(ctx, userID, id, func(p *models.Product) error {
		if p.Availability == models.Sold {
			return fmt.Errorf("%w: sold listings cannot be edited", errs.ErrInvalidTransition)
		}
		return s.apply(ctx, p, in, settings.Limits.MaxImagesPerProduct)
	})
}

// Delete removes a listing. Staff with manage_products may delete any listing.
func (s *ProductService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	product, err := s.repos.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.canEdit(ctx, userID, product)
	if err != nil {
		return err
	}
	if !ok {
		user, err := s.repos.Users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if !user.HasPermission(models.PermManageProducts) {
			return fmt.Errorf("%w: you cannot delete this product", errs.ErrForbidden)
		}
	}

	if err := s.repos.Products.Delete(ctx, id); err != nil {
		return err
	}
	logging.Business(s.opts.Log, "product deleted",
		zap.String("productId", id.String()),
		zap.String("userId", userID.String()),
	)
	return nil
}

// CommentRequest is a question or remark on a listing.
type CommentRequest struct {
	Message  string
	Type     models.CommentType
	IsPublic *bool
	ParentID *uuid.UUID
}

func (s *ProductService) Comment(ctx context.Context, userID, id uuid.UUID, in CommentRequest) (*models.ProductComment, error) {
	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	var comment models.ProductComment
	_, err := s.repos.Products.Mutate(ctx, id, func(p *models.Product) error {
		c, err := p.AddComment(models.CommentInput{
			UserID:   userID,
			Message:  in.Message,
			Type:     in.Type,
			IsPublic: isPublic,
			ParentID: in.ParentID,
		}, s.opts.Now())
		if err != nil {
			return err
		}
		comment = *c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// Offer records a private price offer that expires after the configured number of days.
func (s *ProductService) Offer(ctx context.Context, userID, id uuid.UUID, amount float64, message string) (*models.ProductComment, error) {
	var offer models.ProductComment
	_, err := s.repos.Products.Mutate(ctx, id, func(p *models.Product) error {
		if p.SellerID == userID {
			return fmt.Errorf("%w: you cannot make an offer on your own listing", errs.ErrBadRequest)
		}
		c, err := p.MakeOffer(userID, amount, message, s.opts.Rules.OfferTTLDays, s.opts.Now())
		if err != nil {
			return err
		}
		offer = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.opts.Events.Publish(ctx, id.String(), events.OfferMade, map[string]any{
		"productId": id,
		"userId":    userID,
		"amount":    amount,
	})
	return &offer, nil
}

func (s *ProductService) MarkSold(ctx context.Context, userID, id uuid.UUID, buyerID *uuid.UUID, finalPrice *float64) (*models.Product, error) {
	product, err := s.mutateOwned(ctx, userID, id, func(p *models.Product) error {
		return p.MarkAsSold(buyerID, finalPrice, s.opts.Now())
	})
	if err != nil {
		return nil, err
	}

	logging.Business(s.opts.Log, "product sold",
		zap.String("productId", id.String()),
		zap.Float64("price", product.Price),
	)
	s.opts.Events.Publish(ctx, id.String(), events.ProductSold, map[string]any{
		"productId": id,
		"sellerId":  product.SellerID,
		"buyerId":   buyerID,
		"price":     product.Price,
	})
	return product, nil
}

func (s *ProductService) Reserve(ctx context.Context, userID, id uuid.UUID) (*models.Product, error) {
	return s.mutateOwned(ctx, userID, id, func(p *models.Product) error { return p.Reserve() })
}

func (s *ProductService) Release(ctx context.Context, userID, id uuid.UUID) (*models.Product, error) {
	return s.mutateOwned(ctx, userID, id, func(p *models.Product) error { return p.Release() })
}

func (s *ProductService) MarkPending(ctx context.Context, userID, id uuid.UUID) (*models.Product, error) {
	return s.mutateOwned(ctx, userID, id, func(p *models.Product) error { return p.MarkPending() })
}

// Flag reports a listing and puts it back into review.
func (s *ProductService) Flag(ctx context.Context, userID, id uuid.UUID, reason string) error {
	product, err := s.repos.Products.Mutate(ctx, id, func(p *models.Product) error {
		return p.Flag(userID, strings.TrimSpace(reason), s.opts.Now())
	})
	if err != nil {
		return err
	}

	logging.Security(s.opts.Log, "product reported",
		zap.String("productId", id.String()),
		zap.String("userId", userID.String()),
	)
	s.opts.Notifier.NotifyFlaggedProduct(ctx, s.notification(product, nil, nil), reason)
	return nil
}

// Moderate applies an approve or reject decision.
func (s *ProductService) Moderate(ctx context.Context, adminID, id uuid.UUID, action, reason string) (*models.Product, error) {
	if action != "approve" && action != "reject" {
		return nil, errs.ErrInvalidAction
	}
	product, err := s.repos.Products.Mutate(ctx, id, func(p *models.Product) error {
		return p.Moderate(action, adminID, reason, s.opts.Now())
	})
	if err != nil {
		return nil, err
	}

	logging.Business(s.opts.Log, "product moderated",
		zap.String("productId", id.String()),
		zap.String("adminId", adminID.String()),
		zap.String("action", action),
	)
	s.opts.Events.Publish(ctx, id.String(), events.ProductModerated, map[string]any{
		"productId": id,
		"status":    product.Moderation.Status,
		"adminId":   adminID,
	})
	return product, nil
}
