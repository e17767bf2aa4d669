package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

type productRepo DB

func (r *productRepo) uniqueSlug(p *models.Product) {
	for id, existing := range r.products {
		if id != p.ID && existing.Slug == p.Slug {
			p.Slug = p.Slug + "-" + p.ID.String()[:8]
			return
		}
	}
}

// withCategory attaches the category the way the gorm preload does.
func (r *productRepo) withCategory(p models.Product) models.Product {
	p = cloneProduct(p)
	if c, ok := r.categories[p.CategoryID]; ok {
		p.Category = &c
	} else {
		p.Category = nil
	}
	return p
}

func (r *productRepo) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stamp(&product.BaseModel, now)
	product.Normalize(r.rules, now)
	if _, ok := r.products[product.ID]; ok {
		return errs.ErrConflict
	}
	r.uniqueSlug(product)
	stored := cloneProduct(*product)
	stored.Category = nil
	r.products[product.ID] = stored
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	p = r.withCategory(p)
	return &p, nil
}

func (r *productRepo) Mutate(ctx context.Context, id uuid.UUID, fn func(*models.Product) error) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	p := r.withCategory(current)
	if err := fn(&p); err != nil {
		return nil, err
	}
	p.Normalize(r.rules, r.now())
	r.uniqueSlug(&p)

	stored := cloneProduct(p)
	stored.Category = nil
	r.products[id] = stored
	return &p, nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *productRepo) AddView(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.AddView(viewerID, now)
	r.products[id] = p
	return nil
}

func (r *productRepo) matches(p models.Product, f repository.ProductFilter) bool {
	if f.PublicOnly && !p.IsAvailableForPurchase(f.Now) {
		return false
	}
	if f.Query != "" && !containsFold(p.Title, f.Query) && !containsFold(p.Description, f.Query) && !containsFold(strings.Join(p.Tags, " "), f.Query) {
		return false
	}
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Location != "" && !containsFold(p.Location.City, f.Location) && !containsFold(p.Location.State, f.Location) && !containsFold(p.Location.Label, f.Location) {
		return false
	}
	if f.Condition != "" && p.Condition != f.Condition {
		return false
	}
	if f.StockLevel != "" && p.StockLevel(r.rules) != f.StockLevel {
		return false
	}
	if f.SellerID != nil && p.SellerID != *f.SellerID {
		return false
	}
	if f.StoreID != nil && (p.StoreID == nil || *p.StoreID != *f.StoreID) {
		return false
	}
	if f.SellerType != "" && string(p.SellerType) != f.SellerType {
		return false
	}
	if f.Moderation != "" && string(p.Moderation.Status) != f.Moderation {
		return false
	}
	if f.Flagged && !hasPendingFlag(p) {
		return false
	}
	if f.Featured && !p.Settings.IsFeatured {
		return false
	}
	return true
}

func hasPendingFlag(p models.Product) bool {
	for _, fl := range p.Flags {
		if fl.Status == "pending" {
			return true
		}
	}
	return false
}

func (r *productRepo) List(ctx context.Context, f repository.ProductFilter) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Product
	for _, p := range r.products {
		if r.matches(p, f) {
			out = append(out, r.withCategory(p))
		}
	}

	newestFirst(out, func(p models.Product) time.Time { return p.CreatedAt })
	switch f.SortBy {
	case "price-low":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "price-high":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case "rating":
		rating := func(p models.Product) float64 { return r.users[p.SellerID].Stats.Rating }
		sort.SliceStable(out, func(i, j int) bool { return rating(out[i]) > rating(out[j]) })
	}
	return page(out, f.Offset, f.Limit), int64(len(out)), nil
}

func (r *productRepo) count(match func(models.Product) bool) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if match(p) {
			n++
		}
	}
	return n
}

func (r *productRepo) CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	return r.count(func(p models.Product) bool { return p.SellerID == sellerID }), nil
}

func (r *productRepo) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	return r.count(func(p models.Product) bool { return p.StoreID != nil && *p.StoreID == storeID }), nil
}
