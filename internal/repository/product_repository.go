package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/bazzarly/internal/models"
)

type productRepository struct {
	db    *gorm.DB
	rules models.Rules
	now   func() time.Time
}

func (r *productRepository) preload(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("display_order") }).
		Preload("Comments", byCreated).
		Preload("Transactions", byCreated).
		Preload("Flags", byCreated)
}

// uniqueSlug appends a short id suffix when the slug is taken by another product.
func (r *productRepository) uniqueSlug(tx *gorm.DB, p *models.Product) error {
	var count int64
	if err := tx.Model(&models.Product{}).Where("slug = ? AND id <> ?", p.Slug, p.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		p.Slug = p.Slug + "-" + p.ID.String()[:8]
	}
	return nil
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	product.Normalize(r.rules, r.now())
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.uniqueSlug(tx, product); err != nil {
			return err
		}
		return tx.Omit("Category").Create(product).Error
	})
	return mapErr(err)
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.preload(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &product, nil
}

func (r *productRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(*models.Product) error) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&models.Product{}, "id = ?", id).Error; err != nil {
			return err
		}
		if err := r.preload(tx).First(&product, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&product); err != nil {
			return err
		}
		product.Normalize(r.rules, r.now())
		if err := r.uniqueSlug(tx, &product); err != nil {
			return err
		}

		if err := pruneChildren(tx, &models.ProductImage{}, "product_id", id, ids(product.Images, func(i *models.ProductImage) uuid.UUID { return i.ID })); err != nil {
			return err
		}
		if err := pruneChildren(tx, &models.ProductComment{}, "product_id", id, ids(product.Comments, func(c *models.ProductComment) uuid.UUID { return c.ID })); err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Omit("Category").Save(&product).Error
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &product, nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return mapErr(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{&models.ProductImage{}, &models.ProductComment{}, &models.ProductTransaction{}, &models.ProductFlag{}} {
			if err := tx.Where("product_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

func (r *productRepository) AddView(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID, now time.Time) error {
	updates := map[string]any{
		"analytics_views":       gorm.Expr("analytics_views + 1"),
		"analytics_last_viewed": now,
	}
	if viewerID != nil {
		updates["analytics_unique_views"] = gorm.Expr("analytics_unique_views + CASE WHEN seller_id = ? THEN 0 ELSE 1 END", *viewerID)
	}

	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *productRepository) filtered(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if f.PublicOnly {
		q = q.Where("products.availability = ? AND products.settings_is_active = ? AND products.settings_is_public = ? AND products.moderation_status = ?",
			models.Available, true, true, models.ModerationApproved).
			Where("(products.settings_expires_at IS NULL OR products.settings_expires_at > ?)", f.Now).
			Where("products.quantity > 0")
	}
	if f.Query != "" {
		like := likePattern(f.Query)
		q = q.Where("(products.title ILIKE ? OR products.description ILIKE ? OR array_to_string(products.tags, ' ') ILIKE ?)", like, like, like)
	}
	if f.CategoryID != nil {
		q = q.Where("products.category_id = ?", *f.CategoryID)
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.Location != "" {
		like := likePattern(f.Location)
		q = q.Where("(products.location_city ILIKE ? OR products.location_state ILIKE ? OR products.location_label ILIKE ?)", like, like, like)
	}
	if f.Condition != "" {
		q = q.Where("products.condition = ?", f.Condition)
	}
	switch f.StockLevel {
	case "in-stock":
		q = q.Where("products.quantity > ?", r.rules.LowStockThreshold)
	case "low-stock":
		q = q.Where("products.quantity BETWEEN 1 AND ?", r.rules.LowStockThreshold)
	case "out-of-stock":
		q = q.Where("products.quantity <= 0")
	}
	if f.SellerID != nil {
		q = q.Where("products.seller_id = ?", *f.SellerID)
	}
	if f.StoreID != nil {
		q = q.Where("products.store_id = ?", *f.StoreID)
	}
	if f.SellerType != "" {
		q = q.Where("products.seller_type = ?", f.SellerType)
	}
	if f.Moderation != "" {
		q = q.Where("products.moderation_status = ?", f.Moderation)
	}
	if f.Flagged {
		q = q.Where("EXISTS (SELECT 1 FROM product_flags pf WHERE pf.product_id = products.id AND pf.status = ?)", "pending")
	}
	if f.Featured {
		q = q.Where("products.settings_is_featured = ?", true)
	}
	return q
}

func (r *productRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.filtered(ctx, f).Select("products.*")
	switch f.SortBy {
	case "price-low":
		q = q.Order("products.price ASC")
	case "price-high":
		q = q.Order("products.price DESC")
	case "rating":
		q = q.Joins("LEFT JOIN users ON users.id = products.seller_id").
			Order("users.stats_rating DESC NULLS LAST")
	}
	q = q.Order("products.created_at DESC")

	var products []models.Product
	q = q.Preload("Category").Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("display_order") })
	if err := paginate(q, f.Offset, f.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("seller_id = ?", sellerID).Count(&count).Error
	return count, err
}

func (r *productRepository) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}
