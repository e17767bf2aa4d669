package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/bazzarly/internal/models"
)

type categoryRepository struct {
	db    *gorm.DB
	rules models.Rules
	now   func() time.Time
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	q := r.db.WithContext(ctx).Model(&models.Category{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var categories []models.Category
	if err := q.Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}

	type row struct {
		CategoryID uuid.UUID
		Count      int64
	}
	var counts []row
	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("category_id, COUNT(*) AS count").
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.Count
	}
	for i := range categories {
		categories[i].ProductCount = byID[categories[i].ID]
	}
	return categories, nil
}

func (r *categoryRepository) Resolve(ctx context.Context, idOrSlug string) (*models.Category, error) {
	var category models.Category
	q := r.db.WithContext(ctx)
	if id, err := uuid.Parse(idOrSlug); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", idOrSlug)
	}
	if err := q.First(&category).Error; err != nil {
		return nil, mapErr(err)
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	category.Normalize(r.rules, r.now())
	return mapErr(r.db.WithContext(ctx).Create(category).Error)
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.Normalize(r.rules, r.now())
	return mapErr(r.db.WithContext(ctx).Save(category).Error)
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound)
	}
	return nil
}

type adRepository struct {
	db *gorm.DB
}

func (r *adRepository) List(ctx context.Context, activeAt *time.Time) ([]models.Ad, error) {
	q := r.db.WithContext(ctx).Model(&models.Ad{})
	if activeAt != nil {
		q = q.Where("is_active = ? AND (valid_until IS NULL OR valid_until > ?)", true, *activeAt)
	}

	var ads []models.Ad
	if err := q.Order("sort_order ASC, created_at DESC").Find(&ads).Error; err != nil {
		return nil, err
	}
	return ads, nil
}

func (r *adRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	var ad models.Ad
	if err := r.db.WithContext(ctx).First(&ad, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &ad, nil
}

func (r *adRepository) Create(ctx context.Context, ad *models.Ad) error {
	return mapErr(r.db.WithContext(ctx).Create(ad).Error)
}

func (r *adRepository) Update(ctx context.Context, ad *models.Ad) error {
	return mapErr(r.db.WithContext(ctx).Save(ad).Error)
}

func (r *adRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Ad{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound)
	}
	return nil
}
