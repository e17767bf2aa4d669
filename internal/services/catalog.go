package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/logging"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

// CatalogService serves categories, promotional ads and the platform settings.
type CatalogService struct {
	categories repository.CategoryRepository
	ads        repository.AdRepository
	settings   repository.SettingsRepository
	opts       Options
}

type CategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
	Icon        *string
	ParentID    *string
	SortOrder   *int
	IsActive    *bool
}

func (s *CatalogService) Categories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	return s.categories.List(ctx, activeOnly)
}

// Category resolves an id or slug.
func (s *CatalogService) Category(ctx context.Context, idOrSlug string) (*models.Category, error) {
	category, err := s.categories.Resolve(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: category not found", errs.ErrNotFound)
		}
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) applyCategory(ctx context.Context, c *models.Category, in CategoryInput) error {
	setString(&c.Name, in.Name)
	setString(&c.Description, in.Description)
	setString(&c.Icon, in.Icon)
	if in.Slug != nil {
		c.Slug = models.Slugify(*in.Slug, s.opts.Rules.SlugMaxLength)
	}
	if in.SortOrder != nil {
		c.SortOrder = *in.SortOrder
	}
	setBool(&c.IsActive, in.IsActive)

	if in.ParentID != nil {
		if *in.ParentID == "" {
			c.ParentID = nil
			return nil
		}
		parent, err := s.categories.Resolve(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return fmt.Errorf("%w: parent category not found", errs.ErrBadRequest)
			}
			return err
		}
		if parent.ID == c.ID {
			return fmt.Errorf("%w: a category cannot be its own parent", errs.ErrBadRequest)
		}
		c.ParentID = &parent.ID
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, errs.NewValidation("Validation failed", map[string]string{"name": "Name is required"})
	}
	now := s.opts.Now()
	category := &models.Category{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		IsActive:  true,
	}
	if err := s.applyCategory(ctx, category, in); err != nil {
		return nil, err
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, fmt.Errorf("%w: category slug already exists", errs.ErrConflict)
		}
		return nil, err
	}
	logging.Business(s.opts.Log, "category created", zap.String("categoryId", category.ID.String()))
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) (*models.Category, error) {
	category, err := s.Category(ctx, id.String())
	if err != nil {
		return nil, err
	}
	if err := s.applyCategory(ctx, category, in); err != nil {
		return nil, err
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.Delete(ctx, id)
}

type AdInput struct {
	Title       *string
	Description *string
	Image       *string
	Link        *string
	Discount    *string
	ValidUntil  *time.Time
	IsActive    *bool
	SortOrder   *int
}

// Ads lists banners; activeOnly keeps the ones currently running.
func (s *CatalogService) Ads(ctx context.Context, activeOnly bool) ([]models.Ad, error) {
	if activeOnly {
		now := s.opts.Now()
		return s.ads.List(ctx, &now)
	}
	return s.ads.List(ctx, nil)
}

func applyAd(ad *models.Ad, in AdInput) {
	setString(&ad.Title, in.Title)
	setString(&ad.Description, in.Description)
	setString(&ad.Image, in.Image)
	setString(&ad.Link, in.Link)
	setString(&ad.Discount, in.Discount)
	if in.ValidUntil != nil {
		ad.ValidUntil = in.ValidUntil
	}
	setBool(&ad.IsActive, in.IsActive)
	if in.SortOrder != nil {
		ad.SortOrder = *in.SortOrder
	}
}

func (s *CatalogService) CreateAd(ctx context.Context, in AdInput) (*models.Ad, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, errs.NewValidation("Validation failed", map[string]string{"title": "Title is required"})
	}
	now := s.opts.Now()
	ad := &models.Ad{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		IsActive:  true,
	}
	applyAd(ad, in)
	if err := s.ads.Create(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *CatalogService) UpdateAd(ctx context.Context, id uuid.UUID, in AdInput) (*models.Ad, error) {
	ad, err := s.ads.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyAd(ad, in)
	ad.UpdatedAt = s.opts.Now()
	if err := s.ads.Update(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *CatalogService) DeleteAd(ctx context.Context, id uuid.UUID) error {
	return s.ads.Delete(ctx, id)
}

func (s *CatalogService) Settings(ctx context.Context) (*models.SystemSettings, error) {
	return s.settings.Get(ctx)
}

// SettingsInput replaces whole settings groups. Nil groups are unchanged.
type SettingsInput struct {
	Site     *models.SiteSettings   `json:"site"`
	Features *models.FeatureFlags   `json:"features"`
	Limits   *models.PlatformLimits `json:"limits"`
	Payments *models.PaymentDisplay `json:"payments"`
}

func (s *CatalogService) UpdateSettings(ctx context.Context, adminID uuid.UUID, in SettingsInput) (*models.SystemSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if in.Site != nil {
		settings.Site = *in.Site
	}
	if in.Features != nil {
		settings.Features = *in.Features
	}
	if in.Limits != nil {
		settings.Limits = *in.Limits
	}
	if in.Payments != nil {
		settings.Payments = *in.Payments
	}
	settings.ApplyDefaults()

	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, err
	}
	logging.Business(s.opts.Log, "settings updated", zap.String("adminId", adminID.String()))
	return settings, nil
}
