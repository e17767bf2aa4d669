package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/bazzarly/internal/models"
)

type storeRepository struct {
	db    *gorm.DB
	rules models.Rules
	now   func() time.Time
}

func (r *storeRepository) preload(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Admins", byCreated).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("display_order") }).
		Preload("Hours", byCreated).
		Preload("Deals", byCreated).
		Preload("Documents", byCreated)
}

func byCreated(db *gorm.DB) *gorm.DB {
	return db.Order("created_at")
}

func (r *storeRepository) Create(ctx context.Context, store *models.Store) error {
	store.Normalize(r.rules, r.now())
	return mapErr(r.db.WithContext(ctx).Create(store).Error)
}

func (r *storeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []any{&models.StoreAdmin{}, &models.StoreAddress{}, &models.StoreHours{}, &models.StoreDeal{}, &models.StoreDocument{}} {
			if err := tx.Where("store_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Store{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *storeRepository) find(ctx context.Context, query string, arg any) (*models.Store, error) {
	var store models.Store
	if err := r.preload(r.db.WithContext(ctx)).Where(query, arg).First(&store).Error; err != nil {
		return nil, mapErr(err)
	}
	return &store, nil
}

func (r *storeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *storeRepository) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	return r.find(ctx, "slug = ?", slug)
}

func (r *storeRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	return r.find(ctx, "owner_id = ?", ownerID)
}

func (r *storeRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(*models.Store) error) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&models.Store{}, "id = ?", id).Error; err != nil {
			return err
		}
		if err := r.preload(tx).First(&store, "id = ?", id).Error; err != nil {
			return err
		}
		if err := fn(&store); err != nil {
			return err
		}
		store.Normalize(r.rules, r.now())

		if err := pruneChildren(tx, &models.StoreAdmin{}, "store_id", id, ids(store.Admins, func(a *models.StoreAdmin) uuid.UUID { return a.ID })); err != nil {
			return err
		}
		if err := pruneChildren(tx, &models.StoreAddress{}, "store_id", id, ids(store.Addresses, func(a *models.StoreAddress) uuid.UUID { return a.ID })); err != nil {
			return err
		}
		if err := pruneChildren(tx, &models.StoreHours{}, "store_id", id, ids(store.Hours, func(h *models.StoreHours) uuid.UUID { return h.ID })); err != nil {
			return err
		}
		if err := pruneChildren(tx, &models.StoreDeal{}, "store_id", id, ids(store.Deals, func(d *models.StoreDeal) uuid.UUID { return d.ID })); err != nil {
			return err
		}
		if err := pruneChildren(tx, &models.StoreDocument{}, "store_id", id, ids(store.Documents, func(d *models.StoreDocument) uuid.UUID { return d.ID })); err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&store).Error
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return &store, nil
}

func (r *storeRepository) AddView(ctx context.Context, id uuid.UUID, now time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Store{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"metrics_views":        gorm.Expr("metrics_views + 1"),
		"metrics_last_updated": now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mapErr(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *storeRepository) List(ctx context.Context, filter StoreFilter) ([]models.Store, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Store{})
	if filter.PublicOnly {
		q = q.Where("status = ? AND settings_is_active = ? AND settings_is_public = ?", models.StoreActive, true, true)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("business_category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := likePattern(filter.Search)
		q = q.Where("(name ILIKE ? OR description ILIKE ? OR business_category ILIKE ?)", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stores []models.Store
	q = r.preload(q.Order("created_at DESC"))
	if err := paginate(q, filter.Offset, filter.Limit).Find(&stores).Error; err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}
