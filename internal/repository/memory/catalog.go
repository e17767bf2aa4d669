package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
)

type categoryRepo DB

func (r *categoryRepo) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[uuid.UUID]int64)
	for _, p := range r.products {
		counts[p.CategoryID]++
	}

	out := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		c.ProductCount = counts[c.ID]
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *categoryRepo) Resolve(ctx context.Context, idOrSlug string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, err := uuid.Parse(idOrSlug); err == nil {
		if c, ok := r.categories[id]; ok {
			return &c, nil
		}
		return nil, errs.ErrNotFound
	}
	for _, c := range r.categories {
		if c.Slug == idOrSlug {
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *categoryRepo) slugTaken(c models.Category) bool {
	for id, existing := range r.categories {
		if id != c.ID && existing.Slug == c.Slug {
			return true
		}
	}
	return false
}

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	category.Normalize(r.rules, now)
	stamp(&category.BaseModel, now)
	if r.slugTaken(*category) {
		return errs.ErrConflict
	}
	r.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.ID]; !ok {
		return errs.ErrNotFound
	}
	category.Normalize(r.rules, r.now())
	if r.slugTaken(*category) {
		return errs.ErrConflict
	}
	r.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

type adRepo DB

func (r *adRepo) List(ctx context.Context, activeAt *time.Time) ([]models.Ad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Ad, 0, len(r.ads))
	for _, ad := range r.ads {
		if activeAt != nil && !ad.IsActiveAt(*activeAt) {
			continue
		}
		out = append(out, ad)
	}
	newestFirst(out, func(a models.Ad) time.Time { return a.CreatedAt })
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *adRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ad, ok := r.ads[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &ad, nil
}

func (r *adRepo) Create(ctx context.Context, ad *models.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stamp(&ad.BaseModel, r.now())
	r.ads[ad.ID] = *ad
	return nil
}

func (r *adRepo) Update(ctx context.Context, ad *models.Ad) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ads[ad.ID]; !ok {
		return errs.ErrNotFound
	}
	ad.UpdatedAt = r.now()
	r.ads[ad.ID] = *ad
	return nil
}

func (r *adRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ads[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.ads, id)
	return nil
}

type settingsRepo DB

func (r *settingsRepo) Get(ctx context.Context) (*models.SystemSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.settings == nil {
		def := models.DefaultSettings()
		return &def, nil
	}
	s := *r.settings
	s.ApplyDefaults()
	return &s, nil
}

func (r *settingsRepo) Save(ctx context.Context, settings *models.SystemSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	settings.ApplyDefaults()
	now := r.now()
	if r.settings != nil {
		settings.ID = r.settings.ID
		settings.CreatedAt = r.settings.CreatedAt
	}
	stamp(&settings.BaseModel, now)
	s := *settings
	r.settings = &s
	return nil
}
