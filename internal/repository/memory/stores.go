package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

type storeRepo DB

func (r *storeRepo) taken(s models.Store) bool {
	for id, existing := range r.stores {
		if id != s.ID && (existing.Slug == s.Slug || existing.OwnerID == s.OwnerID) {
			return true
		}
	}
	return false
}

func (r *storeRepo) Create(ctx context.Context, store *models.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	store.Normalize(r.rules, now)
	stamp(&store.BaseModel, now)
	if _, ok := r.stores[store.ID]; ok || r.taken(*store) {
		return errs.ErrConflict
	}
	r.stores[store.ID] = cloneStore(*store)
	return nil
}

func (r *storeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stores[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.stores, id)
	return nil
}

func (r *storeRepo) findFirst(match func(models.Store) bool) (*models.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stores {
		if match(s) {
			s = cloneStore(s)
			return &s, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *storeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	return r.findFirst(func(s models.Store) bool { return s.ID == id })
}

func (r *storeRepo) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	return r.findFirst(func(s models.Store) bool { return s.Slug == slug })
}

func (r *storeRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	return r.findFirst(func(s models.Store) bool { return s.OwnerID == ownerID })
}

func (r *storeRepo) Mutate(ctx context.Context, id uuid.UUID, fn func(*models.Store) error) (*models.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.stores[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	store := cloneStore(current)
	if err := fn(&store); err != nil {
		return nil, err
	}
	store.Normalize(r.rules, r.now())
	if r.taken(store) {
		return nil, errs.ErrConflict
	}
	r.stores[id] = cloneStore(store)
	return &store, nil
}

func (r *storeRepo) AddView(ctx context.Context, id uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[id]
	if !ok {
		return errs.ErrNotFound
	}
	s.AddView(now)
	r.stores[id] = s
	return nil
}

func (r *storeRepo) List(ctx context.Context, f repository.StoreFilter) ([]models.Store, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Store
	for _, s := range r.stores {
		if f.PublicOnly && (s.Status != models.StoreActive || !s.Settings.IsActive || !s.Settings.IsPublic) {
			continue
		}
		if f.Status != "" && string(s.Status) != f.Status {
			continue
		}
		if f.Category != "" && s.Business.Category != f.Category {
			continue
		}
		if f.Search != "" && !containsFold(s.Name, f.Search) && !containsFold(s.Description, f.Search) && !containsFold(s.Business.Category, f.Search) {
			continue
		}
		out = append(out, cloneStore(s))
	}
	newestFirst(out, func(s models.Store) time.Time { return s.CreatedAt })
	return page(out, f.Offset, f.Limit), int64(len(out)), nil
}
