// Package memory implements the repositories on process memory. It backs the
// tests and DB_DRIVER=memory local runs.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

// DB holds every table. All access goes through mu.
type DB struct {
	mu         sync.RWMutex
	rules      models.Rules
	now        func() time.Time
	users      map[uuid.UUID]models.User
	stores     map[uuid.UUID]models.Store
	products   map[uuid.UUID]models.Product
	categories map[uuid.UUID]models.Category
	ads        map[uuid.UUID]models.Ad
	settings   *models.SystemSettings
}

func New(rules models.Rules, now func() time.Time) *DB {
	if now == nil {
		now = time.Now
	}
	return &DB{
		rules:      rules,
		now:        now,
		users:      make(map[uuid.UUID]models.User),
		stores:     make(map[uuid.UUID]models.Store),
		products:   make(map[uuid.UUID]models.Product),
		categories: make(map[uuid.UUID]models.Category),
		ads:        make(map[uuid.UUID]models.Ad),
	}
}

// Repositories returns repository views over db.
func (db *DB) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:      (*userRepo)(db),
		Stores:     (*storeRepo)(db),
		Products:   (*productRepo)(db),
		Categories: (*categoryRepo)(db),
		Ads:        (*adRepo)(db),
		Settings:   (*settingsRepo)(db),
		Stats:      (*statsRepo)(db),
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneUser(u models.User) models.User {
	u.Permissions = cloneSlice(u.Permissions)
	return u
}

func cloneStore(s models.Store) models.Store {
	s.Admins = cloneSlice(s.Admins)
	for i := range s.Admins {
		s.Admins[i].Permissions = cloneSlice(s.Admins[i].Permissions)
	}
	s.Addresses = cloneSlice(s.Addresses)
	s.Hours = cloneSlice(s.Hours)
	s.Deals = cloneSlice(s.Deals)
	s.Documents = cloneSlice(s.Documents)
	return s
}

func cloneProduct(p models.Product) models.Product {
	p.Tags = cloneSlice(p.Tags)
	p.Images = cloneSlice(p.Images)
	p.Comments = cloneSlice(p.Comments)
	p.Transactions = cloneSlice(p.Transactions)
	p.Flags = cloneSlice(p.Flags)
	if p.Category != nil {
		c := *p.Category
		p.Category = &c
	}
	return p
}

// stamp fills ids and timestamps the way gorm does on create.
func stamp(b *models.BaseModel, now time.Time) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func newestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}
