// Package repository is the persistence boundary. Every write normalizes the
// aggregate immediately before it is committed.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/bazzarly/internal/models"
)

type UserFilter struct {
	Search string
	Role   string
	Status string
	Offset int
	Limit  int
}

type StoreFilter struct {
	Search     string
	Status     string
	Category   string
	PublicOnly bool
	Offset     int
	Limit      int
}

// ProductFilter narrows product listings. Zero values do not filter.
type ProductFilter struct {
	Query      string
	CategoryID *uuid.UUID
	MinPrice   *float64
	MaxPrice   *float64
	Location   string
	Condition  string
	StockLevel string
	SellerID   *uuid.UUID
	StoreID    *uuid.UUID
	SellerType string
	Moderation string
	Flagged    bool
	Featured   bool
	// PublicOnly keeps listings a buyer could purchase at Now.
	PublicOnly bool
	Now        time.Time
	SortBy     string
	Offset     int
	Limit      int
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// FindByIdentifier matches an email or a phone number.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	Exists(ctx context.Context, email, phone string) (bool, error)
	FindByEmailToken(ctx context.Context, token string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// RecordFailedLogin applies one failed attempt to the stored lockout state
	// atomically and returns the updated user.
	RecordFailedLogin(ctx context.Context, id uuid.UUID, rules models.Rules, now time.Time) (*models.User, error)
	List(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
}

type StoreRepository interface {
	Create(ctx context.Context, store *models.Store) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
	// Mutate loads the store under a row lock, applies fn and saves the result
	// with its child rows in the same transaction.
	Mutate(ctx context.Context, id uuid.UUID, fn func(*models.Store) error) (*models.Store, error)
	AddView(ctx context.Context, id uuid.UUID, now time.Time) error
	List(ctx context.Context, filter StoreFilter) ([]models.Store, int64, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Mutate(ctx context.Context, id uuid.UUID, fn func(*models.Product) error) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// AddView bumps the view counters atomically.
	AddView(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID, now time.Time) error
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
	CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
}

type CategoryRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Category, error)
	// Resolve finds a category by id or slug.
	Resolve(ctx context.Context, idOrSlug string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AdRepository interface {
	List(ctx context.Context, activeAt *time.Time) ([]models.Ad, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ad, error)
	Create(ctx context.Context, ad *models.Ad) error
	Update(ctx context.Context, ad *models.Ad) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SettingsRepository stores the SystemSettings singleton.
type SettingsRepository interface {
	// Get returns the stored settings with defaults applied, or the defaults
	// when nothing is stored yet.
	Get(ctx context.Context) (*models.SystemSettings, error)
	Save(ctx context.Context, settings *models.SystemSettings) error
}

// Totals are platform-wide counts.
type Totals struct {
	Users           int64 `json:"users"`
	Stores          int64 `json:"stores"`
	Products        int64 `json:"products"`
	ActiveProducts  int64 `json:"activeProducts"`
	PendingProducts int64 `json:"pendingProducts"`
	FlaggedProducts int64 `json:"flaggedProducts"`
	SoldProducts    int64 `json:"soldProducts"`
	Categories      int64   `json:"categories"`
	AveragePrice    float64 `json:"averagePrice"`
}

// Growth counts records created since a point in time. ActiveUsers counts
// accounts seen since then.
type Growth struct {
	NewUsers    int64 `json:"newUsers"`
	NewStores   int64 `json:"newStores"`
	NewProducts int64 `json:"newProducts"`
	ActiveUsers int64 `json:"activeUsers"`
}

type CategoryCount struct {
	CategoryID uuid.UUID `json:"categoryId"`
	Name       string    `json:"name"`
	Count      int64     `json:"count"`
}

// StatsRepository serves the dashboard and public statistics.
type StatsRepository interface {
	Totals(ctx context.Context, now time.Time) (Totals, error)
	Growth(ctx context.Context, since time.Time) (Growth, error)
	ProductsByCategory(ctx context.Context) ([]CategoryCount, error)
	UsersByRole(ctx context.Context) (map[string]int64, error)
}

// Repositories bundles every repository the services depend on.
type Repositories struct {
	Users      UserRepository
	Stores     StoreRepository
	Products   ProductRepository
	Categories CategoryRepository
	Ads        AdRepository
	Settings   SettingsRepository
	Stats      StatsRepository
}
