package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newRepos() repository.Repositories {
	return New(models.DefaultRules(), func() time.Time { return now }).Repositories()
}

func listing(seller uuid.UUID, title string, price float64) *models.Product {
	p := models.NewProduct(seller, title, now)
	p.Price = price
	p.Moderation.Status = models.ModerationApproved
	return p
}

func TestRecordFailedLogin(t *testing.T) {
	repos := newRepos()
	ctx := context.Background()
	rules := models.DefaultRules()

	u := models.NewUser("Lock", "Out", "lock@example.com", "", models.RoleUser, now)
	require.NoError(t, repos.Users.Create(ctx, u))

	var wg sync.WaitGroup
	for i := 0; i < rules.MaxLoginAttempts+3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Users.RecordFailedLogin(ctx, u.ID, rules, now)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repos.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, rules.MaxLoginAttempts+3, got.LoginAttempts)
	require.NotNil(t, got.LockUntil)
	assert.True(t, got.LockUntil.Equal(now.Add(rules.LockDuration)))

	_, err = repos.Users.RecordFailedLogin(ctx, uuid.New(), rules, now)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserUniqueness(t *testing.T) {
	repos := newRepos()
	ctx := context.Background()

	first := models.NewUser("Jane", "Doe", "jane@example.com", "+15550100", models.RoleUser, now)
	require.NoError(t, repos.Users.Create(ctx, first))

	dupEmail := models.NewUser("J", "D", "jane@example.com", "", models.RoleUser, now)
	assert.ErrorIs(t, repos.Users.Create(ctx, dupEmail), errs.ErrConflict)

	dupPhone := models.NewUser("J", "D", "other@example.com", "+15550100", models.RoleUser, now)
	assert.ErrorIs(t, repos.Users.Create(ctx, dupPhone), errs.ErrConflict)

	noPhone := models.NewUser("A", "B", "a@example.com", "", models.RoleUser, now)
	require.NoError(t, repos.Users.Create(ctx, noPhone))
	require.NoError(t, repos.Users.Create(ctx, models.NewUser("C", "D", "c@example.com", "", models.RoleUser, now)))

	got, err := repos.Users.FindByIdentifier(ctx, "+15550100")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = repos.Users.FindByIdentifier(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	exists, err := repos.Users.Exists(ctx, "nobody@example.com", "+15550100")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStoredCopiesAreIsolated(t *testing.T) {
	repos := newRepos()
	ctx := context.Background()

	p := listing(uuid.New(), "Lamp", 20)
	p.Images = []models.ProductImage{{URL: "a"}, {URL: "b"}}
	require.NoError(t, repos.Products.Create(ctx, p))

	p.Images[0].URL = "changed"
	got, err := repos.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Images[0].URL)
	assert.True(t, got.Images[0].IsPrimary)
}

func TestMutateRollsBackOnError(t *testing.T) {
	repos := newRepos()
	ctx := context.Background()

	p := listing(uuid.New(), "Lamp", 20)
	require.NoError(t, repos.Products.Create(ctx, p))

	boom := errors.New("boom")
	_, err := repos.Products.Mutate(ctx, p.ID, func(p *models.Product) error {
		p.Price = 1
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repos.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.Price)

	_, err = repos.Products.Mutate(ctx, uuid.New(), func(*models.Product) error { return nil })
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestConcurrentViewsAreNotLost(t *testing.T) {
	repos := newRepos()
	ctx := context.Background()

	p := listing(uuid.New(), "Lamp", 20)
	require.NoError(t, repos.Products.Create(ctx, p))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			viewer := uuid.New()
			assert.NoError(t, repos.Products.AddView(ctx, p.ID, &viewer, now))
		}()
	}
	wg.Wait()

	got, err := repos.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Analytics.Views)
	assert.Equal(t, 50, got.Analytics.UniqueViews)
}

func TestSlugCollision(t *testing.T) {
	repos := newRepos()
	ctx := context.Background()

	a := listing(uuid.New(), "Nice Lamp", 20)
	b := listing(uuid.New(), "Nice Lamp", 30)
	require.NoError(t, repos.Products.Create(ctx, a))
	require.NoError(t, repos.Products.Create(ctx, b))

	assert.Equal(t, "nice-lamp", a.Slug)
	assert.Equal(t, "nice-lamp-"+b.ID.String()[:8], b.Slug)
}

func TestProductListFilters(t *testing.T) {
	repos := newRepos()
	ctx := context.Background()
	seller := uuid.New()

	cheap := listing(seller, "Desk lamp", 10)
	cheap.Quantity = 3
	pricey := listing(seller, "Floor lamp", 90)
	pricey.Quantity = 10
	hidden := listing(seller, "Hidden lamp", 50)
	hidden.Moderation.Status = models.ModerationPending
	for _, p := range []*models.Product{cheap, pricey, hidden} {
		require.NoError(t, repos.Products.Create(ctx, p))
	}

	public := repository.ProductFilter{PublicOnly: true, Now: now}
	got, total, err := repos.Products.List(ctx, public)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, got, 2)

	f := public
	f.SortBy = "price-high"
	got, _, err = repos.Products.List(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, pricey.ID, got[0].ID)

	f = public
	f.StockLevel = "low-stock"
	got, _, err = repos.Products.List(ctx, f)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cheap.ID, got[0].ID)

	min := 50.0
	f = repository.ProductFilter{MinPrice: &min, Query: "LAMP", Limit: 1}
	got, total, err = repos.Products.List(ctx, f)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, got, 1)
}

func TestStoreMutateAndSettings(t *testing.T) {
	repos := newRepos()
	ctx := context.Background()

	owner := uuid.New()
	s := models.NewStore(owner, "Bike Shop", now)
	require.NoError(t, repos.Stores.Create(ctx, s))
	assert.ErrorIs(t, repos.Stores.Create(ctx, models.NewStore(owner, "Second", now)), errs.ErrConflict)

	admin := uuid.New()
	updated, err := repos.Stores.Mutate(ctx, s.ID, func(s *models.Store) error {
		return s.AddAdmin(admin, models.StoreEditor, []models.StorePermission{models.StoreManageProducts}, now)
	})
	require.NoError(t, err)
	assert.True(t, updated.CanUserManage(admin, "manage_products"))

	bySlug, err := repos.Stores.FindBySlug(ctx, "bike-shop")
	require.NoError(t, err)
	assert.Len(t, bySlug.Admins, 1)

	settings, err := repos.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bazzarly", settings.Site.Name)

	settings.Site.Name = ""
	settings.Features.StoreCreation = false
	require.NoError(t, repos.Settings.Save(ctx, settings))
	settings, err = repos.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bazzarly", settings.Site.Name)
	assert.False(t, settings.Features.StoreCreation)
}
