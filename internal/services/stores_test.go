package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bazzarly/internal/errs"
	"github.com/example/bazzarly/internal/events"
	"github.com/example/bazzarly/internal/models"
	"github.com/example/bazzarly/internal/repository"
)

func openStore(t *testing.T, f *fixture, owner *models.User, name string) *models.Store {
	t.Helper()
	store, err := f.svc.Stores.Create(f.ctx, owner.ID, StoreInput{
		Name:             ptr(name),
		BusinessType:     ptr("business"),
		BusinessCategory: ptr("electronics"),
		Hours:            []models.StoreHours{{Day: "Monday", IsOpen: true, OpenTime: "09:00", CloseTime: "18:00"}},
	})
	require.NoError(t, err)
	return store
}

func TestCreateStorePromotesOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.activeUser(t, "owner@example.com", models.RoleUser)

	store := openStore(t, f, owner, "Gadget Hub")
	assert.Equal(t, "gadget-hub", store.Slug)
	assert.Equal(t, models.StorePending, store.Status)
	require.Len(t, store.Hours, 1)
	assert.Equal(t, "monday", store.Hours[0].Day)

	reloaded, err := f.repos.Users.FindByID(f.ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStoreOwner, reloaded.Role)
	require.NotNil(t, reloaded.StoreID)
	assert.Equal(t, store.ID, *reloaded.StoreID)

	require.Len(t, f.notifier.stores, 1)
	assert.Equal(t, "Gadget Hub", f.notifier.stores[0].Name)
	assert.Contains(t, f.events.types(), events.StoreCreated)

	_, err = f.svc.Stores.Create(f.ctx, owner.ID, StoreInput{Name: ptr("Second")})
	assert.ErrorIs(t, err, errs.ErrConflict)

	other := f.activeUser(t, "other@example.com", models.RoleUser)
	_, err = f.svc.Stores.Create(f.ctx, other.ID, StoreInput{Name: ptr("Gadget Hub")})
	assert.ErrorIs(t, err, errs.ErrConflict)

	unchanged, err := f.repos.Users.FindByID(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Nil(t, unchanged.StoreID)
	assert.Equal(t, models.RoleUser, unchanged.Role)
}

func TestStoreInputValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.activeUser(t, "owner@example.com", models.RoleUser)

	cases := map[string]StoreInput{
		"business type": {Name: ptr("A"), BusinessType: ptr("charity")},
		"day":           {Name: ptr("B"), Hours: []models.StoreHours{{Day: "someday"}}},
		"clock":         {Name: ptr("C"), Hours: []models.StoreHours{{Day: "friday", IsOpen: true, OpenTime: "9am", CloseTime: "18:00"}}},
		"discount":      {Name: ptr("D"), Deals: []models.StoreDeal{{Title: "Half", DiscountPercent: 150}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Stores.Create(f.ctx, owner.ID, in)
			assert.ErrorIs(t, err, errs.ErrBadRequest)
		})
	}
}

func TestStorefrontVisibility(t *testing.T) {
	f := newFixture(t)
	owner := f.activeUser(t, "owner@example.com", models.RoleUser)
	admin := f.activeUser(t, "admin@example.com", models.RoleAdmin)
	store := openStore(t, f, owner, "Book Nook")

	_, err := f.svc.Stores.GetBySlug(f.ctx, store.Slug)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.Stores.SetStatus(f.ctx, admin.ID, store.ID, "deleted")
	assert.ErrorIs(t, err, errs.ErrBadRequest)

	_, err = f.svc.Stores.SetStatus(f.ctx, admin.ID, store.ID, models.StoreActive)
	require.NoError(t, err)

	verified, err := f.svc.Stores.Verify(f.ctx, admin.ID, store.ID, true)
	require.NoError(t, err)
	assert.True(t, verified.Verification.IsVerified)

	public, err := f.svc.Stores.GetBySlug(f.ctx, store.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Book Nook", public.Name)

	stored, err := f.repos.Stores.FindByID(f.ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Metrics.Views)

	list, total, err := f.svc.Stores.List(f.ctx, repository.StoreFilter{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)
}

func TestStoreListingsAndStaff(t *testing.T) {
	f := newFixture(t)
	owner := f.activeUser(t, "owner@example.com", models.RoleUser)
	editor := f.activeUser(t, "editor@example.com", models.RoleUser)
	stranger := f.activeUser(t, "stranger@example.com", models.RoleUser)
	admin := f.activeUser(t, "admin@example.com", models.RoleAdmin)
	cat := f.category(t, "Laptops")
	store := openStore(t, f, owner, "Laptop Land")

	in := ProductInput{Title: ptr("ThinkPad"), Price: ptr(700.0), Category: ptr(cat.Slug), StoreID: &store.ID}
	_, err := f.svc.Products.Create(f.ctx, owner.ID, in)
	assert.ErrorIs(t, err, errs.ErrForbidden, "pending stores cannot list")

	_, err = f.svc.Stores.SetStatus(f.ctx, admin.ID, store.ID, models.StoreActive)
	require.NoError(t, err)

	p, err := f.svc.Products.Create(f.ctx, owner.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.SellerStore, p.SellerType)
	assert.Equal(t, models.ModerationApproved, p.Moderation.Status)

	_, err = f.svc.Products.Create(f.ctx, stranger.ID, in)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.Stores.AddAdmin(f.ctx, stranger.ID, store.ID, StoreAdminInput{UserID: editor.ID})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.Stores.AddAdmin(f.ctx, owner.ID, store.ID, StoreAdminInput{UserID: uuid.New()})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	withStaff, err := f.svc.Stores.AddAdmin(f.ctx, owner.ID, store.ID, StoreAdminInput{
		UserID:      editor.ID,
		Role:        models.StoreEditor,
		Permissions: []models.StorePermission{models.StoreManageProducts},
	})
	require.NoError(t, err)
	require.Len(t, withStaff.Admins, 1)

	_, err = f.svc.Stores.AddAdmin(f.ctx, owner.ID, store.ID, StoreAdminInput{UserID: stranger.ID})
	assert.ErrorIs(t, err, errs.ErrLimitReached)

	updated, err := f.svc.Products.Update(f.ctx, editor.ID, p.ID, ProductInput{Price: ptr(650.0)})
	require.NoError(t, err)
	assert.Equal(t, 650.0, updated.Price)

	_, err = f.svc.Products.Update(f.ctx, stranger.ID, p.ID, ProductInput{Price: ptr(1.0)})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.Stores.Update(f.ctx, editor.ID, store.ID, StoreInput{Tagline: ptr("Fast laptops")})
	require.NoError(t, err)

	_, err = f.svc.Stores.Update(f.ctx, editor.ID, store.ID, StoreInput{Settings: &StoreSettingsInput{IsPublic: ptr(false)}})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.Stores.Manage(f.ctx, stranger.ID, store.ID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.Stores.RemoveAdmin(f.ctx, owner.ID, store.ID, editor.ID)
	require.NoError(t, err)
	_, err = f.svc.Stores.RemoveAdmin(f.ctx, owner.ID, store.ID, editor.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.Products.Update(f.ctx, editor.ID, p.ID, ProductInput{Price: ptr(600.0)})
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestStoreCreationDisabled(t *testing.T) {
	f := newFixture(t)
	owner := f.activeUser(t, "owner@example.com", models.RoleUser)
	root := f.activeUser(t, "root@example.com", models.RoleSuperAdmin)

	flags := models.DefaultSettings().Features
	flags.StoreCreation = false
	_, err := f.svc.Catalog.UpdateSettings(f.ctx, root.ID, SettingsInput{Features: &flags})
	require.NoError(t, err)

	_, err = f.svc.Stores.Create(f.ctx, owner.ID, StoreInput{Name: ptr("Closed")})
	assert.ErrorIs(t, err, errs.ErrFeatureDisabled)
}
