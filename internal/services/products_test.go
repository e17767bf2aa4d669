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

func TestProductModerationFlow(t *testing.T) {
	f := newFixture(t)
	seller := f.activeUser(t, "seller@example.com", models.RoleUser)
	admin := f.activeUser(t, "admin@example.com", models.RoleAdmin)
	phones := f.category(t, "Phones")

	p := f.product(t, seller.ID, phones, "iPhone 13 Pro", 899)
	assert.Equal(t, models.ModerationPending, p.Moderation.Status)
	assert.Equal(t, phones.ID, p.CategoryID)
	assert.Equal(t, "Tashkent", p.Location.City)
	require.Len(t, f.notifier.pending, 1)
	assert.Equal(t, "Test User", f.notifier.pending[0].SellerName)
	assert.Contains(t, f.events.types(), events.ProductCreated)

	_, err := f.svc.Products.Get(f.ctx, p.ID, nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	own, err := f.svc.Products.Get(f.ctx, p.ID, &Viewer{ID: seller.ID, Role: seller.Role})
	require.NoError(t, err)
	assert.False(t, own.IsAvailableForPurchase)

	_, err = f.svc.Products.Moderate(f.ctx, admin.ID, p.ID, "archive", "")
	assert.ErrorIs(t, err, errs.ErrInvalidAction)

	moderated, err := f.svc.Products.Moderate(f.ctx, admin.ID, p.ID, "approve", "")
	require.NoError(t, err)
	assert.Equal(t, models.ModerationApproved, moderated.Moderation.Status)

	_, err = f.svc.Products.Moderate(f.ctx, admin.ID, p.ID, "reject", "late")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	public, err := f.svc.Products.Get(f.ctx, p.ID, nil)
	require.NoError(t, err)
	assert.True(t, public.IsAvailableForPurchase)

	stored, err := f.repos.Products.FindByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Analytics.Views)

	list, total, err := f.svc.Products.List(f.ctx, repository.ProductFilter{Limit: 10}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	results, total, err := f.svc.Products.Search(f.ctx, "iphone", repository.ProductFilter{Limit: 10}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, p.ID, results[0].ID)
	assert.Contains(t, f.events.types(), events.SearchPerformed)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	f := newFixture(t)
	seller := f.activeUser(t, "seller@example.com", models.RoleUser)

	_, err := f.svc.Products.Create(f.ctx, seller.ID, ProductInput{
		Title:    ptr("Bike"),
		Price:    ptr(100.0),
		Category: ptr("nope"),
	})
	assert.ErrorIs(t, err, errs.ErrBadRequest)
}

func TestProductLimitPerUser(t *testing.T) {
	f := newFixture(t)
	seller := f.activeUser(t, "seller@example.com", models.RoleUser)
	admin := f.activeUser(t, "root@example.com", models.RoleSuperAdmin)
	cat := f.category(t, "Bikes")

	_, err := f.svc.Catalog.UpdateSettings(f.ctx, admin.ID, SettingsInput{
		Limits: &models.PlatformLimits{MaxProductsPerUser: 1, MaxImagesPerProduct: 2},
	})
	require.NoError(t, err)

	f.product(t, seller.ID, cat, "Road bike", 300)
	_, err = f.svc.Products.Create(f.ctx, seller.ID, ProductInput{Title: ptr("Second"), Price: ptr(1.0), Category: ptr(cat.Slug)})
	assert.ErrorIs(t, err, errs.ErrLimitReached)

	other := f.activeUser(t, "other@example.com", models.RoleUser)
	_, err = f.svc.Products.Create(f.ctx, other.ID, ProductInput{
		Title:    ptr("Too many pictures"),
		Price:    ptr(1.0),
		Category: ptr(cat.Slug),
		Images:   []ImageInput{{URL: "/a.jpg"}, {URL: "/b.jpg"}, {URL: "/c.jpg"}},
	})
	assert.ErrorIs(t, err, errs.ErrBadRequest)
}

func TestModerationSwitchedOffApprovesImmediately(t *testing.T) {
	f := newFixture(t)
	seller := f.activeUser(t, "seller@example.com", models.RoleUser)
	admin := f.activeUser(t, "root@example.com", models.RoleSuperAdmin)
	cat := f.category(t, "Books")

	flags := models.DefaultSettings().Features
	flags.ProductModeration = false
	_, err := f.svc.Catalog.UpdateSettings(f.ctx, admin.ID, SettingsInput{Features: &flags})
	require.NoError(t, err)

	p := f.product(t, seller.ID, cat, "Dune", 12)
	assert.Equal(t, models.ModerationApproved, p.Moderation.Status)
	assert.Empty(t, f.notifier.pending)
}

func approved(t *testing.T, f *fixture, seller uuid.UUID, title string, price float64) *models.Product {
	t.Helper()
	p := f.product(t, seller, f.category(t, title+" category"), title, price)
	admin := f.activeUser(t, uuid.NewString()+"@example.com", models.RoleAdmin)
	_, err := f.svc.Products.Moderate(f.ctx, admin.ID, p.ID, "approve", "")
	require.NoError(t, err)
	return p
}

func TestOffersAndSale(t *testing.T) {
	f := newFixture(t)
	seller := f.activeUser(t, "seller@example.com", models.RoleUser)
	buyer := f.activeUser(t, "buyer@example.com", models.RoleUser)
	p := approved(t, f, seller.ID, "Camera", 500)

	_, err := f.svc.Products.Offer(f.ctx, seller.ID, p.ID, 400, "")
	assert.ErrorIs(t, err, errs.ErrBadRequest)

	offer, err := f.svc.Products.Offer(f.ctx, buyer.ID, p.ID, 450, "")
	require.NoError(t, err)
	assert.Equal(t, "Offering $450", offer.Message)
	assert.False(t, offer.IsPublic)
	require.NotNil(t, offer.Offer.ExpiresAt)
	assert.Equal(t, f.clock.now().AddDate(0, 0, 7), *offer.Offer.ExpiresAt)

	_, err = f.svc.Products.MarkSold(f.ctx, buyer.ID, p.ID, &buyer.ID, nil)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	sold, err := f.svc.Products.MarkSold(f.ctx, seller.ID, p.ID, &buyer.ID, ptr(450.0))
	require.NoError(t, err)
	assert.Equal(t, models.Sold, sold.Availability)
	assert.Contains(t, f.events.types(), events.ProductSold)

	_, err = f.svc.Products.Update(f.ctx, seller.ID, p.ID, ProductInput{Title: ptr("Renamed")})
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	_, err = f.svc.Products.Offer(f.ctx, buyer.ID, p.ID, 100, "")
	assert.ErrorIs(t, err, errs.ErrAlreadySold)

	_, err = f.svc.Products.Reserve(f.ctx, seller.ID, p.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestCommentsAndFlags(t *testing.T) {
	f := newFixture(t)
	seller := f.activeUser(t, "seller@example.com", models.RoleUser)
	buyer := f.activeUser(t, "buyer@example.com", models.RoleUser)
	p := approved(t, f, seller.ID, "Sofa", 200)

	question, err := f.svc.Products.Comment(f.ctx, buyer.ID, p.ID, CommentRequest{Message: "Still available?", Type: models.CommentQuestion})
	require.NoError(t, err)
	assert.True(t, question.IsPublic)

	_, err = f.svc.Products.Comment(f.ctx, seller.ID, p.ID, CommentRequest{Message: "Yes", ParentID: &question.ID})
	require.NoError(t, err)

	missing := uuid.New()
	_, err = f.svc.Products.Comment(f.ctx, seller.ID, p.ID, CommentRequest{Message: "?", ParentID: &missing})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, f.svc.Products.Flag(f.ctx, buyer.ID, p.ID, "spam"))
	assert.Equal(t, []string{"spam"}, f.notifier.flagged)
	assert.ErrorIs(t, f.svc.Products.Flag(f.ctx, buyer.ID, p.ID, "again"), errs.ErrConflict)

	_, err = f.svc.Products.Get(f.ctx, p.ID, nil)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	flagged, total, err := f.svc.Products.AdminList(f.ctx, repository.ProductFilter{Flagged: true, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, models.ModerationFlagged, flagged[0].Moderation.Status)
}

func TestDeletePermissions(t *testing.T) {
	f := newFixture(t)
	seller := f.activeUser(t, "seller@example.com", models.RoleUser)
	stranger := f.activeUser(t, "stranger@example.com", models.RoleUser)
	admin := f.activeUser(t, "admin@example.com", models.RoleAdmin)
	cat := f.category(t, "Tools")
	first := f.product(t, seller.ID, cat, "Drill", 50)
	second := f.product(t, seller.ID, cat, "Saw", 20)

	assert.ErrorIs(t, f.svc.Products.Delete(f.ctx, stranger.ID, first.ID), errs.ErrForbidden)
	require.NoError(t, f.svc.Products.Delete(f.ctx, seller.ID, first.ID))
	require.NoError(t, f.svc.Products.Delete(f.ctx, admin.ID, second.ID))

	_, total, err := f.svc.Products.ListMine(f.ctx, seller.ID, repository.ProductFilter{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}
