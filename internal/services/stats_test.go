package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bazzarly/internal/models"
)

func TestSinceFallsBackTo30Days(t *testing.T) {
	f := newFixture(t)
	now := f.clock.now()

	key, since := f.svc.Stats.Since("7d")
	assert.Equal(t, "7d", key)
	assert.Equal(t, now.Add(-7*24*time.Hour), since)

	key, since = f.svc.Stats.Since("forever")
	assert.Equal(t, "30d", key)
	assert.Equal(t, now.Add(-30*24*time.Hour), since)
}

func TestPublicStats(t *testing.T) {
	f := newFixture(t)
	seller := f.activeUser(t, "seller@example.com", models.RoleUser)
	approved(t, f, seller.ID, "Kettle", 30)
	approved(t, f, seller.ID, "Toaster", 50)
	f.product(t, seller.ID, f.category(t, "Misc"), "Pending lamp", 1000)

	_, err := f.svc.Catalog.CreateAd(f.ctx, AdInput{Title: ptr("Banner")})
	require.NoError(t, err)
	_, err = f.svc.Catalog.CreateAd(f.ctx, AdInput{Title: ptr("Paused"), IsActive: ptr(false)})
	require.NoError(t, err)

	stats, err := f.svc.Stats.Public(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalProducts)
	assert.EqualValues(t, 3, stats.TotalCategories)
	assert.Equal(t, 2, stats.TotalAds)
	assert.Equal(t, 1, stats.ActiveAds)
	assert.InDelta(t, 40, stats.AveragePrice, 0.001)
	assert.Len(t, stats.TopCategories, 3)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	owner := f.activeUser(t, "owner@example.com", models.RoleUser)
	register(t, f, "pending@example.com", "")
	openStore(t, f, owner, "Corner Shop")
	f.product(t, owner.ID, f.category(t, "Food"), "Honey", 9)

	dash, err := f.svc.Stats.Dashboard(f.ctx, "bogus")
	require.NoError(t, err)
	assert.Equal(t, "30d", dash.Range)
	assert.EqualValues(t, 2, dash.Overview.TotalUsers)
	assert.EqualValues(t, 2, dash.Overview.NewUsers)
	assert.EqualValues(t, 1, dash.Overview.TotalStores)
	assert.EqualValues(t, 1, dash.Overview.NewProducts)
	assert.Equal(t, PendingApprovals{Total: 3, Users: 1, Stores: 1, Products: 1}, dash.PendingItems)
	assert.EqualValues(t, 3, dash.Overview.PendingApprovals)
	assert.EqualValues(t, 1, dash.UsersByRole["store_owner"])
	require.Len(t, dash.Categories, 1)
	assert.Equal(t, "Food", dash.Categories[0].Name)

	f.clock.advance(40 * 24 * time.Hour)
	dash, err = f.svc.Stats.Dashboard(f.ctx, "7d")
	require.NoError(t, err)
	assert.Zero(t, dash.Overview.NewUsers)
	assert.EqualValues(t, 2, dash.Overview.TotalUsers)
}

func TestAnalyticsByKind(t *testing.T) {
	f := newFixture(t)
	owner := f.activeUser(t, "owner@example.com", models.RoleUser)
	openStore(t, f, owner, "Shop")

	users, err := f.svc.Stats.Analytics(f.ctx, "users", "7d")
	require.NoError(t, err)
	assert.EqualValues(t, 1, users["totalUsers"])

	stores, err := f.svc.Stats.Analytics(f.ctx, "stores", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stores["totalStores"])
	assert.EqualValues(t, 0, stores["activeStores"])
	assert.Equal(t, "30d", stores["range"])

	overall, err := f.svc.Stats.Analytics(f.ctx, "", "1y")
	require.NoError(t, err)
	assert.Contains(t, overall, "overview")
	assert.Contains(t, overall, "growth")
}
