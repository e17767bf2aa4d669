package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bazzarly/internal/errs"
)

func TestStoreNormalize(t *testing.T) {
	s := NewStore(uuid.New(), "Bob's  Bikes & Boards", testNow)
	s.Addresses = []StoreAddress{{City: "Austin", IsDefault: true}, {City: "Dallas", IsDefault: true}}
	s.Normalize(DefaultRules(), testNow)

	assert.Equal(t, "bob-s-bikes-boards", s.Slug)
	assert.True(t, s.Addresses[0].IsDefault)
	assert.False(t, s.Addresses[1].IsDefault)
	assert.Equal(t, "Austin", s.PrimaryAddress().City)

	s.Name = "Renamed"
	s.Normalize(DefaultRules(), testNow)
	assert.Equal(t, "bob-s-bikes-boards", s.Slug)
}

func TestCanUserManage(t *testing.T) {
	owner := uuid.New()
	editor := uuid.New()
	analyst := uuid.New()
	s := NewStore(owner, "Shop", testNow)
	s.Subscription.Limits.AdminUsers = 5
	require.NoError(t, s.AddAdmin(editor, StoreEditor, []StorePermission{StoreManageProducts}, testNow))
	require.NoError(t, s.AddAdmin(analyst, StoreViewer, []StorePermission{StoreViewAnalytics}, testNow))

	tests := []struct {
		user   uuid.UUID
		action string
		want   bool
	}{
		{owner, "delete_everything", true},
		{editor, "view", true},
		{editor, "edit", true},
		{editor, "manage_products", true},
		{editor, "manage_orders", false},
		{analyst, "edit", false},
		{analyst, "view_analytics", true},
		{analyst, "unknown", false},
		{uuid.New(), "view", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.CanUserManage(tt.user, tt.action), tt.action)
	}
}

func TestAddAdminLimits(t *testing.T) {
	owner := uuid.New()
	s := NewStore(owner, "Shop", testNow)

	assert.ErrorIs(t, s.AddAdmin(owner, StoreEditor, nil, testNow), errs.ErrBadRequest)
	first := uuid.New()
	require.NoError(t, s.AddAdmin(first, "", nil, testNow))
	assert.Equal(t, StoreEditor, s.Admins[0].Role)
	assert.ErrorIs(t, s.AddAdmin(first, StoreEditor, nil, testNow), errs.ErrConflict)
	assert.ErrorIs(t, s.AddAdmin(uuid.New(), StoreEditor, nil, testNow), errs.ErrLimitReached)

	assert.True(t, s.RemoveAdmin(first))
	assert.False(t, s.RemoveAdmin(first))
}

func TestStoreHoursAndDeals(t *testing.T) {
	s := NewStore(uuid.New(), "Shop", testNow)
	assert.True(t, s.IsOpenAt(testNow))

	// testNow is a Monday.
	s.Hours = []StoreHours{{Day: "monday", IsOpen: true, OpenTime: "09:00", CloseTime: "18:00"}}
	assert.True(t, s.IsOpenAt(testNow))
	assert.False(t, s.IsOpenAt(testNow.Add(10*time.Hour)))
	assert.False(t, s.IsOpenAt(testNow.Add(24*time.Hour)))

	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	s.Deals = []StoreDeal{
		{Title: "open", IsActive: true},
		{Title: "ended", IsActive: true, ValidUntil: &past},
		{Title: "upcoming", IsActive: true, ValidFrom: &future},
		{Title: "off", IsActive: false},
	}
	deals := s.ActiveDeals(testNow)
	require.Len(t, deals, 1)
	assert.Equal(t, "open", deals[0].Title)
}

func TestStorePublicJSON(t *testing.T) {
	s := NewStore(uuid.New(), "Shop", testNow)
	s.Business.TaxID = "TAX-1"
	s.Business.Category = "bikes"
	s.Documents = []StoreDocument{{URL: "https://files.example.com/license.pdf"}}
	s.Normalize(DefaultRules(), testNow)

	raw, err := json.Marshal(s.ToPublicJSON(testNow))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.NotContains(t, out, "subscription")
	assert.NotContains(t, out, "documents")
	assert.NotContains(t, out["business"], "taxId")
	assert.Equal(t, "bikes", out["business"].(map[string]any)["category"])
	assert.Equal(t, "/store/shop", out["url"])
}
