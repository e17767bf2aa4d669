package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/bazzarly/internal/errs"
)

var testNow = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

func approvedProduct() *Product {
	p := NewProduct(uuid.New(), "Vintage Lamp", testNow)
	p.Price = 50
	p.Moderation.Status = ModerationApproved
	p.Normalize(DefaultRules(), testNow)
	return p
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "nice-lamp", Slugify("Nice  Lamp!!", 100))
	assert.Equal(t, "a-b-c", Slugify("--A__b  c--", 100))
	assert.Equal(t, "abc", Slugify("abc-def", 4))
	assert.Equal(t, "", Slugify("!!!", 100))
	assert.Equal(t, "tom-s-lamp", Slugify("Tom&#x27;s Lamp", 100))
	assert.Equal(t, "salt-pepper", Slugify("Salt &amp; Pepper", 100))
}

func TestSinglePrimaryImage(t *testing.T) {
	tests := []struct {
		name  string
		flags []bool
		want  []bool
	}{
		{"none flagged", []bool{false, false, false}, []bool{true, false, false}},
		{"several flagged", []bool{false, true, true}, []bool{true, false, false}},
		{"one flagged kept", []bool{false, false, true}, []bool{false, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProduct(uuid.New(), "Lamp", testNow)
			for _, f := range tt.flags {
				p.Images = append(p.Images, ProductImage{URL: "x", IsPrimary: f})
			}
			p.Normalize(DefaultRules(), testNow)

			got := make([]bool, len(p.Images))
			for i, img := range p.Images {
				got[i] = img.IsPrimary
				assert.Equal(t, i, img.DisplayOrder)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeBackfillsOnce(t *testing.T) {
	p := NewProduct(uuid.New(), "Nice  Lamp!!", testNow)
	p.Price = 50
	p.Normalize(DefaultRules(), testNow)

	require.NotNil(t, p.OriginalPrice)
	assert.Equal(t, 50.0, *p.OriginalPrice)
	assert.Equal(t, "nice-lamp", p.Slug)
	require.NotNil(t, p.Settings.ExpiresAt)
	assert.Equal(t, testNow.Add(30*24*time.Hour), *p.Settings.ExpiresAt)

	orig := 80.0
	p.OriginalPrice = &orig
	p.Price = 40
	p.Normalize(DefaultRules(), testNow.Add(time.Hour))
	assert.Equal(t, 80.0, *p.OriginalPrice)
	assert.Equal(t, 50, p.DiscountPercentage())
}

func TestAvailableForPurchase(t *testing.T) {
	assert.True(t, approvedProduct().IsAvailableForPurchase(testNow))

	breakers := map[string]func(p *Product){
		"reserved":     func(p *Product) { p.Availability = Reserved },
		"inactive":     func(p *Product) { p.Settings.IsActive = false },
		"private":      func(p *Product) { p.Settings.IsPublic = false },
		"not approved": func(p *Product) { p.Moderation.Status = ModerationPending },
		"expired": func(p *Product) {
			past := testNow.Add(-time.Minute)
			p.Settings.ExpiresAt = &past
		},
		"no stock": func(p *Product) { p.Quantity = 0 },
	}
	for name, breakIt := range breakers {
		t.Run(name, func(t *testing.T) {
			p := approvedProduct()
			breakIt(p)
			assert.False(t, p.IsAvailableForPurchase(testNow))
		})
	}
}

func TestAddView(t *testing.T) {
	p := approvedProduct()
	p.AddView(nil, testNow)
	p.AddView(nil, testNow)
	assert.Equal(t, 2, p.Analytics.Views)
	assert.Equal(t, 0, p.Analytics.UniqueViews)

	viewer := uuid.New()
	p.AddView(&viewer, testNow)
	p.AddView(&viewer, testNow)
	p.AddView(&p.SellerID, testNow)
	assert.Equal(t, 5, p.Analytics.Views)
	assert.Equal(t, 2, p.Analytics.UniqueViews)
	assert.Equal(t, testNow, *p.Analytics.LastViewed)
}

func TestMakeOffer(t *testing.T) {
	p := approvedProduct()
	buyer := uuid.New()

	c, err := p.MakeOffer(buyer, 150, "", 7, testNow)
	require.NoError(t, err)

	require.Len(t, p.Comments, 1)
	assert.Equal(t, CommentOfferType, c.Type)
	assert.False(t, c.IsPublic)
	assert.Equal(t, 150.0, *c.Offer.Amount)
	assert.True(t, c.Offer.IsActive)
	assert.Equal(t, testNow.AddDate(0, 0, 7), *c.Offer.ExpiresAt)
	assert.Equal(t, "Offering $150", c.Message)
	assert.Equal(t, 0, p.Analytics.Inquiries)

	p.Settings.AllowOffers = false
	_, err = p.MakeOffer(buyer, 100, "", 7, testNow)
	assert.ErrorIs(t, err, errs.ErrOffersDisabled)
}

func TestAddComment(t *testing.T) {
	p := approvedProduct()
	user := uuid.New()

	parent, err := p.AddComment(CommentInput{UserID: user, Message: "Still available?", IsPublic: true}, testNow)
	require.NoError(t, err)
	assert.Equal(t, CommentGeneral, parent.Type)

	_, err = p.AddComment(CommentInput{UserID: p.SellerID, Message: "Yes", IsPublic: true, ParentID: &parent.ID}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Analytics.Inquiries)

	missing := uuid.New()
	_, err = p.AddComment(CommentInput{UserID: user, Message: "?", ParentID: &missing}, testNow)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Len(t, p.Comments, 2)
}

func TestMarkAsSold(t *testing.T) {
	p := approvedProduct()
	buyer := uuid.New()
	final := 45.0

	require.NoError(t, p.MarkAsSold(&buyer, &final, testNow))
	assert.Equal(t, Sold, p.Availability)
	assert.False(t, p.Settings.IsActive)
	assert.Equal(t, 45.0, p.Price)
	require.Len(t, p.Transactions, 1)
	assert.Equal(t, "sale", p.Transactions[0].Type)
	assert.Equal(t, "completed", p.Transactions[0].Status)
	assert.Equal(t, 45.0, p.Transactions[0].Amount)

	assert.ErrorIs(t, p.MarkAsSold(nil, nil, testNow), errs.ErrAlreadySold)
	assert.ErrorIs(t, p.Reserve(), errs.ErrInvalidTransition)
}

func TestAvailabilityTransitions(t *testing.T) {
	p := approvedProduct()
	require.NoError(t, p.Reserve())
	assert.ErrorIs(t, p.Reserve(), errs.ErrInvalidTransition)
	require.NoError(t, p.Release())
	require.NoError(t, p.MarkPending())
	assert.ErrorIs(t, p.Reserve(), errs.ErrInvalidTransition)
	require.NoError(t, p.Release())
	assert.Equal(t, Available, p.Availability)
}

func TestModerate(t *testing.T) {
	admin := uuid.New()

	p := NewProduct(uuid.New(), "Lamp", testNow)
	require.NoError(t, p.Moderate("reject", admin, "blurry photos", testNow))
	assert.Equal(t, ModerationRejected, p.Moderation.Status)
	assert.Equal(t, "blurry photos", p.Moderation.RejectionReason)
	assert.Equal(t, admin, *p.Moderation.ApprovedBy)
	assert.ErrorIs(t, p.Moderate("approve", admin, "", testNow), errs.ErrInvalidTransition)

	p = NewProduct(uuid.New(), "Lamp", testNow)
	assert.ErrorIs(t, p.Moderate("archive", admin, "", testNow), errs.ErrInvalidAction)

	require.NoError(t, p.Flag(uuid.New(), "spam", testNow))
	assert.Equal(t, ModerationFlagged, p.Moderation.Status)
	require.NoError(t, p.Moderate("approve", admin, "", testNow))
	assert.Equal(t, ModerationApproved, p.Moderation.Status)
	assert.Empty(t, p.Moderation.RejectionReason)
}

func TestCanUserEdit(t *testing.T) {
	p := approvedProduct()
	assert.True(t, p.CanUserEdit(p.SellerID))
	assert.False(t, p.CanUserEdit(uuid.New()))

	store := uuid.New()
	p.SellerType = SellerStore
	p.StoreID = &store
	assert.False(t, p.CanUserEdit(p.SellerID))
}

func TestStockLevel(t *testing.T) {
	p := approvedProduct()
	rules := DefaultRules()
	for qty, want := range map[int]string{0: "out-of-stock", 1: "low-stock", 5: "low-stock", 6: "in-stock"} {
		p.Quantity = qty
		assert.Equal(t, want, p.StockLevel(rules), qty)
	}
}

func TestProductPublicJSON(t *testing.T) {
	p := approvedProduct()
	p.Contact.Phone = ContactChannel{Value: "+15550100", IsPublic: false}
	p.Contact.Email = ContactChannel{Value: "seller@example.com", IsPublic: true}
	p.Location = ProductLocation{Address: "1 Main St", City: "Austin", ZipCode: "78701", IsExact: false}
	p.Comments = []ProductComment{
		{Message: "public", IsPublic: true, Status: "active"},
		{Message: "offer", IsPublic: false, Status: "active"},
	}
	p.Transactions = []ProductTransaction{{Type: "sale"}}

	out := p.ToPublicJSON(nil, testNow)
	assert.Empty(t, out.Contact.Phone.Value)
	assert.Equal(t, "seller@example.com", out.Contact.Email.Value)
	assert.Empty(t, out.Location.Address)
	assert.Empty(t, out.Location.ZipCode)
	assert.Equal(t, "Austin", out.Location.City)
	require.Len(t, out.Comments, 1)
	assert.Nil(t, out.Transactions)
	assert.Equal(t, "/product/vintage-lamp", out.URL)
	assert.True(t, out.IsAvailableForPurchase)

	assert.Len(t, p.ToPublicJSON(&p.SellerID, testNow).Comments, 2)
	assert.Equal(t, "+15550100", p.Contact.Phone.Value)
}

func TestLoginLockout(t *testing.T) {
	rules := DefaultRules()
	u := NewUser("Jane", "Doe", "jane@example.com", "", RoleUser, testNow)

	for i := 0; i < 4; i++ {
		u.IncrementLoginAttempts(rules, testNow)
	}
	assert.False(t, u.IsLocked(testNow))

	fifth := testNow.Add(time.Minute)
	u.IncrementLoginAttempts(rules, fifth)
	require.True(t, u.IsLocked(fifth))
	assert.Equal(t, fifth.Add(2*time.Hour), *u.LockUntil)
	assert.True(t, u.IsLocked(fifth.Add(2*time.Hour-time.Second)))
	assert.False(t, u.IsLocked(fifth.Add(2*time.Hour)))

	u.IncrementLoginAttempts(rules, fifth.Add(3*time.Hour))
	assert.Equal(t, 1, u.LoginAttempts)
	assert.Nil(t, u.LockUntil)

	u.RecordLogin(testNow)
	assert.Equal(t, 0, u.LoginAttempts)
	assert.Equal(t, testNow, *u.Stats.LastActive)
}

func TestPasswordHashing(t *testing.T) {
	u := NewUser("Jane", "Doe", "jane@example.com", "", RoleUser, testNow)
	require.NoError(t, u.SetPassword("Secret123", bcrypt.MinCost))

	assert.NotEqual(t, "Secret123", u.PasswordHash)
	assert.True(t, u.CheckPassword("Secret123"))
	assert.False(t, u.CheckPassword("secret123"))
}

func TestHasPermission(t *testing.T) {
	super := &User{Role: RoleSuperAdmin}
	admin := &User{Role: RoleAdmin}
	user := &User{Role: RoleUser, Permissions: []string{string(PermManageAds)}}

	assert.True(t, super.HasPermission(PermSystemConfig))
	assert.True(t, admin.HasPermission(PermModerateContent))
	assert.False(t, admin.HasPermission(PermSystemConfig))
	assert.False(t, admin.HasPermission(PermManagePayments))
	assert.True(t, user.HasPermission(PermManageAds))
	assert.False(t, user.HasPermission(PermManageUsers))
}

func TestNewUserDowngradesRole(t *testing.T) {
	assert.Equal(t, RoleUser, NewUser("A", "B", "a@b.co", "", RoleSuperAdmin, testNow).Role)
	assert.Equal(t, RoleStoreOwner, NewUser("A", "B", "a@b.co", "", RoleStoreOwner, testNow).Role)

	u := NewUser("A", "B", "a@b.co", "+15550100", RoleUser, testNow)
	assert.Equal(t, UserPending, u.Status)
	assert.False(t, u.EmailVerified)
	assert.False(t, u.PhoneVerified)
	assert.True(t, u.Preferences.Privacy.ShowLocation)
	assert.False(t, u.Preferences.Privacy.ShowPhone)
}

func TestVerificationActivates(t *testing.T) {
	u := NewUser("A", "B", "a@b.co", "+15550100", RoleUser, testNow)
	u.VerifyEmail()
	assert.Equal(t, UserPending, u.Status)
	u.VerifyPhone()
	assert.Equal(t, UserActive, u.Status)

	noPhone := NewUser("A", "B", "c@d.co", "", RoleUser, testNow)
	noPhone.VerifyEmail()
	assert.Equal(t, UserActive, noPhone.Status)

	banned := NewUser("A", "B", "e@f.co", "", RoleUser, testNow)
	banned.Status = UserBanned
	banned.VerifyEmail()
	assert.Equal(t, UserBanned, banned.Status)
}

func TestUserPublicJSON(t *testing.T) {
	u := NewUser("Jane", "Doe", "jane@example.com", "+15550100", RoleUser, testNow)
	u.Location.City = "Austin"

	out := u.ToPublicJSON()
	assert.Empty(t, out.Email)
	assert.Nil(t, out.Phone)
	require.NotNil(t, out.Location)
	assert.Equal(t, "Austin", out.Location.City)
	assert.Equal(t, "Jane Doe", out.FullName)

	u.Preferences.Privacy = PrivacyPreferences{ShowEmail: true, ShowPhone: true}
	out = u.ToPublicJSON()
	assert.Equal(t, "jane@example.com", out.Email)
	assert.Equal(t, "+15550100", *out.Phone)
	assert.Nil(t, out.Location)
}
