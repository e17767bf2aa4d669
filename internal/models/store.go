package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/example/bazzarly/internal/errs"
)

type StoreStatus string

const (
	StorePending   StoreStatus = "pending"
	StoreActive    StoreStatus = "active"
	StoreSuspended StoreStatus = "suspended"
	StoreClosed    StoreStatus = "closed"
)

type StorePermission string

const (
	StoreManageProducts  StorePermission = "manage_products"
	StoreManageOrders    StorePermission = "manage_orders"
	StoreManageCustomers StorePermission = "manage_customers"
	StoreViewAnalytics   StorePermission = "view_analytics"
	StoreManageSettings  StorePermission = "manage_settings"
	StoreManageStaff     StorePermission = "manage_staff"
)

var StorePermissions = []StorePermission{
	StoreManageProducts, StoreManageOrders, StoreManageCustomers,
	StoreViewAnalytics, StoreManageSettings, StoreManageStaff,
}

// storeActions maps a management action to the admin permissions that grant it.
var storeActions = map[string][]StorePermission{
	"view":            StorePermissions,
	"edit":            {StoreManageProducts, StoreManageSettings},
	"manage_products": {StoreManageProducts},
	"manage_orders":   {StoreManageOrders},
	"manage_settings": {StoreManageSettings},
	"view_analytics":  {StoreViewAnalytics},
}

type StoreAdminRole string

const (
	StoreManager StoreAdminRole = "manager"
	StoreEditor  StoreAdminRole = "editor"
	StoreViewer  StoreAdminRole = "viewer"
)

type StoreAdmin struct {
	BaseModel
	StoreID     uuid.UUID      `gorm:"type:uuid;index" json:"storeId"`
	UserID      uuid.UUID      `gorm:"type:uuid;index" json:"userId"`
	Role        StoreAdminRole `gorm:"type:varchar(20)" json:"role"`
	Permissions pq.StringArray `gorm:"type:text[]" json:"permissions"`
}

func (a StoreAdmin) has(p StorePermission) bool {
	for _, granted := range a.Permissions {
		if StorePermission(granted) == p {
			return true
		}
	}
	return false
}

type Coordinates struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type StoreAddress struct {
	BaseModel
	StoreID      uuid.UUID   `gorm:"type:uuid;index" json:"storeId"`
	Type         string      `gorm:"type:varchar(20)" json:"type"` // primary|warehouse|pickup|billing
	Name         string      `json:"name,omitempty"`
	Address      string      `json:"address"`
	City         string      `json:"city"`
	State        string      `json:"state"`
	Country      string      `json:"country"`
	ZipCode      string      `json:"zipCode"`
	Coordinates  Coordinates `gorm:"embedded;embeddedPrefix:coord_" json:"coordinates"`
	IsDefault    bool        `json:"isDefault"`
	DisplayOrder int         `json:"displayOrder"`
}

type StoreHours struct {
	BaseModel
	StoreID   uuid.UUID `gorm:"type:uuid;index" json:"storeId"`
	Day       string    `gorm:"type:varchar(10)" json:"day"` // lowercase weekday
	IsOpen    bool      `json:"isOpen"`
	OpenTime  string    `json:"openTime"`  // HH:MM
	CloseTime string    `json:"closeTime"` // HH:MM
}

type StoreDeal struct {
	BaseModel
	StoreID         uuid.UUID  `gorm:"type:uuid;index" json:"storeId"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Image           string     `json:"image,omitempty"`
	DiscountPercent float64    `json:"discountPercent"`
	ValidFrom       *time.Time `json:"validFrom,omitempty"`
	ValidUntil      *time.Time `json:"validUntil,omitempty"`
	IsActive        bool       `json:"isActive"`
}

func (d StoreDeal) ActiveAt(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.ValidFrom != nil && d.ValidFrom.After(now) {
		return false
	}
	return d.ValidUntil == nil || !d.ValidUntil.Before(now)
}

type StoreDocument struct {
	BaseModel
	StoreID uuid.UUID `gorm:"type:uuid;index" json:"storeId"`
	Type    string    `json:"type"`
	URL     string    `json:"url"`
	Status  string    `gorm:"type:varchar(20)" json:"status"` // pending|approved|rejected
}

type StoreColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

type StoreBranding struct {
	Logo    string      `json:"logo,omitempty"`
	Banner  string      `json:"banner,omitempty"`
	Favicon string      `json:"favicon,omitempty"`
	Colors  StoreColors `gorm:"embedded;embeddedPrefix:color_" json:"colors"`
}

type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Youtube   string `json:"youtube,omitempty"`
}

type StoreContact struct {
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	Website     string      `json:"website,omitempty"`
	SocialMedia SocialLinks `gorm:"embedded;embeddedPrefix:social_" json:"socialMedia"`
}

type StoreBusiness struct {
	Type               string `gorm:"type:varchar(20)" json:"type"` // individual|business|corporation
	Category           string `gorm:"index" json:"category"`
	SubCategory        string `json:"subCategory,omitempty"`
	TaxID              string `json:"taxId,omitempty"`
	BusinessLicense    string `json:"businessLicense,omitempty"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
	EstablishedYear    int    `json:"establishedYear,omitempty"`
}

type StoreSettings struct {
	IsActive                 bool `gorm:"index" json:"isActive"`
	IsPublic                 bool `json:"isPublic"`
	AllowGuestCheckout       bool `json:"allowGuestCheckout"`
	RequireEmailVerification bool `json:"requireEmailVerification"`
	AutoApproveProducts      bool `json:"autoApproveProducts"`
}

type StorePolicies struct {
	Terms    string `json:"terms,omitempty"`
	Privacy  string `json:"privacy,omitempty"`
	Refund   string `json:"refund,omitempty"`
	Shipping string `json:"shipping,omitempty"`
}

type StoreAnalytics struct {
	TotalProducts  int     `json:"totalProducts"`
	ActiveProducts int     `json:"activeProducts"`
	TotalOrders    int     `json:"totalOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
	Rating         float64 `json:"rating"`
	ReviewCount    int     `json:"reviewCount"`
}

type StoreMetrics struct {
	Views          int        `json:"views"`
	UniqueVisitors int        `json:"uniqueVisitors"`
	LastUpdated    *time.Time `json:"lastUpdated,omitempty"`
}

type StoreVerification struct {
	IsVerified bool       `gorm:"index" json:"isVerified"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

type StoreLimits struct {
	Products   int `json:"products"`
	AdminUsers int `json:"adminUsers"`
}

type StoreSubscription struct {
	Plan      string      `gorm:"type:varchar(20)" json:"plan"` // free|basic|premium|enterprise
	StartDate *time.Time  `json:"startDate,omitempty"`
	EndDate   *time.Time  `json:"endDate,omitempty"`
	IsActive  bool        `json:"isActive"`
	Limits    StoreLimits `gorm:"embedded;embeddedPrefix:limit_" json:"limits"`
}

type Store struct {
	BaseModel
	Name         string            `gorm:"not null" json:"name"`
	Slug         string            `gorm:"uniqueIndex" json:"slug"`
	Description  string            `json:"description,omitempty"`
	Tagline      string            `json:"tagline,omitempty"`
	OwnerID      uuid.UUID         `gorm:"type:uuid;uniqueIndex" json:"ownerId"`
	Branding     StoreBranding     `gorm:"embedded;embeddedPrefix:branding_" json:"branding"`
	Contact      StoreContact      `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	Business     StoreBusiness     `gorm:"embedded;embeddedPrefix:business_" json:"business"`
	Settings     StoreSettings     `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	Policies     StorePolicies     `gorm:"embedded;embeddedPrefix:policy_" json:"policies"`
	Analytics    StoreAnalytics    `gorm:"embedded;embeddedPrefix:analytics_" json:"analytics"`
	Metrics      StoreMetrics      `gorm:"embedded;embeddedPrefix:metrics_" json:"metrics"`
	Verification StoreVerification `gorm:"embedded;embeddedPrefix:verification_" json:"verification"`
	Subscription StoreSubscription `gorm:"embedded;embeddedPrefix:subscription_" json:"subscription"`
	Status       StoreStatus       `gorm:"type:varchar(20);index" json:"status"`
	Admins       []StoreAdmin      `json:"admins"`
	Addresses    []StoreAddress    `json:"addresses"`
	Hours        []StoreHours      `json:"hours"`
	Deals        []StoreDeal       `json:"deals"`
	Documents    []StoreDocument   `json:"documents,omitempty"`
}

// NewStore returns a pending store on the free plan owned by ownerID.
func NewStore(ownerID uuid.UUID, name string, now time.Time) *Store {
	return &Store{
		BaseModel: newBase(now),
		Name:      strings.TrimSpace(name),
		OwnerID:   ownerID,
		Branding: StoreBranding{Colors: StoreColors{
			Primary: "#3b82f6", Secondary: "#64748b", Accent: "#f59e0b",
		}},
		Business: StoreBusiness{Type: "individual"},
		Settings: StoreSettings{
			IsActive:            true,
			IsPublic:            true,
			AllowGuestCheckout:  true,
			AutoApproveProducts: true,
		},
		Subscription: StoreSubscription{
			Plan:     "free",
			IsActive: true,
			Limits:   StoreLimits{Products: 10, AdminUsers: 1},
		},
		Status: StorePending,
	}
}

// Normalize runs before every write.
func (s *Store) Normalize(rules Rules, now time.Time) {
	if s.Slug == "" {
		s.Slug = Slugify(s.Name, rules.SlugMaxLength)
	}
	enforceSinglePrimary(s.Addresses, func(a *StoreAddress) *bool { return &a.IsDefault })
	for i := range s.Addresses {
		s.Addresses[i].DisplayOrder = i
	}
	s.UpdatedAt = now
}

func (s *Store) URL() string {
	return "/store/" + s.Slug
}

// PrimaryAddress returns the default address, or nil when none exist.
func (s *Store) PrimaryAddress() *StoreAddress {
	for i := range s.Addresses {
		if s.Addresses[i].IsDefault {
			return &s.Addresses[i]
		}
	}
	if len(s.Addresses) > 0 {
		return &s.Addresses[0]
	}
	return nil
}

func (s *Store) admin(userID uuid.UUID) (StoreAdmin, bool) {
	for _, a := range s.Admins {
		if a.UserID == userID {
			return a, true
		}
	}
	return StoreAdmin{}, false
}

// CanUserManage reports whether userID may perform action on the store. The
// owner may do anything; admins need one of the permissions mapped to action.
func (s *Store) CanUserManage(userID uuid.UUID, action string) bool {
	if s.OwnerID == userID {
		return true
	}
	admin, ok := s.admin(userID)
	if !ok {
		return false
	}
	for _, p := range storeActions[action] {
		if admin.has(p) {
			return true
		}
	}
	return false
}

// CanManageStaff reports whether userID may add or remove store admins.
func (s *Store) CanManageStaff(userID uuid.UUID) bool {
	if s.OwnerID == userID {
		return true
	}
	admin, ok := s.admin(userID)
	return ok && admin.has(StoreManageStaff)
}

func (s *Store) adminLimit() int {
	if s.Subscription.Limits.AdminUsers > 0 {
		return s.Subscription.Limits.AdminUsers
	}
	return 1
}

// AddAdmin appends a store admin. Unknown permissions are rejected.
func (s *Store) AddAdmin(userID uuid.UUID, role StoreAdminRole, perms []StorePermission, now time.Time) error {
	if userID == s.OwnerID {
		return fmt.Errorf("%w: owner cannot be added as a store admin", errs.ErrBadRequest)
	}
	if _, ok := s.admin(userID); ok {
		return fmt.Errorf("%w: user is already a store admin", errs.ErrConflict)
	}
	if len(s.Admins) >= s.adminLimit() {
		return fmt.Errorf("%w: store admin limit of %d reached", errs.ErrLimitReached, s.adminLimit())
	}
	switch role {
	case StoreManager, StoreEditor, StoreViewer:
	case "":
		role = StoreEditor
	default:
		return fmt.Errorf("%w: unknown store admin role %q", errs.ErrBadRequest, role)
	}

	granted := make(pq.StringArray, 0, len(perms))
	for _, p := range perms {
		if !knownStorePermission(p) {
			return fmt.Errorf("%w: unknown store permission %q", errs.ErrBadRequest, p)
		}
		granted = append(granted, string(p))
	}

	s.Admins = append(s.Admins, StoreAdmin{
		BaseModel:   newBase(now),
		StoreID:     s.ID,
		UserID:      userID,
		Role:        role,
		Permissions: granted,
	})
	return nil
}

func knownStorePermission(p StorePermission) bool {
	for _, known := range StorePermissions {
		if known == p {
			return true
		}
	}
	return false
}

// RemoveAdmin drops the admin entry for userID and reports whether one existed.
func (s *Store) RemoveAdmin(userID uuid.UUID) bool {
	for i, a := range s.Admins {
		if a.UserID == userID {
			s.Admins = append(s.Admins[:i], s.Admins[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) AddView(now time.Time) {
	s.Metrics.Views++
	s.Metrics.LastUpdated = &now
}

func (s *Store) ActiveDeals(now time.Time) []StoreDeal {
	deals := make([]StoreDeal, 0, len(s.Deals))
	for _, d := range s.Deals {
		if d.ActiveAt(now) {
			deals = append(deals, d)
		}
	}
	return deals
}

// IsOpenAt reports whether the store is open at t in t's location. A store
// without configured hours is always open.
func (s *Store) IsOpenAt(t time.Time) bool {
	if len(s.Hours) == 0 {
		return true
	}
	day := strings.ToLower(t.Weekday().String())
	clock := t.Format("15:04")
	for _, h := range s.Hours {
		if h.Day != day {
			continue
		}
		return h.IsOpen && clock >= h.OpenTime && clock <= h.CloseTime
	}
	return false
}

// PublicStore is the projection served to storefront visitors.
type PublicStore struct {
	Store
	Business     publicBusiness     `json:"business"`
	Subscription *StoreSubscription `json:"subscription,omitempty"`
	Documents    []StoreDocument    `json:"documents,omitempty"`
	URL          string             `json:"url"`
	IsOpen       bool               `json:"isOpen"`
	ActiveDeals  []StoreDeal        `json:"activeDeals"`
}

type publicBusiness struct {
	Type            string `json:"type"`
	Category        string `json:"category"`
	SubCategory     string `json:"subCategory,omitempty"`
	EstablishedYear int    `json:"establishedYear,omitempty"`
}

// ToPublicJSON strips tax, license and registration data, verification
// documents and the subscription.
func (s *Store) ToPublicJSON(now time.Time) PublicStore {
	return PublicStore{
		Store: *s,
		Business: publicBusiness{
			Type:            s.Business.Type,
			Category:        s.Business.Category,
			SubCategory:     s.Business.SubCategory,
			EstablishedYear: s.Business.EstablishedYear,
		},
		URL:         s.URL(),
		IsOpen:      s.IsOpenAt(now),
		ActiveDeals: s.ActiveDeals(now),
	}
}
