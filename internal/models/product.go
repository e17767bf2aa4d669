package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/example/bazzarly/internal/errs"
)

type Availability string

const (
	Available Availability = "available"
	Sold      Availability = "sold"
	Reserved  Availability = "reserved"
	Pending   Availability = "pending"
)

// availabilityTransitions lists the states reachable from each state. sold is terminal.
var availabilityTransitions = map[Availability][]Availability{
	Available: {Reserved, Pending, Sold},
	Reserved:  {Available, Pending, Sold},
	Pending:   {Available, Sold},
}

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
	ModerationFlagged  ModerationStatus = "flagged"
)

type SellerType string

const (
	SellerIndividual SellerType = "individual"
	SellerStore      SellerType = "store"
)

type CommentType string

const (
	CommentQuestion     CommentType = "question"
	CommentPriceInquiry CommentType = "price_inquiry"
	CommentInterest     CommentType = "interest"
	CommentOfferType    CommentType = "offer"
	CommentGeneral      CommentType = "general"
)

type ProductImage struct {
	BaseModel
	ProductID    uuid.UUID `gorm:"type:uuid;index" json:"productId"`
	URL          string    `gorm:"not null" json:"url"`
	Alt          string    `json:"alt,omitempty"`
	IsPrimary    bool      `json:"isPrimary"`
	DisplayOrder int       `json:"displayOrder"`
}

type CommentOffer struct {
	Amount    *float64   `json:"amount,omitempty"`
	IsActive  bool       `json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type ProductComment struct {
	BaseModel
	ProductID       uuid.UUID    `gorm:"type:uuid;index" json:"productId"`
	UserID          uuid.UUID    `gorm:"type:uuid;index" json:"userId"`
	Message         string       `gorm:"not null" json:"message"`
	Type            CommentType  `gorm:"type:varchar(20)" json:"type"`
	IsPublic        bool         `json:"isPublic"`
	ParentCommentID *uuid.UUID   `gorm:"type:uuid" json:"parentComment,omitempty"`
	Offer           CommentOffer `gorm:"embedded;embeddedPrefix:offer_" json:"offers"`
	Status          string       `gorm:"type:varchar(20)" json:"status"` // active|hidden|reported
}

type ProductTransaction struct {
	BaseModel
	ProductID uuid.UUID  `gorm:"type:uuid;index" json:"productId"`
	Type      string     `gorm:"type:varchar(20)" json:"type"` // inquiry|offer|negotiation|sale|cancelled
	UserID    *uuid.UUID `gorm:"type:uuid" json:"userId,omitempty"`
	Amount    float64    `json:"amount"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes,omitempty"`
}

type ProductFlag struct {
	BaseModel
	ProductID  uuid.UUID `gorm:"type:uuid;index" json:"productId"`
	Reason     string    `json:"reason"`
	ReportedBy uuid.UUID `gorm:"type:uuid" json:"reportedBy"`
	Status     string    `gorm:"type:varchar(20)" json:"status"` // pending|resolved|dismissed
}

type ContactChannel struct {
	Value    string `json:"value,omitempty"`
	IsPublic bool   `json:"isPublic"`
}

type ProductContact struct {
	PreferredMethod string         `json:"preferredMethod"` // phone|email|message|in-person
	Phone           ContactChannel `gorm:"embedded;embeddedPrefix:phone_" json:"phone"`
	Email           ContactChannel `gorm:"embedded;embeddedPrefix:email_" json:"email"`
	WhatsApp        ContactChannel `gorm:"embedded;embeddedPrefix:whatsapp_" json:"whatsapp"`
	MeetingNotes    string         `json:"meetingNotes,omitempty"`
}

type ProductLocation struct {
	Label             string      `json:"label,omitempty"`
	Address           string      `json:"address,omitempty"`
	City              string      `gorm:"index" json:"city"`
	State             string      `json:"state"`
	Country           string      `json:"country"`
	ZipCode           string      `json:"zipCode,omitempty"`
	Coordinates       Coordinates `gorm:"embedded;embeddedPrefix:coord_" json:"coordinates"`
	IsExact           bool        `json:"isExact"`
	PickupOnly        bool        `json:"pickupOnly"`
	DeliveryAvailable bool        `json:"deliveryAvailable"`
	DeliveryRadius    float64     `json:"deliveryRadius,omitempty"`
	DeliveryFee       float64     `json:"deliveryFee,omitempty"`
}

type ProductModeration struct {
	Status          ModerationStatus `gorm:"type:varchar(20);index" json:"status"`
	ApprovedBy      *uuid.UUID       `gorm:"type:uuid" json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time       `json:"approvedAt,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
}

type ProductSettings struct {
	IsActive       bool       `gorm:"index" json:"isActive"`
	IsPublic       bool       `json:"isPublic"`
	IsFeatured     bool       `gorm:"index" json:"isFeatured"`
	AllowOffers    bool       `json:"allowOffers"`
	AllowQuestions bool       `json:"allowQuestions"`
	AutoRenew      bool       `json:"autoRenew"`
	UrgentSale     bool       `json:"urgentSale"`
	ExpiresAt      *time.Time `gorm:"index" json:"expiresAt,omitempty"`
}

type ProductAnalytics struct {
	Views       int        `json:"views"`
	UniqueViews int        `json:"uniqueViews"`
	Inquiries   int        `json:"inquiries"`
	Favorites   int        `json:"favorites"`
	Shares      int        `json:"shares"`
	LastViewed  *time.Time `json:"lastViewed,omitempty"`
}

type Product struct {
	BaseModel
	Title            string               `gorm:"not null" json:"title"`
	Description      string               `gorm:"not null" json:"description"`
	ShortDescription string               `json:"shortDescription,omitempty"`
	Slug             string               `gorm:"uniqueIndex" json:"slug"`
	Price            float64              `gorm:"index" json:"price"`
	OriginalPrice    *float64             `json:"originalPrice,omitempty"`
	Currency         string               `json:"currency"`
	IsNegotiable     bool                 `json:"isNegotiable"`
	MinPrice         *float64             `json:"minPrice,omitempty"`
	CategoryID       uuid.UUID            `gorm:"type:uuid;index" json:"categoryId"`
	Category         *Category            `json:"category,omitempty"`
	Tags             pq.StringArray       `gorm:"type:text[]" json:"tags"`
	Brand            string               `json:"brand,omitempty"`
	ModelName        string               `json:"model,omitempty"`
	Condition        string               `gorm:"type:varchar(20);index" json:"condition"`
	Availability     Availability         `gorm:"type:varchar(20);index" json:"availability"`
	Quantity         int                  `json:"quantity"`
	SellerType       SellerType           `gorm:"type:varchar(20);index" json:"sellerType"`
	SellerID         uuid.UUID            `gorm:"type:uuid;index" json:"sellerId"`
	StoreID          *uuid.UUID           `gorm:"type:uuid;index" json:"storeId,omitempty"`
	Contact          ProductContact       `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	Location         ProductLocation      `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Moderation       ProductModeration    `gorm:"embedded;embeddedPrefix:moderation_" json:"moderation"`
	Settings         ProductSettings      `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	Analytics        ProductAnalytics     `gorm:"embedded;embeddedPrefix:analytics_" json:"analytics"`
	Images           []ProductImage       `json:"images"`
	Comments         []ProductComment     `json:"comments"`
	Transactions     []ProductTransaction `json:"transactions,omitempty"`
	Flags            []ProductFlag        `json:"flags,omitempty"`
}

// NewProduct returns an available listing awaiting moderation.
func NewProduct(sellerID uuid.UUID, title string, now time.Time) *Product {
	return &Product{
		BaseModel:    newBase(now),
		Title:        strings.TrimSpace(title),
		SellerID:     sellerID,
		SellerType:   SellerIndividual,
		Currency:     "USD",
		IsNegotiable: true,
		Availability: Available,
		Quantity:     1,
		Contact:      ProductContact{PreferredMethod: "message"},
		Moderation:   ProductModeration{Status: ModerationPending},
		Settings: ProductSettings{
			IsActive:       true,
			IsPublic:       true,
			AllowOffers:    true,
			AllowQuestions: true,
		},
	}
}

// Normalize runs before every write.
func (p *Product) Normalize(rules Rules, now time.Time) {
	if p.Slug == "" {
		p.Slug = Slugify(p.Title, rules.SlugMaxLength)
	}
	enforceSinglePrimary(p.Images, func(img *ProductImage) *bool { return &img.IsPrimary })
	for i := range p.Images {
		p.Images[i].DisplayOrder = i
	}
	if p.OriginalPrice == nil {
		price := p.Price
		p.OriginalPrice = &price
	}
	if p.Settings.ExpiresAt == nil {
		start := p.CreatedAt
		if start.IsZero() {
			start = now
		}
		expires := start.Add(rules.ListingTTL)
		p.Settings.ExpiresAt = &expires
	}
	p.UpdatedAt = now
}

// AddView counts a view. uniqueViews only grows for signed-in viewers other
// than the seller, and is not deduplicated per viewer.
func (p *Product) AddView(viewerID *uuid.UUID, now time.Time) {
	p.Analytics.Views++
	p.Analytics.LastViewed = &now
	if viewerID != nil && *viewerID != p.SellerID {
		p.Analytics.UniqueViews++
	}
}

// CommentInput describes a new comment. Type defaults to general.
type CommentInput struct {
	UserID   uuid.UUID
	Message  string
	Type     CommentType
	IsPublic bool
	ParentID *uuid.UUID
}

// AddComment appends a comment and counts an inquiry. A reply must point at
// an existing comment on this product.
func (p *Product) AddComment(in CommentInput, now time.Time) (*ProductComment, error) {
	if in.ParentID != nil && p.comment(*in.ParentID) == nil {
		return nil, fmt.Errorf("%w: parent comment not found", errs.ErrNotFound)
	}
	if in.Type == "" {
		in.Type = CommentGeneral
	}
	if in.Type == CommentOfferType {
		return nil, fmt.Errorf("%w: offers are made through the offer endpoint", errs.ErrBadRequest)
	}
	if in.Type == CommentQuestion && !p.Settings.AllowQuestions {
		return nil, fmt.Errorf("%w: seller does not accept questions", errs.ErrBadRequest)
	}

	p.Comments = append(p.Comments, ProductComment{
		BaseModel:       newBase(now),
		ProductID:       p.ID,
		UserID:          in.UserID,
		Message:         in.Message,
		Type:            in.Type,
		IsPublic:        in.IsPublic,
		ParentCommentID: in.ParentID,
		Status:          "active",
	})
	p.Analytics.Inquiries++
	return &p.Comments[len(p.Comments)-1], nil
}

func (p *Product) comment(id uuid.UUID) *ProductComment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}

// MakeOffer appends a private offer comment that expires after days. It does
// not count as an inquiry.
func (p *Product) MakeOffer(userID uuid.UUID, amount float64, message string, days int, now time.Time) (*ProductComment, error) {
	if !p.Settings.AllowOffers {
		return nil, errs.ErrOffersDisabled
	}
	if p.Availability == Sold {
		return nil, errs.ErrAlreadySold
	}
	if message == "" {
		message = "Offering $" + formatAmount(amount)
	}
	expires := now.AddDate(0, 0, days)

	p.Comments = append(p.Comments, ProductComment{
		BaseModel: newBase(now),
		ProductID: p.ID,
		UserID:    userID,
		Message:   message,
		Type:      CommentOfferType,
		IsPublic:  false,
		Offer:     CommentOffer{Amount: &amount, IsActive: true, ExpiresAt: &expires},
		Status:    "active",
	})
	return &p.Comments[len(p.Comments)-1], nil
}

func formatAmount(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func (p *Product) transition(to Availability) error {
	if p.Availability == Sold {
		if to == Sold {
			return errs.ErrAlreadySold
		}
		return fmt.Errorf("%w: product is sold", errs.ErrInvalidTransition)
	}
	for _, allowed := range availabilityTransitions[p.Availability] {
		if allowed == to {
			p.Availability = to
			return nil
		}
	}
	return fmt.Errorf("%w: cannot move from %s to %s", errs.ErrInvalidTransition, p.Availability, to)
}

// MarkAsSold closes the listing. finalPrice overrides the price when set; a
// buyer gets a completed sale transaction.
func (p *Product) MarkAsSold(buyerID *uuid.UUID, finalPrice *float64, now time.Time) error {
	if err := p.transition(Sold); err != nil {
		return err
	}
	p.Settings.IsActive = false
	if finalPrice != nil && *finalPrice > 0 {
		p.Price = *finalPrice
	}
	if buyerID != nil {
		buyer := *buyerID
		p.Transactions = append(p.Transactions, ProductTransaction{
			BaseModel: newBase(now),
			ProductID: p.ID,
			Type:      "sale",
			UserID:    &buyer,
			Amount:    p.Price,
			Status:    "completed",
		})
	}
	return nil
}

func (p *Product) Reserve() error {
	return p.transition(Reserved)
}

// Release returns a reserved or pending product to the market.
func (p *Product) Release() error {
	return p.transition(Available)
}

func (p *Product) MarkPending() error {
	return p.transition(Pending)
}

// CanUserEdit is true only for the seller of an individual listing. Store
// listings are edited through the store's own permissions.
func (p *Product) CanUserEdit(userID uuid.UUID) bool {
	if p.SellerType == SellerStore && p.StoreID != nil {
		return false
	}
	return p.SellerID == userID
}

func (p *Product) IsExpired(now time.Time) bool {
	return p.Settings.ExpiresAt != nil && p.Settings.ExpiresAt.Before(now)
}

func (p *Product) IsAvailableForPurchase(now time.Time) bool {
	return p.Availability == Available &&
		p.Settings.IsActive &&
		p.Settings.IsPublic &&
		p.Moderation.Status == ModerationApproved &&
		!p.IsExpired(now) &&
		p.Quantity > 0
}

// DiscountPercentage is the rounded markdown from the original price.
func (p *Product) DiscountPercentage() int {
	if p.OriginalPrice == nil || *p.OriginalPrice <= p.Price {
		return 0
	}
	return int(math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100))
}

func (p *Product) PrimaryImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	if len(p.Images) > 0 {
		return &p.Images[0]
	}
	return nil
}

func (p *Product) URL() string {
	if p.Slug != "" {
		return "/product/" + p.Slug
	}
	return "/product/" + p.ID.String()
}

// StockLevel buckets quantity the way listing filters do.
func (p *Product) StockLevel(rules Rules) string {
	switch {
	case p.Quantity <= 0:
		return "out-of-stock"
	case p.Quantity <= rules.LowStockThreshold:
		return "low-stock"
	default:
		return "in-stock"
	}
}

// Moderate applies an admin decision to a pending or flagged product.
func (p *Product) Moderate(action string, adminID uuid.UUID, reason string, now time.Time) error {
	var to ModerationStatus
	switch action {
	case "approve":
		to = ModerationApproved
	case "reject":
		to = ModerationRejected
	default:
		return errs.ErrInvalidAction
	}
	if p.Moderation.Status != ModerationPending && p.Moderation.Status != ModerationFlagged {
		return fmt.Errorf("%w: product is already %s", errs.ErrInvalidTransition, p.Moderation.Status)
	}

	p.Moderation.Status = to
	p.Moderation.ApprovedBy = &adminID
	p.Moderation.ApprovedAt = &now
	p.Moderation.RejectionReason = ""
	if to == ModerationRejected {
		p.Moderation.RejectionReason = reason
	}
	return nil
}

// Flag records a report and puts the product back into review.
func (p *Product) Flag(userID uuid.UUID, reason string, now time.Time) error {
	for _, f := range p.Flags {
		if f.ReportedBy == userID && f.Status == "pending" {
			return fmt.Errorf("%w: product already reported", errs.ErrConflict)
		}
	}
	p.Flags = append(p.Flags, ProductFlag{
		BaseModel:  newBase(now),
		ProductID:  p.ID,
		Reason:     reason,
		ReportedBy: userID,
		Status:     "pending",
	})
	p.Moderation.Status = ModerationFlagged
	return nil
}

// PublicProduct is the projection served to buyers.
type PublicProduct struct {
	Product
	Contact                ProductContact   `json:"contact"`
	Location               ProductLocation  `json:"location"`
	Comments               []ProductComment `json:"comments"`
	Transactions           []struct{}       `json:"transactions,omitempty"`
	Flags                  []struct{}       `json:"flags,omitempty"`
	URL                    string           `json:"url"`
	PrimaryImage           *ProductImage    `json:"primaryImage,omitempty"`
	DiscountPercentage     int              `json:"discountPercentage"`
	IsExpired              bool             `json:"isExpired"`
	IsAvailableForPurchase bool             `json:"isAvailableForPurchase"`
}

// ToPublicJSON drops the transaction log and reports, hides contact channels
// the seller keeps private, coarsens inexact locations and shows non-public
// comments only to the seller.
func (p *Product) ToPublicJSON(viewerID *uuid.UUID, now time.Time) PublicProduct {
	contact := p.Contact
	for _, ch := range []*ContactChannel{&contact.Phone, &contact.Email, &contact.WhatsApp} {
		if !ch.IsPublic {
			ch.Value = ""
		}
	}

	loc := p.Location
	if !loc.IsExact {
		loc.Address = ""
		loc.ZipCode = ""
		loc.Coordinates = Coordinates{}
	}

	comments := p.Comments
	if viewerID == nil || *viewerID != p.SellerID {
		comments = make([]ProductComment, 0, len(p.Comments))
		for _, c := range p.Comments {
			if c.IsPublic && c.Status == "active" {
				comments = append(comments, c)
			}
		}
	}

	return PublicProduct{
		Product:                *p,
		Contact:                contact,
		Location:               loc,
		Comments:               comments,
		URL:                    p.URL(),
		PrimaryImage:           p.PrimaryImage(),
		DiscountPercentage:     p.DiscountPercentage(),
		IsExpired:              p.IsExpired(now),
		IsAvailableForPurchase: p.IsAvailableForPurchase(now),
	}
}
