package models

import "strings"

type SiteSettings struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Logo        string `json:"logo,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
	Theme       string `json:"theme"`
}

type FeatureFlags struct {
	UserRegistration  bool `json:"userRegistration"`
	EmailVerification bool `json:"emailVerification"`
	PhoneVerification bool `json:"phoneVerification"`
	StoreCreation     bool `json:"storeCreation"`
	ProductModeration bool `json:"productModeration"`
}

type PlatformLimits struct {
	MaxProductsPerUser  int `json:"maxProductsPerUser"`
	MaxImagesPerProduct int `json:"maxImagesPerProduct"`
}

type PaymentDisplay struct {
	DefaultCurrency string  `json:"defaultCurrency"`
	CommissionRate  float64 `json:"commissionRate"`
}

// SystemSettings holds platform-wide configuration managed from the admin
// panel. There is a single row.
type SystemSettings struct {
	BaseModel
	Site     SiteSettings   `gorm:"embedded;embeddedPrefix:site_" json:"site"`
	Features FeatureFlags   `gorm:"embedded;embeddedPrefix:feature_" json:"features"`
	Limits   PlatformLimits `gorm:"embedded;embeddedPrefix:limit_" json:"limits"`
	Payments PaymentDisplay `gorm:"embedded;embeddedPrefix:payment_" json:"payments"`
}

// DefaultSettings is what a fresh install starts with.
func DefaultSettings() SystemSettings {
	return SystemSettings{
		Site: SiteSettings{Name: "Bazzarly", Description: "Modern E-commerce Platform", Theme: "light"},
		Features: FeatureFlags{
			UserRegistration:  true,
			EmailVerification: true,
			PhoneVerification: true,
			StoreCreation:     true,
			ProductModeration: true,
		},
		Limits:   PlatformLimits{MaxProductsPerUser: 100, MaxImagesPerProduct: 10},
		Payments: PaymentDisplay{DefaultCurrency: "USD", CommissionRate: 5},
	}
}

// ApplyDefaults fills blank text and non-positive limits. Feature flags are
// left alone since false is a valid choice.
func (s *SystemSettings) ApplyDefaults() {
	def := DefaultSettings()
	if strings.TrimSpace(s.Site.Name) == "" {
		s.Site.Name = def.Site.Name
	}
	if strings.TrimSpace(s.Site.Description) == "" {
		s.Site.Description = def.Site.Description
	}
	if s.Site.Theme == "" {
		s.Site.Theme = def.Site.Theme
	}
	if s.Limits.MaxProductsPerUser <= 0 {
		s.Limits.MaxProductsPerUser = def.Limits.MaxProductsPerUser
	}
	if s.Limits.MaxImagesPerProduct <= 0 {
		s.Limits.MaxImagesPerProduct = def.Limits.MaxImagesPerProduct
	}
	if s.Payments.DefaultCurrency == "" {
		s.Payments.DefaultCurrency = def.Payments.DefaultCurrency
	}
	if s.Payments.CommissionRate < 0 {
		s.Payments.CommissionRate = def.Payments.CommissionRate
	}
}
