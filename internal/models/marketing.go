package models

import "time"

// Ad is a promotional banner shown on the storefront.
type Ad struct {
	BaseModel
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	Image       string     `json:"image"`
	Link        string     `json:"link,omitempty"`
	Discount    string     `json:"discount,omitempty"`
	ValidUntil  *time.Time `json:"validUntil,omitempty"`
	IsActive    bool       `gorm:"index" json:"isActive"`
	SortOrder   int        `json:"sortOrder"`
}

func (a *Ad) IsActiveAt(now time.Time) bool {
	return a.IsActive && (a.ValidUntil == nil || a.ValidUntil.After(now))
}
