package models

import "time"

// Rules carries the lifecycle constants used by the entity mutators.
type Rules struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	ListingTTL        time.Duration
	OfferTTLDays      int
	SlugMaxLength     int
	PasswordCost      int
	LowStockThreshold int
}

// DefaultRules returns the marketplace defaults.
func DefaultRules() Rules {
	return Rules{
		MaxLoginAttempts:  5,
		LockDuration:      2 * time.Hour,
		ListingTTL:        30 * 24 * time.Hour,
		OfferTTLDays:      7,
		SlugMaxLength:     100,
		PasswordCost:      12,
		LowStockThreshold: 5,
	}
}
