package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	BaseModel
	Name         string     `gorm:"not null" json:"name"`
	Slug         string     `gorm:"uniqueIndex" json:"slug"`
	Description  string     `json:"description,omitempty"`
	Icon         string     `json:"icon,omitempty"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index" json:"parentId,omitempty"`
	SortOrder    int        `json:"sortOrder"`
	IsActive     bool       `gorm:"index" json:"isActive"`
	ProductCount int64      `gorm:"-" json:"productCount"`
}

// Normalize runs before every write.
func (c *Category) Normalize(rules Rules, now time.Time) {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name, rules.SlugMaxLength)
	}
	c.UpdatedAt = now
}
