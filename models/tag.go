package models

import "time"

// Tag represents a named segment of contacts
// Table: tags
// Unique by slug; created lazily the first time a bulk tag command references it
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex:uk_tags_slug" json:"slug"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"index:idx_tags_created_at" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Tag) TableName() string { return "tags" }

// TagFilter represents filter criteria for tag queries
type TagFilter struct {
	ID            *uint
	Slug          *string
	Name          *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
