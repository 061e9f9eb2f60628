package models

import "time"

// Tagged is the membership of a contact in a tag
// Table: tagged
// The composite primary key keeps a (contact, tag) pair unique
type Tagged struct {
	ContactID uint      `gorm:"primaryKey;autoIncrement:false" json:"contact_id"`
	TagID     uint      `gorm:"primaryKey;autoIncrement:false;index:idx_tagged_tag_id" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Tagged) TableName() string { return "tagged" }

// TaggedFilter represents filter criteria for membership queries
type TaggedFilter struct {
	ContactID *uint
	TagID     *uint
}
