// Package models contains the persistent entities of the mail pipeline
package models

import "time"

// Contact represents a subscriber that can receive broadcasts
// Table: contacts
// Email is stored trimmed and lower-cased, so the unique index is case-insensitive in effect
// Key is an opaque random string used in unsubscribe and click links; it never changes after insert
type Contact struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Email      string    `gorm:"size:255;not null;uniqueIndex:uk_contacts_email" json:"email"`
	Key        string    `gorm:"size:64;not null;uniqueIndex:uk_contacts_key" json:"key"`
	Name       *string   `gorm:"size:255" json:"name,omitempty"`
	Subscribed *bool     `gorm:"not null;default:true;index:idx_contacts_subscribed" json:"subscribed"`
	CreatedAt  time.Time `gorm:"index:idx_contacts_created_at" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Contact) TableName() string { return "contacts" }

// ContactFilter represents filter criteria for contact queries
type ContactFilter struct {
	ID            *uint
	Email         *string
	Key           *string
	Subscribed    *bool
	// Search matches email or name case-insensitively as a substring
	Search        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
