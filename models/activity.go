package models

import "time"

// Activity action constants
const (
	ActivitySignup = "signup"
	ActivityOptOut = "optout"
	ActivityOptIn  = "optin"
)

// Activity is an append-only log entry of a contact state change
// Table: activities
type Activity struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ContactID   uint      `gorm:"not null;index:idx_activities_contact_id" json:"contact_id"`
	Key         string    `gorm:"size:50;not null;index:idx_activities_key" json:"key"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"index:idx_activities_created_at" json:"created_at"`
}

func (Activity) TableName() string { return "activities" }

// ActivityFilter represents filter criteria for activity queries
type ActivityFilter struct {
	ID        *uint
	ContactID *uint
	Key       *string
}
