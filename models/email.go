package models

import "time"

// Email is the content record produced from a parsed markdown document
// Table: emails
// Rows are immutable once written; broadcasts reference them by id
type Email struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Slug       string    `gorm:"size:255;not null;uniqueIndex:uk_emails_slug" json:"slug"`
	Subject    string    `gorm:"size:500;not null" json:"subject"`
	Preview    string    `gorm:"type:text;not null" json:"preview"`
	HTML       string    `gorm:"type:text;not null" json:"html"`
	DelayHours int       `gorm:"not null;default:0" json:"delay_hours"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Email) TableName() string { return "emails" }

// EmailFilter represents filter criteria for email queries
type EmailFilter struct {
	ID   *uint
	Slug *string
}
