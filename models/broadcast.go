package models

import "time"

// BroadcastStatus enumerates the lifecycle of a broadcast
type BroadcastStatus string

const (
	BroadcastStatusPending   BroadcastStatus = "pending"
	BroadcastStatusSent      BroadcastStatus = "sent"
	BroadcastStatusProcessed BroadcastStatus = "processed"
)

// SendToAll is the selector that targets every subscribed contact
const SendToAll = "*"

// Broadcast is a send job backed by one email
// Table: broadcasts
// Slug is unique and derived from the email slug
type Broadcast struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	EmailID     uint            `gorm:"not null;index:idx_broadcasts_email_id" json:"email_id"`
	Slug        string          `gorm:"size:255;not null;uniqueIndex:uk_broadcasts_slug" json:"slug"`
	Name        string          `gorm:"size:500;not null" json:"name"`
	Status      BroadcastStatus `gorm:"size:20;not null;default:'pending';index:idx_broadcasts_status" json:"status"`
	SendToTag   string          `gorm:"size:255;not null;default:'*'" json:"send_to_tag"`
	ReplyTo     string          `gorm:"size:255;not null" json:"reply_to"`
	CreatedAt   time.Time       `gorm:"index:idx_broadcasts_created_at" json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

func (Broadcast) TableName() string { return "broadcasts" }

// BroadcastFilter represents filter criteria for broadcast queries
type BroadcastFilter struct {
	ID        *uint
	EmailID   *uint
	Slug      *string
	Status    *BroadcastStatus
	SendToTag *string
}
