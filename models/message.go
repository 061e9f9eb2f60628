package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageStatus enumerates the delivery state of a message
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

// MessageSourceBroadcast marks messages materialized by a broadcast fanout
const MessageSourceBroadcast = "broadcast"

// Message is one outbound unit for one recipient
// Table: messages
// Subject and HTML are copied from the email so delivery never joins back
// Slug carries the owning broadcast slug
type Message struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uk_messages_uuid" json:"uuid"`
	Source    string        `gorm:"size:50;not null" json:"source"`
	Slug      string        `gorm:"size:255;not null;index:idx_messages_slug" json:"slug"`
	Status    MessageStatus `gorm:"size:20;not null;default:'pending';index:idx_messages_status" json:"status"`
	SendTo    string        `gorm:"size:255;not null" json:"send_to"`
	SendFrom  string        `gorm:"size:255;not null" json:"send_from"`
	Subject   string        `gorm:"size:500;not null" json:"subject"`
	HTML      string        `gorm:"type:text;not null" json:"html"`
	SendAt    *time.Time    `json:"send_at,omitempty"`
	SentAt    *time.Time    `json:"sent_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// MessageFilter represents filter criteria for message queries
type MessageFilter struct {
	ID     *uint
	Slug   *string
	Source *string
	Status *MessageStatus
	SendTo *string
}
