// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/tailwind-mail/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ContactRepository defines operations for contacts
type ContactRepository interface {
	Repository[models.Contact, models.ContactFilter]
	ByEmail(ctx context.Context, email string) (*models.Contact, error)
	ByKey(ctx context.Context, key string) (*models.Contact, error)
	ListByEmails(ctx context.Context, emails []string) ([]*models.Contact, error)
	UpdateSubscribed(ctx context.Context, contactID uint, subscribed bool) error
	// CountAudience and ListAudience must agree for the same selector within one transaction
	CountAudience(ctx context.Context, selector string) (int64, error)
	ListAudience(ctx context.Context, selector string) ([]*models.Contact, error)
}

// TagRepository defines operations for tags
type TagRepository interface {
	Repository[models.Tag, models.TagFilter]
	BySlug(ctx context.Context, slug string) (*models.Tag, error)
	GetOrCreateBySlug(ctx context.Context, slug, name string) (*models.Tag, error)
}

// TaggedRepository defines operations for contact/tag memberships
type TaggedRepository interface {
	Repository[models.Tagged, models.TaggedFilter]
	// Attach returns true only when a new membership row was written
	Attach(ctx context.Context, contactID, tagID uint) (bool, error)
	IsTagged(ctx context.Context, contactID, tagID uint) (bool, error)
	CountByTag(ctx context.Context, tagID uint) (int64, error)
}

// EmailRepository defines operations for emails
type EmailRepository interface {
	Repository[models.Email, models.EmailFilter]
	BySlug(ctx context.Context, slug string) (*models.Email, error)
}

// BroadcastRepository defines operations for broadcasts
type BroadcastRepository interface {
	Repository[models.Broadcast, models.BroadcastFilter]
	BySlug(ctx context.Context, slug string) (*models.Broadcast, error)
	MarkProcessed(ctx context.Context, broadcastID uint, status models.BroadcastStatus, processedAt time.Time) error
}

// MessageRepository defines operations for outbound messages
type MessageRepository interface {
	Repository[models.Message, models.MessageFilter]
	SaveBatchWithSize(ctx context.Context, messages []*models.Message, batchSize int) error
	ListPending(ctx context.Context, limit int) ([]*models.Message, error)
	MarkSent(ctx context.Context, messageID uint, sentAt time.Time) error
	MarkFailed(ctx context.Context, messageID uint) error
	CountBySlug(ctx context.Context, slug string) (int64, error)
}

// ActivityRepository defines operations for the contact activity log
type ActivityRepository interface {
	Repository[models.Activity, models.ActivityFilter]
	ListByContact(ctx context.Context, contactID uint, limit, offset int) ([]*models.Activity, error)
}
