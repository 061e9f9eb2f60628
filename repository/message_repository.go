package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/tailwind-mail/models"
	"gorm.io/gorm"
)

// MessageRepositoryImpl implements MessageRepository interface
type MessageRepositoryImpl struct {
	*BaseRepository[models.Message, models.MessageFilter]
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &MessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Message, models.MessageFilter](db),
	}
}

// ListPending returns the oldest pending messages, up to limit
func (r *MessageRepositoryImpl) ListPending(ctx context.Context, limit int) ([]*models.Message, error) {
	status := models.MessageStatusPending
	return r.ByFilter(ctx, models.MessageFilter{Status: &status}, "id ASC", limit, 0)
}

// MarkSent records a successful delivery
func (r *MessageRepositoryImpl) MarkSent(ctx context.Context, messageID uint, sentAt time.Time) error {
	return r.transition(ctx, messageID, map[string]any{
		"status":  models.MessageStatusSent,
		"sent_at": sentAt,
	})
}

// MarkFailed records a failed delivery
func (r *MessageRepositoryImpl) MarkFailed(ctx context.Context, messageID uint) error {
	return r.transition(ctx, messageID, map[string]any{
		"status": models.MessageStatusFailed,
	})
}

// CountBySlug returns the number of messages produced for a broadcast slug
func (r *MessageRepositoryImpl) CountBySlug(ctx context.Context, slug string) (int64, error) {
	return r.Count(ctx, models.MessageFilter{Slug: &slug})
}

// transition only moves pending messages; sent and failed are terminal
func (r *MessageRepositoryImpl) transition(ctx context.Context, messageID uint, updates map[string]any) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	err = db.Model(&models.Message{}).
		Where("id = ? AND status = ?", messageID, models.MessageStatusPending).
		Updates(updates).Error
	if err != nil {
		err = fmt.Errorf("failed to update message %d: %w", messageID, err)
	}

	return finish(db, shouldCommit, err)
}

func (r *MessageRepositoryImpl) applyFilter(query *gorm.DB, filter models.MessageFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Slug != nil {
		query = query.Where("slug = ?", *filter.Slug)
	}
	if filter.Source != nil {
		query = query.Where("source = ?", *filter.Source)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SendTo != nil {
		query = query.Where("send_to = ?", *filter.SendTo)
	}
	return query
}

// ByFilter retrieves messages based on filter criteria
func (r *MessageRepositoryImpl) ByFilter(ctx context.Context, filter models.MessageFilter, orderBy string, limit, offset int) ([]*models.Message, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Message{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Message
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of messages matching the filter
func (r *MessageRepositoryImpl) Count(ctx context.Context, filter models.MessageFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Message{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any message matching the filter exists
func (r *MessageRepositoryImpl) Exists(ctx context.Context, filter models.MessageFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
