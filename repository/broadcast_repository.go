package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/tailwind-mail/models"
	"gorm.io/gorm"
)

// BroadcastRepositoryImpl implements BroadcastRepository interface
type BroadcastRepositoryImpl struct {
	*BaseRepository[models.Broadcast, models.BroadcastFilter]
}

// NewBroadcastRepository creates a new broadcast repository
func NewBroadcastRepository(db *gorm.DB) BroadcastRepository {
	return &BroadcastRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Broadcast, models.BroadcastFilter](db),
	}
}

// BySlug retrieves a broadcast by slug
func (r *BroadcastRepositoryImpl) BySlug(ctx context.Context, slug string) (*models.Broadcast, error) {
	rows, err := r.ByFilter(ctx, models.BroadcastFilter{Slug: &slug}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// MarkProcessed moves a pending broadcast to a terminal status.
// Broadcasts that already left pending are left untouched.
func (r *BroadcastRepositoryImpl) MarkProcessed(ctx context.Context, broadcastID uint, status models.BroadcastStatus, processedAt time.Time) error {
	if status == models.BroadcastStatusPending {
		return fmt.Errorf("broadcast %d: %q is not a terminal status", broadcastID, status)
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	err = db.Model(&models.Broadcast{}).
		Where("id = ? AND status = ?", broadcastID, models.BroadcastStatusPending).
		Updates(map[string]any{
			"status":       status,
			"processed_at": processedAt,
		}).Error
	if err != nil {
		err = fmt.Errorf("failed to mark broadcast %d processed: %w", broadcastID, err)
	}

	return finish(db, shouldCommit, err)
}

func (r *BroadcastRepositoryImpl) applyFilter(query *gorm.DB, filter models.BroadcastFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.EmailID != nil {
		query = query.Where("email_id = ?", *filter.EmailID)
	}
	if filter.Slug != nil {
		query = query.Where("slug = ?", *filter.Slug)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SendToTag != nil {
		query = query.Where("send_to_tag = ?", *filter.SendToTag)
	}
	return query
}

// ByFilter retrieves broadcasts based on filter criteria
func (r *BroadcastRepositoryImpl) ByFilter(ctx context.Context, filter models.BroadcastFilter, orderBy string, limit, offset int) ([]*models.Broadcast, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Broadcast{}), filter)

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

	var rows []*models.Broadcast
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of broadcasts matching the filter
func (r *BroadcastRepositoryImpl) Count(ctx context.Context, filter models.BroadcastFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Broadcast{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any broadcast matching the filter exists
func (r *BroadcastRepositoryImpl) Exists(ctx context.Context, filter models.BroadcastFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
