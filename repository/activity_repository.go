package repository

import (
	"context"

	"github.com/amirphl/tailwind-mail/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActivityRepositoryImpl implements ActivityRepository interface
type ActivityRepositoryImpl struct {
	*BaseRepository[models.Activity, models.ActivityFilter]
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &ActivityRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Activity, models.ActivityFilter](db),
	}
}

// ListByContact returns the activity of one contact, newest first
func (r *ActivityRepositoryImpl) ListByContact(ctx context.Context, contactID uint, limit, offset int) ([]*models.Activity, error) {
	return r.ByFilter(ctx, models.ActivityFilter{ContactID: &contactID}, "id DESC", limit, offset)
}

func (r *ActivityRepositoryImpl) applyFilter(query *gorm.DB, filter models.ActivityFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.Key != nil {
		query = query.Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: *filter.Key})
	}
	return query
}

// ByFilter retrieves activities based on filter criteria
func (r *ActivityRepositoryImpl) ByFilter(ctx context.Context, filter models.ActivityFilter, orderBy string, limit, offset int) ([]*models.Activity, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Activity{}), filter)

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

	var rows []*models.Activity
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of activities matching the filter
func (r *ActivityRepositoryImpl) Count(ctx context.Context, filter models.ActivityFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Activity{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any activity matching the filter exists
func (r *ActivityRepositoryImpl) Exists(ctx context.Context, filter models.ActivityFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
