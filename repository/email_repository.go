package repository

import (
	"context"

	"github.com/amirphl/tailwind-mail/models"
	"gorm.io/gorm"
)

// EmailRepositoryImpl implements EmailRepository interface
type EmailRepositoryImpl struct {
	*BaseRepository[models.Email, models.EmailFilter]
}

// NewEmailRepository creates a new email repository
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &EmailRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Email, models.EmailFilter](db),
	}
}

// BySlug retrieves an email by slug
func (r *EmailRepositoryImpl) BySlug(ctx context.Context, slug string) (*models.Email, error) {
	rows, err := r.ByFilter(ctx, models.EmailFilter{Slug: &slug}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *EmailRepositoryImpl) applyFilter(query *gorm.DB, filter models.EmailFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Slug != nil {
		query = query.Where("slug = ?", *filter.Slug)
	}
	return query
}

// ByFilter retrieves emails based on filter criteria
func (r *EmailRepositoryImpl) ByFilter(ctx context.Context, filter models.EmailFilter, orderBy string, limit, offset int) ([]*models.Email, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Email{}), filter)

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

	var rows []*models.Email
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of emails matching the filter
func (r *EmailRepositoryImpl) Count(ctx context.Context, filter models.EmailFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Email{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any email matching the filter exists
func (r *EmailRepositoryImpl) Exists(ctx context.Context, filter models.EmailFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
