package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/tailwind-mail/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepositoryImpl implements TagRepository interface
type TagRepositoryImpl struct {
	*BaseRepository[models.Tag, models.TagFilter]
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &TagRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Tag, models.TagFilter](db),
	}
}

// ByID retrieves a tag by its ID
func (r *TagRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Tag, error) {
	db := r.getDB(ctx)
	var row models.Tag
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// BySlug retrieves a tag by slug
func (r *TagRepositoryImpl) BySlug(ctx context.Context, slug string) (*models.Tag, error) {
	filter := models.TagFilter{Slug: &slug}
	rows, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetOrCreateBySlug returns the tag with the given slug, inserting it first when missing.
// A concurrent insert of the same slug is absorbed by ON CONFLICT DO NOTHING.
func (r *TagRepositoryImpl) GetOrCreateBySlug(ctx context.Context, slug, name string) (*models.Tag, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return nil, err
	}

	row := &models.Tag{Slug: slug, Name: name}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(row).Error
	if err != nil {
		return nil, finish(db, shouldCommit, fmt.Errorf("failed to create tag %q: %w", slug, err))
	}

	var existing models.Tag
	if err = db.Where("slug = ?", slug).Take(&existing).Error; err != nil {
		return nil, finish(db, shouldCommit, fmt.Errorf("failed to load tag %q: %w", slug, err))
	}

	if err = finish(db, shouldCommit, nil); err != nil {
		return nil, err
	}
	return &existing, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *TagRepositoryImpl) applyFilter(query *gorm.DB, filter models.TagFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Slug != nil {
		query = query.Where("slug = ?", *filter.Slug)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves tags based on filter criteria
func (r *TagRepositoryImpl) ByFilter(ctx context.Context, filter models.TagFilter, orderBy string, limit, offset int) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Tag{})

	query = r.applyFilter(query, filter)

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

	var rows []*models.Tag
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of tags matching the filter
func (r *TagRepositoryImpl) Count(ctx context.Context, filter models.TagFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Tag{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any tag matching the filter exists
func (r *TagRepositoryImpl) Exists(ctx context.Context, filter models.TagFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
