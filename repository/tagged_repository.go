package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/tailwind-mail/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaggedRepositoryImpl implements TaggedRepository interface
type TaggedRepositoryImpl struct {
	*BaseRepository[models.Tagged, models.TaggedFilter]
}

// NewTaggedRepository creates a new membership repository
func NewTaggedRepository(db *gorm.DB) TaggedRepository {
	return &TaggedRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Tagged, models.TaggedFilter](db),
	}
}

// Attach links a contact to a tag. Re-attaching an existing pair is a no-op reported as false.
func (r *TaggedRepositoryImpl) Attach(ctx context.Context, contactID, tagID uint) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Tagged{
		ContactID: contactID,
		TagID:     tagID,
	})
	if res.Error != nil {
		return false, finish(db, shouldCommit, fmt.Errorf("failed to attach tag %d to contact %d: %w", tagID, contactID, res.Error))
	}
	created := res.RowsAffected > 0

	if err = finish(db, shouldCommit, nil); err != nil {
		return false, err
	}
	return created, nil
}

// IsTagged reports whether the contact is a member of the tag
func (r *TaggedRepositoryImpl) IsTagged(ctx context.Context, contactID, tagID uint) (bool, error) {
	return r.Exists(ctx, models.TaggedFilter{ContactID: &contactID, TagID: &tagID})
}

// CountByTag returns the number of members of a tag
func (r *TaggedRepositoryImpl) CountByTag(ctx context.Context, tagID uint) (int64, error) {
	return r.Count(ctx, models.TaggedFilter{TagID: &tagID})
}

// applyFilter applies filter criteria to a GORM query
func (r *TaggedRepositoryImpl) applyFilter(query *gorm.DB, filter models.TaggedFilter) *gorm.DB {
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.TagID != nil {
		query = query.Where("tag_id = ?", *filter.TagID)
	}
	return query
}

// ByFilter retrieves memberships based on filter criteria
func (r *TaggedRepositoryImpl) ByFilter(ctx context.Context, filter models.TaggedFilter, orderBy string, limit, offset int) ([]*models.Tagged, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Tagged{}), filter)

	if orderBy == "" {
		orderBy = "contact_id ASC, tag_id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Tagged
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of memberships matching the filter
func (r *TaggedRepositoryImpl) Count(ctx context.Context, filter models.TaggedFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Tagged{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any membership matching the filter exists
func (r *TaggedRepositoryImpl) Exists(ctx context.Context, filter models.TaggedFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
