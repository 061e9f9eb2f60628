package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/tailwind-mail/models"
	"github.com/amirphl/tailwind-mail/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactRepositoryImpl implements ContactRepository interface
type ContactRepositoryImpl struct {
	*BaseRepository[models.Contact, models.ContactFilter]
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &ContactRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Contact, models.ContactFilter](db),
	}
}

// ByEmail retrieves a contact by email, ignoring case and surrounding whitespace
func (r *ContactRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Contact, error) {
	normalized := utils.NormalizeEmail(email)
	return r.first(ctx, models.ContactFilter{Email: &normalized})
}

// ByKey retrieves a contact by its opaque key
func (r *ContactRepositoryImpl) ByKey(ctx context.Context, key string) (*models.Contact, error) {
	return r.first(ctx, models.ContactFilter{Key: &key})
}

// ListByEmails retrieves contacts for a list of addresses
func (r *ContactRepositoryImpl) ListByEmails(ctx context.Context, emails []string) ([]*models.Contact, error) {
	if len(emails) == 0 {
		return []*models.Contact{}, nil
	}
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		if n := utils.NormalizeEmail(e); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return []*models.Contact{}, nil
	}

	db := r.getDB(ctx)
	var rows []*models.Contact
	if err := db.Model(&models.Contact{}).Where("email IN ?", normalized).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts by emails: %w", err)
	}
	return rows, nil
}

// UpdateSubscribed sets the subscribed flag of a contact
func (r *ContactRepositoryImpl) UpdateSubscribed(ctx context.Context, contactID uint, subscribed bool) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	err = db.Model(&models.Contact{}).
		Where("id = ?", contactID).
		Updates(map[string]any{
			"subscribed": subscribed,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		err = fmt.Errorf("failed to update subscribed flag: %w", err)
	}

	return finish(db, shouldCommit, err)
}

// CountAudience counts subscribed contacts matching the selector
func (r *ContactRepositoryImpl) CountAudience(ctx context.Context, selector string) (int64, error) {
	var count int64
	if err := r.audienceQuery(ctx, selector).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count audience: %w", err)
	}
	return count, nil
}

// ListAudience enumerates subscribed contacts matching the selector ordered by id
func (r *ContactRepositoryImpl) ListAudience(ctx context.Context, selector string) ([]*models.Contact, error) {
	var rows []*models.Contact
	err := r.audienceQuery(ctx, selector).
		Select("contacts.*").
		Order("contacts.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audience: %w", err)
	}
	return rows, nil
}

// audienceQuery builds the shared base for CountAudience and ListAudience
func (r *ContactRepositoryImpl) audienceQuery(ctx context.Context, selector string) *gorm.DB {
	query := r.getDB(ctx).Model(&models.Contact{}).Where("contacts.subscribed = ?", true)
	if selector == models.SendToAll {
		return query
	}
	return query.
		Joins("JOIN tagged ON tagged.contact_id = contacts.id").
		Joins("JOIN tags ON tags.id = tagged.tag_id").
		Where("tags.slug = ?", selector)
}

func (r *ContactRepositoryImpl) first(ctx context.Context, filter models.ContactFilter) (*models.Contact, error) {
	db := r.getDB(ctx)
	var row models.Contact
	err := r.applyFilter(db.Model(&models.Contact{}), filter).Order("id ASC").Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ContactRepositoryImpl) applyFilter(query *gorm.DB, filter models.ContactFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Key != nil {
		query = query.Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: *filter.Key})
	}
	if filter.Subscribed != nil {
		query = query.Where("subscribed = ?", *filter.Subscribed)
	}
	if filter.Search != nil {
		pattern := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		query = query.Where("(LOWER(email) LIKE ? OR LOWER(name) LIKE ?)", pattern, pattern)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves contacts based on filter criteria
func (r *ContactRepositoryImpl) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Contact{}), filter)

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

	var rows []*models.Contact
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of contacts matching the filter
func (r *ContactRepositoryImpl) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Contact{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any contact matching the filter exists
func (r *ContactRepositoryImpl) Exists(ctx context.Context, filter models.ContactFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
