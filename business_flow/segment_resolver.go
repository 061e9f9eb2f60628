package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/tailwind-mail/models"
	"github.com/amirphl/tailwind-mail/repository"
	"github.com/amirphl/tailwind-mail/utils"
)

// SegmentResolver computes the subscribed contacts addressed by a selector.
// Count and Resolve agree for the same selector when called on the same transaction context.
type SegmentResolver interface {
	Count(ctx context.Context, selector string) (int64, error)
	Resolve(ctx context.Context, selector string) ([]*models.Contact, error)
}

// SegmentResolverImpl resolves selectors through the contact repository
type SegmentResolverImpl struct {
	contactRepo repository.ContactRepository
}

// NewSegmentResolver creates a new segment resolver
func NewSegmentResolver(contactRepo repository.ContactRepository) SegmentResolver {
	return &SegmentResolverImpl{contactRepo: contactRepo}
}

// Count returns the audience size for selector. An unknown tag yields zero.
func (r *SegmentResolverImpl) Count(ctx context.Context, selector string) (int64, error) {
	return r.contactRepo.CountAudience(ctx, NormalizeSelector(selector))
}

// Resolve enumerates the audience for selector ordered by contact id
func (r *SegmentResolverImpl) Resolve(ctx context.Context, selector string) ([]*models.Contact, error) {
	return r.contactRepo.ListAudience(ctx, NormalizeSelector(selector))
}

// NormalizeSelector keeps "*", maps a blank selector to "*" and turns anything else into a tag slug
func NormalizeSelector(selector string) string {
	selector = strings.TrimSpace(selector)
	if selector == "" || selector == models.SendToAll {
		return models.SendToAll
	}
	return utils.Slugify(selector)
}
