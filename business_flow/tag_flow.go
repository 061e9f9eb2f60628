package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/tailwind-mail/repository"
	"github.com/amirphl/tailwind-mail/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const commandBulkTag = "bulk_tag"

// TagFlow handles segment membership commands
type TagFlow interface {
	BulkTag(ctx context.Context, tag string, emails []string) (*CommandResult, error)
}

// TagFlowImpl implements the tag business flow
type TagFlowImpl struct {
	contactRepo repository.ContactRepository
	tagRepo     repository.TagRepository
	taggedRepo  repository.TaggedRepository
	db          *gorm.DB
	logger      *zap.Logger
}

// NewTagFlow creates a new tag flow instance
func NewTagFlow(
	contactRepo repository.ContactRepository,
	tagRepo repository.TagRepository,
	taggedRepo repository.TaggedRepository,
	db *gorm.DB,
	logger *zap.Logger,
) TagFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagFlowImpl{
		contactRepo: contactRepo,
		tagRepo:     tagRepo,
		taggedRepo:  taggedRepo,
		db:          db,
		logger:      logger.Named("tag_flow"),
	}
}

// BulkTag attaches tag to every known address in one transaction.
// Updated counts only contacts that gained the membership in this call; unknown addresses are skipped.
func (f *TagFlowImpl) BulkTag(ctx context.Context, tag string, emails []string) (result *CommandResult, err error) {
	defer func() { observe(commandBulkTag, result, err) }()

	slug := utils.Slugify(tag)
	if slug == "" || len(emails) == 0 {
		result = NewCommandResult(false).WithData("message", "tag and emails are required")
		return result, nil
	}

	updated := 0
	var tagID uint
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		row, err := f.tagRepo.GetOrCreateBySlug(txCtx, slug, strings.TrimSpace(tag))
		if err != nil {
			return err
		}
		tagID = row.ID

		contacts, err := f.contactRepo.ListByEmails(txCtx, emails)
		if err != nil {
			return err
		}

		for _, c := range contacts {
			created, err := f.taggedRepo.Attach(txCtx, c.ID, row.ID)
			if err != nil {
				return err
			}
			if created {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("BULK_TAG_FAILED", "Bulk tag failed", ClassifyStoreError(commandBulkTag, err))
	}

	f.logger.Info("bulk tag applied",
		zap.String("tag", slug),
		zap.Int("requested", len(emails)),
		zap.Int("updated", updated))

	result = &CommandResult{
		Success: true,
		Updated: updated,
		Data: map[string]any{
			"tag_id": tagID,
			"tag":    slug,
		},
	}
	return result, nil
}
