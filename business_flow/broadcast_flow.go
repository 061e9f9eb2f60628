package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/tailwind-mail/app/services"
	"github.com/amirphl/tailwind-mail/config"
	"github.com/amirphl/tailwind-mail/models"
	"github.com/amirphl/tailwind-mail/repository"
	"github.com/amirphl/tailwind-mail/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	commandCreateBroadcast = "create_broadcast"
	commandPreviewAudience = "preview_audience"
	commandValidateDoc     = "validate_document"
)

const (
	validateMessageEmpty   = "The markdown is empty"
	validateMessageInvalid = "Ensure there is a Subject and Summary in the markdown"
)

// BroadcastFlow creates broadcasts and fans them out into pending messages
type BroadcastFlow interface {
	CreateBroadcast(ctx context.Context, doc *ParsedDocument) (*CommandResult, error)
	CreateBroadcastFromMarkdown(ctx context.Context, markdown string) (*CommandResult, error)
	PreviewAudience(ctx context.Context, selector string) (*CommandResult, error)
	ValidateDocument(ctx context.Context, markdown string) (*CommandResult, error)
}

// BroadcastFlowImpl implements the broadcast business flow
type BroadcastFlowImpl struct {
	emailRepo     repository.EmailRepository
	broadcastRepo repository.BroadcastRepository
	messageRepo   repository.MessageRepository
	resolver      SegmentResolver
	renderer      services.MarkdownRenderer
	notifier      services.DispatchNotifier
	cfg           *config.Config
	db            *gorm.DB
	logger        *zap.Logger
}

// NewBroadcastFlow creates a new broadcast flow instance
func NewBroadcastFlow(
	emailRepo repository.EmailRepository,
	broadcastRepo repository.BroadcastRepository,
	messageRepo repository.MessageRepository,
	resolver SegmentResolver,
	renderer services.MarkdownRenderer,
	notifier services.DispatchNotifier,
	cfg *config.Config,
	db *gorm.DB,
	logger *zap.Logger,
) BroadcastFlow {
	if notifier == nil {
		notifier = services.NewNoopDispatchNotifier()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BroadcastFlowImpl{
		emailRepo:     emailRepo,
		broadcastRepo: broadcastRepo,
		messageRepo:   messageRepo,
		resolver:      resolver,
		renderer:      renderer,
		notifier:      notifier,
		cfg:           cfg,
		db:            db,
		logger:        logger.Named("broadcast_flow"),
	}
}

// CreateBroadcastFromMarkdown parses markdown and creates a broadcast from it
func (f *BroadcastFlowImpl) CreateBroadcastFromMarkdown(ctx context.Context, markdown string) (*CommandResult, error) {
	doc, err := ParseDocument(markdown, f.renderer)
	if err != nil {
		observe(commandCreateBroadcast, nil, err)
		if IsEmptyInput(err) {
			return nil, NewBusinessError("EMPTY_INPUT", "Markdown content is required", err)
		}
		return nil, NewBusinessError("RENDER_FAILED", "Failed to render markdown", err)
	}
	return f.CreateBroadcast(ctx, doc)
}

// CreateBroadcast writes the email, the broadcast and one pending message per recipient in one transaction
func (f *BroadcastFlowImpl) CreateBroadcast(ctx context.Context, doc *ParsedDocument) (result *CommandResult, err error) {
	defer func() { observe(commandCreateBroadcast, result, err) }()

	if !doc.IsValid() {
		return nil, NewBusinessError("INVALID_DOCUMENT", "Document requires subject, summary and body", ErrInvalidDocument)
	}

	var (
		email     *models.Email
		broadcast *models.Broadcast
		inserted  int
	)

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		email = &models.Email{
			Slug:       doc.Slug,
			Subject:    doc.Subject,
			Preview:    doc.Summary,
			HTML:       *doc.HTML,
			DelayHours: 0,
		}
		if err := f.emailRepo.Save(txCtx, email); err != nil {
			return err
		}

		broadcast = &models.Broadcast{
			EmailID:   email.ID,
			Slug:      email.Slug,
			Name:      email.Subject,
			Status:    models.BroadcastStatusPending,
			SendToTag: NormalizeSelector(doc.SendToTag),
			ReplyTo:   f.replyTo(),
		}
		if err := f.broadcastRepo.Save(txCtx, broadcast); err != nil {
			return err
		}

		contacts, err := f.resolver.Resolve(txCtx, broadcast.SendToTag)
		if err != nil {
			return err
		}

		messages := buildMessages(broadcast, email, contacts)
		if err := f.messageRepo.SaveBatchWithSize(txCtx, messages, f.batchSize()); err != nil {
			return err
		}
		inserted = len(messages)
		return nil
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, NewBusinessError("BROADCAST_SLUG_EXISTS", "A broadcast with this slug already exists", ErrBroadcastSlugExists)
		}
		storeErr := ClassifyStoreError(commandCreateBroadcast, err)
		f.logger.Error("broadcast creation rolled back",
			zap.String("slug", doc.Slug),
			zap.Bool("retryable", IsRetryable(storeErr)),
			zap.Error(err))
		return nil, NewBusinessError("BROADCAST_FAILED", "Broadcast creation failed", storeErr)
	}

	broadcastMessagesTotal.Add(float64(inserted))
	notified := f.notify(ctx, services.BroadcastEvent{
		BroadcastID: broadcast.ID,
		EmailID:     email.ID,
		Slug:        broadcast.Slug,
		Messages:    inserted,
	})

	f.logger.Info("broadcast created",
		zap.Uint("broadcast_id", broadcast.ID),
		zap.Uint("email_id", email.ID),
		zap.String("selector", broadcast.SendToTag),
		zap.Int("inserted", inserted),
		zap.Bool("notified", notified))

	result = &CommandResult{
		Success:  true,
		Inserted: inserted,
		Data: map[string]any{
			"broadcast_id": broadcast.ID,
			"email_id":     email.ID,
			"slug":         broadcast.Slug,
			"send_to_tag":  broadcast.SendToTag,
			"notified":     notified,
		},
	}
	return result, nil
}

// PreviewAudience counts the recipients a broadcast to selector would reach right now
func (f *BroadcastFlowImpl) PreviewAudience(ctx context.Context, selector string) (result *CommandResult, err error) {
	defer func() { observe(commandPreviewAudience, result, err) }()

	normalized := NormalizeSelector(selector)
	count, err := f.resolver.Count(ctx, normalized)
	if err != nil {
		return nil, NewBusinessError("AUDIENCE_PREVIEW_FAILED", "Audience preview failed", ClassifyStoreError(commandPreviewAudience, err))
	}

	result = NewCommandResult(true).
		WithData("selector", normalized).
		WithData("count", count)
	return result, nil
}

// ValidateDocument parses markdown without writing anything and reports the audience it would reach.
// Blank and invalid documents are results with valid=false, not errors.
func (f *BroadcastFlowImpl) ValidateDocument(ctx context.Context, markdown string) (result *CommandResult, err error) {
	defer func() { observe(commandValidateDoc, result, err) }()

	doc, err := ParseDocument(markdown, f.renderer)
	if err != nil {
		if IsEmptyInput(err) {
			result = NewCommandResult(false).
				WithData("valid", false).
				WithData("message", validateMessageEmpty)
			return result, nil
		}
		return nil, NewBusinessError("RENDER_FAILED", "Failed to render markdown", err)
	}

	if !doc.IsValid() {
		result = NewCommandResult(false).
			WithData("valid", false).
			WithData("message", validateMessageInvalid).
			WithData("document", documentData(doc))
		return result, nil
	}

	selector := NormalizeSelector(doc.SendToTag)
	count, err := f.resolver.Count(ctx, selector)
	if err != nil {
		return nil, NewBusinessError("AUDIENCE_PREVIEW_FAILED", "Audience preview failed", ClassifyStoreError(commandValidateDoc, err))
	}

	result = NewCommandResult(true).
		WithData("valid", true).
		WithData("document", documentData(doc)).
		WithData("selector", selector).
		WithData("contacts", count)
	return result, nil
}

// Private helper methods

func documentData(doc *ParsedDocument) map[string]any {
	return map[string]any{
		"subject":     doc.Subject,
		"summary":     doc.Summary,
		"slug":        doc.Slug,
		"send_to_tag": doc.SendToTag,
	}
}

func (f *BroadcastFlowImpl) replyTo() string {
	if f.cfg != nil && f.cfg.Mail.DefaultFrom != "" {
		return f.cfg.Mail.DefaultFrom
	}
	return utils.DefaultFromAddress
}

func (f *BroadcastFlowImpl) batchSize() int {
	if f.cfg != nil && f.cfg.Mail.FanoutBatchSize > 0 {
		return f.cfg.Mail.FanoutBatchSize
	}
	return utils.DefaultFanoutBatchSize
}

// notify runs after commit; a failure is logged and never undoes the broadcast
func (f *BroadcastFlowImpl) notify(ctx context.Context, event services.BroadcastEvent) bool {
	timeout := 3 * time.Second
	if f.cfg != nil && f.cfg.Dispatch.NotifyTimeout > 0 {
		timeout = f.cfg.Dispatch.NotifyTimeout
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := f.notifier.NotifyBroadcast(notifyCtx, event); err != nil {
		f.logger.Warn("broadcast dispatch notification failed",
			zap.Uint("broadcast_id", event.BroadcastID),
			zap.Error(err))
		return false
	}
	return true
}

// buildMessages materializes one pending message per contact, denormalizing subject and html
func buildMessages(broadcast *models.Broadcast, email *models.Email, contacts []*models.Contact) []*models.Message {
	messages := make([]*models.Message, 0, len(contacts))
	for _, c := range contacts {
		messages = append(messages, &models.Message{
			UUID:     uuid.New(),
			Source:   models.MessageSourceBroadcast,
			Slug:     broadcast.Slug,
			Status:   models.MessageStatusPending,
			SendTo:   c.Email,
			SendFrom: broadcast.ReplyTo,
			Subject:  email.Subject,
			HTML:     email.HTML,
		})
	}
	return messages
}
