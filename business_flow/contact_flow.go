package businessflow

import (
	"context"
	"strings"

	"github.com/amirphl/tailwind-mail/app/services"
	"github.com/amirphl/tailwind-mail/models"
	"github.com/amirphl/tailwind-mail/repository"
	"github.com/amirphl/tailwind-mail/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	commandSignup      = "signup"
	commandOptOut      = "optout"
	commandOptIn       = "optin"
	commandLinkClicked = "link_clicked"
	commandSearch      = "search_contacts"
)

// Contact search page bounds
const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 500
)

const maxNameLength = 255

// Activity descriptions written alongside contact state changes
const (
	activitySignupDescription = "New Contact"
	activityOptOutDescription = "Unsubbed"
	activityOptInDescription  = "Opted in using key"
)

// ContactFlow handles the subscriber state commands
type ContactFlow interface {
	Signup(ctx context.Context, name, email string) (*CommandResult, error)
	OptOut(ctx context.Context, key string) (*CommandResult, error)
	OptIn(ctx context.Context, key string) (*CommandResult, error)
	LinkClicked(ctx context.Context, key string) (*CommandResult, error)
	Search(ctx context.Context, term string, limit int) (*CommandResult, error)
}

// ContactFlowImpl implements the contact business flow
type ContactFlowImpl struct {
	contactRepo  repository.ContactRepository
	activityRepo repository.ActivityRepository
	keyGen       services.KeyGenerator
	validate     *validator.Validate
	db           *gorm.DB
	logger       *zap.Logger
}

// NewContactFlow creates a new contact flow instance
func NewContactFlow(
	contactRepo repository.ContactRepository,
	activityRepo repository.ActivityRepository,
	keyGen services.KeyGenerator,
	db *gorm.DB,
	logger *zap.Logger,
) ContactFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactFlowImpl{
		contactRepo:  contactRepo,
		activityRepo: activityRepo,
		keyGen:       keyGen,
		validate:     validator.New(),
		db:           db,
		logger:       logger.Named("contact_flow"),
	}
}

// Signup creates a subscribed contact unless the address is already known.
// The unique index on email decides concurrent signups for the same address.
func (f *ContactFlowImpl) Signup(ctx context.Context, name, email string) (result *CommandResult, err error) {
	defer func() { observe(commandSignup, result, err) }()

	email = utils.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := f.validateSignup(name, email); err != nil {
		return nil, NewBusinessError("SIGNUP_VALIDATION_FAILED", "Signup validation failed", err)
	}

	var contact *models.Contact
	exists := false

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		existing, err := f.contactRepo.ByEmail(txCtx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			exists = true
			return nil
		}

		key, err := f.keyGen.Generate()
		if err != nil {
			return err
		}

		contact = &models.Contact{
			Email:      email,
			Key:        key,
			Name:       utils.StringOrNil(name),
			Subscribed: utils.ToPtr(true),
		}
		if err := f.contactRepo.Save(txCtx, contact); err != nil {
			return err
		}

		return f.activityRepo.Save(txCtx, &models.Activity{
			ContactID:   contact.ID,
			Key:         models.ActivitySignup,
			Description: activitySignupDescription,
		})
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			f.logger.Info("signup lost race on unique email", zap.String("email", email))
			return contactExistsResult(), nil
		}
		return nil, NewBusinessError("SIGNUP_FAILED", "Signup failed", ClassifyStoreError(commandSignup, err))
	}
	if exists {
		return contactExistsResult(), nil
	}

	result = &CommandResult{
		Success:  true,
		Inserted: 1,
		Data: map[string]any{
			"id":         contact.ID,
			"key":        contact.Key,
			"subscribed": utils.IsTrue(contact.Subscribed),
		},
	}
	return result, nil
}

// OptOut unsubscribes the contact owning key. Unknown keys are a silent no-op.
func (f *ContactFlowImpl) OptOut(ctx context.Context, key string) (result *CommandResult, err error) {
	defer func() { observe(commandOptOut, result, err) }()
	return f.setSubscribed(ctx, commandOptOut, key, false, models.ActivityOptOut, activityOptOutDescription)
}

// OptIn resubscribes the contact owning key. Unknown keys are a silent no-op.
func (f *ContactFlowImpl) OptIn(ctx context.Context, key string) (result *CommandResult, err error) {
	defer func() { observe(commandOptIn, result, err) }()
	return f.setSubscribed(ctx, commandOptIn, key, true, models.ActivityOptIn, activityOptInDescription)
}

// LinkClicked acknowledges a tracked link without recording it.
// TODO: write through to a click log table once link tracking lands.
func (f *ContactFlowImpl) LinkClicked(ctx context.Context, key string) (result *CommandResult, err error) {
	defer func() { observe(commandLinkClicked, result, err) }()

	result = NewCommandResult(true).WithData("message", "link click not recorded")
	return result, nil
}

// Search finds contacts whose email or name contains term, ignoring case, newest first
func (f *ContactFlowImpl) Search(ctx context.Context, term string, limit int) (result *CommandResult, err error) {
	defer func() { observe(commandSearch, result, err) }()

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, NewBusinessError("SEARCH_TERM_REQUIRED", "Search term is required", ErrSearchTerm)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)

	contacts, err := f.contactRepo.ByFilter(ctx, models.ContactFilter{Search: &term}, "id DESC", limit, 0)
	if err != nil {
		return nil, NewBusinessError("CONTACT_SEARCH_FAILED", "Contact search failed", ClassifyStoreError(commandSearch, err))
	}

	result = NewCommandResult(true).
		WithData("term", term).
		WithData("count", len(contacts)).
		WithData("contacts", contacts)
	return result, nil
}

// Private helper methods

func (f *ContactFlowImpl) validateSignup(name, email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if err := f.validate.Var(email, "email,max=255"); err != nil {
		return ErrInvalidEmail
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// setSubscribed sets the flag even when it already holds the value, so repeated calls report updated=1
func (f *ContactFlowImpl) setSubscribed(ctx context.Context, op, key string, subscribed bool, activityKey, description string) (*CommandResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return &CommandResult{Success: false, Data: map[string]any{}}, nil
	}

	updated := 0
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		contact, err := f.contactRepo.ByKey(txCtx, key)
		if err != nil {
			return err
		}
		if contact == nil {
			return nil
		}

		if err := f.contactRepo.UpdateSubscribed(txCtx, contact.ID, subscribed); err != nil {
			return err
		}
		if err := f.activityRepo.Save(txCtx, &models.Activity{
			ContactID:   contact.ID,
			Key:         activityKey,
			Description: description,
		}); err != nil {
			return err
		}
		updated = 1
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("SUBSCRIPTION_UPDATE_FAILED", "Subscription update failed", ClassifyStoreError(op, err))
	}

	return &CommandResult{
		Success: updated == 1,
		Updated: updated,
		Data:    map[string]any{"subscribed": subscribed},
	}, nil
}

func contactExistsResult() *CommandResult {
	return &CommandResult{
		Success: false,
		Data: map[string]any{
			"message": "contact exists",
			"exists":  true,
		},
	}
}
