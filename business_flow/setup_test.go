package businessflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/tailwind-mail/app/services"
	businessflow "github.com/amirphl/tailwind-mail/business_flow"
	"github.com/amirphl/tailwind-mail/config"
	"github.com/amirphl/tailwind-mail/models"
	"github.com/amirphl/tailwind-mail/repository"
	testingutil "github.com/amirphl/tailwind-mail/testing"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// flowEnv wires every flow against a fresh test database
type flowEnv struct {
	db       *testingutil.TestDB
	fixtures *testingutil.TestFixtures
	cfg      *config.Config

	contactRepo   repository.ContactRepository
	tagRepo       repository.TagRepository
	taggedRepo    repository.TaggedRepository
	emailRepo     repository.EmailRepository
	broadcastRepo repository.BroadcastRepository
	messageRepo   repository.MessageRepository
	activityRepo  repository.ActivityRepository

	renderer services.MarkdownRenderer
	notifier *testingutil.MockDispatchNotifier
	resolver businessflow.SegmentResolver

	broadcastFlow businessflow.BroadcastFlow
	contactFlow   businessflow.ContactFlow
	tagFlow       businessflow.TagFlow
}

func setupFlowEnv(t *testing.T) *flowEnv {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = testDB.TeardownTestDB() })

	env := &flowEnv{
		db:       testDB,
		fixtures: testingutil.NewTestFixtures(testDB),
		cfg: &config.Config{
			Mail: config.MailConfig{
				DefaultFrom:     "news@example.com",
				FanoutBatchSize: 2,
			},
		},
		contactRepo:   repository.NewContactRepository(testDB.DB),
		tagRepo:       repository.NewTagRepository(testDB.DB),
		taggedRepo:    repository.NewTaggedRepository(testDB.DB),
		emailRepo:     repository.NewEmailRepository(testDB.DB),
		broadcastRepo: repository.NewBroadcastRepository(testDB.DB),
		messageRepo:   repository.NewMessageRepository(testDB.DB),
		activityRepo:  repository.NewActivityRepository(testDB.DB),
		renderer:      services.NewMarkdownRenderer(),
		notifier:      testingutil.NewMockDispatchNotifier(),
	}
	env.resolver = businessflow.NewSegmentResolver(env.contactRepo)
	env.broadcastFlow = env.newBroadcastFlow(t, env.messageRepo)
	env.contactFlow = businessflow.NewContactFlow(env.contactRepo, env.activityRepo, services.NewKeyGenerator(), testDB.DB, zaptest.NewLogger(t))
	env.tagFlow = businessflow.NewTagFlow(env.contactRepo, env.tagRepo, env.taggedRepo, testDB.DB, zaptest.NewLogger(t))

	return env
}

func (e *flowEnv) newBroadcastFlow(t *testing.T, messageRepo repository.MessageRepository) businessflow.BroadcastFlow {
	return businessflow.NewBroadcastFlow(
		e.emailRepo,
		e.broadcastRepo,
		messageRepo,
		e.resolver,
		e.renderer,
		e.notifier,
		e.cfg,
		e.db.DB,
		zaptest.NewLogger(t),
	)
}

func (e *flowEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	n, err := e.fixtures.CountRows(model)
	require.NoError(t, err)
	return n
}

// failingMessageRepository writes the batch and then fails, leaving rows inside the open transaction
type failingMessageRepository struct {
	repository.MessageRepository
	err error
}

func (r *failingMessageRepository) SaveBatchWithSize(ctx context.Context, messages []*models.Message, batchSize int) error {
	if err := r.MessageRepository.SaveBatchWithSize(ctx, messages, batchSize); err != nil {
		return err
	}
	return r.err
}

// failingKeyGenerator simulates an exhausted entropy source
type failingKeyGenerator struct{}

func (failingKeyGenerator) Generate() (string, error) {
	return "", errors.New("entropy source unavailable")
}

// failingRenderer simulates a renderer crash
type failingRenderer struct{}

func (failingRenderer) Render(string) (string, error) {
	return "", errors.New("renderer crashed")
}

// blindContactRepository never finds a contact by email, so signup always reaches the insert
type blindContactRepository struct {
	repository.ContactRepository
}

func (blindContactRepository) ByEmail(context.Context, string) (*models.Contact, error) {
	return nil, nil
}
