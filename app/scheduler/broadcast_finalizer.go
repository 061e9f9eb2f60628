// Package scheduler runs periodic housekeeping over the broadcast pipeline
package scheduler

import (
	"context"
	"time"

	"github.com/amirphl/tailwind-mail/models"
	"github.com/amirphl/tailwind-mail/repository"
	"github.com/amirphl/tailwind-mail/utils"
	"go.uber.org/zap"
)

// finalizeBatchSize bounds the pending broadcasts inspected per tick
const finalizeBatchSize = 100

// BroadcastFinalizer closes broadcasts whose messages have all left pending.
// Delivery itself belongs to an external worker; this loop only reconciles broadcast status.
type BroadcastFinalizer struct {
	broadcastRepo repository.BroadcastRepository
	messageRepo   repository.MessageRepository
	logger        *zap.Logger
	interval      time.Duration
}

func NewBroadcastFinalizer(
	broadcastRepo repository.BroadcastRepository,
	messageRepo repository.MessageRepository,
	logger *zap.Logger,
	interval time.Duration,
) *BroadcastFinalizer {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BroadcastFinalizer{
		broadcastRepo: broadcastRepo,
		messageRepo:   messageRepo,
		logger:        logger.Named("broadcast_finalizer"),
		interval:      interval,
	}
}

// Start launches the finalizer loop in a background goroutine and returns a stop function
func (s *BroadcastFinalizer) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// RunOnce inspects pending broadcasts and returns how many it closed
func (s *BroadcastFinalizer) RunOnce(ctx context.Context) int {
	pending := models.BroadcastStatusPending
	broadcasts, err := s.broadcastRepo.ByFilter(ctx, models.BroadcastFilter{Status: &pending}, "id ASC", finalizeBatchSize, 0)
	if err != nil {
		s.logger.Warn("list pending broadcasts failed", zap.Error(err))
		return 0
	}

	closed := 0
	for _, b := range broadcasts {
		if ctx.Err() != nil {
			break
		}
		status, done, err := s.terminalStatus(ctx, b)
		if err != nil {
			s.logger.Warn("inspect broadcast failed", zap.Uint("broadcast_id", b.ID), zap.Error(err))
			continue
		}
		if !done {
			continue
		}
		if err := s.broadcastRepo.MarkProcessed(ctx, b.ID, status, utils.UTCNow()); err != nil {
			s.logger.Warn("close broadcast failed", zap.Uint("broadcast_id", b.ID), zap.Error(err))
			continue
		}
		s.logger.Info("broadcast closed", zap.Uint("broadcast_id", b.ID), zap.String("status", string(status)))
		closed++
	}
	return closed
}

// terminalStatus is sent when every message was delivered, processed when the broadcast
// finished with failures or had no recipients
func (s *BroadcastFinalizer) terminalStatus(ctx context.Context, b *models.Broadcast) (models.BroadcastStatus, bool, error) {
	pending := models.MessageStatusPending
	remaining, err := s.messageRepo.Count(ctx, models.MessageFilter{Slug: &b.Slug, Status: &pending})
	if err != nil {
		return "", false, err
	}
	if remaining > 0 {
		return "", false, nil
	}

	total, err := s.messageRepo.CountBySlug(ctx, b.Slug)
	if err != nil {
		return "", false, err
	}
	failed := models.MessageStatusFailed
	failures, err := s.messageRepo.Count(ctx, models.MessageFilter{Slug: &b.Slug, Status: &failed})
	if err != nil {
		return "", false, err
	}

	if total == 0 || failures > 0 {
		return models.BroadcastStatusProcessed, true, nil
	}
	return models.BroadcastStatusSent, true, nil
}
