package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventlifecycle/internal/domain"
)

// StatusUpdater periodically marks active events whose end time has passed
// as finished.
type StatusUpdater struct {
	uow       domain.UnitOfWork
	eventRepo domain.EventRepository
	logger    *slog.Logger
	interval  time.Duration
	now       func() time.Time
}

func NewStatusUpdater(
	uow domain.UnitOfWork,
	eventRepo domain.EventRepository,
	logger *slog.Logger,
	interval time.Duration,
) *StatusUpdater {
	return &StatusUpdater{
		uow:       uow,
		eventRepo: eventRepo,
		logger:    logger,
		interval:  interval,
		now:       time.Now,
	}
}

// Run executes one pass immediately and then on every tick until ctx is
// cancelled.
func (s *StatusUpdater) Run(ctx context.Context) {
	s.logger.Info("status updater started", "interval", s.interval)
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("status updater stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *StatusUpdater) runOnce(ctx context.Context) {
	now := s.now()
	events, err := s.eventRepo.ListActiveEndedBefore(ctx, now)
	if err != nil {
		s.logger.Error("failed to list ended events", "err", err)
		return
	}
	if len(events) == 0 {
		return
	}

	var finished int
	for _, event := range events {
		if err := s.finishEvent(ctx, event.ID); err != nil {
			// One bad event must not block the rest of the batch.
			s.logger.Error("failed to finish event", "event_id", event.ID, "err", err)
			continue
		}
		finished++
	}
	s.logger.Info("status update pass complete", "candidates", len(events), "finished", finished)
}

// finishEvent transitions a single event in its own transaction. The event is
// reloaded under lock because its state may have changed since the listing.
func (s *StatusUpdater) finishEvent(ctx context.Context, eventID string) error {
	return s.uow.Execute(ctx, func(repos domain.TxRepositories) error {
		event, err := repos.Events().GetByIDForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Info("skipping deleted event", "event_id", eventID)
				return nil
			}
			return fmt.Errorf("get event: %w", err)
		}
		if err := event.Finish(s.now()); err != nil {
			if errors.Is(err, domain.ErrIllegalState) {
				// Cancelled or already finished in the meantime.
				s.logger.Info("skipping event no longer active",
					"event_id", eventID, "status", event.Status, "reason", err)
				return nil
			}
			return err
		}
		if err := repos.Events().Update(ctx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	})
}
