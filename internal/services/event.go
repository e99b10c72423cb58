package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventlifecycle/internal/domain"
)

type eventService struct {
	uow              domain.UnitOfWork
	eventRepo        domain.EventRepository
	subscriptionRepo domain.SubscriptionRepository
	notifier         domain.EventNotifier
	logger           *slog.Logger
	minDuration      time.Duration
	contextTimeout   time.Duration
	notifyTimeout    time.Duration
}

// NewEventService creates the lifecycle EventService. Mutating operations run
// inside the unit of work; reads go straight to the repositories. minDuration
// is the configured minimum event length; notifyTimeout bounds each
// best-effort notification call.
func NewEventService(
	uow domain.UnitOfWork,
	eventRepo domain.EventRepository,
	subscriptionRepo domain.SubscriptionRepository,
	notifier domain.EventNotifier,
	logger *slog.Logger,
	minDuration time.Duration,
	contextTimeout time.Duration,
	notifyTimeout time.Duration,
) domain.EventService {
	return &eventService{
		uow:              uow,
		eventRepo:        eventRepo,
		subscriptionRepo: subscriptionRepo,
		notifier:         notifier,
		logger:           logger,
		minDuration:      minDuration,
		contextTimeout:   contextTimeout,
		notifyTimeout:    notifyTimeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, data domain.NewEventData) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := domain.NewEvent(
		data.Title, data.Description,
		data.StartTime, data.EndTime,
		data.MaxParticipants,
		data.ImageURL, data.EventURL, data.Location, data.Remote,
		s.minDuration, time.Now(),
	)
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("event created", "event_id", event.ID, "title", event.Title)
	return event, nil
}

func (s *eventService) GetEventDetails(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) ListUpcomingEvents(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListUpcoming(ctx, time.Now(), p)
	if err != nil {
		return nil, 0, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, total, nil
}

// CancelEvent cancels the event inside one transaction, then notifies all
// subscribers. The notification is a best-effort side effect dispatched only
// after the cancellation is committed; its failure never rolls back or fails
// the cancellation.
func (s *eventService) CancelEvent(ctx context.Context, eventID string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var cancelled *domain.Event
	err := s.uow.Execute(opCtx, func(repos domain.TxRepositories) error {
		event, err := repos.Events().GetByIDForUpdate(opCtx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get event: %w", err)
		}
		if err := event.Cancel(time.Now()); err != nil {
			return err
		}
		if err := repos.Events().Update(opCtx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		cancelled = event
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("event cancelled", "event_id", eventID)

	notifyCtx, cancelNotify := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancelNotify()
	if err := s.notifier.NotifyCancellation(notifyCtx, cancelled); err != nil {
		s.logger.Error("failed to send cancellation notifications", "event_id", eventID, "err", err)
	}
	return nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID string, data domain.EventUpdateData) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var updated *domain.Event
	err := s.uow.Execute(ctx, func(repos domain.TxRepositories) error {
		event, err := repos.Events().GetByIDForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get event: %w", err)
		}
		if err := event.UpdateDetails(data, s.minDuration, time.Now()); err != nil {
			return err
		}
		if err := repos.Events().Update(ctx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		updated = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("event updated", "event_id", eventID)
	return updated, nil
}

// RegisterParticipant runs the whole registration inside one transaction: the
// event row is locked first, so the duplicate check and the capacity check
// cannot race with a concurrent registration for the same event. The
// confirmation e-mail goes out only after the transaction commits.
func (s *eventService) RegisterParticipant(ctx context.Context, eventID, participantEmail string) (*domain.Subscription, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var (
		event *domain.Event
		sub   *domain.Subscription
	)
	err := s.uow.Execute(opCtx, func(repos domain.TxRepositories) error {
		var err error
		event, err = repos.Events().GetByIDForUpdate(opCtx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get event: %w", err)
		}

		_, err = repos.Subscriptions().GetByEventAndEmail(opCtx, eventID, participantEmail)
		if err == nil {
			return domain.ErrAlreadySubscribed
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get subscription: %w", err)
		}

		if err := event.RegisterParticipant(); err != nil {
			return err
		}

		sub, err = domain.NewSubscription(event, participantEmail, time.Now())
		if err != nil {
			return err
		}
		if err := repos.Subscriptions().Create(opCtx, sub); err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		if err := repos.Events().Update(opCtx, event); err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("participant registered", "event_id", eventID, "email", participantEmail)

	notifyCtx, cancelNotify := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancelNotify()
	if err := s.notifier.SendRegistrationConfirmation(notifyCtx, event, participantEmail); err != nil {
		s.logger.Error("failed to send registration confirmation",
			"event_id", eventID, "email", participantEmail, "err", err)
	}
	return sub, nil
}

func (s *eventService) ListRegisteredParticipants(ctx context.Context, eventID string, p domain.PaginationParams) ([]*domain.Subscription, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	exists, err := s.eventRepo.ExistsByID(ctx, eventID)
	if err != nil {
		return nil, 0, fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return nil, 0, domain.ErrNotFound
	}

	subs, total, err := s.subscriptionRepo.ListByEventPaged(ctx, eventID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, total, nil
}
