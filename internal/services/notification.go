package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventlifecycle/internal/domain"
)

type notificationService struct {
	subscriptionRepo domain.SubscriptionRepository
	emailService     domain.EmailService
	logger           *slog.Logger
}

// NewNotificationService fans event notifications out to the subscribers of
// an event. One failing recipient never stops delivery to the rest.
func NewNotificationService(
	subscriptionRepo domain.SubscriptionRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
) domain.EventNotifier {
	return &notificationService{
		subscriptionRepo: subscriptionRepo,
		emailService:     emailService,
		logger:           logger,
	}
}

func (s *notificationService) NotifyCancellation(ctx context.Context, event *domain.Event) error {
	subs, err := s.subscriptionRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	var failed int
	for _, sub := range subs {
		err := s.emailService.SendCancellationNotice(ctx, domain.EventCancelledEmailData{
			Email:      sub.ParticipantEmail,
			EventTitle: event.Title,
			StartTime:  event.StartTime,
		})
		if err != nil {
			failed++
			s.logger.Error("failed to send cancellation notice",
				"event_id", event.ID, "email", sub.ParticipantEmail, "err", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("cancellation notices: %d of %d failed", failed, len(subs))
	}
	return nil
}

func (s *notificationService) SendRegistrationConfirmation(ctx context.Context, event *domain.Event, participantEmail string) error {
	return s.emailService.SendRegistrationConfirmation(ctx, domain.RegistrationConfirmedEmailData{
		Email:      participantEmail,
		EventTitle: event.Title,
	})
}
