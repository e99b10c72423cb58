package domain

import (
	"context"
	"strings"
	"time"
)

// Subscription records one participant's registration to one event. It is
// created exactly once per successful registration and never mutated or
// deleted afterwards.
// swagger:model Subscription
type Subscription struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	ParticipantEmail string    `json:"participant_email"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewSubscription returns a new Subscription for the given event and
// participant. ID is set by the repository on create.
// Returns an error wrapping ErrInvalidArgument if the event is nil or the
// e-mail is blank.
func NewSubscription(event *Event, participantEmail string, now time.Time) (*Subscription, error) {
	if event == nil {
		return nil, invalidArgument("subscription event must not be nil")
	}
	if strings.TrimSpace(participantEmail) == "" {
		return nil, invalidArgument("participant e-mail must not be blank")
	}
	return &Subscription{
		EventID:          event.ID,
		ParticipantEmail: participantEmail,
		CreatedAt:        now,
	}, nil
}

// SubscriptionRepository defines storage operations for subscriptions.
type SubscriptionRepository interface {
	// Create persists a new subscription and assigns its ID.
	Create(ctx context.Context, sub *Subscription) error
	// GetByEventAndEmail returns the subscription for the (event, email) pair,
	// or ErrNotFound.
	GetByEventAndEmail(ctx context.Context, eventID, participantEmail string) (*Subscription, error)
	// ListByEvent returns all subscriptions for the event, unpaged. Used for
	// cancellation notices.
	ListByEvent(ctx context.Context, eventID string) ([]*Subscription, error)
	// ListByEventPaged returns subscriptions for the event ordered by
	// registration time ascending.
	ListByEventPaged(ctx context.Context, eventID string, p PaginationParams) ([]*Subscription, int, error)
}
