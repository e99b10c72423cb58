package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventStatus is the lifecycle status of an event. CANCELLED and FINISHED are terminal.
type EventStatus string

const (
	StatusActive    EventStatus = "ACTIVE"
	StatusCancelled EventStatus = "CANCELLED"
	StatusFinished  EventStatus = "FINISHED"
)

// Event represents a scheduled gathering, remote or physical. It is the unit of
// consistency: every invariant over its own state is enforced here, and callers
// are responsible for persisting the result.
// swagger:model Event
type Event struct {
	ID                     string      `json:"id"`
	Title                  string      `json:"title"`
	Description            string      `json:"description"`
	StartTime              time.Time   `json:"start_time"`
	EndTime                time.Time   `json:"end_time"`
	MaxParticipants        int         `json:"max_participants"`
	RegisteredParticipants int         `json:"registered_participants"`
	ImageURL               string      `json:"image_url,omitempty"`
	EventURL               string      `json:"event_url,omitempty"`
	Location               string      `json:"location,omitempty"`
	Remote                 bool        `json:"remote"`
	Status                 EventStatus `json:"status"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

// NewEvent returns a new ACTIVE Event with zero registered participants.
// ID is set by the repository on create, never by callers.
// Returns an error wrapping ErrInvalidArgument if any business rule is violated.
func NewEvent(title, description string, start, end time.Time, maxParticipants int,
	imageURL, eventURL, location string, remote bool,
	minDuration time.Duration, now time.Time) (*Event, error) {

	e := &Event{
		Title:                  title,
		Description:            description,
		StartTime:              start,
		EndTime:                end,
		MaxParticipants:        maxParticipants,
		RegisteredParticipants: 0,
		ImageURL:               imageURL,
		EventURL:               eventURL,
		Location:               location,
		Remote:                 remote,
		Status:                 StatusActive,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := e.validate(minDuration, now); err != nil {
		return nil, err
	}
	return e, nil
}

// RegisterParticipant increments the registered-participant counter by one.
// Fails if the event is not ACTIVE or already at capacity.
func (e *Event) RegisterParticipant() error {
	if e.Status != StatusActive {
		return illegalState("cannot register into an event that is not active")
	}
	if e.RegisteredParticipants >= e.MaxParticipants {
		return ErrEventFull
	}
	e.RegisteredParticipants++
	return nil
}

// Cancel moves the event to CANCELLED.
//
// The end-time guard runs before the already-cancelled guard and inspects only
// the clock, never the status field. Callers depend on the specific rejection
// reason, so the guard order must not change.
func (e *Event) Cancel(now time.Time) error {
	if e.EndTime.Before(now) {
		return illegalState("cannot cancel an event that has already occurred")
	}
	if e.Status == StatusCancelled {
		return illegalState("event is already cancelled")
	}
	e.Status = StatusCancelled
	return nil
}

// Finish moves the event to FINISHED. Fails unless the event is ACTIVE and its
// end time has passed.
func (e *Event) Finish(now time.Time) error {
	if e.Status != StatusActive {
		return illegalState("only active events can be finished")
	}
	if e.EndTime.After(now) {
		return illegalState("cannot finish an event that has not ended yet")
	}
	e.Status = StatusFinished
	return nil
}

// UpdateDetails applies each present field from data to the event, then
// re-validates the resulting state as a whole. Absent (nil) fields are left
// unchanged; a present but blank title is ignored. RegisteredParticipants and
// Status are never touched.
func (e *Event) UpdateDetails(data EventUpdateData, minDuration time.Duration, now time.Time) error {
	if e.Status != StatusActive {
		return illegalState("only active events can be updated")
	}

	if data.Title != nil && strings.TrimSpace(*data.Title) != "" {
		e.Title = *data.Title
	}
	if data.Description != nil {
		e.Description = *data.Description
	}
	if data.MaxParticipants != nil {
		if *data.MaxParticipants < e.RegisteredParticipants {
			return invalidArgument(fmt.Sprintf(
				"maximum participants cannot be lower than the current number of registrations (%d)",
				e.RegisteredParticipants))
		}
		e.MaxParticipants = *data.MaxParticipants
	}
	if data.StartTime != nil {
		e.StartTime = *data.StartTime
	}
	if data.EndTime != nil {
		e.EndTime = *data.EndTime
	}
	if data.ImageURL != nil {
		e.ImageURL = *data.ImageURL
	}
	if data.EventURL != nil {
		e.EventURL = *data.EventURL
	}
	if data.Location != nil {
		e.Location = *data.Location
	}
	if data.Remote != nil {
		e.Remote = *data.Remote
	}

	return e.validate(minDuration, now)
}

// validate enforces the event invariants against the current state.
// The check order is fixed: title, description, capacity, start in the future,
// end after start, minimum duration, remote/location consistency.
func (e *Event) validate(minDuration time.Duration, now time.Time) error {
	if len(strings.TrimSpace(e.Title)) < 3 {
		return invalidArgument("title must be at least 3 characters long")
	}
	if len(strings.TrimSpace(e.Description)) < 10 {
		return invalidArgument("description must be at least 10 characters long")
	}
	if e.MaxParticipants <= 0 {
		return invalidArgument("maximum participants must be greater than 0")
	}
	if e.StartTime.Before(now) {
		return invalidArgument("event start time must be in the future")
	}
	if e.EndTime.Before(e.StartTime) {
		return invalidArgument("event end time must be after the start time")
	}
	if e.EndTime.Before(e.StartTime.Add(minDuration)) {
		return invalidArgument(fmt.Sprintf("event must last at least %d minutes", int(minDuration.Minutes())))
	}

	if e.Remote {
		if strings.TrimSpace(e.Location) != "" {
			return invalidArgument("a remote event cannot have a physical location")
		}
		if strings.TrimSpace(e.EventURL) == "" {
			return invalidArgument("a remote event must have an event URL")
		}
	} else {
		if strings.TrimSpace(e.Location) == "" {
			return invalidArgument("an in-person event must have a physical location")
		}
		if strings.TrimSpace(e.EventURL) != "" {
			return invalidArgument("an in-person event cannot have an event URL")
		}
	}
	return nil
}

// Equal reports whether two events are the same persisted entity. Identity is
// the opaque ID: two unsaved events (empty ID) are never equal unless they are
// the same instance.
func (e *Event) Equal(other *Event) bool {
	if e == other {
		return true
	}
	if e == nil || other == nil {
		return false
	}
	return e.ID != "" && e.ID == other.ID
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	// Create persists a new event and assigns its ID.
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetByIDForUpdate loads the event holding a row-level lock until the
	// surrounding unit of work commits. Only meaningful inside a UnitOfWork.
	GetByIDForUpdate(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, p PaginationParams) ([]*Event, int, error)
	// ListUpcoming returns events whose start time is strictly after now.
	ListUpcoming(ctx context.Context, now time.Time, p PaginationParams) ([]*Event, int, error)
	// ListActiveEndedBefore returns ACTIVE events whose end time is strictly
	// before now. Used by the status-update scheduler.
	ListActiveEndedBefore(ctx context.Context, now time.Time) ([]*Event, error)
}

// EventService defines the use cases for the event lifecycle.
type EventService interface {
	CreateEvent(ctx context.Context, data NewEventData) (*Event, error)
	GetEventDetails(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context, p PaginationParams) ([]*Event, int, error)
	ListUpcomingEvents(ctx context.Context, p PaginationParams) ([]*Event, int, error)
	CancelEvent(ctx context.Context, eventID string) error
	UpdateEvent(ctx context.Context, eventID string, data EventUpdateData) (*Event, error)
	RegisterParticipant(ctx context.Context, eventID, participantEmail string) (*Subscription, error)
	ListRegisteredParticipants(ctx context.Context, eventID string, p PaginationParams) ([]*Subscription, int, error)
}
