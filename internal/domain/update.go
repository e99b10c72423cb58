package domain

import "time"

// NewEventData carries the attributes for creating an event. Validation happens
// in NewEvent, not here.
type NewEventData struct {
	Title           string
	Description     string
	StartTime       time.Time
	EndTime         time.Time
	MaxParticipants int
	ImageURL        string
	EventURL        string
	Location        string
	Remote          bool
}

// EventUpdateData carries a partial set of field changes for an event.
// A nil field means "leave unchanged". It is consumed by Event.UpdateDetails
// and discarded afterwards; it is never persisted.
type EventUpdateData struct {
	Title           *string
	Description     *string
	StartTime       *time.Time
	EndTime         *time.Time
	MaxParticipants *int
	ImageURL        *string
	EventURL        *string
	Location        *string
	Remote          *bool
}
