package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for event lifecycle operations. Callers match with errors.Is;
// the delivery layer maps them onto HTTP status codes.
var (
	// ErrNotFound is returned when a referenced event does not exist.
	ErrNotFound = errors.New("event not found")

	// ErrEventFull is returned when registering into an event at capacity.
	ErrEventFull = errors.New("event is full")

	// ErrAlreadySubscribed is returned when the same participant registers twice
	// for the same event.
	ErrAlreadySubscribed = errors.New("participant already subscribed to this event")

	// ErrInvalidArgument is wrapped by construction/update failures that violate
	// a business rule. The wrapping error carries the violated rule.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIllegalState is wrapped by operations attempted against an event in the
	// wrong lifecycle state.
	ErrIllegalState = errors.New("illegal state")
)

func invalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func illegalState(msg string) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, msg)
}
