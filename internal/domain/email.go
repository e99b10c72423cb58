package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationConfirmedEmailData holds data for the registration confirmation email.
type RegistrationConfirmedEmailData struct {
	Email      string
	EventTitle string
}

// EventCancelledEmailData holds data for the cancellation notice email.
type EventCancelledEmailData struct {
	Email      string
	EventTitle string
	StartTime  time.Time
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendRegistrationConfirmation(ctx context.Context, data RegistrationConfirmedEmailData) error
	SendCancellationNotice(ctx context.Context, data EventCancelledEmailData) error
}

// EventNotifier is the outbound notification port. Both operations are
// best-effort: the caller treats failures as non-fatal and implementations
// must not roll back or retry the mutation that triggered them.
type EventNotifier interface {
	// NotifyCancellation sends a cancellation notice to every subscriber of the
	// event. A failure for one recipient must not prevent notifying the others.
	NotifyCancellation(ctx context.Context, event *Event) error
	// SendRegistrationConfirmation confirms a single registration.
	SendRegistrationConfirmation(ctx context.Context, event *Event, participantEmail string) error
}
