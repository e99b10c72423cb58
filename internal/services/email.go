package services

import (
	"context"
	"fmt"

	"eventlifecycle/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService renders named templates and hands the result to the mailer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

func (s *emailService) SendRegistrationConfirmation(ctx context.Context, data domain.RegistrationConfirmedEmailData) error {
	subject, html, text, err := s.renderer.Render("registration_confirmed", data)
	if err != nil {
		return fmt.Errorf("render registration_confirmed: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, html, text); err != nil {
		return fmt.Errorf("send registration_confirmed to %s: %w", data.Email, err)
	}
	return nil
}

func (s *emailService) SendCancellationNotice(ctx context.Context, data domain.EventCancelledEmailData) error {
	subject, html, text, err := s.renderer.Render("event_cancelled", data)
	if err != nil {
		return fmt.Errorf("render event_cancelled: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, html, text); err != nil {
		return fmt.Errorf("send event_cancelled to %s: %w", data.Email, err)
	}
	return nil
}
