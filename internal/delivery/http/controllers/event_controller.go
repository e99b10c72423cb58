package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"eventlifecycle/internal/delivery/http/helpers"
	"eventlifecycle/internal/domain"
)

// emailRegex matches a simple email format (local@domain with at least one dot in domain).
var emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	MaxParticipants int       `json:"max_participants"`
	ImageURL        string    `json:"image_url"`
	EventURL        string    `json:"event_url"`
	Location        string    `json:"location"`
	Remote          bool      `json:"remote"`
}

// Validate implements Validator. Returns error messages for required fields;
// the deeper consistency rules live on the domain aggregate.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(c.Description) == "" {
		errs = append(errs, "description is required")
	}
	if c.StartTime.IsZero() {
		errs = append(errs, "start_time is required")
	}
	if c.EndTime.IsZero() {
		errs = append(errs, "end_time is required")
	}
	if c.MaxParticipants < 1 {
		errs = append(errs, "max_participants must be at least 1")
	}
	return errs
}

// UpdateEventRequest is the request body for PATCH /events/{eventID}.
// All fields optional; omitted fields are unchanged.
type UpdateEventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	MaxParticipants *int       `json:"max_participants"`
	ImageURL        *string    `json:"image_url"`
	EventURL        *string    `json:"event_url"`
	Location        *string    `json:"location"`
	Remote          *bool      `json:"remote"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.MaxParticipants != nil && *u.MaxParticipants < 1 {
		errs = append(errs, "max_participants must be at least 1")
	}
	return errs
}

// RegisterParticipantRequest is the request body for POST /events/{eventID}/subscriptions.
type RegisterParticipantRequest struct {
	ParticipantEmail string `json:"participant_email"`
}

// Validate implements Validator.
func (r RegisterParticipantRequest) Validate() []string {
	var errs []string
	if r.ParticipantEmail == "" {
		errs = append(errs, "participant_email is required")
	} else if !emailRegex.MatchString(r.ParticipantEmail) {
		errs = append(errs, "participant_email must be a valid email address")
	}
	return errs
}

// EventListResponse is the response body for paginated event listings.
type EventListResponse struct {
	Events     []*domain.Event        `json:"events"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ParticipantListResponse is the response body for GET /events/{eventID}/participants.
type ParticipantListResponse struct {
	Participants []*domain.Subscription `json:"participants"`
	Pagination   helpers.PaginationMeta `json:"pagination"`
}

// EventSuccessResponse is the success response envelope for endpoints returning a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SubscriptionSuccessResponse is the success response envelope for POST /events/{eventID}/subscriptions (201).
type SubscriptionSuccessResponse struct {
	Data  *domain.Subscription `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create a new event
// @Description Create a new event. Remote events need an event URL and no location; in-person events need a location and no event URL.
// @Tags events
// @Accept json
// @Produce json
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), domain.NewEventData{
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxParticipants: req.MaxParticipants,
		ImageURL:        req.ImageURL,
		EventURL:        req.EventURL,
		Location:        req.Location,
		Remote:          req.Remote,
	})
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List events
// @Description Returns a paginated list of all events ordered by start time.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains events and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	p := helpers.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), p)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Events:     events,
		Pagination: helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// ListUpcomingEvents godoc
// @Summary List upcoming events
// @Description Returns a paginated list of events that have not started yet, ordered by start time.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains events and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/upcoming [get]
func (c *EventController) ListUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	p := helpers.ParsePagination(r)
	events, total, err := c.Service.ListUpcomingEvents(r.Context(), p)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Events:     events,
		Pagination: helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// GetEventByID godoc
// @Summary Get an event by ID
// @Description Returns a single event.
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEventByID(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Service.GetEventDetails(r.Context(), eventID)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CancelEvent godoc
// @Summary Cancel an event
// @Description Cancels the event and notifies all registered participants. Events whose end time has passed cannot be cancelled.
// @Tags events
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "event cancelled"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	if err := c.Service.CancelEvent(r.Context(), eventID); err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Partially updates an active event. Omitted fields are unchanged; a blank title is ignored. Capacity cannot drop below the number of registered participants.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param event body UpdateEventRequest true "Fields to update"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [patch]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, domain.EventUpdateData{
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxParticipants: req.MaxParticipants,
		ImageURL:        req.ImageURL,
		EventURL:        req.EventURL,
		Location:        req.Location,
		Remote:          req.Remote,
	})
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// RegisterParticipant godoc
// @Summary Register a participant for an event
// @Description Registers the given email for the event and sends a confirmation message. Fails when the event is full, not active, or the email is already registered.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param subscription body RegisterParticipantRequest true "Participant data"
// @Success 201 {object} controllers.SubscriptionSuccessResponse "data contains the subscription"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/subscriptions [post]
func (c *EventController) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req RegisterParticipantRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	sub, err := c.Service.RegisterParticipant(r.Context(), eventID, req.ParticipantEmail)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, sub)
}

// ListParticipants godoc
// @Summary List registered participants
// @Description Returns a paginated list of the event's subscriptions, ordered by registration time.
// @Tags subscriptions
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains participants and pagination"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/participants [get]
func (c *EventController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	p := helpers.ParsePagination(r)
	subs, total, err := c.Service.ListRegisteredParticipants(r.Context(), eventID, p)
	if err != nil {
		c.writeDomainError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ParticipantListResponse{
		Participants: subs,
		Pagination:   helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// writeDomainError maps domain errors onto HTTP status codes. Validation and
// state errors are client errors; everything unrecognized is a 500.
func (c *EventController) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
	case errors.Is(err, domain.ErrAlreadySubscribed):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "participant is already registered for this event")
	case errors.Is(err, domain.ErrEventFull),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrIllegalState):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
