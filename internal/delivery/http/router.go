package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventlifecycle/internal/delivery/http/controllers"
	"eventlifecycle/internal/delivery/http/helpers"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(eventController *controllers.EventController) *http.ServeMux {
	mux := http.NewServeMux()

	// Events
	mux.HandleFunc("POST /events", eventController.CreateEvent)
	mux.HandleFunc("GET /events", eventController.ListEvents)
	mux.HandleFunc("GET /events/upcoming", eventController.ListUpcomingEvents)
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEventByID)
	mux.HandleFunc("DELETE /events/{eventID}", eventController.CancelEvent)
	mux.HandleFunc("PATCH /events/{eventID}", eventController.UpdateEvent)

	// Subscriptions
	mux.HandleFunc("POST /events/{eventID}/subscriptions", eventController.RegisterParticipant)
	mux.HandleFunc("GET /events/{eventID}/participants", eventController.ListParticipants)

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
