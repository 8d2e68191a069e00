// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/minisched/internal/adapters/icalfeed"
	service "github.com/okian/minisched/internal/app"
	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/logger"
)

// Client-facing messages.
const (
	msgRequired     = "Title, date, and time are required."
	msgMalformed    = "Request body must be valid JSON."
	msgNotFound     = "Event not found."
	msgDeleted      = "Event is deleted successfully!"
	msgInternal     = "Something went wrong."
	msgNotAllowed   = "Method not allowed."
	msgRouteMissing = "Route not found."
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the event service.
type Dependencies interface {
	Create(ctx context.Context, in model.NewEvent) (model.Event, error)
	List(ctx context.Context) []model.Event
	Archive(ctx context.Context, id string) (model.Event, error)
	Delete(ctx context.Context, id string) (model.Event, error)
	GetStats() service.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	eventsHandler   *EventsHandler
	calendarHandler *CalendarHandler

	corsOrigin string
	calendar   *icalfeed.Encoder
	logger     logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		corsOrigin: "*",
		calendar:   icalfeed.NewEncoder(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("api")
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.eventsHandler = NewEventsHandler(deps, s.logger)
	s.calendarHandler = NewCalendarHandler(deps, s.calendar, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleCollection, "events"))
	mux.HandleFunc("/events/", MetricsMiddleware(s.eventsHandler.HandleItem, "event"))
	mux.HandleFunc("/events.ics", MetricsMiddleware(s.calendarHandler.HandleCalendar, "calendar"))
}

// Handler wraps next with the CORS policy configured on the server.
func (s *Server) Handler(next http.Handler) http.Handler {
	return CORSMiddleware(next, s.corsOrigin)
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// methodNotAllowed answers with 405 and the methods the route accepts.
func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeMessage(w, http.StatusMethodNotAllowed, msgNotAllowed)
}

// NotFound answers unknown routes with a JSON 404.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusNotFound, msgRouteMissing)
}
