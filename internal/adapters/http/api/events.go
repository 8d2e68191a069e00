package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/minisched/internal/app"
	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/logger"
)

// EventDependencies defines the event operations the handlers call.
type EventDependencies interface {
	Create(ctx context.Context, in model.NewEvent) (model.Event, error)
	List(ctx context.Context) []model.Event
	Archive(ctx context.Context, id string) (model.Event, error)
	Delete(ctx context.Context, id string) (model.Event, error)
}

// EventsHandler handles /events and /events/{id}.
type EventsHandler struct {
	deps   EventDependencies
	logger logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, l logger.Logger) *EventsHandler {
	return &EventsHandler{deps: deps, logger: l}
}

// HandleCollection serves GET and POST /events.
func (h *EventsHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// HandleItem serves PUT and DELETE /events/{id}.
func (h *EventsHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/events/")
	if id == "" || strings.Contains(id, "/") {
		NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPut:
		h.archive(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

func (h *EventsHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.List(r.Context()))
}

func (h *EventsHandler) create(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	var in model.NewEvent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Debug(r.Context(), "rejecting body", logger.Error(WrapKind(op, ErrBadRequest, err)))
		writeMessage(w, http.StatusBadRequest, msgMalformed)
		return
	}
	e, err := h.deps.Create(r.Context(), in)
	if err != nil {
		h.fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *EventsHandler) archive(w http.ResponseWriter, r *http.Request, id string) {
	e, err := h.deps.Archive(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "api.archive_event", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *EventsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.deps.Delete(r.Context(), id); err != nil {
		h.fail(r.Context(), w, "api.delete_event", err)
		return
	}
	writeMessage(w, http.StatusCreated, msgDeleted)
}

// fail maps service errors onto status codes.
func (h *EventsHandler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeMessage(w, http.StatusBadRequest, msgRequired)
	case errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, msgNotFound)
	default:
		h.logger.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}
