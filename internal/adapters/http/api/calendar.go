package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/okian/minisched/internal/adapters/icalfeed"
	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/logger"
)

// CalendarDependencies lists the events to export.
type CalendarDependencies interface {
	List(ctx context.Context) []model.Event
}

// CalendarHandler serves the event list as an iCalendar feed.
type CalendarHandler struct {
	deps    CalendarDependencies
	encoder *icalfeed.Encoder
	logger  logger.Logger
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(deps CalendarDependencies, enc *icalfeed.Encoder, l logger.Logger) *CalendarHandler {
	return &CalendarHandler{deps: deps, encoder: enc, logger: l}
}

// HandleCalendar handles GET /events.ics requests.
func (h *CalendarHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	const op = "api.calendar"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	var buf bytes.Buffer
	skipped, err := h.encoder.Encode(&buf, h.deps.List(r.Context()))
	if err != nil {
		h.logger.Error(r.Context(), "calendar export failed", logger.Error(WrapKind(op, ErrEncode, err)))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if skipped > 0 {
		h.logger.Debug(r.Context(), "events without a valid date or time left out of calendar",
			logger.Int("skipped", skipped))
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
