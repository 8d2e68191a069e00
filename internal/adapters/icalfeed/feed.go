// Package icalfeed renders stored events as an iCalendar (RFC 5545) feed.
package icalfeed

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/okian/minisched/internal/domain/model"
)

const (
	productID       = "-//minisched//events//EN"
	calendarName    = "minisched"
	defaultDuration = time.Hour
)

// Encoder builds VCALENDAR documents.
type Encoder struct {
	duration time.Duration
	now      func() time.Time
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithDuration sets the length given to every VEVENT. Events only carry a
// start, so DTEND is start plus this duration.
func WithDuration(d time.Duration) Option {
	return func(e *Encoder) {
		if d > 0 {
			e.duration = d
		}
	}
}

// WithClock overrides the DTSTAMP source.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEncoder returns an encoder with one-hour events.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{duration: defaultDuration, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calendar converts events to a calendar. Events whose date and time do
// not parse are skipped; the second return value counts them.
func (e *Encoder) Calendar(events []model.Event) (*ical.Calendar, int) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(calendarName)

	stamp := e.now().UTC()
	skipped := 0
	for _, ev := range events {
		start, ok := ev.Instant()
		if !ok {
			skipped++
			continue
		}
		vevent := cal.AddEvent(ev.ID)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(start)
		vevent.SetEndAt(start.Add(e.duration))
		vevent.SetSummary(ev.Title)
		if ev.Notes != "" {
			vevent.SetDescription(ev.Notes)
		}
		vevent.SetProperty(ical.ComponentPropertyCategories, string(ev.Category))
		if ev.Archived {
			vevent.SetProperty(ical.ComponentPropertyStatus, string(ical.ObjectStatusCancelled))
		}
	}
	return cal, skipped
}

// Encode writes events to w as text/calendar and returns the skip count.
func (e *Encoder) Encode(w io.Writer, events []model.Event) (int, error) {
	cal, skipped := e.Calendar(events)
	_, err := io.WriteString(w, cal.Serialize())
	return skipped, err
}
