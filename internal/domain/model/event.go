// Package model contains domain models passed between layers.
package model

import (
	"slices"
	"time"
)

// Category is the label assigned to an event when it is created.
type Category string

// The closed set of categories.
const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryOther    Category = "Other"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{CategoryWork, CategoryPersonal, CategoryOther}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	return slices.Contains(Categories(), c)
}

// Event is a scheduled occurrence held by the event store.
// Date and Time are kept as the strings the client sent.
type Event struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Time     string   `json:"time"`
	Notes    string   `json:"notes,omitempty"`
	Archived bool     `json:"archived"`
	Category Category `json:"category"`
}

// NewEvent carries the client-supplied fields for creating an event.
type NewEvent struct {
	Title string `json:"title" validate:"required"`
	Date  string `json:"date" validate:"required"`
	Time  string `json:"time" validate:"required"`
	Notes string `json:"notes,omitempty"`
}

// instantLayouts are tried in order when combining date and time.
var instantLayouts = []string{ //nolint:gochecknoglobals // read-only parse table
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// Instant combines Date and Time into a point in time (UTC).
// ok is false when the pair does not parse.
func (e Event) Instant() (t time.Time, ok bool) {
	return ParseInstant(e.Date, e.Time)
}

// ParseInstant parses a date/time pair the way events are ordered.
func ParseInstant(date, clock string) (time.Time, bool) {
	s := date + "T" + clock
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Before reports whether e sorts strictly before other.
// Events without a parseable instant sort after all others.
func (e Event) Before(other Event) bool {
	a, aok := e.Instant()
	b, bok := other.Instant()
	switch {
	case aok && bok:
		return a.Before(b)
	case aok:
		return true
	default:
		return false
	}
}

// SortChronological sorts events ascending by instant in place.
// The sort is stable: events sharing an instant keep their relative order.
func SortChronological(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		default:
			return 0
		}
	})
}
