package client

import (
	"fmt"

	"github.com/okian/minisched/internal/domain/model"
)

// Filter selects events by category. FilterAll selects everything.
type Filter string

// FilterAll is the no-op filter.
const FilterAll Filter = "all"

// ParseFilter accepts "all" or a category name.
func ParseFilter(s string) (Filter, error) {
	if s == "" || s == string(FilterAll) {
		return FilterAll, nil
	}
	if model.Category(s).Valid() {
		return Filter(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// Apply returns the events matching f, keeping their order.
func (f Filter) Apply(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if f == FilterAll || e.Category == model.Category(f) {
			out = append(out, e)
		}
	}
	return out
}

// SortChronological returns a copy of events ascending by date and time.
func SortChronological(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)
	model.SortChronological(out)
	return out
}

// Merge adds a freshly created event to a fetched list and re-sorts it.
func Merge(events []model.Event, created model.Event) []model.Event {
	out := make([]model.Event, 0, len(events)+1)
	out = append(out, events...)
	out = append(out, created)
	model.SortChronological(out)
	return out
}

// Without returns events minus the one with id.
func Without(events []model.Event, id string) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// Replace swaps in updated where the ids match.
func Replace(events []model.Event, updated model.Event) []model.Event {
	out := make([]model.Event, len(events))
	for i, e := range events {
		if e.ID == updated.ID {
			e = updated
		}
		out[i] = e
	}
	return out
}

// CountByCategory counts events per category. Every category is present.
func CountByCategory(events []model.Event) map[model.Category]int {
	counts := make(map[model.Category]int, len(model.Categories()))
	for _, c := range model.Categories() {
		counts[c] = 0
	}
	for _, e := range events {
		counts[e.Category]++
	}
	return counts
}
