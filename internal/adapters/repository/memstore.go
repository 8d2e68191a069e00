package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/metrics"
)

// MemStore is a slice-backed Store. Lookups are linear scans; the slice
// keeps insertion order and is never reordered by reads.
type MemStore struct {
	mu     sync.RWMutex
	events []model.Event
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) indexOf(id string) int {
	return slices.IndexFunc(s.events, func(e model.Event) bool { return e.ID == id })
}

// Insert appends e to the collection.
func (s *MemStore) Insert(ctx context.Context, e model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(e.ID) >= 0 {
		metrics.RecordErrorByComponent("repository", "duplicate_id")
		return fmt.Errorf("insert %q: %w", e.ID, ErrDuplicateID)
	}
	s.events = append(s.events, e)
	s.updateGauges()
	return nil
}

// Get returns the event with id.
func (s *MemStore) Get(ctx context.Context, id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return s.events[i], nil
}

// All returns a copy of the collection in insertion order.
func (s *MemStore) All(ctx context.Context) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

// SetArchived sets Archived on the stored record. Repeating it is a no-op.
func (s *MemStore) SetArchived(ctx context.Context, id string) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, fmt.Errorf("archive %q: %w", id, ErrNotFound)
	}
	s.events[i].Archived = true
	s.updateGauges()
	return s.events[i], nil
}

// Delete removes the record, keeping the order of the others.
func (s *MemStore) Delete(ctx context.Context, id string) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Event{}, fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	removed := s.events[i]
	s.events = slices.Delete(s.events, i, i+1)
	s.updateGauges()
	return removed, nil
}

// Count returns the number of stored events.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// updateGauges must be called with s.mu held.
func (s *MemStore) updateGauges() {
	archived := 0
	for _, e := range s.events {
		if e.Archived {
			archived++
		}
	}
	metrics.UpdateStoredEvents(len(s.events), archived)
}
