// Package repository holds the authoritative in-memory event collection.
package repository

import (
	"context"

	"github.com/okian/minisched/internal/domain/model"
)

// Store provides read/write access to stored events.
// Implementations keep events in insertion order.
type Store interface {
	// Insert appends e. Returns ErrDuplicateID if e.ID is already stored.
	Insert(ctx context.Context, e model.Event) error

	// Get returns the event with id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.Event, error)

	// All returns a copy of every stored event in insertion order.
	All(ctx context.Context) []model.Event

	// SetArchived flags the event as archived and returns the updated record.
	// Returns ErrNotFound if the id is unknown.
	SetArchived(ctx context.Context, id string) (model.Event, error)

	// Delete removes the event and returns the removed record.
	// Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) (model.Event, error)

	// Count returns the number of stored events.
	Count(ctx context.Context) int
}
