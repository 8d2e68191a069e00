package model

import "time"

// ChangeKind names a lifecycle transition of an event.
type ChangeKind string

// Lifecycle transitions emitted by the event store.
const (
	ChangeCreated  ChangeKind = "created"
	ChangeArchived ChangeKind = "archived"
	ChangeDeleted  ChangeKind = "deleted"
)

// Change is a notification describing a completed mutation.
// Event holds the record as it was right after the mutation
// (for deletes, the record that was removed).
type Change struct {
	Kind  ChangeKind `json:"kind"`
	Event Event      `json:"event"`
	At    time.Time  `json:"at"`
}
