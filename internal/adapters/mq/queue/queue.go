// Package queue buffers event lifecycle changes between the event store
// and the change workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/metrics"
)

const defaultCapacity = 1024

// Change is the payload type flowing through the queue.
type Change = model.Change

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a change. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, c Change) bool

	// Dequeue returns the channel workers receive changes from.
	// It is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Change

	// Len returns the current number of pending changes.
	Len(ctx context.Context) int

	// Close stops accepting changes. Pending changes stay readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	changes  chan Change
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.changes = make(chan Change, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a change without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, c Change) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.drop("closed")
		return false
	}
	if ctx.Err() != nil {
		q.drop("context_cancelled")
		return false
	}

	select {
	case q.changes <- c:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.changes))
		return true
	default:
		q.drop("queue_full")
		return false
	}
}

func (q *InMemoryQueue) drop(reason string) {
	metrics.RecordQueueDrop()
	metrics.RecordErrorByComponent("queue", reason)
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Change {
	return q.changes
}

// Len returns the current number of pending changes.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.changes)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the maximum number of pending changes.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Close stops accepting changes. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.changes)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
