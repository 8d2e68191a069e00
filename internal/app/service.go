// Package service implements the event store: it validates, categorizes and
// keeps events, and announces every lifecycle change to a publisher.
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/minisched/internal/adapters/mq/publisher"
	eventqueue "github.com/okian/minisched/internal/adapters/mq/queue"
	workerpool "github.com/okian/minisched/internal/adapters/mq/worker"
	"github.com/okian/minisched/internal/adapters/repository"
	"github.com/okian/minisched/internal/domain/category"
	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/logger"
	"github.com/okian/minisched/pkg/metrics"
)

const defaultQueueSize = 1024

// Publisher receives lifecycle changes from the worker pool.
type Publisher = workerpool.Publisher

// Stats is a point-in-time summary of the service.
type Stats struct {
	Started       bool                   `json:"started"`
	Total         int                    `json:"total"`
	Archived      int                    `json:"archived"`
	ByCategory    map[model.Category]int `json:"byCategory"`
	QueueLength   int                    `json:"queueLength"`
	QueueCapacity int                    `json:"queueCapacity"`
	WorkerCount   int                    `json:"workerCount"`
}

// Service owns the event collection. The collection exists from New on;
// Start only brings up change delivery.
type Service struct {
	mu sync.RWMutex

	store       repository.Store
	categorizer category.Categorizer
	validate    *validator.Validate
	newID       func() string
	now         func() time.Time

	publisher   Publisher
	changes     *eventqueue.InMemoryQueue
	workers     *workerpool.Pool
	workerCount int
	queueSize   int

	started bool
	logger  logger.Logger
}

// New constructs a Service with an empty in-memory store.
func New(opts ...Option) *Service {
	s := &Service{
		store:       repository.NewMemStore(),
		categorizer: category.Keywords,
		validate:    newValidator(),
		newID:       uuid.NewString,
		now:         time.Now,
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("events")
	}
	return s
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Start brings up the change queue and its workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.publisher == nil {
		s.publisher = publisher.NewLogPublisher(s.logger)
	}

	s.changes = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workers = workerpool.NewPool(s.workerCount, s.changes, s.publisher)
	s.workers.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "event service started",
		logger.Int("workers", s.workers.Size()),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop closes the change queue and waits for pending changes to be delivered.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	_ = s.changes.Close()
	if err := s.workers.Wait(ctx); err != nil {
		s.logger.Warn(ctx, "change workers did not drain", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "event service stopped")
}

// Create validates in, assigns an id and a category, and appends the event.
func (s *Service) Create(ctx context.Context, in model.NewEvent) (model.Event, error) {
	if err := s.validateNew(in); err != nil {
		metrics.RecordEventRejected()
		return model.Event{}, err
	}

	e := model.Event{
		ID:       s.newID(),
		Title:    in.Title,
		Date:     in.Date,
		Time:     in.Time,
		Notes:    in.Notes,
		Archived: false,
		Category: s.categorizer.Categorize(in.Title, in.Notes),
	}
	if err := s.store.Insert(ctx, e); err != nil {
		return model.Event{}, fmt.Errorf("create event: %w", err)
	}

	metrics.RecordEventCreated(string(e.Category))
	s.logger.Debug(ctx, "event created",
		logger.String("id", e.ID),
		logger.String("category", string(e.Category)),
	)
	s.notify(ctx, model.ChangeCreated, e)
	return e, nil
}

func (s *Service) validateNew(in model.NewEvent) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	fields := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = fe.Field()
	}
	return &ValidationError{Fields: fields}
}

// List returns every event ascending by date and time. The result is a
// fresh copy; events sharing an instant keep their creation order.
func (s *Service) List(ctx context.Context) []model.Event {
	events := s.store.All(ctx)
	model.SortChronological(events)
	return events
}

// Get returns a single event.
func (s *Service) Get(ctx context.Context, id string) (model.Event, error) {
	return s.store.Get(ctx, id)
}

// Archive flags the event as archived and returns it. Archiving an
// archived event succeeds and changes nothing.
func (s *Service) Archive(ctx context.Context, id string) (model.Event, error) {
	e, err := s.store.SetArchived(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	metrics.RecordEventArchived()
	s.notify(ctx, model.ChangeArchived, e)
	return e, nil
}

// Delete removes the event and returns the removed record.
func (s *Service) Delete(ctx context.Context, id string) (model.Event, error) {
	e, err := s.store.Delete(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	metrics.RecordEventDeleted()
	s.notify(ctx, model.ChangeDeleted, e)
	return e, nil
}

// notify queues a change for delivery. A full or stopped queue drops the
// change; the mutation itself has already succeeded.
func (s *Service) notify(ctx context.Context, kind model.ChangeKind, e model.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return
	}
	c := model.Change{Kind: kind, Event: e, At: s.now().UTC()}
	if !s.changes.Enqueue(context.WithoutCancel(ctx), c) {
		s.logger.Warn(ctx, "change dropped",
			logger.String("kind", string(kind)),
			logger.String("id", e.ID),
		)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := Stats{
		Started:     s.started,
		ByCategory:  make(map[model.Category]int, len(model.Categories())),
		WorkerCount: s.workerCount,
	}
	for _, c := range model.Categories() {
		stats.ByCategory[c] = 0
	}
	for _, e := range s.store.All(ctx) {
		stats.Total++
		if e.Archived {
			stats.Archived++
		}
		stats.ByCategory[e.Category]++
	}
	if s.started {
		stats.QueueLength = s.changes.Len(ctx)
		stats.QueueCapacity = s.changes.Capacity()
		stats.WorkerCount = s.workers.Size()
	}
	metrics.UpdateStoredEvents(stats.Total, stats.Archived)
	return stats
}
