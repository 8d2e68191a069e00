// Package worker drains the change queue and hands each change to a publisher.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/logger"
	"github.com/okian/minisched/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Publisher delivers a change to its consumers.
type Publisher interface {
	Publish(ctx context.Context, c model.Change) error
}

// Queue defines how workers receive changes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Change
}

// Worker reads changes until the queue channel closes or ctx ends.
type Worker struct {
	name      string
	queue     Queue
	publisher Publisher
	logger    logger.Logger
}

// NewWorker creates a worker.
func NewWorker(q Queue, p Publisher, opts ...Option) *Worker {
	w := &Worker{
		name:      "worker",
		queue:     q,
		publisher: p,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run processes changes until the queue is closed and drained or ctx is done.
func (w *Worker) Run(ctx context.Context) {
	changes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if err := w.process(ctx, c); err != nil {
				w.logger.Error(ctx, "error publishing change", logger.Error(err))
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, c model.Change) error { //nolint:gocritic // hugeParam: passed by value from the channel
	start := time.Now()
	if err := w.publisher.Publish(ctx, c); err != nil {
		metrics.RecordPublishFailure()
		metrics.RecordErrorByComponent("worker", "publish_error")
		return fmt.Errorf("publish %s %s: %w", c.Kind, c.Event.ID, err)
	}
	metrics.RecordChangePublished(string(c.Kind), float64(time.Since(start).Microseconds())/1000)
	return nil
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	logger  logger.Logger
}

// NewPool creates count workers. A count below one defaults to NumCPU.
func NewPool(count int, q Queue, p Publisher) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
	}
	pool := &Pool{
		workers: make([]*Worker, count),
		logger:  logger.Named("worker-pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewWorker(q, p, WithName("worker-"+strconv.Itoa(i)))
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start launches every worker. Workers stop when ctx ends or the queue
// closes, whichever comes first.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Wait blocks until every worker has returned or ctx ends. The queue
// must be closed first for workers to drain and exit on their own.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	select {
	case <-done:
		metrics.UpdateWorkerActiveCount(0)
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		if p.cancel != nil {
			p.cancel()
		}
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

// Stop cancels the workers without draining.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	metrics.UpdateWorkerActiveCount(0)
}
