// Package publisher delivers event lifecycle changes to their consumers.
package publisher

import (
	"context"
	"errors"

	"github.com/okian/minisched/internal/domain/model"
	"github.com/okian/minisched/pkg/logger"
)

// Publisher delivers a single change.
type Publisher interface {
	Publish(ctx context.Context, c model.Change) error
}

// LogPublisher writes every change to the structured log.
type LogPublisher struct {
	logger logger.Logger
}

// NewLogPublisher returns a publisher logging through l.
func NewLogPublisher(l logger.Logger) *LogPublisher {
	return &LogPublisher{logger: l}
}

// Publish logs the change at info level.
func (p *LogPublisher) Publish(ctx context.Context, c model.Change) error {
	p.logger.Info(ctx, "event "+string(c.Kind),
		logger.String("id", c.Event.ID),
		logger.String("title", c.Event.Title),
		logger.String("category", string(c.Event.Category)),
		logger.Bool("archived", c.Event.Archived),
	)
	return nil
}

// Multi fans a change out to several publishers. Every publisher is tried;
// the returned error joins the individual failures.
type Multi []Publisher

// Publish delivers c to every publisher in order.
func (m Multi) Publish(ctx context.Context, c model.Change) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
