package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/okian/minisched/internal/domain/model"
	"github.com/streadway/amqp"
)

const exchangeKind = "topic"

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes changes as JSON to a topic exchange using the
// routing key "event.<kind>".
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  Channel
	exchange string
}

// DialAMQP connects to url, opens a channel and declares exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("dial amqp: connection string required: %w", ErrNotConnected)
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	p, err := NewAMQPPublisher(ch, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewAMQPPublisher wraps an open channel and declares a durable topic exchange.
func NewAMQPPublisher(ch Channel, exchange string) (*AMQPPublisher, error) {
	if ch == nil {
		return nil, ErrNotConnected
	}
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	return &AMQPPublisher{channel: ch, exchange: exchange}, nil
}

// RoutingKey returns the routing key used for a change kind.
func RoutingKey(kind model.ChangeKind) string {
	return "event." + string(kind)
}

// Publish sends c. amqp channels are not safe for concurrent publishing,
// so calls are serialized.
func (p *AMQPPublisher) Publish(ctx context.Context, c model.Change) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return ErrNotConnected
	}
	err = p.channel.Publish(p.exchange, RoutingKey(c.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    c.Event.ID,
		Type:         string(c.Kind),
		Timestamp:    c.At,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

// Close releases the channel and, when dialled, the connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.channel != nil {
		err = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
		p.conn = nil
	}
	return err
}
