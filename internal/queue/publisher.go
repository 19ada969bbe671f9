// Package queue publishes hotel domain events to RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/avstrong/hotelbooking/internal/hotel"
	"github.com/avstrong/hotelbooking/internal/logger"
)

const (
	ReservationConfirmedQueue = "reservation.confirmed"

	// dialTimeout caps connect plus handshake; amqp.Dial would wait 30s.
	dialTimeout = 2 * time.Second
	heartbeat   = 10 * time.Second
)

// Publisher keeps one connection open and redials after a failure.
type Publisher struct {
	l     *logger.Logger
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(l *logger.Logger, url string) *Publisher {
	return &Publisher{l: l, url: url, queue: ReservationConfirmedQueue}
}

// dialBudget is dialTimeout shortened to what is left before ctx's deadline.
func dialBudget(ctx context.Context) time.Duration {
	budget := dialTimeout

	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < budget {
			budget = left
		}
	}

	return budget
}

// channel must be called with p.mu held.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	p.reset()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	budget := dialBudget(ctx)
	if budget <= 0 {
		return nil, fmt.Errorf("dial broker: %w", context.DeadlineExceeded)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(budget),
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	p.conn, p.ch = conn, ch

	return ch, nil
}

// reset must be called with p.mu held.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}

	if p.conn != nil {
		_ = p.conn.Close()
	}

	p.conn, p.ch = nil, nil
}

func (p *Publisher) PublishReservationConfirmed(ctx context.Context, event hotel.ConfirmedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ReservationID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()

		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}

	p.l.LogDebug("published %s for %s", p.queue, event.ReservationID)

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reset()

	return nil
}
