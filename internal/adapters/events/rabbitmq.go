// Package events publishes lifecycle events to RabbitMQ or to the log.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/example/mes/internal/ports/secondary"
)

const publishTimeout = 5 * time.Second

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes events as persistent JSON messages on a topic
// exchange, routed by event type. A publish that fails with amqp.ErrClosed
// reopens the channel, redialing if the connection dropped, and is retried once.
type RabbitMQPublisher struct {
	mu       sync.Mutex
	url      string
	conn     *amqp.Connection
	ch       channel
	exchange string
	reopen   func() (channel, error)
}

// DialRabbitMQ connects to url and declares the durable topic exchange.
func DialRabbitMQ(url, exchange string) (*RabbitMQPublisher, error) {
	conn, ch, err := connect(url, exchange)
	if err != nil {
		return nil, err
	}
	p := &RabbitMQPublisher{url: url, conn: conn, ch: ch, exchange: exchange}
	p.reopen = p.redial
	return p, nil
}

func connect(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}

// redial opens a fresh channel, replacing the connection when it is gone.
// Callers hold p.mu.
func (p *RabbitMQPublisher) redial() (channel, error) {
	if p.conn != nil && !p.conn.IsClosed() {
		if ch, err := p.conn.Channel(); err == nil {
			return ch, nil
		}
		p.conn.Close()
	}
	conn, ch, err := connect(p.url, p.exchange)
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return ch, nil
}

var _ secondary.EventPublisher = (*RabbitMQPublisher)(nil)

func (p *RabbitMQPublisher) Publish(ctx context.Context, event secondary.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) && p.reopen != nil {
		p.ch.Close()
		ch, rerr := p.reopen()
		if rerr != nil {
			return fmt.Errorf("failed to publish %s: %w", event.Type, errors.Join(err, rerr))
		}
		p.ch = ch
		err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
