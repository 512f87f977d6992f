package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

var errPublisherClosed = errors.New("rabbitmq publisher is closed")

// RabbitMQPublisher publishes persistent JSON messages to ExchangeName.
type RabbitMQPublisher struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// NewRabbitMQPublisher dials url and declares ExchangeName as a durable topic
// exchange.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(observability.ServiceName)

	conn, err := amqp.DialConfig(url, amqp.Config{Properties: props})
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err == nil {
		err = ch.ExchangeDeclare(ExchangeName, amqp.ExchangeTopic, true, false, false, false, nil)
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", ExchangeName, err)
	}

	p := &RabbitMQPublisher{logger: logger, conn: conn, channel: ch}
	go p.watch(conn.NotifyClose(make(chan *amqp.Error, 1)))
	logger.Info("rabbitmq publisher connected", "exchange", ExchangeName)
	return p, nil
}

// watch logs a broker-initiated close; Ping reports it from then on.
func (p *RabbitMQPublisher) watch(closes <-chan *amqp.Error) {
	if err, ok := <-closes; ok && err != nil {
		p.logger.Warn("rabbitmq connection lost", "error", err)
	}
}

// publishing wraps payload with the correlation id carried by ctx.
func publishing(ctx context.Context, payload []byte, now time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     now.UTC(),
		AppId:         observability.ServiceName,
		CorrelationId: observability.CorrelationIDFromContext(ctx),
		Body:          payload,
	}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errPublisherClosed
	}

	msg := publishing(ctx, payload, time.Now())
	if err := p.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, msg); err != nil {
		p.logger.ErrorContext(ctx, "publish failed", "routing_key", routingKey, "error", err)
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.logger.DebugContext(ctx, "message published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Ping reports whether the broker connection is still open.
func (p *RabbitMQPublisher) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.closed:
		return errPublisherClosed
	case p.conn.IsClosed():
		return errors.New("rabbitmq connection closed")
	}
	return nil
}

// Close closes the channel and then the connection. It is idempotent.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return errors.Join(p.channel.Close(), p.conn.Close())
}
