// Package eventbus publishes analytics events to a topic exchange, either
// RabbitMQ or an in-process bus for local mode.
package eventbus

import (
	"context"
	"log/slog"
)

// ExchangeName is the topic exchange analytics events are published to.
const ExchangeName = "teampulse.analytics"

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a JSON payload with the given routing key.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close releases the broker connection.
	Close() error
}

// NoopPublisher discards every message. It is the default when publishing
// is disabled.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the message but doesn't actually publish.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "noop publish",
		"routing_key", routingKey,
		"size", len(payload),
	)
	return nil
}

// Close is a no-op.
func (p *NoopPublisher) Close() error {
	return nil
}
