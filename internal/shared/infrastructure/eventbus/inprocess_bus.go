package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Handler receives a published message.
type Handler func(ctx context.Context, routingKey string, payload []byte) error

type subscription struct {
	id      int
	pattern string
	handler Handler
}

// InProcessBus is the local-mode replacement for RabbitMQ. Messages are
// delivered synchronously to every subscription whose pattern matches the
// routing key, using topic exchange rules: '*' matches one word, '#' matches
// zero or more.
type InProcessBus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID int
	logger *slog.Logger
}

// NewInProcessBus creates an empty bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{logger: logger}
}

// Subscribe registers handler for routing keys matching pattern and returns a
// function that removes the subscription.
func (b *InProcessBus) Subscribe(pattern string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, pattern: pattern, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish dispatches to matching handlers in subscription order. Handler
// failures are logged and never fail the publish, matching fire-and-forget
// broker semantics.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.RLock()
	matched := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if TopicMatches(s.pattern, routingKey) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range matched {
		start := time.Now()
		if err := safeHandle(ctx, s.handler, routingKey, payload); err != nil {
			b.logger.ErrorContext(ctx, "event dispatch failed",
				"routing_key", routingKey,
				"pattern", s.pattern,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
		}
	}

	b.logger.DebugContext(ctx, "event dispatched",
		"routing_key", routingKey,
		"handlers", len(matched),
	)
	return nil
}

// Close drops every subscription.
func (b *InProcessBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = nil
	return nil
}

func safeHandle(ctx context.Context, h Handler, routingKey string, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, routingKey, payload)
}

// TopicMatches reports whether routingKey matches an AMQP topic pattern.
func TopicMatches(pattern, routingKey string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(routingKey, "."))
}

func matchWords(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "#":
			rest := pattern[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchWords(rest, key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pattern[0] {
				return false
			}
		}
		pattern, key = pattern[1:], key[1:]
	}
	return len(key) == 0
}
