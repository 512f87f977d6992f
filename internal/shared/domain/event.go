// Package domain holds the event envelope shared by published analytics events.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope of every message published to the analytics
// exchange. Type doubles as the routing key.
type Event struct {
	ID            uuid.UUID `json:"event_id"`
	Type          string    `json:"event_type"`
	AggregateID   uuid.UUID `json:"aggregate_id"`
	AggregateType string    `json:"aggregate_type"`
	OccurredAt    time.Time `json:"occurred_at"`
	Metadata      Metadata  `json:"metadata"`
	Payload       any       `json:"payload"`
}

// Metadata carries tracing information for an event.
type Metadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	Sequence      uint64 `json:"sequence,omitempty"`
}

// NewEvent creates an event with a fresh id.
func NewEvent(routingKey string, aggregateID uuid.UUID, aggregateType string, occurredAt time.Time, payload any) Event {
	return Event{
		ID:            uuid.New(),
		Type:          routingKey,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		OccurredAt:    occurredAt.UTC(),
		Payload:       payload,
	}
}

// RoutingKey returns the key the event is published under.
func (e Event) RoutingKey() string { return e.Type }

// WithMetadata returns a copy of e carrying md.
func (e Event) WithMetadata(md Metadata) Event {
	e.Metadata = md
	return e
}

// Encode marshals the event to JSON.
func (e Event) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return b, nil
}

// DecodeEvent unmarshals an envelope, decoding the payload into payload.
func DecodeEvent(data []byte, payload any) (Event, error) {
	var raw struct {
		Event
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	e := raw.Event
	if payload != nil && len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, payload); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
		e.Payload = payload
	}
	return e, nil
}
