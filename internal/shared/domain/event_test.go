package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/teampulse/internal/shared/domain"
)

type testPayload struct {
	Teams int `json:"teams"`
}

func TestNewEvent(t *testing.T) {
	aggregateID := uuid.New()
	at := time.Date(2024, 3, 5, 14, 0, 0, 0, time.FixedZone("CET", 3600))

	event := domain.NewEvent("analytics.refreshed", aggregateID, "refresh_cycle", at, testPayload{Teams: 3})

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "analytics.refreshed", event.RoutingKey())
	assert.Equal(t, aggregateID, event.AggregateID)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())
	assert.True(t, event.OccurredAt.Equal(at))
}

func TestEvent_EncodeDecode(t *testing.T) {
	event := domain.NewEvent("analytics.insight.high.low_compliance", uuid.New(), "team", time.Now(), testPayload{Teams: 2}).
		WithMetadata(domain.Metadata{CorrelationID: "corr-1", Sequence: 4})

	data, err := event.Encode()
	require.NoError(t, err)

	var payload testPayload
	decoded, err := domain.DecodeEvent(data, &payload)
	require.NoError(t, err)

	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, "corr-1", decoded.Metadata.CorrelationID)
	assert.Equal(t, uint64(4), decoded.Metadata.Sequence)
	assert.Equal(t, 2, payload.Teams)
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := domain.DecodeEvent([]byte("{"), nil)
	assert.Error(t, err)

	_, err = domain.DecodeEvent([]byte(`{"event_type":"x","payload":"not an object"}`), &testPayload{})
	assert.ErrorContains(t, err, "decode x payload")
}
