package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

type recorder struct {
	keys     []string
	payloads [][]byte
}

func (r *recorder) handle(_ context.Context, routingKey string, payload []byte) error {
	r.keys = append(r.keys, routingKey)
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestInProcessBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessBus(observability.DiscardLogger())
	ctx := context.Background()

	all := &recorder{}
	alerts := &recorder{}
	bus.Subscribe("analytics.#", all.handle)
	bus.Subscribe("analytics.insight.high.*", alerts.handle)

	require.NoError(t, bus.Publish(ctx, "analytics.insight.high.low_compliance", []byte(`{"n":1}`)))
	require.NoError(t, bus.Publish(ctx, "analytics.insight.low.mentorship", []byte(`{"n":2}`)))
	require.NoError(t, bus.Publish(ctx, "analytics.refreshed", []byte(`{"n":3}`)))
	require.NoError(t, bus.Publish(ctx, "other.refreshed", nil))

	assert.Equal(t, []string{
		"analytics.insight.high.low_compliance",
		"analytics.insight.low.mentorship",
		"analytics.refreshed",
	}, all.keys)
	assert.Equal(t, []string{"analytics.insight.high.low_compliance"}, alerts.keys)
	assert.JSONEq(t, `{"n":1}`, string(alerts.payloads[0]))
}

func TestInProcessBus_HandlerFailuresDoNotFailPublish(t *testing.T) {
	bus := eventbus.NewInProcessBus(observability.DiscardLogger())
	ctx := context.Background()

	after := &recorder{}
	bus.Subscribe("analytics.#", func(context.Context, string, []byte) error { return errors.New("boom") })
	bus.Subscribe("analytics.#", func(context.Context, string, []byte) error { panic("bad handler") })
	bus.Subscribe("analytics.#", after.handle)

	require.NoError(t, bus.Publish(ctx, "analytics.refreshed", nil))
	assert.Len(t, after.keys, 1)
}

func TestInProcessBus_Unsubscribe(t *testing.T) {
	bus := eventbus.NewInProcessBus(nil)
	ctx := context.Background()

	first := &recorder{}
	second := &recorder{}
	unsubscribe := bus.Subscribe("#", first.handle)
	bus.Subscribe("#", second.handle)

	require.NoError(t, bus.Publish(ctx, "analytics.refreshed", nil))
	unsubscribe()
	require.NoError(t, bus.Publish(ctx, "analytics.refreshed", nil))

	assert.Len(t, first.keys, 1)
	assert.Len(t, second.keys, 2)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Publish(ctx, "analytics.refreshed", nil))
	assert.Len(t, second.keys, 2)
}

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"analytics.refreshed", "analytics.refreshed", true},
		{"analytics.*", "analytics.refreshed", true},
		{"analytics.*", "analytics.insight.high", false},
		{"analytics.#", "analytics", true},
		{"analytics.#", "analytics.insight.high.coaching", true},
		{"#.coaching", "analytics.insight.medium.coaching", true},
		{"analytics.*.high.#", "analytics.insight.high.low_compliance", true},
		{"analytics.*.high.#", "analytics.insight.low.mentorship", false},
		{"*", "analytics.refreshed", false},
		{"#", "", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, eventbus.TopicMatches(tt.pattern, tt.key), "%s ~ %s", tt.pattern, tt.key)
	}
}

func TestNoopPublisher(t *testing.T) {
	p := eventbus.NewNoopPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), "analytics.refreshed", []byte("{}")))
	assert.NoError(t, p.Close())
}
