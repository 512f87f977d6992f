package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/teampulse/internal/performance/application"
	perfdomain "github.com/felixgeelhaar/teampulse/internal/performance/domain"
	"github.com/felixgeelhaar/teampulse/internal/performance/infrastructure/events"
	"github.com/felixgeelhaar/teampulse/internal/shared/domain"
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

type captured struct {
	mu       sync.Mutex
	keys     []string
	payloads [][]byte
}

func (c *captured) handle(_ context.Context, routingKey string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, routingKey)
	c.payloads = append(c.payloads, payload)
	return nil
}

type failingPublisher struct{ failKey string }

func (f failingPublisher) Publish(_ context.Context, routingKey string, _ []byte) error {
	if routingKey == f.failKey {
		return errors.New("channel closed")
	}
	return nil
}

func (failingPublisher) Close() error { return nil }

func sampleResult() *application.AnalyticsResult {
	leader := uuid.New()
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return &application.AnalyticsResult{
		FilterKey: "2024-03-05",
		Window:    perfdomain.DayPeriod(day),
		Metrics: perfdomain.MultiTeamMetrics{
			TotalTeams:        2,
			ActiveTeams:       1,
			OverallCompliance: 62.5,
		},
		Insights: perfdomain.StrategicInsights{
			Alerts: []perfdomain.Insight{{
				Key:          "low_compliance:" + leader.String(),
				Type:         perfdomain.InsightTypeLowCompliance,
				Priority:     perfdomain.InsightPriorityHigh,
				Title:        "Low compliance",
				TeamLeaderID: &leader,
			}},
			Recommendations: []perfdomain.Insight{},
			Opportunities: []perfdomain.Insight{{
				Key:      "kickstart",
				Type:     perfdomain.InsightTypeKickstart,
				Priority: perfdomain.InsightPriorityLow,
				Title:    "Kickstart idle teams",
			}},
		},
		ComputedAt: day.Add(9 * time.Hour),
		Sequence:   7,
	}
}

func TestInsightPublisher_PublishResult(t *testing.T) {
	bus := eventbus.NewInProcessBus(observability.DiscardLogger())
	all := &captured{}
	alerts := &captured{}
	bus.Subscribe("analytics.#", all.handle)
	bus.Subscribe("analytics.insight.high.*", alerts.handle)

	metrics := observability.NewInMemoryMetrics()
	pub := events.NewInsightPublisher(bus, "", observability.DiscardLogger(), metrics)

	ctx := observability.WithCorrelationID(context.Background(), "corr-42")
	result := sampleResult()
	require.NoError(t, pub.PublishResult(ctx, result))

	assert.Equal(t, []string{
		"analytics.refreshed",
		"analytics.insight.high.low_compliance",
		"analytics.insight.low.kickstart",
	}, all.keys)
	assert.Equal(t, []string{"analytics.insight.high.low_compliance"}, alerts.keys)
	assert.Equal(t, int64(3), metrics.GetCounter(observability.MetricEventsPublished))

	var summary events.RefreshedPayload
	event, err := domain.DecodeEvent(all.payloads[0], &summary)
	require.NoError(t, err)
	assert.Equal(t, "corr-42", event.Metadata.CorrelationID)
	assert.Equal(t, uint64(7), event.Metadata.Sequence)
	assert.Equal(t, "2024-03-05", summary.FilterKey)
	assert.Equal(t, 2, summary.Teams)
	assert.Equal(t, 1, summary.ActiveTeams)
	assert.Equal(t, 2, summary.InsightCount)
	assert.InDelta(t, 62.5, summary.OverallCompliance, 0.001)

	var insight events.InsightPayload
	event, err = domain.DecodeEvent(alerts.payloads[0], &insight)
	require.NoError(t, err)
	assert.Equal(t, *result.Insights.Alerts[0].TeamLeaderID, event.AggregateID)
	assert.Equal(t, result.Insights.Alerts[0].Key, insight.Insight.Key)
	assert.Equal(t, uint64(7), insight.Sequence)
}

func TestInsightPublisher_CustomPrefix(t *testing.T) {
	pub := events.NewInsightPublisher(eventbus.NewNoopPublisher(observability.DiscardLogger()), "ops.insight", nil, nil)

	key := pub.InsightRoutingKey(perfdomain.Insight{
		Type:     perfdomain.InsightTypeMentorship,
		Priority: perfdomain.InsightPriorityMedium,
	})
	assert.Equal(t, "ops.insight.medium.mentorship", key)
}

func TestInsightPublisher_ContinuesAfterFailure(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	pub := events.NewInsightPublisher(failingPublisher{failKey: events.RoutingKeyRefreshed}, "", observability.DiscardLogger(), metrics)

	err := pub.PublishResult(context.Background(), sampleResult())
	require.Error(t, err)
	assert.ErrorContains(t, err, "publish analytics.refreshed")

	assert.Equal(t, int64(2), metrics.GetCounter(observability.MetricEventsPublished))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEventsFailed,
		observability.T("routing_key", events.RoutingKeyRefreshed)))
}

func TestInsightPublisher_NilResult(t *testing.T) {
	pub := events.NewInsightPublisher(failingPublisher{}, "", nil, nil)
	assert.NoError(t, pub.PublishResult(context.Background(), nil))
}
