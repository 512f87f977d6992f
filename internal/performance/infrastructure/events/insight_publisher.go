// Package events publishes refresh results and strategic insights to the
// analytics exchange.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/teampulse/internal/performance/application"
	perfdomain "github.com/felixgeelhaar/teampulse/internal/performance/domain"
	"github.com/felixgeelhaar/teampulse/internal/shared/domain"
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// Routing keys.
const (
	RoutingKeyRefreshed       = "analytics.refreshed"
	DefaultInsightRoutingKey  = "analytics.insight"
	aggregateTypeRefreshCycle = "refresh_cycle"
	aggregateTypeTeamLeader   = "team_leader"
)

// RefreshedPayload summarises one applied refresh.
type RefreshedPayload struct {
	FilterKey         string            `json:"filter_key"`
	Window            perfdomain.Period `json:"window"`
	Sequence          uint64            `json:"sequence"`
	Teams             int               `json:"teams"`
	ActiveTeams       int               `json:"active_teams"`
	OverallCompliance float64           `json:"overall_compliance"`
	FailedLeaders     []uuid.UUID       `json:"failed_leaders,omitempty"`
	InsightCount      int               `json:"insight_count"`
	ComputedAt        time.Time         `json:"computed_at"`
}

// InsightPayload carries one insight and the refresh it came from.
type InsightPayload struct {
	FilterKey string             `json:"filter_key"`
	Sequence  uint64             `json:"sequence"`
	Insight   perfdomain.Insight `json:"insight"`
}

// InsightPublisher implements application.ResultPublisher over an event bus.
type InsightPublisher struct {
	publisher eventbus.Publisher
	prefix    string
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewInsightPublisher creates a publisher. Insights are published under
// "<prefix>.<priority>.<type>"; an empty prefix selects DefaultInsightRoutingKey.
func NewInsightPublisher(publisher eventbus.Publisher, prefix string, logger *slog.Logger, metrics observability.Metrics) *InsightPublisher {
	if prefix == "" {
		prefix = DefaultInsightRoutingKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &InsightPublisher{publisher: publisher, prefix: prefix, logger: logger, metrics: metrics}
}

// InsightRoutingKey returns the routing key for an insight.
func (p *InsightPublisher) InsightRoutingKey(in perfdomain.Insight) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, in.Priority, in.Type)
}

// PublishResult publishes the refresh summary followed by every insight.
// A failed message does not stop the rest; all failures are returned joined.
func (p *InsightPublisher) PublishResult(ctx context.Context, result *application.AnalyticsResult) error {
	if result == nil {
		return nil
	}
	md := domain.Metadata{
		CorrelationID: observability.CorrelationIDFromContext(ctx),
		Sequence:      result.Sequence,
	}

	var errs []error
	summary := domain.NewEvent(RoutingKeyRefreshed, uuid.Nil, aggregateTypeRefreshCycle, result.ComputedAt, RefreshedPayload{
		FilterKey:         result.FilterKey,
		Window:            result.Window,
		Sequence:          result.Sequence,
		Teams:             result.Metrics.TotalTeams,
		ActiveTeams:       result.Metrics.ActiveTeams,
		OverallCompliance: result.Metrics.OverallCompliance,
		FailedLeaders:     result.FailedLeaders,
		InsightCount:      result.Insights.Count(),
		ComputedAt:        result.ComputedAt,
	}).WithMetadata(md)
	if err := p.publish(ctx, summary); err != nil {
		errs = append(errs, err)
	}

	for _, group := range [][]perfdomain.Insight{
		result.Insights.Alerts, result.Insights.Recommendations, result.Insights.Opportunities,
	} {
		for _, in := range group {
			aggregateID := uuid.Nil
			if in.TeamLeaderID != nil {
				aggregateID = *in.TeamLeaderID
			}
			event := domain.NewEvent(p.InsightRoutingKey(in), aggregateID, aggregateTypeTeamLeader, result.ComputedAt, InsightPayload{
				FilterKey: result.FilterKey,
				Sequence:  result.Sequence,
				Insight:   in,
			}).WithMetadata(md)
			if err := p.publish(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (p *InsightPublisher) publish(ctx context.Context, event domain.Event) error {
	payload, err := event.Encode()
	if err == nil {
		err = p.publisher.Publish(ctx, event.RoutingKey(), payload)
	}
	if err != nil {
		p.metrics.Counter(observability.MetricEventsFailed, 1, observability.T("routing_key", event.RoutingKey()))
		p.logger.WarnContext(ctx, "failed to publish analytics event",
			"routing_key", event.RoutingKey(),
			"event_id", event.ID,
			observability.ErrorKey, err,
		)
		return fmt.Errorf("publish %s: %w", event.RoutingKey(), err)
	}
	p.metrics.Counter(observability.MetricEventsPublished, 1)
	return nil
}

var _ application.ResultPublisher = (*InsightPublisher)(nil)
