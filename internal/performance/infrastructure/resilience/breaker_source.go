// Package resilience guards the record source with a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// BreakerConfig configures the breaker.
type BreakerConfig struct {
	// Name labels log lines and metrics.
	Name string

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "record-source",
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// BreakerSource is a domain.RecordSource that stops calling the wrapped
// source after repeated failures. While open it fails fast with
// domain.ErrSourceUnavailable, which the aggregator scores as an empty team.
type BreakerSource struct {
	next    domain.RecordSource
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
	metrics observability.Metrics
	name    string
}

// NewBreakerSource wraps next.
func NewBreakerSource(next domain.RecordSource, cfg BreakerConfig, logger *slog.Logger, metrics observability.Metrics) *BreakerSource {
	defaults := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = defaults.MaxRequests
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	s := &BreakerSource{
		next:    next,
		logger:  logger,
		metrics: metrics,
		name:    cfg.Name,
	}
	s.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A caller giving up is not a source failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("record source breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			s.metrics.Gauge(observability.MetricSourceBreakerState, float64(to), observability.T("breaker", name))
		},
	})
	return s
}

// State returns the breaker state.
func (s *BreakerSource) State() gobreaker.State {
	return s.breaker.State()
}

func (s *BreakerSource) ListTeamLeaders(ctx context.Context) ([]domain.TeamLeaderProfile, error) {
	out, err := s.execute("list_team_leaders", func() (any, error) {
		return s.next.ListTeamLeaders(ctx)
	})
	if err != nil {
		return nil, err
	}
	leaders, _ := out.([]domain.TeamLeaderProfile)
	return leaders, nil
}

func (s *BreakerSource) FetchRecords(ctx context.Context, q domain.RecordQuery) (*domain.RecordSet, error) {
	out, err := s.execute("fetch_records", func() (any, error) {
		return s.next.FetchRecords(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	set, _ := out.(*domain.RecordSet)
	return set, nil
}

func (s *BreakerSource) execute(op string, fn func() (any, error)) (any, error) {
	s.metrics.Counter(observability.MetricSourceQueries, 1, observability.T("op", op))
	out, err := s.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		s.metrics.Counter(observability.MetricSourceBreakerRejects, 1, observability.T("op", op))
		return nil, fmt.Errorf("%s: %w: %w", s.name, domain.ErrSourceUnavailable, err)
	}
	return out, err
}

var _ domain.RecordSource = (*BreakerSource)(nil)
