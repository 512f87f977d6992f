package application

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// Aggregator defaults.
const (
	DefaultCacheTTL         = 30 * time.Second
	DefaultFetchConcurrency = 8
)

// ResultPublisher is notified after a freshly computed result is applied.
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *AnalyticsResult) error
}

// AggregatorConfig tunes an Aggregator. Zero values select the defaults.
type AggregatorConfig struct {
	CacheTTL         time.Duration
	FetchConcurrency int
	// GracePeriodBonus is added to every team rating, capped at 5.
	GracePeriodBonus float64
}

// AggregatorOption configures optional collaborators.
type AggregatorOption func(*Aggregator)

// WithCache replaces the default in-memory cache.
func WithCache(cache CacheStore) AggregatorOption {
	return func(a *Aggregator) { a.cache = cache }
}

// WithClock replaces time.Now for TTL checks and scoring.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics observability.Metrics) AggregatorOption {
	return func(a *Aggregator) { a.metrics = metrics }
}

// WithResultPublisher sets the publisher notified after each applied refresh.
func WithResultPublisher(p ResultPublisher) AggregatorOption {
	return func(a *Aggregator) { a.publisher = p }
}

// Aggregator computes multi-team analytics for a filter. It owns the result
// cache, the refresh sequence counter and the visible snapshot. The sequence
// and the snapshot are only mutated under mu; cache writes are serialized by
// storeMu and never hold mu across a store round trip.
//
// Every Refresh takes the next sequence number when dispatched. Its result is
// applied (and cached) only if no later cycle was dispatched in the meantime,
// so a slow older cycle never overwrites a newer one.
type Aggregator struct {
	source    domain.RecordSource
	cache     CacheStore
	publisher ResultPublisher
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time
	cfg       AggregatorConfig

	mu   sync.Mutex
	seq  uint64
	view Snapshot

	// storeMu is taken before mu, never after.
	storeMu sync.Mutex
}

// NewAggregator creates an aggregator over source.
func NewAggregator(source domain.RecordSource, cfg AggregatorConfig, opts ...AggregatorOption) *Aggregator {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = DefaultFetchConcurrency
	}
	a := &Aggregator{
		source:  source,
		cfg:     cfg,
		cache:   NewMemoryStore(),
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "aggregator")
	return a
}

// Refresh returns analytics for f, from cache when a fresh entry exists.
//
// A cycle superseded by a later one is discarded silently: Refresh then
// returns the currently visible result and a nil error. A failing latest
// cycle leaves the previous result visible and returns the error.
func (a *Aggregator) Refresh(ctx context.Context, f Filter) (*AnalyticsResult, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	key := f.CacheKey()

	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.view.Sequence = seq
	a.view.Loading = true
	a.mu.Unlock()

	if observability.CorrelationIDFromContext(ctx) == "" {
		ctx = observability.WithCorrelationID(ctx, uuid.NewString())
	}
	ctx = observability.WithRefreshCycle(ctx, seq)
	ctx = observability.WithFilterKey(ctx, key)

	if entry, ok := a.lookup(ctx, key); ok {
		a.metrics.Counter(observability.MetricCacheHits, 1)
		a.logger.DebugContext(ctx, "analytics cache hit", "stored_at", entry.StoredAt)
		result, _, err := a.settle(ctx, seq, key, entry.Result, nil, entry.StoredAt)
		return result, err
	}
	a.metrics.Counter(observability.MetricCacheMisses, 1)

	timer := observability.StartTimer(ctx, "analytics.refresh", observability.TimerLogger(a.logger, slog.LevelDebug))
	computed, err := a.compute(ctx, f, seq)
	duration := timer.Stop(err)
	a.metrics.Timing(observability.MetricRefreshDuration, duration)
	a.metrics.Counter(observability.MetricRefreshTotal, 1)
	if err != nil {
		a.metrics.Counter(observability.MetricRefreshErrors, 1)
	}

	result, applied, err := a.settle(ctx, seq, key, computed, err, time.Time{})
	if applied && a.publisher != nil {
		if pubErr := a.publisher.PublishResult(ctx, result); pubErr != nil {
			a.logger.WarnContext(ctx, "failed to publish analytics result", "error", pubErr)
		}
	}
	return result, err
}

// ForceRefresh evicts the cached entry for f and recomputes it.
func (a *Aggregator) ForceRefresh(ctx context.Context, f Filter) (*AnalyticsResult, error) {
	if err := a.Invalidate(ctx, f); err != nil {
		a.logger.WarnContext(ctx, "failed to evict analytics cache entry", "filter", f.CacheKey(), "error", err)
	}
	return a.Refresh(ctx, f)
}

// Invalidate evicts the cached entry for f.
func (a *Aggregator) Invalidate(ctx context.Context, f Filter) error {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	return a.cache.Delete(ctx, f.CacheKey())
}

// Snapshot returns the visible state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// LastSuccess returns when the visible result was applied.
func (a *Aggregator) LastSuccess() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view.LastSuccess, a.view.Result != nil
}

// Reset clears the cache and the visible state and invalidates every cycle
// still in flight.
func (a *Aggregator) Reset(ctx context.Context) error {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()

	a.mu.Lock()
	a.seq++
	a.view = Snapshot{Sequence: a.seq}
	a.mu.Unlock()

	if err := a.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear analytics cache: %w", err)
	}
	return nil
}

func (a *Aggregator) lookup(ctx context.Context, key string) (CacheEntry, bool) {
	entry, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.WarnContext(ctx, "analytics cache read failed", "error", err)
		return CacheEntry{}, false
	}
	if !ok || !entry.Fresh(a.now(), a.cfg.CacheTTL) {
		return CacheEntry{}, false
	}
	return entry, true
}

// settle applies the outcome of cycle seq if it is still the latest one.
// cachedAt is the store time of a cache hit and zero for a computed result.
// applied is true when a freshly computed result became visible.
func (a *Aggregator) settle(
	ctx context.Context,
	seq uint64,
	key string,
	result *AnalyticsResult,
	cycleErr error,
	cachedAt time.Time,
) (visible *AnalyticsResult, applied bool, err error) {
	fromCache := !cachedAt.IsZero()

	a.mu.Lock()
	if seq != a.seq {
		latest, current := a.seq, a.view.Result
		a.mu.Unlock()
		a.metrics.Counter(observability.MetricStaleDiscarded, 1)
		a.logger.DebugContext(ctx, "discarding stale analytics cycle", "latest", latest)
		return current, false, nil
	}
	a.view.Loading = false
	if cycleErr != nil {
		a.view.Err = cycleErr
		a.mu.Unlock()
		return nil, false, cycleErr
	}
	a.view.Result = result
	a.view.Err = nil
	a.view.LastSuccess = cachedAt
	if !fromCache {
		a.view.LastSuccess = a.now()
	}
	storedAt := a.view.LastSuccess
	a.mu.Unlock()

	if fromCache {
		return result, false, nil
	}

	a.store(ctx, seq, key, CacheEntry{Result: result, StoredAt: storedAt})
	a.metrics.Gauge(observability.MetricOverallCompliance, result.Metrics.OverallCompliance)
	a.metrics.Gauge(observability.MetricTeamsComputed, float64(len(result.Teams)))
	a.metrics.Counter(observability.MetricInsightsGenerated, int64(result.Insights.Count()))
	a.logger.InfoContext(ctx, "analytics refreshed",
		"teams", len(result.Teams),
		"active_teams", result.Metrics.ActiveTeams,
		"insights", result.Insights.Count(),
		"failed_leaders", len(result.FailedLeaders),
	)
	return result, true, nil
}

// store caches entry unless a Reset or a newer cycle has happened since
// cycle seq was applied. Writes are serialized with Reset and Invalidate.
func (a *Aggregator) store(ctx context.Context, seq uint64, key string, entry CacheEntry) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()

	a.mu.Lock()
	latest := a.seq == seq
	a.mu.Unlock()
	if !latest {
		return
	}
	if err := a.cache.Set(ctx, key, entry); err != nil {
		a.logger.WarnContext(ctx, "analytics cache write failed", "error", err)
	}
}

// compute runs the fetch batch for every leader and derives the result.
// The whole batch settles before anything is computed.
func (a *Aggregator) compute(ctx context.Context, f Filter, seq uint64) (*AnalyticsResult, error) {
	leaders, err := a.source.ListTeamLeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team leaders: %w", err)
	}

	now := a.now()
	window := f.Window()
	trend := domain.TrendPeriod(now)
	sets := make([]*domain.RecordSet, len(leaders))
	failures := make([]error, len(leaders))

	var g errgroup.Group
	g.SetLimit(a.cfg.FetchConcurrency)
	for i, leader := range leaders {
		g.Go(func() error {
			set, err := a.fetchTeam(ctx, leader.ID, window, trend)
			if err != nil {
				failures[i] = fmt.Errorf("fetch records for %s: %w", leader.ID, err)
				return nil
			}
			sets[i] = set
			return nil
		})
	}
	_ = g.Wait()

	var failed []uuid.UUID
	var errs []error
	for i, err := range failures {
		if err == nil {
			continue
		}
		failed = append(failed, leaders[i].ID)
		errs = append(errs, err)
		a.metrics.Counter(observability.MetricFetchFailures, 1)
		a.logger.WarnContext(ctx, "team records unavailable, scoring as empty",
			"team_leader_id", leaders[i].ID,
			"error", err,
		)
	}
	if len(leaders) > 0 && len(failed) == len(leaders) {
		return nil, fmt.Errorf("fetch records for all %d team leaders: %w", len(leaders), errors.Join(errs...))
	}

	rc := domain.RatingContext{GracePeriodBonus: a.cfg.GracePeriodBonus}
	teams := make([]domain.TeamPerformance, 0, len(leaders))
	scored := make([]domain.TeamLeaderPerformance, 0, len(leaders))
	for i, leader := range leaders {
		set := domain.RecordSet{}
		if sets[i] != nil {
			set = *sets[i]
		}
		teams = append(teams, domain.ComputeTeamPerformanceWithContext(leader, set, window, now, rc))
		scoped := set.Within(window)
		perf := domain.ComputeTeamLeaderPerformance(
			[]domain.TeamLeaderProfile{leader}, scoped.Assignments, scoped.Readiness, set.Workers, now)
		scored = append(scored, perf[0].WithTrend(set.Assignments, now))
	}

	domain.SortTeams(teams)
	slices.SortStableFunc(scored, func(x, y domain.TeamLeaderPerformance) int {
		return cmp.Or(
			cmp.Compare(x.TeamName, y.TeamName),
			cmp.Compare(x.TeamLeaderID.String(), y.TeamLeaderID.String()),
		)
	})

	metrics := domain.ComputeMultiTeamMetrics(teams)
	return &AnalyticsResult{
		Filter:        f,
		FilterKey:     f.CacheKey(),
		Window:        window,
		Teams:         teams,
		Metrics:       metrics,
		Leaders:       scored,
		Insights:      domain.GenerateStrategicInsights(teams, metrics, scored),
		FailedLeaders: failed,
		ComputedAt:    now,
		Sequence:      seq,
	}, nil
}

// fetchTeam loads one leader's records for window plus the trailing trend
// period. When the two touch they are read as one span; otherwise the trend
// period is fetched separately and only its assignments are kept, which
// cannot overlap the window's.
func (a *Aggregator) fetchTeam(ctx context.Context, id uuid.UUID, window, trend domain.Period) (*domain.RecordSet, error) {
	if !window.End.Before(trend.Start) {
		return a.fetch(ctx, id, window.Span(trend))
	}
	set, err := a.fetch(ctx, id, window)
	if err != nil {
		return nil, err
	}
	recent, err := a.fetch(ctx, id, trend)
	if err != nil {
		return nil, err
	}
	merged := *set
	merged.Assignments = slices.Concat(set.Assignments, recent.Assignments)
	return &merged, nil
}

func (a *Aggregator) fetch(ctx context.Context, id uuid.UUID, p domain.Period) (*domain.RecordSet, error) {
	set, err := a.source.FetchRecords(ctx, domain.RecordQuery{TeamLeaderID: &id, Start: p.Start, End: p.End})
	if err != nil {
		return nil, err
	}
	if set == nil {
		return &domain.RecordSet{}, nil
	}
	return set, nil
}
