package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// Refresher defaults.
const (
	DefaultFilterDebounce  = 250 * time.Millisecond
	DefaultRefreshInterval = 30 * time.Second
)

// ErrRefresherActive is returned by Activate on an already active Refresher.
var ErrRefresherActive = errors.New("refresher already active")

// ErrRefresherInactive is returned by operations that need an active Refresher.
var ErrRefresherInactive = errors.New("refresher not active")

// RefresherConfig tunes a Refresher. Zero values select the defaults.
type RefresherConfig struct {
	Debounce time.Duration
	Interval time.Duration
}

// Refresher keeps an Aggregator's view current for a live consumer. Filter
// changes are debounced so rapid edits coalesce into one refresh, and an
// interval timer evicts and refetches the current filter. Timers run between
// Activate and Teardown.
type Refresher struct {
	agg     *Aggregator
	cfg     RefresherConfig
	logger  *slog.Logger
	metrics observability.Metrics

	mu       sync.Mutex
	active   bool
	filter   Filter
	ctx      context.Context
	cancel   context.CancelFunc
	debounce *time.Timer
	wg       sync.WaitGroup
}

// NewRefresher creates an inactive Refresher over agg.
func NewRefresher(agg *Aggregator, cfg RefresherConfig, logger *slog.Logger, metrics observability.Metrics) *Refresher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultFilterDebounce
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Refresher{
		agg:     agg,
		cfg:     cfg,
		logger:  logger.With("component", "refresher"),
		metrics: metrics,
	}
}

// Activate starts the interval timer and runs the first refresh for f
// synchronously. The timers stop when ctx is cancelled or on Teardown.
func (r *Refresher) Activate(ctx context.Context, f Filter) (*AnalyticsResult, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return nil, ErrRefresherActive
	}
	r.active = true
	r.filter = f
	r.ctx, r.cancel = context.WithCancel(ctx)
	runCtx := r.ctx
	r.wg.Add(1)
	r.mu.Unlock()

	go r.runInterval(runCtx)

	r.logger.InfoContext(ctx, "refresher activated",
		"filter", f.CacheKey(),
		"interval", r.cfg.Interval,
		"debounce", r.cfg.Debounce,
	)
	return r.agg.Refresh(runCtx, f)
}

// SetFilter records a filter change and schedules a refresh after the
// debounce delay. A change arriving before the delay elapses replaces the
// pending one.
func (r *Refresher) SetFilter(f Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return ErrRefresherInactive
	}

	r.filter = f
	if r.debounce != nil && r.debounce.Stop() {
		r.metrics.Counter(observability.MetricDebouncedFilterChange, 1)
	}
	r.debounce = time.AfterFunc(r.cfg.Debounce, r.fireDebounced)
	return nil
}

// Filter returns the current filter.
func (r *Refresher) Filter() Filter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

// RefreshNow evicts the current filter's cache entry and refetches it.
func (r *Refresher) RefreshNow(ctx context.Context) (*AnalyticsResult, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil, ErrRefresherInactive
	}
	f := r.filter
	r.mu.Unlock()
	return r.agg.ForceRefresh(ctx, f)
}

// Snapshot returns the aggregator's visible state.
func (r *Refresher) Snapshot() Snapshot {
	return r.agg.Snapshot()
}

// Teardown stops both timers, waits for running refreshes, and resets the
// aggregator so no in-flight result can be applied afterwards.
func (r *Refresher) Teardown(ctx context.Context) error {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil
	}
	r.active = false
	if r.debounce != nil {
		r.debounce.Stop()
		r.debounce = nil
	}
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.InfoContext(ctx, "refresher stopped")
	return r.agg.Reset(ctx)
}

// begin registers a timer-driven refresh. It returns false once Teardown has
// started, so wg.Add never races with wg.Wait.
func (r *Refresher) begin() (context.Context, Filter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil, Filter{}, false
	}
	r.wg.Add(1)
	return r.ctx, r.filter, true
}

func (r *Refresher) fireDebounced() {
	ctx, f, ok := r.begin()
	if !ok {
		return
	}
	defer r.wg.Done()

	if _, err := r.agg.Refresh(ctx, f); err != nil {
		r.logger.WarnContext(ctx, "debounced refresh failed", "filter", f.CacheKey(), "error", err)
	}
}

func (r *Refresher) runInterval(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Refresher) tick() {
	ctx, f, ok := r.begin()
	if !ok {
		return
	}
	defer r.wg.Done()

	if _, err := r.agg.ForceRefresh(ctx, f); err != nil {
		r.logger.WarnContext(ctx, "interval refresh failed", "filter", f.CacheKey(), "error", err)
	}
}
