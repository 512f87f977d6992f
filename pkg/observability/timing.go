package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one operation. Stop logs the outcome and records the
// teampulse.operation.* series, tagged with the operation name.
type Timer struct {
	op      string
	start   time.Time
	ctx     context.Context
	logger  *slog.Logger
	level   slog.Level
	metrics Metrics
	tags    []Tag
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// TimerLogger logs successful stops at level and failures at error.
func TimerLogger(logger *slog.Logger, level slog.Level) TimerOption {
	return func(t *Timer) {
		t.logger = logger
		t.level = level
	}
}

// TimerMetrics records the operation series on metrics with extra tags.
func TimerMetrics(metrics Metrics, tags ...Tag) TimerOption {
	return func(t *Timer) {
		t.metrics = metrics
		t.tags = tags
	}
}

// StartTimer starts timing op. ctx is passed to the logger so the log
// scope is attached.
func StartTimer(ctx context.Context, op string, opts ...TimerOption) *Timer {
	if ctx == nil {
		ctx = context.Background()
	}
	t := &Timer{op: op, start: time.Now(), ctx: ctx, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Stop ends the measurement. A non-nil err marks the operation failed.
func (t *Timer) Stop(err error) time.Duration {
	d := time.Since(t.start)

	if t.logger != nil {
		if err != nil {
			t.logger.ErrorContext(t.ctx, "operation failed", OperationKey, t.op, DurationKey, d.Milliseconds(), ErrorKey, err)
		} else {
			t.logger.Log(t.ctx, t.level, "operation completed", OperationKey, t.op, DurationKey, d.Milliseconds())
		}
	}

	if t.metrics != nil {
		tags := append([]Tag{T(OperationKey, t.op)}, t.tags...)
		t.metrics.Timing(MetricOperationDuration, d, tags...)
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, tags...)
		}
	}
	return d
}

// TimeOperationResult times fn under op. A nil logger or metrics skips that
// output.
func TimeOperationResult[T any](ctx context.Context, logger *slog.Logger, metrics Metrics, op string, fn func() (T, error)) (T, error) {
	var opts []TimerOption
	if logger != nil {
		opts = append(opts, TimerLogger(logger, slog.LevelDebug))
	}
	if metrics != nil {
		opts = append(opts, TimerMetrics(metrics))
	}
	timer := StartTimer(ctx, op, opts...)
	result, err := fn()
	timer.Stop(err)
	return result, err
}
