package observability

import (
	"context"

	"github.com/google/uuid"
)

// Attribute keys shared by logs and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RefreshCycleKey  = "refresh_cycle"
	FilterKey        = "filter"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
)

type scopeKey struct{}

// scope is the log context of one command, request or refresh cycle. It is
// copied on every change, so a derived context never mutates its parent's.
type scope struct {
	correlationID string
	cycle         uint64
	hasCycle      bool
	filterKey     string
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func (s scope) attrs() []any {
	var attrs []any
	if s.correlationID != "" {
		attrs = append(attrs, CorrelationIDKey, s.correlationID)
	}
	if s.hasCycle {
		attrs = append(attrs, RefreshCycleKey, s.cycle)
	}
	if s.filterKey != "" {
		attrs = append(attrs, FilterKey, s.filterKey)
	}
	return attrs
}

// WithCorrelationID tags ctx with a correlation ID, generating one when id
// is empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	s := scopeFrom(ctx)
	s.correlationID = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).correlationID
}

// WithRefreshCycle tags ctx with the sequence number of an analytics refresh.
func WithRefreshCycle(ctx context.Context, seq uint64) context.Context {
	s := scopeFrom(ctx)
	s.cycle, s.hasCycle = seq, true
	return context.WithValue(ctx, scopeKey{}, s)
}

// RefreshCycleFromContext returns the refresh sequence number, if any.
func RefreshCycleFromContext(ctx context.Context) (uint64, bool) {
	s := scopeFrom(ctx)
	return s.cycle, s.hasCycle
}

// WithFilterKey tags ctx with the cache key of the active analytics filter.
func WithFilterKey(ctx context.Context, key string) context.Context {
	s := scopeFrom(ctx)
	s.filterKey = key
	return context.WithValue(ctx, scopeKey{}, s)
}

// FilterKeyFromContext returns the filter key, or "".
func FilterKeyFromContext(ctx context.Context) string {
	return scopeFrom(ctx).filterKey
}
