// Package application defines the read-side contract shared by the query
// handlers and a timing decorator for it.
package application

import (
	"context"

	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// Query names a read request; the name doubles as its metrics operation.
type Query interface {
	QueryName() string
}

// QueryHandler answers one query type.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// HandlerFunc adapts a plain function to QueryHandler.
type HandlerFunc[Q Query, R any] func(ctx context.Context, query Q) (R, error)

// Handle calls f.
func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

// Timed records the duration, count and failures of every call to next under
// the query name. A nil metrics collector disables recording.
func Timed[Q Query, R any](next QueryHandler[Q, R], metrics observability.Metrics) QueryHandler[Q, R] {
	return HandlerFunc[Q, R](func(ctx context.Context, query Q) (R, error) {
		return observability.TimeOperationResult(ctx, nil, metrics, query.QueryName(), func() (R, error) {
			return next.Handle(ctx, query)
		})
	})
}
