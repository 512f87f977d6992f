package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthStatus is the state of one component or of the whole process.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// severity orders statuses so the worst one can be picked.
func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUnhealthy:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// HealthCheckResult is the outcome of one check.
type HealthCheckResult struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	DurationMS float64        `json:"duration_ms"`
	CheckedAt  time.Time      `json:"checked_at"`
	Details    map[string]any `json:"details,omitempty"`
}

// HealthChecker probes one component.
type HealthChecker func(ctx context.Context) HealthCheckResult

// HealthRegistry runs the registered checkers together.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	now      func() time.Time
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: make(map[string]HealthChecker), now: time.Now}
}

// Register adds or replaces the checker for name.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	r.checkers[name] = checker
	r.mu.Unlock()
}

// OverallHealth is the worst component status plus every result.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// GetOverallHealth runs every checker concurrently. A registry with no
// checkers is healthy.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	r.mu.RLock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	r.mu.RUnlock()

	var mu sync.Mutex
	results := make(map[string]HealthCheckResult, len(checkers))
	var g errgroup.Group
	for name, check := range checkers {
		g.Go(func() error {
			start := r.now()
			res := check(ctx)
			res.CheckedAt = r.now()
			res.DurationMS = float64(res.CheckedAt.Sub(start).Microseconds()) / 1000
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := HealthStatusHealthy
	for _, res := range results {
		if res.Status.severity() > status.severity() {
			status = res.Status
		}
	}
	return OverallHealth{Status: status, Timestamp: r.now(), Checks: results}
}

// Handler serves GetOverallHealth as JSON, bounded by timeout. Only an
// unhealthy process answers 503.
func (r *HealthRegistry) Handler(timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		defer cancel()

		health := r.GetOverallHealth(ctx)
		w.Header().Set("Content-Type", "application/json")
		if health.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(health)
	})
}

// DatabaseHealthChecker probes the record store. Analytics cannot run
// without it, so a failure is unhealthy.
func DatabaseHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return pingChecker("database", HealthStatusUnhealthy, ping)
}

// RedisHealthChecker probes the analytics cache. A cache outage only costs
// recomputation, so a failure is degraded.
func RedisHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return pingChecker("redis", HealthStatusDegraded, ping)
}

// RabbitMQHealthChecker probes the insight broker; a failure is degraded.
func RabbitMQHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return pingChecker("rabbitmq", HealthStatusDegraded, ping)
}

func pingChecker(component string, failure HealthStatus, ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{Status: failure, Message: fmt.Sprintf("%s connection failed: %v", component, err)}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: component + " connection healthy"}
	}
}

// FreshnessHealthChecker is degraded when the last successful analytics
// refresh is older than maxAge and unhealthy before the first one.
func FreshnessHealthChecker(lastSuccess func() (time.Time, bool), maxAge time.Duration, now func() time.Time) HealthChecker {
	if now == nil {
		now = time.Now
	}
	return func(context.Context) HealthCheckResult {
		at, ok := lastSuccess()
		if !ok {
			return HealthCheckResult{Status: HealthStatusUnhealthy, Message: "no successful analytics refresh yet"}
		}
		age := now().Sub(at)
		details := map[string]any{"last_success": at, "age_seconds": age.Seconds()}
		if age > maxAge {
			return HealthCheckResult{
				Status:  HealthStatusDegraded,
				Message: fmt.Sprintf("analytics refresh is stale (%s old)", age.Round(time.Second)),
				Details: details,
			}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: "analytics refresh is current", Details: details}
	}
}
