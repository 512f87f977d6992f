package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/teampulse/internal/app"
	"github.com/felixgeelhaar/teampulse/internal/performance/application"
	"github.com/felixgeelhaar/teampulse/pkg/config"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// version is set during build
var version = "dev"

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting teampulse worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = observability.NewLogger(observability.LogOptions{
		Level:   cfg.LogLevel,
		Env:     cfg.AppEnv,
		Version: version,
	})

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if err := run(ctx, cfg, container, logger); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

// run keeps today's analytics current and serves health until ctx ends.
func run(ctx context.Context, cfg *config.Config, c *app.Container, logger *slog.Logger) error {
	today := func() application.Filter {
		now := time.Now().UTC()
		return application.DateFilter(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
	}

	filter := today()
	refreshCtx := observability.WithCorrelationID(ctx, "")
	if _, err := c.Refresher.Activate(refreshCtx, filter); err != nil {
		// The view keeps retrying on the interval; readiness reports the gap.
		logger.Warn("initial analytics refresh failed", "error", err)
	}
	defer func() { _ = c.Refresher.Teardown(context.WithoutCancel(ctx)) }()

	var srv *http.Server
	if cfg.WorkerHealthAddr != "" {
		srv = &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(c),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("health server listening", "addr", cfg.WorkerHealthAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server failed", "error", err)
			}
		}()
	}

	// Roll the filter over at midnight UTC.
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
			return nil
		case <-ticker.C:
			next := today()
			if next.CacheKey() == filter.CacheKey() {
				continue
			}
			filter = next
			logger.Info("rolling analytics over to a new day", observability.FilterKey, filter.CacheKey())
			if err := c.Refresher.SetFilter(filter); err != nil {
				logger.Warn("failed to roll analytics filter", "error", err)
			}
		}
	}
}

func healthMux(c *app.Container) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		snap := c.Refresher.Snapshot()
		response := map[string]any{
			"status":          "ok",
			"sequence":        snap.Sequence,
			"loading":         snap.Loading,
			"last_success":    snap.LastSuccess,
			"stale_discarded": c.Metrics.GetCounter(observability.MetricStaleDiscarded),
			"breaker_state":   c.Breaker.State().String(),
			"metrics":         c.Metrics.Snapshot(),
		}
		if snap.Err != nil {
			response["last_error"] = snap.Err.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
	mux.Handle("/readyz", c.Health.Handler(2*time.Second))
	return mux
}
