package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/teampulse/internal/app"
	mcpinternal "github.com/felixgeelhaar/teampulse/internal/mcp"
	"github.com/felixgeelhaar/teampulse/pkg/config"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// version is set during build
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// run serves MCP over HTTP until ctx is cancelled. Failures are logged here
// so deferred cleanup runs before main exits.
func run(ctx context.Context) error {
	logger := observability.LoggerFromEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		return err
	}
	logger = observability.NewLogger(observability.LogOptions{
		Level:   cfg.LogLevel,
		Env:     cfg.AppEnv,
		Version: version,
	})

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("initialize container", "error", err)
		return err
	}
	defer container.Close()

	return serve(ctx, cfg, container, logger)
}

func serve(ctx context.Context, cfg *config.Config, container *app.Container, logger *slog.Logger) error {
	err := mcpinternal.Serve(ctx, cfg, mcpinternal.NewCLIApp(container), version, logger)
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	logger.Error("mcp server stopped", "error", err)
	return err
}
