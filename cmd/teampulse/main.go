package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/teampulse/adapter/cli"
	"github.com/felixgeelhaar/teampulse/internal/app"
	mcpinternal "github.com/felixgeelhaar/teampulse/internal/mcp"
	"github.com/felixgeelhaar/teampulse/pkg/config"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if cfg.IsDevelopment() {
		level = "debug"
	}
	logger = observability.NewLogger(observability.LogOptions{
		Level:   level,
		Env:     cfg.AppEnv,
		Version: cli.Version,
	})
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands that need the record store report errNoApp themselves.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(mcpinternal.NewCLIApp(container))
	}

	cli.Execute(ctx)
}
