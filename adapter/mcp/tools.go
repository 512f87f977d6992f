// Package mcp exposes the analytics engine as MCP tools, resources and
// prompts.
package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/teampulse/adapter/cli"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// ToolDependencies carries what the MCP handlers read from.
type ToolDependencies struct {
	App *cli.App
}

func (d ToolDependencies) validate(srv *mcp.Server) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if d.App == nil {
		return errors.New("app is required")
	}
	return nil
}

// RegisterTools registers the analytics.* tools.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if err := deps.validate(srv); err != nil {
		return err
	}
	app := deps.App

	srv.Tool("analytics.refresh").
		Description("Compute multi-team analytics for a day or an inclusive date range").
		Handler(refreshTool(app))
	srv.Tool("analytics.snapshot").
		Description("Return the last applied analytics result and refresh state").
		Handler(snapshotTool(app))
	srv.Tool("analytics.team_rating").
		Description("Rate one team for a month, compared with the previous month").
		Handler(teamRatingTool(app))
	srv.Tool("analytics.rank").
		Description("Rank workers by all-time performance").
		Handler(rankTool(app))
	srv.Tool("analytics.health").
		Description("Check record store, cache and broker health").
		Handler(healthTool(app))
	return nil
}

func healthTool(app *cli.App) func(context.Context, struct{}) (*observability.OverallHealth, error) {
	return func(ctx context.Context, _ struct{}) (*observability.OverallHealth, error) {
		if app.Health == nil {
			return nil, errNoDatabase
		}
		health := app.Health.GetOverallHealth(ctx)
		return &health, nil
	}
}
