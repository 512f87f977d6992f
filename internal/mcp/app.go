package mcp

import (
	"github.com/felixgeelhaar/teampulse/adapter/cli"
	"github.com/felixgeelhaar/teampulse/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	return &cli.App{
		Aggregator:           container.Aggregator,
		Refresher:            container.Refresher,
		TeamReportHandler:    container.GetTeamReportHandler,
		WorkerRankingHandler: container.GetWorkerRankingHandler,
		Importer:             container.RecordWriter,
		Health:               container.Health,
		Metrics:              container.Metrics,
		Bus:                  container.Bus,
	}
}
