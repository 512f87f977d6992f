package cli

import (
	"context"
	"errors"
	"io"

	"github.com/felixgeelhaar/teampulse/internal/performance/application"
	"github.com/felixgeelhaar/teampulse/internal/performance/application/queries"
	"github.com/felixgeelhaar/teampulse/internal/performance/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/teampulse/internal/shared/application"
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

// RecordImporter loads a JSON record set into the record store.
type RecordImporter interface {
	ImportJSON(ctx context.Context, r io.Reader) (persistence.ImportStats, error)
}

// App holds the CLI application dependencies.
type App struct {
	Aggregator *application.Aggregator
	Refresher  *application.Refresher

	TeamReportHandler    *queries.GetTeamReportHandler
	WorkerRankingHandler *queries.GetWorkerRankingHandler

	Importer RecordImporter
	Health   *observability.HealthRegistry
	Metrics  observability.Metrics

	// Bus is the in-process event bus, set in local mode with publishing on.
	Bus *eventbus.InProcessBus
}

// TeamReportQuery returns the team report handler, timed against Metrics.
func (a *App) TeamReportQuery() sharedApplication.QueryHandler[queries.GetTeamReportQuery, *queries.TeamReport] {
	return sharedApplication.Timed[queries.GetTeamReportQuery, *queries.TeamReport](a.TeamReportHandler, a.Metrics)
}

// WorkerRankingQuery returns the worker ranking handler, timed against Metrics.
func (a *App) WorkerRankingQuery() sharedApplication.QueryHandler[queries.GetWorkerRankingQuery, *queries.WorkerRankingResult] {
	return sharedApplication.Timed[queries.GetWorkerRankingQuery, *queries.WorkerRankingResult](a.WorkerRankingHandler, a.Metrics)
}

// errNoApp is returned by commands that need the record store.
var errNoApp = errors.New("teampulse is not initialized: check DATABASE_URL or SQLITE_PATH")

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
