package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/teampulse/adapter/cli"
	"github.com/felixgeelhaar/teampulse/internal/performance/application"
	"github.com/felixgeelhaar/teampulse/internal/performance/application/queries"
	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
	"github.com/felixgeelhaar/teampulse/pkg/observability"
)

const monthLayout = "2006-01"

var errNoDatabase = errors.New("analytics requires database connection")

type refreshInput struct {
	Date  string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
	From  string `json:"from,omitempty"` // YYYY-MM-DD
	To    string `json:"to,omitempty"`   // YYYY-MM-DD, inclusive
	Force bool   `json:"force,omitempty"`
}

type teamRatingInput struct {
	TeamLeaderID string  `json:"team_leader_id" jsonschema:"required"`
	Month        string  `json:"month,omitempty"` // YYYY-MM, defaults to current month
	GraceBonus   float64 `json:"grace_bonus,omitempty"`
}

type rankInput struct {
	TeamLeaderID string `json:"team_leader_id,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// SnapshotDTO is the aggregator's visible state.
type SnapshotDTO struct {
	Sequence    uint64                       `json:"sequence"`
	Loading     bool                         `json:"loading"`
	Error       string                       `json:"error,omitempty"`
	LastSuccess *time.Time                   `json:"last_success,omitempty"`
	Result      *application.AnalyticsResult `json:"result,omitempty"`
}

// TeamRatingDTO is a team's monthly rating with the metrics behind it.
type TeamRatingDTO struct {
	TeamLeaderID uuid.UUID                    `json:"team_leader_id"`
	TeamName     string                       `json:"team_name"`
	Period       domain.Period                `json:"period"`
	Rating       domain.TeamRating            `json:"rating"`
	Metrics      domain.MonthlyMetrics        `json:"metrics"`
	Previous     domain.MonthlyMetrics        `json:"previous"`
	Leadership   domain.TeamLeaderPerformance `json:"leadership"`
}

func refreshTool(app *cli.App) func(context.Context, refreshInput) (*application.AnalyticsResult, error) {
	return func(ctx context.Context, input refreshInput) (*application.AnalyticsResult, error) {
		if app.Aggregator == nil {
			return nil, errNoDatabase
		}
		filter, err := parseFilter(input, time.Now())
		if err != nil {
			return nil, err
		}
		ctx = observability.WithCorrelationID(ctx, "")
		if input.Force {
			return app.Aggregator.ForceRefresh(ctx, filter)
		}
		return app.Aggregator.Refresh(ctx, filter)
	}
}

func snapshotTool(app *cli.App) func(context.Context, struct{}) (*SnapshotDTO, error) {
	return func(ctx context.Context, _ struct{}) (*SnapshotDTO, error) {
		if app.Aggregator == nil {
			return nil, errNoDatabase
		}
		snap := app.Aggregator.Snapshot()
		dto := &SnapshotDTO{
			Sequence: snap.Sequence,
			Loading:  snap.Loading,
			Result:   snap.Result,
		}
		if snap.Err != nil {
			dto.Error = snap.Err.Error()
		}
		if !snap.LastSuccess.IsZero() {
			at := snap.LastSuccess
			dto.LastSuccess = &at
		}
		return dto, nil
	}
}

func teamRatingTool(app *cli.App) func(context.Context, teamRatingInput) (*TeamRatingDTO, error) {
	return func(ctx context.Context, input teamRatingInput) (*TeamRatingDTO, error) {
		if app.TeamReportHandler == nil {
			return nil, errNoDatabase
		}
		leaderID, err := parseUUID(input.TeamLeaderID)
		if err != nil {
			return nil, err
		}
		month := time.Now().UTC()
		if input.Month != "" {
			if month, err = time.Parse(monthLayout, input.Month); err != nil {
				return nil, fmt.Errorf("invalid month format, use YYYY-MM: %w", err)
			}
		}

		query := queries.GetTeamReportQuery{
			TeamLeaderID:     leaderID,
			Year:             month.Year(),
			Month:            month.Month(),
			Location:         time.UTC,
			GracePeriodBonus: input.GraceBonus,
		}
		report, err := app.TeamReportQuery().Handle(ctx, query)
		if err != nil {
			return nil, err
		}
		return &TeamRatingDTO{
			TeamLeaderID: report.Leader.ID,
			TeamName:     report.Leader.TeamName,
			Period:       report.Period,
			Rating:       report.Rating,
			Metrics:      report.Metrics,
			Previous:     report.Previous,
			Leadership:   report.Leadership,
		}, nil
	}
}

func rankTool(app *cli.App) func(context.Context, rankInput) (*queries.WorkerRankingResult, error) {
	return func(ctx context.Context, input rankInput) (*queries.WorkerRankingResult, error) {
		if app.WorkerRankingHandler == nil {
			return nil, errNoDatabase
		}
		query := queries.GetWorkerRankingQuery{Limit: input.Limit}
		if input.TeamLeaderID != "" {
			id, err := parseUUID(input.TeamLeaderID)
			if err != nil {
				return nil, err
			}
			query.TeamLeaderID = &id
		}
		return app.WorkerRankingQuery().Handle(ctx, query)
	}
}
