package queries

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
	sharedApplication "github.com/felixgeelhaar/teampulse/internal/shared/application"
)

// GetTeamReportQuery requests the monthly report of one team leader.
type GetTeamReportQuery struct {
	TeamLeaderID uuid.UUID
	Year         int
	Month        time.Month
	Location     *time.Location
	// GracePeriodBonus is passed through to the team rating.
	GracePeriodBonus float64
}

// QueryName returns the query name.
func (GetTeamReportQuery) QueryName() string { return "performance.team_report" }

// TeamReport is the monthly view of a single team.
type TeamReport struct {
	Leader     domain.TeamLeaderProfile     `json:"leader"`
	Period     domain.Period                `json:"period"`
	Metrics    domain.MonthlyMetrics        `json:"metrics"`
	Previous   domain.MonthlyMetrics        `json:"previous"`
	Weekly     []domain.WeeklyBreakdown     `json:"weekly"`
	Rating     domain.TeamRating            `json:"rating"`
	Leadership domain.TeamLeaderPerformance `json:"leadership"`
	Workers    []domain.WorkerPerformance   `json:"workers"`
}

// GetTeamReportHandler handles team report queries.
type GetTeamReportHandler struct {
	source domain.RecordSource
	now    func() time.Time
}

// NewGetTeamReportHandler creates a new team report handler.
func NewGetTeamReportHandler(source domain.RecordSource) *GetTeamReportHandler {
	return &GetTeamReportHandler{
		source: source,
		now:    time.Now,
	}
}

// Handle executes the team report query. The leader's full history is read
// once: the month and the previous month (which feeds the rating's
// improvement bonus) are cut from it, while the worker ranking and the
// leadership trend read all of it.
func (h *GetTeamReportHandler) Handle(ctx context.Context, query GetTeamReportQuery) (*TeamReport, error) {
	if query.Month < time.January || query.Month > time.December || query.Year <= 0 {
		return nil, fmt.Errorf("%w: month %d-%02d", domain.ErrInvalidFilter, query.Year, int(query.Month))
	}

	id := query.TeamLeaderID
	history, err := h.source.FetchRecords(ctx, domain.RecordQuery{TeamLeaderID: &id})
	if err != nil {
		return nil, fmt.Errorf("fetch records for %s: %w", id, err)
	}
	if history == nil {
		history = &domain.RecordSet{}
	}

	idx := slices.IndexFunc(history.Leaders, func(l domain.TeamLeaderProfile) bool { return l.ID == id })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrTeamLeaderNotFound, id)
	}
	leader := history.Leaders[idx]

	period := domain.MonthPeriod(query.Year, query.Month, query.Location)
	previous := domain.MonthPeriod(query.Year, query.Month-1, query.Location)
	current := history.Within(period)
	prior := history.Within(previous)

	all := teamAssignments(history.Assignments, id)
	assignments := teamAssignments(current.Assignments, id)
	metrics := domain.ComputeMonthlyMetrics(assignments, current.Cases, period)
	prevMetrics := domain.ComputeMonthlyMetrics(teamAssignments(prior.Assignments, id), prior.Cases, previous)

	now := h.now()
	leadership := domain.ComputeTeamLeaderPerformance(
		[]domain.TeamLeaderProfile{leader}, assignments, current.Readiness, history.Workers, now)

	return &TeamReport{
		Leader:   leader,
		Period:   period,
		Metrics:  metrics,
		Previous: prevMetrics,
		Weekly:   domain.ComputeWeeklyBreakdown(assignments, period),
		Rating: domain.ComputeTeamRatingWithContext(metrics, domain.RatingContext{
			Previous:         &prevMetrics,
			GracePeriodBonus: query.GracePeriodBonus,
		}),
		Leadership: leadership[0].WithTrend(all, now),
		Workers:    domain.ComputeWorkerPerformance(all, history.Workers),
	}, nil
}

func teamAssignments(assignments []domain.AssignmentRecord, leaderID uuid.UUID) []domain.AssignmentRecord {
	out := make([]domain.AssignmentRecord, 0, len(assignments))
	for _, a := range assignments {
		if a.TeamLeaderID == leaderID {
			out = append(out, a)
		}
	}
	return out
}

var _ sharedApplication.QueryHandler[GetTeamReportQuery, *TeamReport] = (*GetTeamReportHandler)(nil)
