package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
)

// AnalyticsResult is the output of one multi-team refresh cycle.
type AnalyticsResult struct {
	Filter    Filter        `json:"filter"`
	FilterKey string        `json:"filter_key"`
	Window    domain.Period `json:"window"`

	Teams    []domain.TeamPerformance       `json:"teams"`
	Metrics  domain.MultiTeamMetrics        `json:"metrics"`
	Leaders  []domain.TeamLeaderPerformance `json:"leaders"`
	Insights domain.StrategicInsights       `json:"insights"`

	// FailedLeaders lists leaders whose records could not be fetched; their
	// teams are scored as empty.
	FailedLeaders []uuid.UUID `json:"failed_leaders,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
	Sequence   uint64    `json:"sequence"`
}

// Team returns the snapshot for one leader's team.
func (r *AnalyticsResult) Team(leaderID uuid.UUID) (domain.TeamPerformance, bool) {
	if r == nil {
		return domain.TeamPerformance{}, false
	}
	for _, t := range r.Teams {
		if t.TeamLeaderID == leaderID {
			return t, true
		}
	}
	return domain.TeamPerformance{}, false
}

// Snapshot is the aggregator's visible state.
type Snapshot struct {
	// Result is the last successfully applied result, kept while later
	// cycles fail.
	Result *AnalyticsResult
	// Err is the failure of the latest settled cycle, nil after a success.
	Err error
	// Loading is true while the latest dispatched cycle has not settled.
	Loading bool
	// LastSuccess is when Result was applied.
	LastSuccess time.Time
	// Sequence is the latest dispatched cycle number.
	Sequence uint64
}
