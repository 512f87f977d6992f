package domain

import (
	"time"

	"github.com/google/uuid"
)

// Management score weights and bonuses.
const (
	leaderWeightEfficiency = 0.45
	leaderWeightResponse   = 0.30
	leaderWeightQuality    = 0.15

	leaderOverduePenaltyFactor = 1.5

	leaderQualityReadinessWeight = 0.7
	leaderQualityCoverageWeight  = 0.3
	leaderFitRateWeight          = 0.8

	trendWindow    = 7 * 24 * time.Hour
	trendThreshold = 5.0
)

// TrendDirection describes how a leader's recent completion rate moved.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// TeamLeaderPerformance is the management scorecard for one team leader.
type TeamLeaderPerformance struct {
	TeamLeaderID uuid.UUID `json:"team_leader_id"`
	Name         string    `json:"name"`
	TeamName     string    `json:"team_name"`
	TeamSize     int       `json:"team_size"`

	TotalAssignments int `json:"total_assignments"`
	Eligible         int `json:"eligible"`
	Completed        int `json:"completed"`
	Overdue          int `json:"overdue"`
	InGracePeriod    int `json:"in_grace_period"`

	AvgResponseTimeHours float64 `json:"avg_response_time_hours"`
	FitRate              float64 `json:"fit_rate"`
	HighRiskCount        int     `json:"high_risk_count"`
	CoverageRate         float64 `json:"coverage_rate"`

	EfficiencyRating  float64        `json:"efficiency_rating"`
	ResponseTimeScore float64        `json:"response_time_score"`
	QualityScore      float64        `json:"quality_score"`
	ManagementScore   float64        `json:"management_score"`
	OverallGrade      string         `json:"overall_grade"`
	TrendDirection    TrendDirection `json:"trend_direction"`
	Active            bool           `json:"active"`

	Strengths        []string `json:"strengths"`
	ImprovementAreas []string `json:"improvement_areas"`
}

// ComputeTeamLeaderPerformance scores every leader against the shared record slices.
// Assignments are matched by TeamLeaderID; readiness submissions by the leader's
// active roster. Output order follows leaders.
func ComputeTeamLeaderPerformance(
	leaders []TeamLeaderProfile,
	assignments []AssignmentRecord,
	readiness []ReadinessSubmission,
	roster []Worker,
	now time.Time,
) []TeamLeaderPerformance {
	byLeader := make(map[uuid.UUID][]AssignmentRecord, len(leaders))
	for _, a := range assignments {
		byLeader[a.TeamLeaderID] = append(byLeader[a.TeamLeaderID], a)
	}

	result := make([]TeamLeaderPerformance, 0, len(leaders))
	for _, leader := range leaders {
		workers := activeRoster(roster, leader.ID)
		result = append(result, ScoreTeamLeader(leader, workers, byLeader[leader.ID], readiness, now))
	}
	return result
}

// ScoreTeamLeader scores one leader. workers is the leader's roster; readiness
// submissions from workers outside it are ignored.
func ScoreTeamLeader(
	leader TeamLeaderProfile,
	workers []Worker,
	assignments []AssignmentRecord,
	readiness []ReadinessSubmission,
	now time.Time,
) TeamLeaderPerformance {
	perf := TeamLeaderPerformance{
		TeamLeaderID:     leader.ID,
		Name:             leader.FullName(),
		TeamName:         leader.DisplayTeamName(),
		TeamSize:         len(workers),
		TrendDirection:   TrendStable,
		Strengths:        []string{},
		ImprovementAreas: []string{},
	}

	assigned := make(map[uuid.UUID]struct{})
	var responses []float64
	for _, a := range assignments {
		if a.IsCancelled() {
			continue
		}
		perf.TotalAssignments++
		assigned[a.WorkerID] = struct{}{}

		if !isDecided(a, now) {
			perf.InGracePeriod++
			continue
		}
		perf.Eligible++
		if a.IsCompleted() {
			perf.Completed++
			if d, ok := a.ResponseTime(); ok {
				responses = append(responses, d.Hours())
			}
		} else {
			perf.Overdue++
		}
	}

	if perf.Eligible > 0 {
		eligible := float64(perf.Eligible)
		eff := safePercent(float64(perf.Completed), eligible) -
			float64(perf.Overdue)*(100/eligible)*leaderOverduePenaltyFactor
		perf.EfficiencyRating = clampRate(eff)
	}

	if len(responses) > 0 {
		avg := mean(responses)
		perf.AvgResponseTimeHours = avg
		perf.ResponseTimeScore = responseTimeScore(avg)
	}

	members := make(map[uuid.UUID]struct{}, len(workers))
	for _, w := range workers {
		members[w.ID] = struct{}{}
	}
	var submissions, fit int
	for _, s := range readiness {
		if _, ok := members[s.WorkerID]; !ok {
			continue
		}
		submissions++
		switch s.Level {
		case ReadinessFit:
			fit++
		case ReadinessNotFit:
			perf.HighRiskCount++
		case ReadinessMinor, ReadinessUnknown:
		}
	}

	readinessQuality := 0.0
	if submissions > 0 {
		perf.FitRate = safePercent(float64(fit), float64(submissions))
		readinessQuality = clampRate(perf.FitRate*leaderFitRateWeight + riskManagementBonus(perf.HighRiskCount))
	}
	coveredWorkers := 0
	for id := range assigned {
		if _, ok := members[id]; ok {
			coveredWorkers++
		}
	}
	perf.CoverageRate = safePercent(float64(coveredWorkers), float64(len(workers)))
	perf.QualityScore = clampRate(readinessQuality*leaderQualityReadinessWeight + perf.CoverageRate*leaderQualityCoverageWeight)

	perf.Active = perf.Eligible > 0
	if perf.Active {
		perf.ManagementScore = round1(clampRate(perf.EfficiencyRating*leaderWeightEfficiency +
			perf.ResponseTimeScore*leaderWeightResponse +
			perf.QualityScore*leaderWeightQuality +
			teamSizeBonus(len(workers))))
		perf.OverallGrade = leaderGrade(perf.ManagementScore)
		perf.TrendDirection = CompletionTrend(assignments, now)
	} else {
		perf.OverallGrade = GradeNotAvailable
	}

	perf.AvgResponseTimeHours = round1(perf.AvgResponseTimeHours)
	perf.FitRate = round1(perf.FitRate)
	perf.CoverageRate = round1(perf.CoverageRate)
	perf.EfficiencyRating = round1(perf.EfficiencyRating)
	perf.ResponseTimeScore = round1(perf.ResponseTimeScore)
	perf.QualityScore = round1(perf.QualityScore)

	perf.Strengths, perf.ImprovementAreas = leaderFeedback(perf)
	return perf
}

// isDecided reports whether an assignment's outcome is settled at now: it was
// completed, or its due time has passed.
func isDecided(a AssignmentRecord, now time.Time) bool {
	if a.IsCancelled() {
		return false
	}
	return a.IsCompleted() || !now.Before(a.DueTime())
}

func responseTimeScore(avgHours float64) float64 {
	switch {
	case avgHours <= 24:
		return 100
	case avgHours <= 48:
		return 85
	case avgHours <= 72:
		return 70
	case avgHours <= 96:
		return 55
	default:
		return 40
	}
}

func riskManagementBonus(highRisk int) float64 {
	switch {
	case highRisk <= 2:
		return 20
	case highRisk <= 4:
		return 10
	default:
		return 0
	}
}

func teamSizeBonus(size int) float64 {
	switch {
	case size >= 5:
		return 15
	case size >= 3:
		return 10
	default:
		return 5
	}
}

func leaderGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// TrendPeriod is the trailing span CompletionTrend reads: the last two
// trend windows before now.
func TrendPeriod(now time.Time) Period {
	return Period{Start: now.Add(-2 * trendWindow), End: now}
}

// WithTrend recomputes the trend of an active scorecard from history, which
// must cover TrendPeriod(now) regardless of the window the card was scored on.
func (p TeamLeaderPerformance) WithTrend(history []AssignmentRecord, now time.Time) TeamLeaderPerformance {
	if p.Active {
		p.TrendDirection = CompletionTrend(history, now)
	}
	return p
}

// CompletionTrend compares the decided completion rate of the last 7 days
// with the 7 days before that, bucketing by assigned date.
func CompletionTrend(assignments []AssignmentRecord, now time.Time) TrendDirection {
	recent := Period{Start: now.Add(-trendWindow), End: now}
	prior := recent.PreviousPeriod()

	var recentTotal, recentDone, priorTotal, priorDone int
	for _, a := range assignments {
		if !isDecided(a, now) {
			continue
		}
		switch {
		case recent.Contains(a.AssignedDate):
			recentTotal++
			if a.IsCompleted() {
				recentDone++
			}
		case prior.Contains(a.AssignedDate):
			priorTotal++
			if a.IsCompleted() {
				priorDone++
			}
		}
	}
	if recentTotal == 0 || priorTotal == 0 {
		return TrendStable
	}

	delta := safePercent(float64(recentDone), float64(recentTotal)) -
		safePercent(float64(priorDone), float64(priorTotal))
	switch {
	case delta >= trendThreshold:
		return TrendUp
	case delta <= -trendThreshold:
		return TrendDown
	default:
		return TrendStable
	}
}

func leaderFeedback(p TeamLeaderPerformance) (strengths, improvements []string) {
	strengths = []string{}
	improvements = []string{}

	if p.Active {
		if p.EfficiencyRating >= 85 {
			strengths = append(strengths, "High assignment completion efficiency")
		} else if p.EfficiencyRating < 70 {
			improvements = append(improvements, "Reduce overdue assignments")
		}
		if p.ResponseTimeScore >= 85 {
			strengths = append(strengths, "Fast assignment turnaround")
		} else if p.ResponseTimeScore < 70 {
			improvements = append(improvements, "Shorten assignment response time")
		}
		if p.QualityScore >= 80 {
			strengths = append(strengths, "Strong team readiness and coverage")
		} else if p.QualityScore < 60 {
			improvements = append(improvements, "Improve readiness check quality and worker coverage")
		}
	}

	if p.TeamSize >= 8 {
		strengths = append(strengths, "Manages a large team")
	} else if p.TeamSize < 5 {
		improvements = append(improvements, "Grow team roster to at least 5 workers")
	}
	return strengths, improvements
}
