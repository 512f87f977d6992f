package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// TeamPerformance is the per-team snapshot for one filter window.
type TeamPerformance struct {
	TeamLeaderID   uuid.UUID `json:"team_leader_id"`
	TeamLeaderName string    `json:"team_leader_name"`
	TeamName       string    `json:"team_name"`

	RosterSize        int `json:"roster_size"`
	AssignedWorkers   int `json:"assigned_workers"`
	UnselectedWorkers int `json:"unselected_workers"`
	UnassignedWorkers int `json:"unassigned_workers"`

	TotalAssignments int `json:"total_assignments"`
	Completed        int `json:"completed"`
	OnTime           int `json:"on_time"`
	Overdue          int `json:"overdue"`
	Pending          int `json:"pending"`

	ComplianceRate       float64        `json:"compliance_rate"`
	OnTimeRate           float64        `json:"on_time_rate"`
	HealthScore          float64        `json:"health_score"`
	HighRiskCount        int            `json:"high_risk_count"`
	ActiveCases          int            `json:"active_cases"`
	AvgResponseTimeHours float64        `json:"avg_response_time_hours"`
	Rating               TeamRating     `json:"rating"`
	Trend                TrendDirection `json:"trend"`
}

// HasAssignments reports whether the team had any non-cancelled assignment.
func (t TeamPerformance) HasAssignments() bool {
	return t.TotalAssignments > 0
}

// TeamSummary identifies a team in cross-team comparisons.
type TeamSummary struct {
	TeamLeaderID   uuid.UUID `json:"team_leader_id"`
	TeamName       string    `json:"team_name"`
	ComplianceRate float64   `json:"compliance_rate"`
}

// MultiTeamMetrics is the cross-team rollup for one filter window.
type MultiTeamMetrics struct {
	TotalTeams       int `json:"total_teams"`
	ActiveTeams      int `json:"active_teams"`
	TotalWorkers     int `json:"total_workers"`
	TotalAssignments int `json:"total_assignments"`
	TotalCompleted   int `json:"total_completed"`
	TotalOverdue     int `json:"total_overdue"`
	TotalHighRisk    int `json:"total_high_risk"`
	TotalActiveCases int `json:"total_active_cases"`

	OverallCompliance  float64 `json:"overall_compliance"`
	AverageCompliance  float64 `json:"average_compliance"`
	AverageHealthScore float64 `json:"average_health_score"`

	// BestTeam and WorstTeam consider teams with assignments only.
	BestTeam  *TeamSummary `json:"best_team,omitempty"`
	WorstTeam *TeamSummary `json:"worst_team,omitempty"`
}

// ComputeTeamPerformance derives one team's snapshot from the records fetched for
// its leader. Cancelled assignments are dropped before any count.
func ComputeTeamPerformance(leader TeamLeaderProfile, set RecordSet, window Period, now time.Time) TeamPerformance {
	return ComputeTeamPerformanceWithContext(leader, set, window, now, RatingContext{})
}

// ComputeTeamPerformanceWithContext is ComputeTeamPerformance with rating bonuses.
// Counts cover window only; the trend reads every assignment in set, so set
// should also cover TrendPeriod(now).
func ComputeTeamPerformanceWithContext(leader TeamLeaderProfile, set RecordSet, window Period, now time.Time, rc RatingContext) TeamPerformance {
	workers := activeRoster(set.Workers, leader.ID)
	tp := TeamPerformance{
		TeamLeaderID:   leader.ID,
		TeamLeaderName: leader.FullName(),
		TeamName:       leader.DisplayTeamName(),
		RosterSize:     len(workers),
		Trend:          TrendStable,
	}

	var history []AssignmentRecord
	active := make([]AssignmentRecord, 0, len(set.Assignments))
	assigned := make(map[uuid.UUID]struct{})
	for _, a := range set.Assignments {
		if a.TeamLeaderID != leader.ID || a.IsCancelled() {
			continue
		}
		history = append(history, a)
		if !window.Contains(a.AssignedDate) {
			continue
		}
		active = append(active, a)
		assigned[a.WorkerID] = struct{}{}
	}

	unselected := make(map[uuid.UUID]struct{})
	teamCases := make([]UnavailableCase, 0, len(set.Cases))
	for _, c := range set.Cases {
		if c.TeamLeaderID != leader.ID {
			continue
		}
		teamCases = append(teamCases, c)
		if c.Status.IsActive() {
			tp.ActiveCases++
		}
		if c.Status.IsActive() || window.Contains(c.CreatedAt) {
			unselected[c.WorkerID] = struct{}{}
		}
	}

	for _, w := range workers {
		_, isAssigned := assigned[w.ID]
		_, isUnselected := unselected[w.ID]
		if !isAssigned && !isUnselected {
			tp.UnassignedWorkers++
		}
	}
	tp.AssignedWorkers = len(assigned)
	tp.UnselectedWorkers = len(unselected)

	m := ComputeMonthlyMetrics(active, teamCases, window)
	tp.TotalAssignments = m.TotalAssignments
	tp.Completed = m.Completed
	tp.OnTime = m.OnTime
	tp.Overdue = m.Overdue
	tp.Pending = m.NotStarted
	tp.ComplianceRate = m.CompletionRate
	tp.OnTimeRate = m.OnTimeRate
	tp.AvgResponseTimeHours = m.AvgResponseTimeHours
	tp.HealthScore = m.TeamHealthScore
	tp.HighRiskCount = m.HighRiskCount
	tp.Rating = ComputeTeamRatingWithContext(m, rc)

	if score, highRisk, ok := submissionHealth(set.Readiness, workers, window); ok {
		tp.HealthScore = score
		tp.HighRiskCount = highRisk
	}

	tp.Trend = CompletionTrend(history, now)
	return tp
}

// submissionHealth averages in-window readiness submissions from the roster.
// ok is false when the roster submitted nothing.
func submissionHealth(readiness []ReadinessSubmission, workers []Worker, window Period) (score float64, highRisk int, ok bool) {
	members := make(map[uuid.UUID]struct{}, len(workers))
	for _, w := range workers {
		members[w.ID] = struct{}{}
	}
	var contributions []float64
	for _, s := range readiness {
		if _, member := members[s.WorkerID]; !member || !window.Contains(s.SubmittedAt) {
			continue
		}
		contributions = append(contributions, s.Level.HealthContribution())
		if s.Level.IsHighRisk() {
			highRisk++
		}
	}
	if len(contributions) == 0 {
		return 0, 0, false
	}
	return round1(clampRate(mean(contributions))), highRisk, true
}

// SortTeams orders teams by team name, then leader id, in place.
func SortTeams(teams []TeamPerformance) {
	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].TeamName != teams[j].TeamName {
			return teams[i].TeamName < teams[j].TeamName
		}
		return teams[i].TeamLeaderID.String() < teams[j].TeamLeaderID.String()
	})
}

// ComputeMultiTeamMetrics rolls per-team snapshots up into cross-team totals.
// Best and worst team are picked among teams with assignments; ties keep input order.
func ComputeMultiTeamMetrics(teams []TeamPerformance) MultiTeamMetrics {
	m := MultiTeamMetrics{TotalTeams: len(teams)}

	var compliance, health []float64
	for i := range teams {
		t := &teams[i]
		m.TotalWorkers += t.RosterSize
		m.TotalAssignments += t.TotalAssignments
		m.TotalCompleted += t.Completed
		m.TotalOverdue += t.Overdue
		m.TotalHighRisk += t.HighRiskCount
		m.TotalActiveCases += t.ActiveCases

		if !t.HasAssignments() {
			continue
		}
		m.ActiveTeams++
		compliance = append(compliance, t.ComplianceRate)
		health = append(health, t.HealthScore)

		summary := &TeamSummary{TeamLeaderID: t.TeamLeaderID, TeamName: t.TeamName, ComplianceRate: t.ComplianceRate}
		if m.BestTeam == nil || t.ComplianceRate > m.BestTeam.ComplianceRate {
			m.BestTeam = summary
		}
		if m.WorstTeam == nil || t.ComplianceRate < m.WorstTeam.ComplianceRate {
			m.WorstTeam = summary
		}
	}

	m.OverallCompliance = round1(safePercent(float64(m.TotalCompleted), float64(m.TotalAssignments)))
	m.AverageCompliance = round1(clampRate(mean(compliance)))
	m.AverageHealthScore = round1(clampRate(mean(health)))
	return m
}
