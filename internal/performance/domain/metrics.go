package domain

import (
	"time"
)

// MonthlyMetrics holds aggregate KPIs for one team or leader over a period.
type MonthlyMetrics struct {
	Period Period `json:"period"`

	// Counts
	TotalAssignments int `json:"total_assignments"`
	Completed        int `json:"completed"`
	OnTime           int `json:"on_time"`
	Late             int `json:"late"`
	Overdue          int `json:"overdue"`
	NotStarted       int `json:"not_started"`
	Cancelled        int `json:"cancelled"`

	// Rates (0-100)
	CompletionRate float64 `json:"completion_rate"`
	// OnTimeRate uses total assignments as the denominator, so overdue and
	// unfinished work depresses it.
	OnTimeRate float64 `json:"on_time_rate"`
	LateRate   float64 `json:"late_rate"`

	AvgResponseTimeHours float64 `json:"avg_response_time_hours"`
	TeamHealthScore      float64 `json:"team_health_score"`
	HighRiskCount        int     `json:"high_risk_count"`

	// Unavailable cases
	CaseClosureCount int `json:"case_closure_count"`
	OpenCaseCount    int `json:"open_case_count"`
}

// WeeklyBreakdown holds the KPIs for one 7-day window.
type WeeklyBreakdown struct {
	WeekStart        time.Time `json:"week_start"`
	WeekEnd          time.Time `json:"week_end"`
	TotalAssignments int       `json:"total_assignments"`
	Completed        int       `json:"completed"`
	OnTime           int       `json:"on_time"`
	Overdue          int       `json:"overdue"`
	NotStarted       int       `json:"not_started"`
	CompletionRate   float64   `json:"completion_rate"`
	OnTimeRate       float64   `json:"on_time_rate"`
}

// assignmentTally is the shared counting pass used by the calculators.
type assignmentTally struct {
	total     int
	completed int
	onTime    int
	late      int
	overdue   int
	pending   int
	cancelled int
	highRisk  int
	responses []float64
	readiness []float64
}

func (t *assignmentTally) add(a AssignmentRecord) {
	t.total++
	switch a.Status {
	case AssignmentStatusCompleted:
		t.completed++
		if a.IsOnTime() {
			t.onTime++
		} else {
			t.late++
		}
		if d, ok := a.ResponseTime(); ok {
			t.responses = append(t.responses, d.Hours())
		}
		if a.Readiness != nil {
			t.readiness = append(t.readiness, a.Readiness.Level.HealthContribution())
		}
	case AssignmentStatusOverdue:
		t.overdue++
	case AssignmentStatusPending:
		t.pending++
	case AssignmentStatusCancelled:
		t.cancelled++
	default:
		t.pending++
	}
	if a.ReadinessLevel().IsHighRisk() {
		t.highRisk++
	}
}

// ComputeMonthlyMetrics converts one team's assignment and case records for a
// period into aggregate KPIs. Records outside the period are ignored.
func ComputeMonthlyMetrics(assignments []AssignmentRecord, cases []UnavailableCase, period Period) MonthlyMetrics {
	var tally assignmentTally
	for _, a := range assignments {
		if !period.Contains(a.AssignedDate) {
			continue
		}
		tally.add(a)
	}

	m := MonthlyMetrics{
		Period:           period,
		TotalAssignments: tally.total,
		Completed:        tally.completed,
		OnTime:           tally.onTime,
		Late:             tally.late,
		Overdue:          tally.overdue,
		NotStarted:       tally.pending,
		Cancelled:        tally.cancelled,
		HighRiskCount:    tally.highRisk,
	}

	total := float64(tally.total)
	completionRate := safePercent(float64(tally.completed), total)
	m.CompletionRate = round1(completionRate)
	m.OnTimeRate = round1(safePercent(float64(tally.onTime), total))
	m.LateRate = round1(safePercent(float64(tally.overdue), total))
	m.AvgResponseTimeHours = round1(mean(tally.responses))

	if len(tally.readiness) > 0 {
		m.TeamHealthScore = round1(clampRate(mean(tally.readiness)))
	} else {
		m.TeamHealthScore = round1(completionRate)
	}

	for _, c := range cases {
		if !period.Contains(c.CreatedAt) {
			continue
		}
		switch c.Status {
		case CaseStatusClosed:
			m.CaseClosureCount++
		case CaseStatusOpen, CaseStatusInProgress:
			m.OpenCaseCount++
		default:
			m.OpenCaseCount++
		}
	}

	return m
}

// ComputeWeeklyBreakdown splits the period into consecutive 7-day windows starting
// at the earliest in-period assignment, or at the period start when there is none.
// An empty record set yields a single zero-filled week.
func ComputeWeeklyBreakdown(assignments []AssignmentRecord, period Period) []WeeklyBreakdown {
	inPeriod := make([]AssignmentRecord, 0, len(assignments))
	var earliest time.Time
	for _, a := range assignments {
		if !period.Contains(a.AssignedDate) {
			continue
		}
		inPeriod = append(inPeriod, a)
		if earliest.IsZero() || a.AssignedDate.Before(earliest) {
			earliest = a.AssignedDate
		}
	}

	if len(inPeriod) == 0 {
		return []WeeklyBreakdown{{
			WeekStart: period.Start,
			WeekEnd:   period.Start.AddDate(0, 0, 7),
		}}
	}

	start := startOfDay(earliest)
	if start.Before(period.Start) {
		start = period.Start
	}

	var weeks []WeeklyBreakdown
	for ws := start; ws.Before(period.End); ws = ws.AddDate(0, 0, 7) {
		we := ws.AddDate(0, 0, 7)
		window := Period{Start: ws, End: we}

		var tally assignmentTally
		for _, a := range inPeriod {
			if window.Contains(a.AssignedDate) {
				tally.add(a)
			}
		}

		total := float64(tally.total)
		weeks = append(weeks, WeeklyBreakdown{
			WeekStart:        ws,
			WeekEnd:          we,
			TotalAssignments: tally.total,
			Completed:        tally.completed,
			OnTime:           tally.onTime,
			Overdue:          tally.overdue,
			NotStarted:       tally.pending,
			CompletionRate:   round1(safePercent(float64(tally.completed), total)),
			OnTimeRate:       round1(safePercent(float64(tally.onTime), total)),
		})
	}

	return weeks
}
