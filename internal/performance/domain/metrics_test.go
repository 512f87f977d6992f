package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMonthlyMetrics(t *testing.T) {
	worker, leader := uuid.New(), uuid.New()
	period := MonthPeriod(2024, time.March, time.UTC)

	t.Run("eight completed two overdue", func(t *testing.T) {
		m := ComputeMonthlyMetrics(eightCompletedTwoOverdue(worker, leader), nil, period)

		assert.Equal(t, 10, m.TotalAssignments)
		assert.Equal(t, 8, m.Completed)
		assert.Equal(t, 8, m.OnTime)
		assert.Equal(t, 2, m.Overdue)
		assert.Equal(t, 80.0, m.CompletionRate)
		assert.Equal(t, 80.0, m.OnTimeRate)
		assert.Equal(t, 20.0, m.LateRate)
		assert.Equal(t, 1.0, m.AvgResponseTimeHours)
		// No readiness data: health falls back to completion rate.
		assert.Equal(t, 80.0, m.TeamHealthScore)
	})

	t.Run("empty input", func(t *testing.T) {
		m := ComputeMonthlyMetrics(nil, nil, period)
		assert.Equal(t, MonthlyMetrics{Period: period}, m)
	})

	t.Run("on-time rate uses total as denominator", func(t *testing.T) {
		records := []AssignmentRecord{
			completedAssignment(worker, leader, baseDay, time.Hour),
			completedAssignment(worker, leader, baseDay, 30*time.Hour),
			statusAssignment(worker, leader, baseDay, AssignmentStatusPending),
			statusAssignment(worker, leader, baseDay, AssignmentStatusCancelled),
		}
		m := ComputeMonthlyMetrics(records, nil, period)

		assert.Equal(t, 4, m.TotalAssignments)
		assert.Equal(t, 1, m.OnTime)
		assert.Equal(t, 1, m.Late)
		assert.Equal(t, 1, m.NotStarted)
		assert.Equal(t, 1, m.Cancelled)
		assert.Equal(t, 25.0, m.OnTimeRate)
		assert.Equal(t, 50.0, m.CompletionRate)
		assert.Equal(t, m.TotalAssignments, m.Completed+m.Overdue+m.NotStarted+m.Cancelled)
	})

	t.Run("records outside the period are ignored", func(t *testing.T) {
		records := []AssignmentRecord{
			completedAssignment(worker, leader, baseDay, time.Hour),
			completedAssignment(worker, leader, period.End, time.Hour),
			completedAssignment(worker, leader, period.Start.Add(-time.Second), time.Hour),
		}
		m := ComputeMonthlyMetrics(records, nil, period)
		assert.Equal(t, 1, m.TotalAssignments)
	})

	t.Run("malformed timestamps are counted but excluded from averages", func(t *testing.T) {
		bad := completedAssignment(worker, leader, baseDay, time.Hour)
		bad.CompletedAt = timePtr(baseDay.Add(-5 * time.Hour))
		records := []AssignmentRecord{
			completedAssignment(worker, leader, baseDay, 3*time.Hour),
			bad,
		}
		m := ComputeMonthlyMetrics(records, nil, period)

		assert.Equal(t, 2, m.Completed)
		assert.Equal(t, 3.0, m.AvgResponseTimeHours)
	})

	t.Run("health score from readiness results", func(t *testing.T) {
		records := []AssignmentRecord{
			withReadiness(completedAssignment(worker, leader, baseDay, time.Hour), ReadinessFit, 2),
			withReadiness(completedAssignment(worker, leader, baseDay, time.Hour), ReadinessMinor, 4),
			withReadiness(completedAssignment(worker, leader, baseDay, time.Hour), ReadinessNotFit, 8),
		}
		m := ComputeMonthlyMetrics(records, nil, period)

		assert.Equal(t, 66.7, m.TeamHealthScore)
		assert.Equal(t, 1, m.HighRiskCount)
	})

	t.Run("cases", func(t *testing.T) {
		cases := []UnavailableCase{
			{WorkerID: worker, Status: CaseStatusClosed, CreatedAt: baseDay},
			{WorkerID: worker, Status: CaseStatusOpen, CreatedAt: baseDay},
			{WorkerID: worker, Status: CaseStatusInProgress, CreatedAt: baseDay},
			{WorkerID: worker, Status: CaseStatusClosed, CreatedAt: period.End},
		}
		m := ComputeMonthlyMetrics(nil, cases, period)

		assert.Equal(t, 1, m.CaseClosureCount)
		assert.Equal(t, 2, m.OpenCaseCount)
	})

	t.Run("idempotent", func(t *testing.T) {
		records := eightCompletedTwoOverdue(worker, leader)
		assert.Equal(t, ComputeMonthlyMetrics(records, nil, period), ComputeMonthlyMetrics(records, nil, period))
	})
}

func TestComputeMonthlyMetrics_RatesStayInRange(t *testing.T) {
	worker, leader := uuid.New(), uuid.New()
	period := MonthPeriod(2024, time.March, time.UTC)
	statuses := []AssignmentStatus{
		AssignmentStatusCompleted, AssignmentStatusOverdue, AssignmentStatusPending, AssignmentStatusCancelled,
	}

	for n := 0; n < 40; n++ {
		records := repeat(n, func(i int) AssignmentRecord {
			status := statuses[(i*7+n)%len(statuses)]
			if status == AssignmentStatusCompleted {
				return completedAssignment(worker, leader, baseDay, time.Duration(i*3)*time.Hour)
			}
			return statusAssignment(worker, leader, baseDay, status)
		})
		m := ComputeMonthlyMetrics(records, nil, period)

		for _, rate := range []float64{m.CompletionRate, m.OnTimeRate, m.LateRate, m.TeamHealthScore} {
			assert.GreaterOrEqual(t, rate, 0.0)
			assert.LessOrEqual(t, rate, 100.0)
		}
		assert.LessOrEqual(t, m.Completed, m.TotalAssignments)
		assert.LessOrEqual(t, m.OnTime, m.Completed)
		assert.Equal(t, m.TotalAssignments, m.Completed+m.Overdue+m.NotStarted+m.Cancelled)
		assert.GreaterOrEqual(t, m.AvgResponseTimeHours, 0.0)
	}
}

func TestComputeWeeklyBreakdown(t *testing.T) {
	worker, leader := uuid.New(), uuid.New()
	period := MonthPeriod(2024, time.March, time.UTC)

	t.Run("empty input yields a single zero week", func(t *testing.T) {
		weeks := ComputeWeeklyBreakdown(nil, period)
		require.Len(t, weeks, 1)
		assert.Equal(t, period.Start, weeks[0].WeekStart)
		assert.Zero(t, weeks[0].TotalAssignments)
		assert.Zero(t, weeks[0].CompletionRate)
	})

	t.Run("windows start at earliest assignment", func(t *testing.T) {
		records := []AssignmentRecord{
			completedAssignment(worker, leader, baseDay, time.Hour),
			statusAssignment(worker, leader, baseDay.AddDate(0, 0, 8), AssignmentStatusOverdue),
		}
		weeks := ComputeWeeklyBreakdown(records, period)

		// March 4 through March 31: four windows.
		require.Len(t, weeks, 4)
		assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), weeks[0].WeekStart)
		assert.Equal(t, 1, weeks[0].Completed)
		assert.Equal(t, 100.0, weeks[0].CompletionRate)
		assert.Equal(t, 1, weeks[1].Overdue)
		assert.Equal(t, 0.0, weeks[1].CompletionRate)
		assert.Zero(t, weeks[3].TotalAssignments)
	})
}
