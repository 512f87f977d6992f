package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreTeamLeader_Efficiency(t *testing.T) {
	leader := newLeader("Tia", "Lead", "Alpha")
	worker := newWorker("Wes", "Work", leader.ID)

	records := repeat(9, func(int) AssignmentRecord {
		return completedAssignment(worker.ID, leader.ID, baseDay, time.Hour)
	})
	records = append(records, statusAssignment(worker.ID, leader.ID, baseDay, AssignmentStatusOverdue))

	now := baseDay.Add(48 * time.Hour)
	perf := ScoreTeamLeader(leader, []Worker{worker}, records, nil, now)

	assert.Equal(t, 10, perf.Eligible)
	assert.Equal(t, 9, perf.Completed)
	assert.Equal(t, 1, perf.Overdue)
	// 90 - 1 * (100/10) * 1.5
	assert.Equal(t, 75.0, perf.EfficiencyRating)
	assert.Equal(t, 100.0, perf.ResponseTimeScore)
	// No readiness submissions; coverage 100% * 0.3
	assert.Equal(t, 30.0, perf.QualityScore)
	// 75*0.45 + 100*0.30 + 30*0.15 + 5
	assert.InDelta(t, 73.25, perf.ManagementScore, 0.1)
	assert.Equal(t, "C", perf.OverallGrade)
	assert.True(t, perf.Active)

	assert.Contains(t, perf.Strengths, "Fast assignment turnaround")
	assert.Contains(t, perf.ImprovementAreas, "Improve readiness check quality and worker coverage")
	assert.Contains(t, perf.ImprovementAreas, "Grow team roster to at least 5 workers")
	assert.NotContains(t, perf.ImprovementAreas, "Reduce overdue assignments")
}

func TestScoreTeamLeader_DecidedOnly(t *testing.T) {
	leader := newLeader("Tia", "Lead", "Alpha")
	worker := newWorker("Wes", "Work", leader.ID)
	now := baseDay.Add(12 * time.Hour)

	records := []AssignmentRecord{
		completedAssignment(worker.ID, leader.ID, baseDay, time.Hour),
		// Still inside its 24h window: not penalized.
		statusAssignment(worker.ID, leader.ID, baseDay, AssignmentStatusPending),
		// Due time passed without completion.
		statusAssignment(worker.ID, leader.ID, baseDay.Add(-30*time.Hour), AssignmentStatusPending),
		statusAssignment(worker.ID, leader.ID, baseDay.Add(-30*time.Hour), AssignmentStatusCancelled),
	}
	perf := ScoreTeamLeader(leader, []Worker{worker}, records, nil, now)

	assert.Equal(t, 3, perf.TotalAssignments)
	assert.Equal(t, 1, perf.InGracePeriod)
	assert.Equal(t, 2, perf.Eligible)
	assert.Equal(t, 1, perf.Overdue)
	// 50 - 1 * 50 * 1.5 floors at 0
	assert.Equal(t, 0.0, perf.EfficiencyRating)
}

func TestScoreTeamLeader_Inactive(t *testing.T) {
	leader := newLeader("New", "Lead", "")
	worker := newWorker("Wes", "Work", leader.ID)
	records := []AssignmentRecord{
		statusAssignment(worker.ID, leader.ID, baseDay, AssignmentStatusPending),
	}

	perf := ScoreTeamLeader(leader, []Worker{worker}, records, nil, baseDay.Add(time.Hour))

	assert.False(t, perf.Active)
	assert.Equal(t, 0.0, perf.ManagementScore)
	assert.Equal(t, GradeNotAvailable, perf.OverallGrade)
	assert.Equal(t, TrendStable, perf.TrendDirection)
	assert.Equal(t, "New Lead's Team", perf.TeamName)
	assert.Empty(t, perf.Strengths)
	assert.Equal(t, []string{"Grow team roster to at least 5 workers"}, perf.ImprovementAreas)
}

func TestScoreTeamLeader_ReadinessQuality(t *testing.T) {
	leader := newLeader("Tia", "Lead", "Alpha")
	workers := make([]Worker, 0, 8)
	for i := 0; i < 8; i++ {
		workers = append(workers, newWorker("W", string(rune('A'+i)), leader.ID))
	}

	var readiness []ReadinessSubmission
	for i := 0; i < 4; i++ {
		readiness = append(readiness, ReadinessSubmission{WorkerID: workers[i].ID, Level: ReadinessFit, SubmittedAt: baseDay})
	}
	readiness = append(readiness,
		ReadinessSubmission{WorkerID: workers[4].ID, Level: ReadinessNotFit, SubmittedAt: baseDay},
		ReadinessSubmission{WorkerID: uuid.New(), Level: ReadinessNotFit, SubmittedAt: baseDay},
	)

	records := make([]AssignmentRecord, 0, 4)
	for i := 0; i < 4; i++ {
		records = append(records, completedAssignment(workers[i].ID, leader.ID, baseDay, time.Hour))
	}

	perf := ScoreTeamLeader(leader, workers, records, readiness, baseDay.Add(48*time.Hour))

	assert.Equal(t, 80.0, perf.FitRate)
	assert.Equal(t, 1, perf.HighRiskCount)
	assert.Equal(t, 50.0, perf.CoverageRate)
	// (80*0.8 + 20) * 0.7 + 50 * 0.3
	assert.InDelta(t, 73.8, perf.QualityScore, 0.05)
	assert.Contains(t, perf.Strengths, "Manages a large team")
	// 100*0.45 + 100*0.30 + 73.8*0.15 + 15
	assert.InDelta(t, 100.0, perf.ManagementScore, 0.05)
	assert.Equal(t, "A", perf.OverallGrade)
}

func TestScoreTeamLeader_Trend(t *testing.T) {
	leader := newLeader("Tia", "Lead", "Alpha")
	worker := newWorker("Wes", "Work", leader.ID)
	now := baseDay.AddDate(0, 0, 14)

	prior := baseDay.AddDate(0, 0, 3)
	recent := baseDay.AddDate(0, 0, 10)

	t.Run("up", func(t *testing.T) {
		records := []AssignmentRecord{
			completedAssignment(worker.ID, leader.ID, prior, time.Hour),
			statusAssignment(worker.ID, leader.ID, prior, AssignmentStatusOverdue),
			completedAssignment(worker.ID, leader.ID, recent, time.Hour),
			completedAssignment(worker.ID, leader.ID, recent, time.Hour),
		}
		assert.Equal(t, TrendUp, ScoreTeamLeader(leader, []Worker{worker}, records, nil, now).TrendDirection)
	})

	t.Run("down", func(t *testing.T) {
		records := []AssignmentRecord{
			completedAssignment(worker.ID, leader.ID, prior, time.Hour),
			statusAssignment(worker.ID, leader.ID, recent, AssignmentStatusOverdue),
		}
		assert.Equal(t, TrendDown, ScoreTeamLeader(leader, []Worker{worker}, records, nil, now).TrendDirection)
	})

	t.Run("stable without prior data", func(t *testing.T) {
		records := []AssignmentRecord{
			completedAssignment(worker.ID, leader.ID, recent, time.Hour),
		}
		assert.Equal(t, TrendStable, ScoreTeamLeader(leader, []Worker{worker}, records, nil, now).TrendDirection)
	})
}

func TestComputeTeamLeaderPerformance(t *testing.T) {
	alpha := newLeader("Ann", "Alpha", "Alpha")
	beta := newLeader("Bob", "Beta", "Beta")
	aw := newWorker("A", "One", alpha.ID)
	bw := newWorker("B", "One", beta.ID)
	inactive := newWorker("B", "Gone", beta.ID)
	inactive.Active = false

	records := []AssignmentRecord{
		completedAssignment(aw.ID, alpha.ID, baseDay, time.Hour),
		completedAssignment(bw.ID, beta.ID, baseDay, time.Hour),
		statusAssignment(bw.ID, beta.ID, baseDay, AssignmentStatusOverdue),
	}
	now := baseDay.Add(48 * time.Hour)

	result := ComputeTeamLeaderPerformance([]TeamLeaderProfile{beta, alpha}, records, nil, []Worker{aw, bw, inactive}, now)
	require.Len(t, result, 2)

	assert.Equal(t, beta.ID, result[0].TeamLeaderID)
	assert.Equal(t, 1, result[0].TeamSize)
	assert.Equal(t, 2, result[0].Eligible)
	assert.Equal(t, alpha.ID, result[1].TeamLeaderID)
	assert.Equal(t, 1, result[1].Completed)

	assert.Empty(t, ComputeTeamLeaderPerformance(nil, nil, nil, nil, now))
	assert.Equal(t, result, ComputeTeamLeaderPerformance([]TeamLeaderProfile{beta, alpha}, records, nil, []Worker{aw, bw, inactive}, now))
}

func TestTeamLeaderPerformance_WithTrend(t *testing.T) {
	leader := newLeader("Tia", "Lead", "Alpha")
	worker := newWorker("Wes", "Work", leader.ID)
	now := baseDay.AddDate(0, 0, 14)
	today := completedAssignment(worker.ID, leader.ID, now.Add(-6*time.Hour), time.Hour)
	history := []AssignmentRecord{
		completedAssignment(worker.ID, leader.ID, baseDay.AddDate(0, 0, 3), time.Hour),
		statusAssignment(worker.ID, leader.ID, baseDay.AddDate(0, 0, 4), AssignmentStatusOverdue),
		today,
	}

	perf := ScoreTeamLeader(leader, []Worker{worker}, []AssignmentRecord{today}, nil, now)
	require.True(t, perf.Active)
	assert.Equal(t, TrendStable, perf.TrendDirection)
	assert.Equal(t, TrendUp, perf.WithTrend(history, now).TrendDirection)

	idle := ScoreTeamLeader(leader, []Worker{worker}, nil, nil, now)
	assert.Equal(t, TrendStable, idle.WithTrend(history, now).TrendDirection)
}
