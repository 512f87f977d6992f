package domain

import (
	"time"

	"github.com/google/uuid"
)

var baseDay = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func completedAssignment(worker, leader uuid.UUID, assigned time.Time, after time.Duration) AssignmentRecord {
	due := assigned.Add(24 * time.Hour)
	return AssignmentRecord{
		ID:           uuid.New(),
		WorkerID:     worker,
		TeamLeaderID: leader,
		AssignedDate: assigned,
		DueAt:        &due,
		Status:       AssignmentStatusCompleted,
		CompletedAt:  timePtr(assigned.Add(after)),
	}
}

func statusAssignment(worker, leader uuid.UUID, assigned time.Time, status AssignmentStatus) AssignmentRecord {
	return AssignmentRecord{
		ID:           uuid.New(),
		WorkerID:     worker,
		TeamLeaderID: leader,
		AssignedDate: assigned,
		Status:       status,
	}
}

func withReadiness(a AssignmentRecord, level ReadinessLevel, fatigue int) AssignmentRecord {
	a.Readiness = &ReadinessResult{Level: level, FatigueLevel: fatigue}
	return a
}

func repeat(n int, build func(i int) AssignmentRecord) []AssignmentRecord {
	out := make([]AssignmentRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, build(i))
	}
	return out
}

// eightCompletedTwoOverdue is the canonical 80% completion scenario.
func eightCompletedTwoOverdue(worker, leader uuid.UUID) []AssignmentRecord {
	records := repeat(8, func(int) AssignmentRecord {
		return completedAssignment(worker, leader, baseDay, time.Hour)
	})
	records = append(records,
		statusAssignment(worker, leader, baseDay, AssignmentStatusOverdue),
		statusAssignment(worker, leader, baseDay, AssignmentStatusOverdue),
	)
	return records
}

func newWorker(first, last string, leader uuid.UUID) Worker {
	return Worker{ID: uuid.New(), FirstName: first, LastName: last, TeamLeaderID: leader, Active: true}
}

func newLeader(first, last, team string) TeamLeaderProfile {
	return TeamLeaderProfile{ID: uuid.New(), FirstName: first, LastName: last, TeamName: team}
}
