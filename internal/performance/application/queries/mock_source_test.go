package queries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
)

// mockRecordSource is a mock implementation of domain.RecordSource.
type mockRecordSource struct {
	mock.Mock
}

func (m *mockRecordSource) ListTeamLeaders(ctx context.Context) ([]domain.TeamLeaderProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TeamLeaderProfile), args.Error(1)
}

func (m *mockRecordSource) FetchRecords(ctx context.Context, q domain.RecordQuery) (*domain.RecordSet, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecordSet), args.Error(1)
}

// fullHistory matches an unwindowed query for one leader.
func fullHistory(leaderID uuid.UUID) any {
	return mock.MatchedBy(func(q domain.RecordQuery) bool {
		return q.TeamLeaderID != nil && *q.TeamLeaderID == leaderID && q.Start.IsZero() && q.End.IsZero()
	})
}

func createTestAssignment(worker, leader uuid.UUID, assigned time.Time, status domain.AssignmentStatus) domain.AssignmentRecord {
	a := domain.AssignmentRecord{
		ID:           uuid.New(),
		WorkerID:     worker,
		TeamLeaderID: leader,
		AssignedDate: assigned,
		Status:       status,
	}
	if status == domain.AssignmentStatusCompleted {
		done := assigned.Add(3 * time.Hour)
		a.CompletedAt = &done
		a.Readiness = &domain.ReadinessResult{Level: domain.ReadinessFit, FatigueLevel: 3}
	}
	return a
}
