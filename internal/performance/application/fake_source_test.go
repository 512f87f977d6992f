package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
)

var (
	reportDay = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	clockNow  = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
)

// fakeSource is an in-memory RecordSource with failure injection and gates
// that hold ListTeamLeaders calls until released.
type fakeSource struct {
	mu       sync.Mutex
	leaders  []domain.TeamLeaderProfile
	sets     map[uuid.UUID]*domain.RecordSet
	listErr  error
	fetchErr map[uuid.UUID]error
	gates    map[int32]chan struct{}
	delay    time.Duration

	listCalls  atomic.Int32
	fetchCalls atomic.Int32
	inFlight   atomic.Int32
	maxFlight  atomic.Int32
	queries    []domain.RecordQuery
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		sets:     make(map[uuid.UUID]*domain.RecordSet),
		fetchErr: make(map[uuid.UUID]error),
		gates:    make(map[int32]chan struct{}),
	}
}

func (s *fakeSource) addTeam(leader domain.TeamLeaderProfile, workers []domain.Worker, assignments []domain.AssignmentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaders = append(s.leaders, leader)
	s.sets[leader.ID] = &domain.RecordSet{
		Leaders:     []domain.TeamLeaderProfile{leader},
		Workers:     workers,
		Assignments: assignments,
	}
}

// gate blocks the n-th ListTeamLeaders call until the returned channel is closed.
func (s *fakeSource) gate(n int32) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan struct{})
	s.gates[n] = ch
	return ch
}

func (s *fakeSource) failFetch(id uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr[id] = err
}

func (s *fakeSource) clearFetchErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.fetchErr)
}

func (s *fakeSource) setListErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

func (s *fakeSource) ListTeamLeaders(ctx context.Context) ([]domain.TeamLeaderProfile, error) {
	n := s.listCalls.Add(1)

	s.mu.Lock()
	gate := s.gates[n]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]domain.TeamLeaderProfile(nil), s.leaders...), nil
}

func (s *fakeSource) FetchRecords(ctx context.Context, q domain.RecordQuery) (*domain.RecordSet, error) {
	s.fetchCalls.Add(1)
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxFlight.Load()
		if current <= seen || s.maxFlight.CompareAndSwap(seen, current) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if err := s.fetchErr[*q.TeamLeaderID]; err != nil {
		return nil, err
	}
	set, ok := s.sets[*q.TeamLeaderID]
	if !ok {
		return &domain.RecordSet{}, nil
	}
	copied := *set
	return &copied, nil
}

func newTestWorker(first string, leader uuid.UUID) domain.Worker {
	return domain.Worker{ID: uuid.New(), FirstName: first, LastName: "Tester", TeamLeaderID: leader, Active: true}
}

func newTestLeader(first, team string) domain.TeamLeaderProfile {
	return domain.TeamLeaderProfile{ID: uuid.New(), FirstName: first, LastName: "Lead", TeamName: team}
}

func doneAssignment(worker, leader uuid.UUID, assigned time.Time) domain.AssignmentRecord {
	due := assigned.Add(24 * time.Hour)
	completed := assigned.Add(2 * time.Hour)
	return domain.AssignmentRecord{
		ID:           uuid.New(),
		WorkerID:     worker,
		TeamLeaderID: leader,
		AssignedDate: assigned,
		DueAt:        &due,
		Status:       domain.AssignmentStatusCompleted,
		CompletedAt:  &completed,
		Readiness:    &domain.ReadinessResult{Level: domain.ReadinessFit, FatigueLevel: 2},
	}
}

func overdueAssignment(worker, leader uuid.UUID, assigned time.Time) domain.AssignmentRecord {
	due := assigned.Add(24 * time.Hour)
	return domain.AssignmentRecord{
		ID:           uuid.New(),
		WorkerID:     worker,
		TeamLeaderID: leader,
		AssignedDate: assigned,
		DueAt:        &due,
		Status:       domain.AssignmentStatusOverdue,
	}
}

type fixture struct {
	source  *fakeSource
	alpha   domain.TeamLeaderProfile
	bravo   domain.TeamLeaderProfile
	charlie domain.TeamLeaderProfile
}

// newFixture builds three teams for reportDay, registered out of name order:
// Alpha 3/4 completed (75%), Bravo 2/2 (100%), Charlie with no assignments.
func newFixture() fixture {
	src := newFakeSource()
	at := reportDay.Add(8 * time.Hour)

	charlie := newTestLeader("Cleo", "Charlie")
	src.addTeam(charlie, []domain.Worker{newTestWorker("Cy", charlie.ID)}, nil)

	bravo := newTestLeader("Bea", "Bravo")
	b1, b2 := newTestWorker("Bo", bravo.ID), newTestWorker("Bi", bravo.ID)
	src.addTeam(bravo, []domain.Worker{b1, b2}, []domain.AssignmentRecord{
		doneAssignment(b1.ID, bravo.ID, at),
		doneAssignment(b2.ID, bravo.ID, at),
	})

	alpha := newTestLeader("Ari", "Alpha")
	a1, a2, a3 := newTestWorker("Al", alpha.ID), newTestWorker("Ava", alpha.ID), newTestWorker("Axl", alpha.ID)
	src.addTeam(alpha, []domain.Worker{a1, a2, a3}, []domain.AssignmentRecord{
		doneAssignment(a1.ID, alpha.ID, at),
		doneAssignment(a2.ID, alpha.ID, at),
		doneAssignment(a3.ID, alpha.ID, at),
		overdueAssignment(a3.ID, alpha.ID, at),
	})

	return fixture{source: src, alpha: alpha, bravo: bravo, charlie: charlie}
}

// manualClock is a settable clock for TTL tests.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu      sync.Mutex
	results []*AnalyticsResult
	err     error
}

func (p *recordingPublisher) PublishResult(_ context.Context, r *AnalyticsResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.results)
}
