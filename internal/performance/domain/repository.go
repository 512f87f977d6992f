package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidFilter is returned for a filter whose window cannot be evaluated.
	ErrInvalidFilter = errors.New("invalid analytics filter")
	// ErrSourceUnavailable is returned when the record source cannot serve requests.
	ErrSourceUnavailable = errors.New("record source unavailable")
	// ErrTeamLeaderNotFound is returned when a queried team leader does not exist.
	ErrTeamLeaderNotFound = errors.New("team leader not found")
)

// RecordQuery selects the records of one leader, or of every leader when
// TeamLeaderID is nil, within [Start, End). A zero Start or End leaves that
// side of the window open.
type RecordQuery struct {
	TeamLeaderID *uuid.UUID
	Start        time.Time
	End          time.Time
}

// Period returns the query window.
func (q RecordQuery) Period() Period {
	return Period{Start: q.Start, End: q.End}
}

// RecordSet is the result of a RecordQuery.
type RecordSet struct {
	Leaders     []TeamLeaderProfile   `json:"leaders"`
	Workers     []Worker              `json:"workers"`
	Assignments []AssignmentRecord    `json:"assignments"`
	Readiness   []ReadinessSubmission `json:"readiness"`
	Cases       []UnavailableCase     `json:"cases"`
}

// IsEmpty reports whether the set carries no records at all.
func (s *RecordSet) IsEmpty() bool {
	return s == nil || (len(s.Leaders) == 0 && len(s.Workers) == 0 && len(s.Assignments) == 0 &&
		len(s.Readiness) == 0 && len(s.Cases) == 0)
}

// Within narrows the set to records of p: assignments by assigned date,
// readiness by submission time and cases created in p or still active.
// Leaders and workers are kept whole.
func (s RecordSet) Within(p Period) RecordSet {
	out := RecordSet{Leaders: s.Leaders, Workers: s.Workers}
	for _, a := range s.Assignments {
		if p.Contains(a.AssignedDate) {
			out.Assignments = append(out.Assignments, a)
		}
	}
	for _, r := range s.Readiness {
		if p.Contains(r.SubmittedAt) {
			out.Readiness = append(out.Readiness, r)
		}
	}
	for _, c := range s.Cases {
		if p.Contains(c.CreatedAt) || c.Status.IsActive() {
			out.Cases = append(out.Cases, c)
		}
	}
	return out
}

// RecordSource fetches raw records for the scoring engine.
type RecordSource interface {
	// ListTeamLeaders returns every team leader known to the source.
	ListTeamLeaders(ctx context.Context) ([]TeamLeaderProfile, error)

	// FetchRecords returns the matching leaders, their full worker rosters,
	// assignments assigned in the window, readiness submitted in the window by
	// those workers, and cases created in the window or still active.
	FetchRecords(ctx context.Context, q RecordQuery) (*RecordSet, error)
}
