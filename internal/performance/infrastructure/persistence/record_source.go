package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/database"
)

// SQLRecordSource implements domain.RecordSource over the record store.
type SQLRecordSource struct {
	conn database.Connection
}

// NewSQLRecordSource creates a new SQL record source.
func NewSQLRecordSource(conn database.Connection) *SQLRecordSource {
	return &SQLRecordSource{conn: conn}
}

// ListTeamLeaders returns every team leader ordered by team name.
func (s *SQLRecordSource) ListTeamLeaders(ctx context.Context) ([]domain.TeamLeaderProfile, error) {
	return s.leaders(ctx, nil)
}

// FetchRecords loads the records selected by q.
func (s *SQLRecordSource) FetchRecords(ctx context.Context, q domain.RecordQuery) (*domain.RecordSet, error) {
	set := &domain.RecordSet{}
	var err error

	if set.Leaders, err = s.leaders(ctx, q.TeamLeaderID); err != nil {
		return nil, err
	}
	if set.Workers, err = s.workers(ctx, q.TeamLeaderID); err != nil {
		return nil, err
	}
	if set.Assignments, err = s.assignments(ctx, q); err != nil {
		return nil, err
	}
	if set.Readiness, err = s.readiness(ctx, q); err != nil {
		return nil, err
	}
	if set.Cases, err = s.cases(ctx, q); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *SQLRecordSource) leaders(ctx context.Context, leaderID *uuid.UUID) ([]domain.TeamLeaderProfile, error) {
	var w where
	if leaderID != nil {
		w.add("id = ?", leaderID.String())
	}
	query := `SELECT id, first_name, last_name, team_name, managed_teams FROM team_leaders` +
		w.String() + ` ORDER BY team_name, id`

	rows, err := database.ExecutorFromContext(ctx, s.conn).Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query team leaders: %w", err)
	}
	defer rows.Close()

	var leaders []domain.TeamLeaderProfile
	for rows.Next() {
		var id, first, last, team, managed string
		if err := rows.Scan(&id, &first, &last, &team, &managed); err != nil {
			return nil, fmt.Errorf("scan team leader: %w", err)
		}
		leaders = append(leaders, domain.TeamLeaderProfile{
			ID:           parseID(id),
			FirstName:    first,
			LastName:     last,
			TeamName:     team,
			ManagedTeams: splitTeams(managed),
		})
	}
	return leaders, rows.Err()
}

// workers returns the full roster, inactive workers included.
func (s *SQLRecordSource) workers(ctx context.Context, leaderID *uuid.UUID) ([]domain.Worker, error) {
	var w where
	if leaderID != nil {
		w.add("team_leader_id = ?", leaderID.String())
	}
	query := `SELECT id, first_name, last_name, team_leader_id, active FROM workers` +
		w.String() + ` ORDER BY last_name, first_name, id`

	rows, err := database.ExecutorFromContext(ctx, s.conn).Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query workers: %w", err)
	}
	defer rows.Close()

	var workers []domain.Worker
	for rows.Next() {
		var id, first, last, leader string
		var active bool
		if err := rows.Scan(&id, &first, &last, &leader, &active); err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		workers = append(workers, domain.Worker{
			ID:           parseID(id),
			FirstName:    first,
			LastName:     last,
			TeamLeaderID: parseID(leader),
			Active:       active,
		})
	}
	return workers, rows.Err()
}

func (s *SQLRecordSource) assignments(ctx context.Context, q domain.RecordQuery) ([]domain.AssignmentRecord, error) {
	var w where
	if q.TeamLeaderID != nil {
		w.add("team_leader_id = ?", q.TeamLeaderID.String())
	}
	addWindow(&w, "assigned_date", q.Start, q.End)
	query := `
		SELECT id, worker_id, team_leader_id, assigned_date, due_at, status,
			completed_at, readiness_level, fatigue_level, pain
		FROM assignments` + w.String() + ` ORDER BY assigned_date, id`

	rows, err := database.ExecutorFromContext(ctx, s.conn).Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []domain.AssignmentRecord
	for rows.Next() {
		var id, worker, leader, assigned, status string
		var dueAt, completedAt, level *string
		var fatigue *int64
		var pain *bool
		if err := rows.Scan(&id, &worker, &leader, &assigned, &dueAt, &status,
			&completedAt, &level, &fatigue, &pain); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}

		a := domain.AssignmentRecord{
			ID:           parseID(id),
			WorkerID:     parseID(worker),
			TeamLeaderID: parseID(leader),
			AssignedDate: parseTime(assigned),
			DueAt:        parseNullTime(dueAt),
			Status:       domain.ParseAssignmentStatus(status),
			CompletedAt:  parseNullTime(completedAt),
		}
		if level != nil {
			a.Readiness = &domain.ReadinessResult{Level: domain.ParseReadinessLevel(*level)}
			if fatigue != nil {
				a.Readiness.FatigueLevel = int(*fatigue)
			}
			if pain != nil {
				a.Readiness.Pain = *pain
			}
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// readiness joins workers so a leader filter selects submissions by roster.
func (s *SQLRecordSource) readiness(ctx context.Context, q domain.RecordQuery) ([]domain.ReadinessSubmission, error) {
	var w where
	if q.TeamLeaderID != nil {
		w.add("w.team_leader_id = ?", q.TeamLeaderID.String())
	}
	addWindow(&w, "r.submitted_at", q.Start, q.End)
	query := `
		SELECT r.id, r.worker_id, r.level, r.submitted_at
		FROM readiness_submissions r
		JOIN workers w ON w.id = r.worker_id` + w.String() + ` ORDER BY r.submitted_at, r.id`

	rows, err := database.ExecutorFromContext(ctx, s.conn).Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query readiness submissions: %w", err)
	}
	defer rows.Close()

	var submissions []domain.ReadinessSubmission
	for rows.Next() {
		var id, worker, level, submitted string
		if err := rows.Scan(&id, &worker, &level, &submitted); err != nil {
			return nil, fmt.Errorf("scan readiness submission: %w", err)
		}
		submissions = append(submissions, domain.ReadinessSubmission{
			ID:          parseID(id),
			WorkerID:    parseID(worker),
			Level:       domain.ParseReadinessLevel(level),
			SubmittedAt: parseTime(submitted),
		})
	}
	return submissions, rows.Err()
}

// cases returns cases created in the window plus every case still active.
func (s *SQLRecordSource) cases(ctx context.Context, q domain.RecordQuery) ([]domain.UnavailableCase, error) {
	var w where
	if q.TeamLeaderID != nil {
		w.add("team_leader_id = ?", q.TeamLeaderID.String())
	}
	var window where
	addWindow(&window, "created_at", q.Start, q.End)
	if len(window.conds) > 0 {
		w.add("(("+strings.Join(window.conds, " AND ")+") OR status <> ?)", append(window.args, string(domain.CaseStatusClosed))...)
	}
	query := `SELECT id, worker_id, team_leader_id, reason, status, created_at FROM unavailable_cases` +
		w.String() + ` ORDER BY created_at, id`

	rows, err := database.ExecutorFromContext(ctx, s.conn).Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query unavailable cases: %w", err)
	}
	defer rows.Close()

	var cases []domain.UnavailableCase
	for rows.Next() {
		var id, worker, leader, reason, status, created string
		if err := rows.Scan(&id, &worker, &leader, &reason, &status, &created); err != nil {
			return nil, fmt.Errorf("scan unavailable case: %w", err)
		}
		cases = append(cases, domain.UnavailableCase{
			ID:           parseID(id),
			WorkerID:     parseID(worker),
			TeamLeaderID: parseID(leader),
			Reason:       domain.ParseReasonCode(reason),
			Status:       domain.ParseCaseStatus(status),
			CreatedAt:    parseTime(created),
		})
	}
	return cases, rows.Err()
}

// addWindow restricts column to [start, end); a zero bound is left open.
func addWindow(w *where, column string, start, end time.Time) {
	if !start.IsZero() {
		w.add(column+" >= ?", formatTime(start))
	}
	if !end.IsZero() {
		w.add(column+" < ?", formatTime(end))
	}
}
