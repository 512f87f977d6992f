package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
	"github.com/felixgeelhaar/teampulse/internal/shared/infrastructure/database"
)

// ImportStats counts the rows written by SaveRecordSet.
type ImportStats struct {
	Leaders     int `json:"leaders"`
	Workers     int `json:"workers"`
	Assignments int `json:"assignments"`
	Readiness   int `json:"readiness"`
	Cases       int `json:"cases"`
}

// Total returns the number of rows written.
func (s ImportStats) Total() int {
	return s.Leaders + s.Workers + s.Assignments + s.Readiness + s.Cases
}

// SQLRecordWriter upserts records into the record store.
type SQLRecordWriter struct {
	conn database.Connection
	uow  *database.UnitOfWork
}

// NewSQLRecordWriter creates a new SQL record writer.
func NewSQLRecordWriter(conn database.Connection) *SQLRecordWriter {
	return &SQLRecordWriter{conn: conn, uow: database.NewUnitOfWork(conn)}
}

// SaveRecordSet upserts every record of set in a single transaction.
// Records are keyed by id, so importing the same set twice is a no-op.
func (w *SQLRecordWriter) SaveRecordSet(ctx context.Context, set *domain.RecordSet) (ImportStats, error) {
	var stats ImportStats
	if set.IsEmpty() {
		return stats, nil
	}

	err := w.uow.Do(ctx, func(ctx context.Context) error {
		exec := database.ExecutorFromContext(ctx, w.conn)

		for _, l := range set.Leaders {
			if _, err := exec.Exec(ctx, `
				INSERT INTO team_leaders (id, first_name, last_name, team_name, managed_teams)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					first_name = excluded.first_name,
					last_name = excluded.last_name,
					team_name = excluded.team_name,
					managed_teams = excluded.managed_teams`,
				l.ID.String(), l.FirstName, l.LastName, l.TeamName, joinTeams(l.ManagedTeams),
			); err != nil {
				return fmt.Errorf("save team leader %s: %w", l.ID, err)
			}
			stats.Leaders++
		}

		for _, wk := range set.Workers {
			if _, err := exec.Exec(ctx, `
				INSERT INTO workers (id, first_name, last_name, team_leader_id, active)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					first_name = excluded.first_name,
					last_name = excluded.last_name,
					team_leader_id = excluded.team_leader_id,
					active = excluded.active`,
				wk.ID.String(), wk.FirstName, wk.LastName, wk.TeamLeaderID.String(), wk.Active,
			); err != nil {
				return fmt.Errorf("save worker %s: %w", wk.ID, err)
			}
			stats.Workers++
		}

		for _, a := range set.Assignments {
			var level *string
			var fatigue *int64
			var pain *bool
			if r := a.Readiness; r != nil {
				lv := string(r.Level)
				f := int64(r.FatigueLevel)
				p := r.Pain
				level, fatigue, pain = &lv, &f, &p
			}
			if _, err := exec.Exec(ctx, `
				INSERT INTO assignments (
					id, worker_id, team_leader_id, assigned_date, due_at, status,
					completed_at, readiness_level, fatigue_level, pain
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					worker_id = excluded.worker_id,
					team_leader_id = excluded.team_leader_id,
					assigned_date = excluded.assigned_date,
					due_at = excluded.due_at,
					status = excluded.status,
					completed_at = excluded.completed_at,
					readiness_level = excluded.readiness_level,
					fatigue_level = excluded.fatigue_level,
					pain = excluded.pain`,
				a.ID.String(), a.WorkerID.String(), a.TeamLeaderID.String(),
				formatTime(a.AssignedDate), formatNullTime(a.DueAt), string(a.Status),
				formatNullTime(a.CompletedAt), level, fatigue, pain,
			); err != nil {
				return fmt.Errorf("save assignment %s: %w", a.ID, err)
			}
			stats.Assignments++
		}

		for _, r := range set.Readiness {
			if _, err := exec.Exec(ctx, `
				INSERT INTO readiness_submissions (id, worker_id, level, submitted_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					worker_id = excluded.worker_id,
					level = excluded.level,
					submitted_at = excluded.submitted_at`,
				r.ID.String(), r.WorkerID.String(), string(r.Level), formatTime(r.SubmittedAt),
			); err != nil {
				return fmt.Errorf("save readiness submission %s: %w", r.ID, err)
			}
			stats.Readiness++
		}

		for _, c := range set.Cases {
			if _, err := exec.Exec(ctx, `
				INSERT INTO unavailable_cases (id, worker_id, team_leader_id, reason, status, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					worker_id = excluded.worker_id,
					team_leader_id = excluded.team_leader_id,
					reason = excluded.reason,
					status = excluded.status,
					created_at = excluded.created_at`,
				c.ID.String(), c.WorkerID.String(), c.TeamLeaderID.String(),
				string(c.Reason), string(c.Status), formatTime(c.CreatedAt),
			); err != nil {
				return fmt.Errorf("save unavailable case %s: %w", c.ID, err)
			}
			stats.Cases++
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}

// ImportJSON decodes a JSON record set from r and saves it.
func (w *SQLRecordWriter) ImportJSON(ctx context.Context, r io.Reader) (ImportStats, error) {
	var set domain.RecordSet
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&set); err != nil {
		return ImportStats{}, fmt.Errorf("decode record set: %w", err)
	}
	return w.SaveRecordSet(ctx, &set)
}
