// Package domain contains the scoring model for the performance bounded context.
//
// Every Compute* function is a pure function of its arguments: no package level
// state, no clock reads. Callers that need "now" pass it explicitly.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDueWindow is the due time applied to assignments without an explicit due timestamp.
const DefaultDueWindow = 24 * time.Hour

// UnknownWorkerName is shown for workers referenced by records but missing from the roster.
const UnknownWorkerName = "Unknown Worker"

// AssignmentStatus represents the lifecycle state of a work-readiness assignment.
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusOverdue   AssignmentStatus = "overdue"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

// IsValid returns true if the status is a known value.
func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusCompleted, AssignmentStatusOverdue, AssignmentStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseAssignmentStatus parses a stored status. Unknown values are treated as pending,
// which keeps the record counted without crediting it as completed.
func ParseAssignmentStatus(s string) AssignmentStatus {
	status := AssignmentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return AssignmentStatusPending
	}
	return status
}

// ReadinessLevel is the categorical fitness-for-duty self report.
type ReadinessLevel string

const (
	ReadinessFit     ReadinessLevel = "fit"
	ReadinessMinor   ReadinessLevel = "minor"
	ReadinessNotFit  ReadinessLevel = "not_fit"
	ReadinessUnknown ReadinessLevel = "unknown"
)

// ParseReadinessLevel parses a stored readiness level.
func ParseReadinessLevel(s string) ReadinessLevel {
	switch ReadinessLevel(strings.ToLower(strings.TrimSpace(s))) {
	case ReadinessFit:
		return ReadinessFit
	case ReadinessMinor:
		return ReadinessMinor
	case ReadinessNotFit:
		return ReadinessNotFit
	default:
		return ReadinessUnknown
	}
}

// HealthContribution maps a readiness level to its 0-100 health contribution.
func (l ReadinessLevel) HealthContribution() float64 {
	switch l {
	case ReadinessFit:
		return 100
	case ReadinessMinor:
		return 75
	case ReadinessNotFit:
		return 25
	case ReadinessUnknown:
		return 0
	default:
		return 0
	}
}

// IsHighRisk reports whether the level flags the worker as unfit for duty.
func (l ReadinessLevel) IsHighRisk() bool {
	return l == ReadinessNotFit
}

// CaseStatus represents the state of an unavailable case.
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "open"
	CaseStatusInProgress CaseStatus = "in_progress"
	CaseStatusClosed     CaseStatus = "closed"
)

// ParseCaseStatus parses a stored case status. Unknown values are kept open so the
// worker stays excluded until someone closes the case explicitly.
func ParseCaseStatus(s string) CaseStatus {
	switch CaseStatus(strings.ToLower(strings.TrimSpace(s))) {
	case CaseStatusInProgress:
		return CaseStatusInProgress
	case CaseStatusClosed:
		return CaseStatusClosed
	default:
		return CaseStatusOpen
	}
}

// IsActive returns true while the case still blocks the worker.
func (s CaseStatus) IsActive() bool {
	switch s {
	case CaseStatusOpen, CaseStatusInProgress:
		return true
	case CaseStatusClosed:
		return false
	default:
		return true
	}
}

// ReasonCode explains why a worker was excluded from assignment.
type ReasonCode string

const (
	ReasonSick     ReasonCode = "sick"
	ReasonInjured  ReasonCode = "injured"
	ReasonLeave    ReasonCode = "leave"
	ReasonFatigue  ReasonCode = "fatigue"
	ReasonPersonal ReasonCode = "personal"
	ReasonOther    ReasonCode = "other"
)

// ParseReasonCode parses a stored reason code, defaulting to other.
func ParseReasonCode(s string) ReasonCode {
	switch r := ReasonCode(strings.ToLower(strings.TrimSpace(s))); r {
	case ReasonSick, ReasonInjured, ReasonLeave, ReasonFatigue, ReasonPersonal:
		return r
	default:
		return ReasonOther
	}
}

// ReadinessResult is the readiness check linked to a completed assignment.
type ReadinessResult struct {
	Level ReadinessLevel `json:"level"`
	// FatigueLevel is self reported on a 0-10 scale.
	FatigueLevel int  `json:"fatigue_level"`
	Pain         bool `json:"pain"`
}

// AssignmentRecord is a work-readiness task assigned to a worker.
type AssignmentRecord struct {
	ID           uuid.UUID        `json:"id"`
	WorkerID     uuid.UUID        `json:"worker_id"`
	TeamLeaderID uuid.UUID        `json:"team_leader_id"`
	AssignedDate time.Time        `json:"assigned_date"`
	DueAt        *time.Time       `json:"due_at,omitempty"`
	Status       AssignmentStatus `json:"status"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
	Readiness    *ReadinessResult `json:"readiness,omitempty"`
}

// DueTime returns the explicit due time, or AssignedDate + 24h when none was set.
func (a AssignmentRecord) DueTime() time.Time {
	if a.DueAt != nil && !a.DueAt.IsZero() {
		return *a.DueAt
	}
	return a.AssignedDate.Add(DefaultDueWindow)
}

// IsCompleted reports whether the assignment was completed.
func (a AssignmentRecord) IsCompleted() bool {
	return a.Status == AssignmentStatusCompleted
}

// IsCancelled reports whether the assignment was cancelled.
func (a AssignmentRecord) IsCancelled() bool {
	return a.Status == AssignmentStatusCancelled
}

// IsOnTime reports whether a completed assignment finished at or before its due time.
func (a AssignmentRecord) IsOnTime() bool {
	if !a.IsCompleted() || a.CompletedAt == nil || a.CompletedAt.IsZero() {
		return false
	}
	return !a.CompletedAt.After(a.DueTime())
}

// ResponseTime returns the completion turnaround. ok is false when either
// timestamp is missing or the pair is inconsistent.
func (a AssignmentRecord) ResponseTime() (time.Duration, bool) {
	if a.CompletedAt == nil || a.CompletedAt.IsZero() || a.AssignedDate.IsZero() {
		return 0, false
	}
	d := a.CompletedAt.Sub(a.AssignedDate)
	if d < 0 {
		return 0, false
	}
	return d, true
}

// ReadinessLevel returns the linked readiness level, or unknown when absent.
func (a AssignmentRecord) ReadinessLevel() ReadinessLevel {
	if a.Readiness == nil {
		return ReadinessUnknown
	}
	return a.Readiness.Level
}

// ReadinessSubmission is a standalone readiness self report.
type ReadinessSubmission struct {
	ID          uuid.UUID      `json:"id"`
	WorkerID    uuid.UUID      `json:"worker_id"`
	Level       ReadinessLevel `json:"level"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// UnavailableCase records why a worker was excluded from assignment.
type UnavailableCase struct {
	ID           uuid.UUID  `json:"id"`
	WorkerID     uuid.UUID  `json:"worker_id"`
	TeamLeaderID uuid.UUID  `json:"team_leader_id"`
	Reason       ReasonCode `json:"reason"`
	Status       CaseStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Worker is a member of a team leader's roster.
type Worker struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	TeamLeaderID uuid.UUID `json:"team_leader_id"`
	Active       bool      `json:"active"`
}

// FullName returns the display name, falling back to the unknown placeholder.
func (w Worker) FullName() string {
	return displayName(w.FirstName, w.LastName, UnknownWorkerName)
}

// TeamLeaderProfile describes a team leader and the teams they manage.
type TeamLeaderProfile struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	TeamName     string    `json:"team_name"`
	ManagedTeams []string  `json:"managed_teams,omitempty"`
}

// FullName returns the display name of the leader.
func (p TeamLeaderProfile) FullName() string {
	return displayName(p.FirstName, p.LastName, "Unknown Team Leader")
}

// DisplayTeamName returns the team name, falling back to the leader's name.
func (p TeamLeaderProfile) DisplayTeamName() string {
	if name := strings.TrimSpace(p.TeamName); name != "" {
		return name
	}
	return p.FullName() + "'s Team"
}

func displayName(first, last, fallback string) string {
	name := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if name == "" {
		return fallback
	}
	return name
}

// activeRoster filters the roster down to active workers managed by leaderID.
func activeRoster(roster []Worker, leaderID uuid.UUID) []Worker {
	workers := make([]Worker, 0, len(roster))
	for _, w := range roster {
		if w.Active && w.TeamLeaderID == leaderID {
			workers = append(workers, w)
		}
	}
	return workers
}
