package domain

import (
	"sort"

	"github.com/google/uuid"
)

// Worker score weights. The primary weights are applied to 0-100 sub-scores;
// bonuses and penalties are added afterwards.
const (
	workerWeightCompletion = 0.5
	workerWeightOnTime     = 0.25
	workerWeightQuality    = 0.1

	workerLatePenaltyRate    = 50.0
	workerLatePenaltyQuality = 20.0
	workerPendingBonusMax    = 5.0
	workerOverduePenaltyMax  = 10.0
	workerRecoveryBonus      = 3.0
	workerRecoveryThreshold  = 80.0
)

// WorkerPerformance is the ranked scorecard for a single worker.
type WorkerPerformance struct {
	WorkerID     uuid.UUID `json:"worker_id"`
	WorkerName   string    `json:"worker_name"`
	TeamLeaderID uuid.UUID `json:"team_leader_id"`

	Assignments int `json:"assignments"`
	Completed   int `json:"completed"`
	OnTime      int `json:"on_time"`
	Late        int `json:"late"`
	Pending     int `json:"pending"`
	Overdue     int `json:"overdue"`

	// AvgReadiness and AvgFatigue are normalized to 0-100.
	AvgReadiness float64 `json:"avg_readiness"`
	AvgFatigue   float64 `json:"avg_fatigue"`

	CompletionRate float64 `json:"completion_rate"`
	OnTimeRate     float64 `json:"on_time_rate"`
	QualityScore   float64 `json:"quality_score"`
	Score          float64 `json:"score"`
	Rating         string  `json:"rating"`
	Rank           int     `json:"rank"`
}

type workerAccumulator struct {
	perf      WorkerPerformance
	order     int
	readiness []float64
	fatigue   []float64
	rawScore  float64
}

// ComputeWorkerPerformance scores every worker from their full assignment history
// and returns them in rank order (rank 1 = best).
//
// Workers with no completed assignment always rank below workers with at least
// one, whatever their score. Ties keep roster order, so repeated calls on the
// same input produce the same ranking.
func ComputeWorkerPerformance(assignments []AssignmentRecord, roster []Worker) []WorkerPerformance {
	accs := make(map[uuid.UUID]*workerAccumulator, len(roster))
	ordered := make([]*workerAccumulator, 0, len(roster))

	register := func(id uuid.UUID, name string, leaderID uuid.UUID) *workerAccumulator {
		if acc, ok := accs[id]; ok {
			return acc
		}
		acc := &workerAccumulator{
			perf: WorkerPerformance{
				WorkerID:     id,
				WorkerName:   name,
				TeamLeaderID: leaderID,
			},
			order: len(ordered),
		}
		accs[id] = acc
		ordered = append(ordered, acc)
		return acc
	}

	for _, w := range roster {
		register(w.ID, w.FullName(), w.TeamLeaderID)
	}

	for _, a := range assignments {
		acc := register(a.WorkerID, UnknownWorkerName, a.TeamLeaderID)
		p := &acc.perf
		switch a.Status {
		case AssignmentStatusCancelled:
			continue
		case AssignmentStatusCompleted:
			p.Completed++
			if a.IsOnTime() {
				p.OnTime++
			} else {
				p.Late++
			}
		case AssignmentStatusPending:
			p.Pending++
		case AssignmentStatusOverdue:
			p.Overdue++
		default:
			p.Pending++
		}
		p.Assignments++

		if a.Readiness != nil {
			acc.readiness = append(acc.readiness, a.Readiness.Level.HealthContribution())
			acc.fatigue = append(acc.fatigue, normalizeFatigue(a.Readiness.FatigueLevel))
		}
	}

	for _, acc := range ordered {
		scoreWorker(acc)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		aActive, bActive := a.perf.Completed > 0, b.perf.Completed > 0
		if aActive != bActive {
			return aActive
		}
		if !aActive {
			return a.order < b.order
		}
		if a.rawScore != b.rawScore {
			return a.rawScore > b.rawScore
		}
		if a.perf.Completed != b.perf.Completed {
			return a.perf.Completed > b.perf.Completed
		}
		return a.order < b.order
	})

	result := make([]WorkerPerformance, len(ordered))
	for i, acc := range ordered {
		acc.perf.Rank = i + 1
		result[i] = acc.perf
	}
	return result
}

func scoreWorker(acc *workerAccumulator) {
	p := &acc.perf
	acc.rawScore = 0
	if len(acc.readiness) > 0 {
		p.AvgReadiness = round1(clampRate(mean(acc.readiness)))
		p.AvgFatigue = round1(clampRate(mean(acc.fatigue)))
	}

	if p.Assignments == 0 {
		p.Rating = WorkerRating(0)
		return
	}

	n := float64(p.Assignments)
	lateShare := float64(p.Late) / n

	completionRate := safePercent(float64(p.Completed), n)
	onTimeRate := clampRate(safePercent(float64(p.OnTime), n) - lateShare*workerLatePenaltyRate)
	qualityScore := clampRate(clampRate(mean(acc.readiness)) - lateShare*workerLatePenaltyQuality)

	weighted := completionRate*workerWeightCompletion +
		onTimeRate*workerWeightOnTime +
		qualityScore*workerWeightQuality

	pendingBonus := min(workerPendingBonusMax, float64(p.Pending)/n*workerPendingBonusMax)
	overduePenalty := min(workerOverduePenaltyMax, float64(p.Overdue)/n*workerOverduePenaltyMax)
	recoveryBonus := 0.0
	if completionRate >= workerRecoveryThreshold {
		recoveryBonus = workerRecoveryBonus
	}

	acc.rawScore = clampRate(weighted + pendingBonus - overduePenalty + recoveryBonus)

	p.CompletionRate = round1(completionRate)
	p.OnTimeRate = round1(onTimeRate)
	p.QualityScore = round1(qualityScore)
	p.Score = round1(acc.rawScore)
	p.Rating = WorkerRating(p.Score)
}

// normalizeFatigue maps a 0-10 fatigue report onto 0-100.
func normalizeFatigue(level int) float64 {
	return clampRate(float64(level) * 10)
}

// WorkerRating maps a 0-100 worker score to its letter rating.
func WorkerRating(score float64) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "A-"
	case score >= 80:
		return "B+"
	case score >= 75:
		return "B"
	case score >= 70:
		return "B-"
	case score >= 65:
		return "C+"
	case score >= 60:
		return "C"
	case score >= 55:
		return "C-"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}

// RankIndex provides O(1) rank lookup after a single ranking pass.
type RankIndex struct {
	ranks map[uuid.UUID]int
}

// NewRankIndex builds a worker-id to rank mapping from ranked results.
func NewRankIndex(ranked []WorkerPerformance) *RankIndex {
	idx := &RankIndex{ranks: make(map[uuid.UUID]int, len(ranked))}
	for _, p := range ranked {
		idx.ranks[p.WorkerID] = p.Rank
	}
	return idx
}

// Rank returns the worker's rank and whether the worker is known.
func (i *RankIndex) Rank(workerID uuid.UUID) (int, bool) {
	rank, ok := i.ranks[workerID]
	return rank, ok
}

// Len returns the number of ranked workers.
func (i *RankIndex) Len() int {
	return len(i.ranks)
}
