package queries

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
	sharedApplication "github.com/felixgeelhaar/teampulse/internal/shared/application"
)

// GetWorkerRankingQuery requests the all-time worker ranking, for one team
// leader's roster or for every worker when TeamLeaderID is nil.
type GetWorkerRankingQuery struct {
	TeamLeaderID *uuid.UUID
	Limit        int // 0 returns every worker
}

// QueryName returns the query name.
func (GetWorkerRankingQuery) QueryName() string { return "performance.worker_ranking" }

// WorkerRankingResult holds ranked workers, best first.
type WorkerRankingResult struct {
	Workers []domain.WorkerPerformance `json:"workers"`
	Total   int                        `json:"total"`

	index *domain.RankIndex
}

// RankOf returns a worker's rank across the full ranking, including workers
// cut off by Limit.
func (r *WorkerRankingResult) RankOf(workerID uuid.UUID) (int, bool) {
	if r == nil || r.index == nil {
		return 0, false
	}
	return r.index.Rank(workerID)
}

// GetWorkerRankingHandler handles worker ranking queries.
type GetWorkerRankingHandler struct {
	source domain.RecordSource
}

// NewGetWorkerRankingHandler creates a new worker ranking handler.
func NewGetWorkerRankingHandler(source domain.RecordSource) *GetWorkerRankingHandler {
	return &GetWorkerRankingHandler{source: source}
}

// Handle executes the worker ranking query over the full assignment history.
func (h *GetWorkerRankingHandler) Handle(ctx context.Context, query GetWorkerRankingQuery) (*WorkerRankingResult, error) {
	if query.Limit < 0 {
		return nil, fmt.Errorf("invalid limit %d", query.Limit)
	}

	set, err := h.source.FetchRecords(ctx, domain.RecordQuery{TeamLeaderID: query.TeamLeaderID})
	if err != nil {
		return nil, fmt.Errorf("fetch worker history: %w", err)
	}
	if set == nil {
		set = &domain.RecordSet{}
	}

	ranked := domain.ComputeWorkerPerformance(set.Assignments, set.Workers)
	result := &WorkerRankingResult{
		Workers: ranked,
		Total:   len(ranked),
		index:   domain.NewRankIndex(ranked),
	}
	if query.Limit > 0 && len(ranked) > query.Limit {
		result.Workers = ranked[:query.Limit]
	}
	return result, nil
}

var _ sharedApplication.QueryHandler[GetWorkerRankingQuery, *WorkerRankingResult] = (*GetWorkerRankingHandler)(nil)
