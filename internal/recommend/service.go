package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"venue-recommender/internal/analysis"
	"venue-recommender/internal/catalog"
	"venue-recommender/internal/index"
	"venue-recommender/internal/orchestrator"
	"venue-recommender/internal/retrieval"
	"venue-recommender/internal/shared/metrics"
	"venue-recommender/internal/shared/telemetry"
	"venue-recommender/internal/shared/validation"
	"venue-recommender/internal/synthesis"
)

// Retriever finds candidate venues for a query.
type Retriever interface {
	Retrieve(ctx context.Context, queryText string, filter index.Filter, k int) ([]retrieval.Candidate, error)
}

// Analyzer runs the analysis fan-out over candidates.
type Analyzer interface {
	Run(ctx context.Context, in analysis.Input) (orchestrator.Result, error)
}

// Service runs the recommendation pipeline: retrieval, analysis, synthesis.
type Service struct {
	Catalog     catalog.Repo
	Retriever   Retriever
	Analyzer    Analyzer
	Synthesizer *synthesis.Synthesizer
	Runs        RunRepo
	// K overrides how many documents retrieval asks the index for.
	K   int
	Now func() time.Time
}

// Recommend returns up to TopN ranked venues for the event request. No
// candidates is not an error and yields an empty list.
func (s *Service) Recommend(ctx context.Context, req Request) (Response, error) {
	if req.TopN == 0 {
		req.TopN = DefaultTopN
	}
	if err := validation.Struct(req); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	start := s.now()

	eventReq, err := s.Catalog.GetRequest(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			metrics.IncRecommendation("event_not_found")
			return Response{}, fmt.Errorf("%w: %s", ErrEventNotFound, req.EventID)
		}
		metrics.IncRecommendation("error")
		return Response{}, fmt.Errorf("load event request: %w", err)
	}

	run := Run{
		ID:        uuid.NewString(),
		EventID:   req.EventID,
		TopN:      req.TopN,
		Status:    StatusQueued,
		CreatedAt: start.UTC(),
	}
	s.recordCreate(ctx, run)
	resp := Response{RunID: run.ID, EventID: req.EventID, Recommendations: []synthesis.Recommendation{}}

	queryText, filter := retrieval.BuildQuery(eventReq)
	if filter.Capacity != nil {
		run.CapacityMin, run.CapacityMax = filter.Capacity.Min, filter.Capacity.Max
	}
	run.Cities = filter.Cities

	candidates, err := s.Retriever.Retrieve(ctx, queryText, filter, s.K)
	if err != nil {
		s.fail(ctx, run, err)
		return Response{}, err
	}
	run.CandidateCount = len(candidates)
	telemetry.Info("recommend.retrieval", map[string]any{
		"request_id":   telemetry.RequestIDFromContext(ctx),
		"event_id":     req.EventID,
		"run_id":       run.ID,
		"capacity_min": run.CapacityMin,
		"capacity_max": run.CapacityMax,
		"cities":       run.Cities,
		"candidates":   len(candidates),
	})
	if len(candidates) == 0 {
		s.complete(ctx, run, nil)
		metrics.IncRecommendation("no_candidates")
		return resp, nil
	}

	result, err := s.Analyzer.Run(ctx, analysis.Input{Request: eventReq, Candidates: candidates})
	run.Slots = result.Slots
	if err != nil {
		s.fail(ctx, run, err)
		return Response{}, err
	}

	synthStart := time.Now()
	recs := s.Synthesizer.Synthesize(result.Analyses, eventReq, candidates, req.TopN)
	metrics.ObserveStage("synthesis", time.Since(synthStart))

	resp.Recommendations = recs
	resp.Analyses = result.Presence
	s.complete(ctx, run, recs)

	outcome := "success"
	if len(result.Analyses) < len(result.Slots) {
		outcome = "partial"
	}
	metrics.IncRecommendation(outcome)
	metrics.ObserveStage("recommend", s.now().Sub(start))
	telemetry.Info("recommend.complete", map[string]any{
		"request_id":      telemetry.RequestIDFromContext(ctx),
		"event_id":        req.EventID,
		"run_id":          run.ID,
		"outcome":         outcome,
		"recommendations": len(recs),
		"duration_ms":     s.now().Sub(start).Milliseconds(),
	})
	return resp, nil
}

// GetRun returns a recorded run by ID.
func (s *Service) GetRun(ctx context.Context, runID string) (Run, error) {
	if runID == "" {
		return Run{}, errors.New("runID is required")
	}
	if s.Runs == nil {
		return Run{}, ErrNotFound
	}
	return s.Runs.GetByID(ctx, runID)
}

// ErrorCode maps a pipeline error to its stable code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return ErrorCodeValidation
	case errors.Is(err, ErrEventNotFound):
		return ErrorCodeEventNotFound
	case errors.Is(err, index.ErrCollectionNotFound):
		return ErrorCodeIndexNotBuilt
	case errors.Is(err, index.ErrUnavailable):
		return ErrorCodeIndexUnavailable
	case errors.Is(err, orchestrator.ErrAllTasksAbandoned):
		return ErrorCodeAllTasksAbandoned
	default:
		return ErrorCodeInternal
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run history is best-effort: a storage failure is logged, never returned.
func (s *Service) recordCreate(ctx context.Context, run Run) {
	if s.Runs == nil {
		return
	}
	if err := s.Runs.Create(ctx, run); err != nil {
		telemetry.Warn("recommend.run_store_failed", map[string]any{"run_id": run.ID, "op": "create", "error": err})
	}
}

func (s *Service) complete(ctx context.Context, run Run, recs []synthesis.Recommendation) {
	now := s.now().UTC()
	run.Status = StatusCompleted
	run.Recommendations = recs
	run.CompletedAt = &now
	s.recordUpdate(ctx, run)
}

func (s *Service) fail(ctx context.Context, run Run, err error) {
	code := ErrorCode(err)
	msg := err.Error()
	now := s.now().UTC()
	run.Status = StatusFailed
	run.ErrorCode = &code
	run.ErrorMessage = &msg
	run.CompletedAt = &now
	s.recordUpdate(ctx, run)

	metrics.IncRecommendation(strings.ToLower(code))
	telemetry.Error("recommend.failed", map[string]any{
		"request_id": telemetry.RequestIDFromContext(ctx),
		"event_id":   run.EventID,
		"run_id":     run.ID,
		"code":       code,
		"error":      err,
	})
}

func (s *Service) recordUpdate(ctx context.Context, run Run) {
	if s.Runs == nil {
		return
	}
	if err := s.Runs.Update(telemetry.Detached(ctx), run); err != nil {
		telemetry.Warn("recommend.run_store_failed", map[string]any{"run_id": run.ID, "op": "update", "error": err})
	}
}
