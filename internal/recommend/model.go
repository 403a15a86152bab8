package recommend

import (
	"time"

	"venue-recommender/internal/analysis"
	"venue-recommender/internal/orchestrator"
	"venue-recommender/internal/synthesis"
)

const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultTopN is used when a request leaves top_n unset.
const DefaultTopN = 3

// Request asks for the top venues for an open event request. A zero TopN
// means DefaultTopN.
type Request struct {
	EventID string `json:"event_id" validate:"required"`
	TopN    int    `json:"top_n" validate:"gte=1,lte=50"`
}

// Response carries the ranked venues. Analyses reports, per kind, whether its
// task succeeded or was abandoned.
type Response struct {
	RunID           string                                  `json:"run_id"`
	EventID         string                                  `json:"event_id"`
	Recommendations []synthesis.Recommendation              `json:"recommendations"`
	Analyses        map[analysis.Kind]orchestrator.Presence `json:"analyses,omitempty"`
}

// Run is the recorded history of one recommend call.
type Run struct {
	ID              string                     `json:"id"`
	EventID         string                     `json:"event_id"`
	TopN            int                        `json:"top_n"`
	Status          string                     `json:"status"`
	CapacityMin     int                        `json:"capacity_min,omitempty"`
	CapacityMax     int                        `json:"capacity_max,omitempty"`
	Cities          []string                   `json:"cities,omitempty"`
	CandidateCount  int                        `json:"candidate_count"`
	Slots           []orchestrator.SlotReport  `json:"slots,omitempty"`
	Recommendations []synthesis.Recommendation `json:"recommendations,omitempty"`
	ErrorCode       *string                    `json:"error_code,omitempty"`
	ErrorMessage    *string                    `json:"error_message,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	CompletedAt     *time.Time                 `json:"completed_at,omitempty"`
}
