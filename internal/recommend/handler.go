package recommend

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"venue-recommender/internal/index"
	"venue-recommender/internal/jobs"
	"venue-recommender/internal/orchestrator"
	"venue-recommender/internal/shared/metrics"
	"venue-recommender/internal/shared/server/middleware"
	"venue-recommender/internal/shared/server/respond"
	"venue-recommender/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the recommend service and the indexer.
type Handler struct {
	Svc     *Service
	Indexer jobs.Indexer
	// Jobs is nil when no queue is configured; async index requests are then rejected.
	Jobs jobs.Client
	// DefaultDataset is indexed when a request names no path.
	DefaultDataset string
	// ResolvePath maps a dataset name to a storage key.
	ResolvePath func(string) string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, indexer jobs.Indexer, jobClient jobs.Client) *Handler {
	return &Handler{Svc: svc, Indexer: indexer, Jobs: jobClient}
}

// RegisterRoutes attaches recommend and index routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/venues/recommend", h.recommend)
	rg.GET("/recommendations/:id", h.getRun)
	rg.POST("/index", h.index)
}

func (h *Handler) recommend(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", []map[string]string{
			{"field": "body", "issue": err.Error()},
		})
		return
	}
	c.Set("eventId", req.EventID)

	resp, err := h.Svc.Recommend(c.Request.Context(), req)
	if err != nil {
		status, code, msg := mapError(err)
		respond.Error(c, status, code, msg, nil)
		return
	}
	c.Set("runId", resp.RunID)
	respond.OK(c, resp)
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "validation_error", err.Error()
	case errors.Is(err, ErrEventNotFound):
		return http.StatusUnprocessableEntity, "event_not_found", "unknown event_id"
	case errors.Is(err, index.ErrCollectionNotFound):
		return http.StatusServiceUnavailable, "index_not_built", "the document index has not been built yet"
	case errors.Is(err, index.ErrUnavailable):
		return http.StatusServiceUnavailable, "index_unavailable", "the document index is unavailable"
	case errors.Is(err, orchestrator.ErrAllTasksAbandoned):
		return http.StatusBadGateway, "all_tasks_abandoned", "no venue analysis completed; try again later"
	default:
		return http.StatusInternalServerError, "internal_error", "failed to build recommendations"
	}
}

func (h *Handler) getRun(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "run id is required", nil)
		return
	}
	c.Set("runId", runID)

	run, err := h.Svc.GetRun(c.Request.Context(), runID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "recommendation run not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch recommendation run", nil)
		}
		return
	}
	respond.OK(c, run)
}

type indexRequest struct {
	Path             string `json:"path"`
	EventHistoryPath string `json:"event_history_path"`
	Async            bool   `json:"async"`
}

func (h *Handler) index(c *gin.Context) {
	var req indexRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		path = strings.TrimSpace(req.EventHistoryPath)
	}
	if path == "" {
		path = h.DefaultDataset
	}
	if !validDatasetPath(path) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "path must be a relative dataset name or an s3:// url", []map[string]string{
			{"field": "path", "issue": "invalid"},
		})
		return
	}
	if h.ResolvePath != nil {
		path = h.ResolvePath(path)
	}

	if req.Async {
		h.enqueueIndex(c, path)
		return
	}

	if h.Indexer == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "indexer not configured", nil)
		return
	}
	res, err := h.Indexer.IndexDataset(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, index.ErrUnavailable) {
			respond.Error(c, http.StatusServiceUnavailable, "index_unavailable", "the document index is unavailable", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "index_failed", err.Error(), nil)
		return
	}
	respond.JSON(c, http.StatusCreated, res)
}

func (h *Handler) enqueueIndex(c *gin.Context, path string) {
	if h.Jobs == nil {
		respond.Error(c, http.StatusConflict, "job_queue_not_configured", ErrJobQueueNotConfigured.Error(), nil)
		return
	}
	msg := jobs.Message{
		JobID:      uuid.NewString(),
		Path:       path,
		RequestID:  middleware.RequestIDFromContext(c),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    jobs.MessageVersion,
	}
	if err := h.Jobs.Send(c.Request.Context(), msg); err != nil {
		telemetry.Error("index.enqueue_failed", map[string]any{"job_id": msg.JobID, "error": err})
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "failed to enqueue index job", nil)
		return
	}
	metrics.IncIndexJobsEnqueued()
	telemetry.Info("index.enqueued", map[string]any{"job_id": msg.JobID, "path": path, "request_id": msg.RequestID})
	respond.JSON(c, http.StatusAccepted, gin.H{
		"job_id": msg.JobID,
		"status": StatusQueued,
	})
}

func validDatasetPath(p string) bool {
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "s3://") {
		return true
	}
	if strings.Contains(p, "://") || filepath.IsAbs(p) {
		return false
	}
	clean := filepath.Clean(p)
	return clean != "." && !strings.HasPrefix(clean, "..")
}
