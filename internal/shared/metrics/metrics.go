package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	recommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venue_recommendations_total",
		Help: "Recommendation requests by outcome",
	}, []string{"outcome"})

	stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "venue_pipeline_stage_duration_ms",
		Help:    "Pipeline stage duration in milliseconds",
		Buckets: []float64{5, 25, 100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	}, []string{"stage"})

	candidatesRetrieved = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "venue_retrieval_candidates",
		Help:    "Distinct venue candidates per retrieval",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 20, 50},
	})

	analysisAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venue_analysis_attempts_total",
		Help: "Analysis task attempts by kind and result",
	}, []string{"kind", "result"})

	slotTerminal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venue_analysis_slots_total",
		Help: "Analysis slots by kind and terminal state",
	}, []string{"kind", "state"})

	documentsIndexed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venue_index_documents_total",
		Help: "Documents processed by the indexer by result",
	}, []string{"result"})

	indexJobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "venue_index_jobs_total",
		Help: "Asynchronous index jobs by event",
	}, []string{"event"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		recommendationsTotal,
		stageDuration,
		candidatesRetrieved,
		analysisAttempts,
		slotTerminal,
		documentsIndexed,
		indexJobs,
	)
}

// Registry exposes the private registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// IncRecommendation counts a finished recommendation request.
func IncRecommendation(outcome string) {
	recommendationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(float64(d.Microseconds()) / 1000.0)
}

// ObserveCandidates records the candidate count of one retrieval.
func ObserveCandidates(n int) {
	candidatesRetrieved.Observe(float64(n))
}

// IncAnalysisAttempt counts one analysis task attempt.
func IncAnalysisAttempt(kind string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	analysisAttempts.WithLabelValues(kind, result).Inc()
}

// IncSlotTerminal counts a slot reaching its terminal state.
func IncSlotTerminal(kind, state string) {
	slotTerminal.WithLabelValues(kind, state).Inc()
}

// AddDocuments counts documents written or skipped by the indexer.
func AddDocuments(result string, n int) {
	if n <= 0 {
		return
	}
	documentsIndexed.WithLabelValues(result).Add(float64(n))
}

func IncIndexJobsEnqueued()             { indexJobs.WithLabelValues("enqueued").Inc() }
func IncIndexJobsReceived()             { indexJobs.WithLabelValues("received").Inc() }
func IncIndexJobsCompleted()            { indexJobs.WithLabelValues("completed").Inc() }
func IncIndexJobsFailed()               { indexJobs.WithLabelValues("failed").Inc() }
func IncIndexJobsDeletedUnrecoverable() { indexJobs.WithLabelValues("deleted_unrecoverable").Inc() }

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
