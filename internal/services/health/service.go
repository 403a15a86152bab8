package health

import (
	"context"
	"database/sql"
	"time"
)

// Counter reports how many documents the index holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Breaker reports the circuit state of the text-generation provider.
type Breaker interface {
	State() string
}

// Status is the readiness payload.
type Status struct {
	OK             bool   `json:"ok"`
	Database       string `json:"database"`
	Index          string `json:"index"`
	IndexDocuments int    `json:"index_documents"`
	LLM            string `json:"llm"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB      *sql.DB
	Index   Counter
	Breaker Breaker
	Timeout time.Duration
}

// NewService constructs a new health service. db may be nil when the process
// runs on in-memory repositories.
func NewService(db *sql.DB, idx Counter) *Service {
	return &Service{DB: db, Index: idx, Timeout: 2 * time.Second}
}

// Status pings the database and counts indexed documents. An empty index or an
// open LLM circuit is reported but does not make the service unhealthy.
func (s *Service) Status(ctx context.Context) Status {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	st := Status{OK: true, Database: "memory", Index: "none", LLM: "none"}
	if s.DB != nil {
		st.Database = "ok"
		if err := s.DB.PingContext(ctx); err != nil {
			st.Database = "unreachable"
			st.OK = false
		}
	}
	if s.Index != nil {
		n, err := s.Index.Count(ctx)
		switch {
		case err != nil:
			st.Index = "unavailable"
		case n == 0:
			st.Index = "empty"
		default:
			st.Index = "ok"
			st.IndexDocuments = n
		}
	}
	if s.Breaker != nil {
		st.LLM = s.Breaker.State()
	}
	return st
}
