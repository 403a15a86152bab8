package recommend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// PGRunRepo implements RunRepo using Postgres.
type PGRunRepo struct {
	DB *sql.DB
}

// Create inserts a new run.
func (r *PGRunRepo) Create(ctx context.Context, run Run) error {
	const query = `
INSERT INTO recommendation_runs (id, event_id, top_n, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`
	_, err := r.DB.ExecContext(ctx, query, run.ID, run.EventID, run.TopN, run.Status, run.CreatedAt)
	return err
}

// Update writes the terminal state of a run.
func (r *PGRunRepo) Update(ctx context.Context, run Run) error {
	const query = `
UPDATE recommendation_runs
SET status = $2,
    capacity_min = $3,
    capacity_max = $4,
    cities = $5,
    candidate_count = $6,
    slots = $7,
    recommendations = $8,
    error_code = $9,
    error_message = $10,
    completed_at = $11,
    updated_at = $12
WHERE id = $1`
	cities, err := marshalJSONB(run.Cities)
	if err != nil {
		return err
	}
	slots, err := marshalJSONB(run.Slots)
	if err != nil {
		return err
	}
	recs, err := marshalJSONB(run.Recommendations)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		run.ID,
		run.Status,
		nullInt(run.CapacityMin),
		nullInt(run.CapacityMax),
		cities,
		run.CandidateCount,
		slots,
		recs,
		run.ErrorCode,
		run.ErrorMessage,
		run.CompletedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a run by ID.
func (r *PGRunRepo) GetByID(ctx context.Context, runID string) (Run, error) {
	const query = `
SELECT id, event_id, top_n, status, capacity_min, capacity_max, cities, candidate_count,
       slots, recommendations, error_code, error_message, created_at, completed_at
FROM recommendation_runs
WHERE id = $1
LIMIT 1`
	var run Run
	var capacityMin, capacityMax, candidateCount sql.NullInt64
	var cities, slots, recs []byte
	var errorCode, errorMessage sql.NullString
	var completedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, runID).Scan(
		&run.ID,
		&run.EventID,
		&run.TopN,
		&run.Status,
		&capacityMin,
		&capacityMax,
		&cities,
		&candidateCount,
		&slots,
		&recs,
		&errorCode,
		&errorMessage,
		&run.CreatedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, err
	}
	run.CapacityMin = int(capacityMin.Int64)
	run.CapacityMax = int(capacityMax.Int64)
	run.CandidateCount = int(candidateCount.Int64)
	if err := unmarshalJSONB(cities, &run.Cities); err != nil {
		return Run{}, err
	}
	if err := unmarshalJSONB(slots, &run.Slots); err != nil {
		return Run{}, err
	}
	if err := unmarshalJSONB(recs, &run.Recommendations); err != nil {
		return Run{}, err
	}
	if errorCode.Valid {
		run.ErrorCode = &errorCode.String
	}
	if errorMessage.Valid {
		run.ErrorMessage = &errorMessage.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return run, nil
}

func marshalJSONB(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return payload, nil
}

func unmarshalJSONB(raw []byte, dest any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal jsonb: %w", err)
	}
	return nil
}

func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

var _ RunRepo = (*PGRunRepo)(nil)
