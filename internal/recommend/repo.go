package recommend

import "context"

// RunRepo persists recommend runs.
type RunRepo interface {
	Create(ctx context.Context, run Run) error
	Update(ctx context.Context, run Run) error
	GetByID(ctx context.Context, runID string) (Run, error)
}
