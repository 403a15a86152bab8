package recommend

import (
	"context"
	"sync"
)

// MemoryRunRepo stores runs in memory and is safe for concurrent use.
type MemoryRunRepo struct {
	mu   sync.RWMutex
	byID map[string]Run
}

// NewMemoryRunRepo constructs a MemoryRunRepo.
func NewMemoryRunRepo() *MemoryRunRepo {
	return &MemoryRunRepo{byID: make(map[string]Run)}
}

func (r *MemoryRunRepo) Create(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[run.ID] = run
	return nil
}

func (r *MemoryRunRepo) Update(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[run.ID]; !ok {
		return ErrNotFound
	}
	r.byID[run.ID] = run
	return nil
}

func (r *MemoryRunRepo) GetByID(ctx context.Context, runID string) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.byID[runID]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

var _ RunRepo = (*MemoryRunRepo)(nil)
