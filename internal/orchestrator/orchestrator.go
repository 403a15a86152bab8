package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"venue-recommender/internal/analysis"
	"venue-recommender/internal/retrieval"
	"venue-recommender/internal/shared/metrics"
	"venue-recommender/internal/shared/telemetry"
)

// Config bounds retries and the overall run.
type Config struct {
	// MaxAttempts is the per-slot attempt ceiling, first attempt included.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// Timeout bounds the whole fan-out. Slots still running when it fires
	// are abandoned.
	Timeout time.Duration
}

// DefaultConfig returns three attempts, exponential backoff from 200ms and a
// 30s overall timeout.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second, Timeout: 30 * time.Second}
}

// SlotReport is the terminal record of one slot.
type SlotReport struct {
	Kind     analysis.Kind `json:"kind"`
	State    SlotState     `json:"state"`
	Attempts int           `json:"attempts"`
	Error    string        `json:"error,omitempty"`
	Millis   int64         `json:"duration_ms"`
}

// Result is the aggregated fan-in. Analyses holds only succeeded slots.
type Result struct {
	Analyses map[analysis.Kind]analysis.Payload
	Presence map[analysis.Kind]Presence
	Slots    []SlotReport
}

// Lookup returns the payload for kind and why it is or is not present.
func (r Result) Lookup(kind analysis.Kind) (analysis.Payload, Presence) {
	p, ok := r.Analyses[kind]
	if ok {
		return p, PresenceSucceeded
	}
	if pr, ok := r.Presence[kind]; ok {
		return nil, pr
	}
	return nil, PresenceNotScheduled
}

// Orchestrator runs analysis tasks concurrently with independent bounded
// retries and aggregates what survives.
type Orchestrator struct {
	tasks []analysis.Task
	cfg   Config
}

// New builds an orchestrator over tasks. Zero config fields take defaults.
func New(tasks []analysis.Task, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Orchestrator{tasks: tasks, cfg: cfg}
}

type slot struct {
	task     analysis.Task
	state    SlotState
	attempts int
	outcome  analysis.Outcome
	elapsed  time.Duration
}

// Run fans out every task and returns once each slot is terminal. It returns
// ErrAllTasksAbandoned, alongside the slot reports, when nothing succeeded.
func (o *Orchestrator) Run(ctx context.Context, in analysis.Input) (Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	slots := make([]*slot, len(o.tasks))
	for i, t := range o.tasks {
		slots[i] = &slot{task: t, state: StatePending}
	}

	var g errgroup.Group
	for _, s := range slots {
		slotInput := analysis.Input{Request: in.Request, Candidates: retrieval.CloneCandidates(in.Candidates)}
		g.Go(func() error {
			o.runSlot(ctx, s, slotInput)
			return nil
		})
	}
	_ = g.Wait()

	res := aggregate(slots)
	metrics.ObserveStage("orchestration", time.Since(start))
	telemetry.Info("orchestrator.complete", map[string]any{
		"request_id":  telemetry.RequestIDFromContext(ctx),
		"event_id":    in.Request.EventID,
		"succeeded":   len(res.Analyses),
		"slots":       len(slots),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if len(res.Analyses) == 0 {
		return res, ErrAllTasksAbandoned
	}
	return res, nil
}

func (o *Orchestrator) runSlot(ctx context.Context, s *slot, in analysis.Input) {
	start := time.Now()
	kind := s.task.Kind()

	_ = retry.Do(
		func() error {
			s.attempts++
			s.state = StateRunning
			out := runAttempt(ctx, s.task, in)
			metrics.IncAnalysisAttempt(string(kind), out.OK())
			s.outcome = out
			if out.OK() {
				s.state = StateSucceeded
				return nil
			}
			s.state = StateFailed
			return out.Err
		},
		retry.Attempts(uint(o.cfg.MaxAttempts)),
		retry.Delay(o.cfg.InitialDelay),
		retry.MaxDelay(o.cfg.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			telemetry.Warn("orchestrator.retry", map[string]any{
				"request_id": telemetry.RequestIDFromContext(ctx),
				"kind":       string(kind),
				"attempt":    n + 1,
				"error":      err,
			})
		}),
	)

	if s.state != StateSucceeded {
		s.state = StateAbandoned
		if s.outcome.Err == nil {
			s.outcome = analysis.Failure(kind, fmt.Errorf("%w: %w", analysis.ErrTaskFailure, ctx.Err()), s.attempts)
		}
	}
	s.outcome.Attempts = s.attempts
	s.elapsed = time.Since(start)

	metrics.IncSlotTerminal(string(kind), string(s.state))
	fields := map[string]any{
		"request_id":  telemetry.RequestIDFromContext(ctx),
		"kind":        string(kind),
		"state":       string(s.state),
		"attempts":    s.attempts,
		"duration_ms": s.elapsed.Milliseconds(),
	}
	if s.state == StateAbandoned {
		fields["error"] = s.outcome.Err
		telemetry.Warn("orchestrator.slot", fields)
		return
	}
	telemetry.Info("orchestrator.slot", fields)
}

// runAttempt runs one task attempt. It returns when the attempt finishes or
// ctx is done, whichever is first, and turns a panic into a Failure.
func runAttempt(ctx context.Context, t analysis.Task, in analysis.Input) analysis.Outcome {
	if err := ctx.Err(); err != nil {
		return analysis.Failure(t.Kind(), fmt.Errorf("%w: %w", analysis.ErrTaskFailure, err), 1)
	}
	done := make(chan analysis.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- analysis.Failure(t.Kind(), fmt.Errorf("%w: panic: %v", analysis.ErrTaskFailure, r), 1)
			}
		}()
		done <- t.Run(ctx, in)
	}()

	select {
	case out := <-done:
		if out.Kind == "" {
			out.Kind = t.Kind()
		}
		if !out.OK() && out.Err == nil {
			out.Err = fmt.Errorf("%w: empty outcome", analysis.ErrTaskFailure)
		}
		return out
	case <-ctx.Done():
		return analysis.Failure(t.Kind(), fmt.Errorf("%w: %w", analysis.ErrTaskFailure, ctx.Err()), 1)
	}
}

func aggregate(slots []*slot) Result {
	res := Result{
		Analyses: make(map[analysis.Kind]analysis.Payload),
		Presence: make(map[analysis.Kind]Presence, len(analysis.Kinds)),
		Slots:    make([]SlotReport, 0, len(slots)),
	}
	for _, k := range analysis.Kinds {
		res.Presence[k] = PresenceNotScheduled
	}
	for _, s := range slots {
		kind := s.task.Kind()
		report := SlotReport{Kind: kind, State: s.state, Attempts: s.attempts, Millis: s.elapsed.Milliseconds()}
		switch s.state {
		case StateSucceeded:
			res.Analyses[kind] = s.outcome.Payload
			res.Presence[kind] = PresenceSucceeded
		default:
			res.Presence[kind] = PresenceAbandoned
			if s.outcome.Err != nil {
				report.Error = s.outcome.Err.Error()
			}
		}
		res.Slots = append(res.Slots, report)
	}
	return res
}
