package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"venue-recommender/internal/analysis"
	"venue-recommender/internal/catalog"
	"venue-recommender/internal/index"
	"venue-recommender/internal/retrieval"
)

type scriptedTask struct {
	kind     analysis.Kind
	failures int
	calls    atomic.Int32
	run      func(ctx context.Context, in analysis.Input) analysis.Outcome

	mu    sync.Mutex
	times []time.Time
}

func (t *scriptedTask) Kind() analysis.Kind { return t.kind }

func (t *scriptedTask) Run(ctx context.Context, in analysis.Input) analysis.Outcome {
	n := int(t.calls.Add(1))
	t.mu.Lock()
	t.times = append(t.times, time.Now())
	t.mu.Unlock()
	if t.run != nil {
		return t.run(ctx, in)
	}
	if n <= t.failures {
		return analysis.Failure(t.kind, errors.New("model timeout"), n)
	}
	return analysis.Success(payloadFor(t.kind))
}

func payloadFor(k analysis.Kind) analysis.Payload {
	base := analysis.Assessment{VenueID: "V1", Score: 80}
	switch k {
	case analysis.KindCapacity:
		return analysis.CapacityReport{Venues: []analysis.CapacityAssessment{{Assessment: base}}}
	case analysis.KindAmenity:
		return analysis.AmenityReport{Venues: []analysis.AmenityAssessment{{Assessment: base}}}
	case analysis.KindLocation:
		return analysis.LocationReport{Venues: []analysis.LocationAssessment{{Assessment: base}}}
	default:
		return analysis.CostReport{Venues: []analysis.CostAssessment{{Assessment: base}}}
	}
}

func testInput() analysis.Input {
	rec := catalog.EventRecord{EventID: "E1", VenueID: "V1", AttendeeCount: 280}
	venue := &catalog.VenueProfile{VenueID: "V1", Name: "Harbor Hall", MaxCapacity: 300}
	doc := index.BuildDocument(rec, nil, venue, []float32{1, 0}, time.Unix(0, 0))
	return analysis.Input{
		Request:    catalog.EventRequest{EventID: "EVT-2026-028", AttendeeCount: 280},
		Candidates: retrieval.Dedupe([]index.Hit{{Document: doc}}),
	}
}

func fastConfig() Config {
	return Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Timeout: 5 * time.Second}
}

func tasksWithFailures(failures map[analysis.Kind]int) ([]analysis.Task, map[analysis.Kind]*scriptedTask) {
	var tasks []analysis.Task
	byKind := make(map[analysis.Kind]*scriptedTask)
	for _, k := range analysis.Kinds {
		st := &scriptedTask{kind: k, failures: failures[k]}
		tasks = append(tasks, st)
		byKind[k] = st
	}
	return tasks, byKind
}

func TestRunAllSucceed(t *testing.T) {
	tasks, _ := tasksWithFailures(nil)
	res, err := New(tasks, fastConfig()).Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Analyses) != 4 {
		t.Fatalf("expected 4 analyses, got %d", len(res.Analyses))
	}
	for _, s := range res.Slots {
		if s.State != StateSucceeded || s.Attempts != 1 {
			t.Fatalf("unexpected slot %+v", s)
		}
	}
}

func TestRunRetriesUntilSuccessOrAbandon(t *testing.T) {
	tasks, byKind := tasksWithFailures(map[analysis.Kind]int{
		analysis.KindCapacity: 2,
		analysis.KindCost:     3,
	})
	res, err := New(tasks, fastConfig()).Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, ok := res.Analyses[analysis.KindCapacity]; !ok {
		t.Fatalf("expected capacity to succeed on the third attempt")
	}
	if got := byKind[analysis.KindCapacity].calls.Load(); got != 3 {
		t.Fatalf("expected 3 capacity attempts, got %d", got)
	}

	if _, ok := res.Analyses[analysis.KindCost]; ok {
		t.Fatalf("expected abandoned cost slot to be excluded")
	}
	if got := byKind[analysis.KindCost].calls.Load(); got != 3 {
		t.Fatalf("expected exactly 3 cost attempts, got %d", got)
	}
	if p, presence := res.Lookup(analysis.KindCost); p != nil || presence != PresenceAbandoned {
		t.Fatalf("expected abandoned marker, got %v %v", p, presence)
	}
	if got := byKind[analysis.KindAmenity].calls.Load(); got != 1 {
		t.Fatalf("expected siblings to run once, got %d", got)
	}
	for _, s := range res.Slots {
		if !s.State.Terminal() {
			t.Fatalf("slot %s not terminal: %s", s.Kind, s.State)
		}
		if s.Attempts > 3 {
			t.Fatalf("slot %s exceeded the attempt ceiling: %d", s.Kind, s.Attempts)
		}
		if s.Kind == analysis.KindCost && s.Error == "" {
			t.Fatalf("expected abandoned slot to report its error")
		}
	}
}

func TestRunAllAbandoned(t *testing.T) {
	tasks, _ := tasksWithFailures(map[analysis.Kind]int{
		analysis.KindCapacity: 3,
		analysis.KindAmenity:  3,
		analysis.KindLocation: 3,
		analysis.KindCost:     3,
	})
	res, err := New(tasks, fastConfig()).Run(context.Background(), testInput())
	if !errors.Is(err, ErrAllTasksAbandoned) {
		t.Fatalf("expected ErrAllTasksAbandoned, got %v", err)
	}
	if len(res.Analyses) != 0 || len(res.Slots) != 4 {
		t.Fatalf("expected empty analyses with 4 slot reports, got %d/%d", len(res.Analyses), len(res.Slots))
	}
}

func TestRunNoTasksIsAllAbandoned(t *testing.T) {
	if _, err := New(nil, fastConfig()).Run(context.Background(), testInput()); !errors.Is(err, ErrAllTasksAbandoned) {
		t.Fatalf("expected ErrAllTasksAbandoned, got %v", err)
	}
}

func TestRunFansOutConcurrently(t *testing.T) {
	var started atomic.Int32
	all := make(chan struct{})
	barrier := func(ctx context.Context, in analysis.Input) analysis.Outcome {
		if started.Add(1) == int32(len(analysis.Kinds)) {
			close(all)
		}
		select {
		case <-all:
			return analysis.Success(payloadFor(analysis.KindCapacity))
		case <-ctx.Done():
			return analysis.Failure(analysis.KindCapacity, ctx.Err(), 1)
		}
	}
	var tasks []analysis.Task
	for _, k := range analysis.Kinds {
		tasks = append(tasks, &scriptedTask{kind: k, run: func(ctx context.Context, in analysis.Input) analysis.Outcome {
			out := barrier(ctx, in)
			if out.OK() {
				return analysis.Success(payloadFor(k))
			}
			return out
		}})
	}
	cfg := fastConfig()
	cfg.Timeout = 2 * time.Second
	res, err := New(tasks, cfg).Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Analyses) != 4 {
		t.Fatalf("expected all tasks to meet at the barrier, got %d", len(res.Analyses))
	}
}

func TestRunTimeoutAbandonsRunningSlots(t *testing.T) {
	tasks, byKind := tasksWithFailures(nil)
	byKind[analysis.KindLocation].run = func(ctx context.Context, in analysis.Input) analysis.Outcome {
		<-ctx.Done()
		return analysis.Failure(analysis.KindLocation, ctx.Err(), 1)
	}
	byKind[analysis.KindAmenity].run = func(ctx context.Context, in analysis.Input) analysis.Outcome {
		time.Sleep(2 * time.Second) // ignores cancellation
		return analysis.Success(payloadFor(analysis.KindAmenity))
	}
	cfg := fastConfig()
	cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	res, err := New(tasks, cfg).Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected fan-in shortly after the timeout, took %s", elapsed)
	}
	for _, k := range []analysis.Kind{analysis.KindLocation, analysis.KindAmenity} {
		if _, presence := res.Lookup(k); presence != PresenceAbandoned {
			t.Fatalf("expected %s abandoned, got %s", k, presence)
		}
	}
	if _, ok := res.Analyses[analysis.KindCapacity]; !ok {
		t.Fatalf("expected fast slot to survive the timeout")
	}
}

func TestRunRecoversPanics(t *testing.T) {
	tasks, byKind := tasksWithFailures(nil)
	byKind[analysis.KindCost].run = func(ctx context.Context, in analysis.Input) analysis.Outcome {
		panic("boom")
	}
	res, err := New(tasks, fastConfig()).Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, presence := res.Lookup(analysis.KindCost); presence != PresenceAbandoned {
		t.Fatalf("expected panicking slot abandoned, got %s", presence)
	}
	if got := byKind[analysis.KindCost].calls.Load(); got != 3 {
		t.Fatalf("expected panics to be retried, got %d calls", got)
	}
}

func TestRunBacksOffBetweenAttempts(t *testing.T) {
	tasks, byKind := tasksWithFailures(map[analysis.Kind]int{analysis.KindCapacity: 3})
	cfg := fastConfig()
	cfg.InitialDelay = 20 * time.Millisecond
	cfg.MaxDelay = 200 * time.Millisecond
	if _, err := New(tasks, cfg).Run(context.Background(), testInput()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := byKind[analysis.KindCapacity]
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.times) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(st.times))
	}
	for i := 1; i < len(st.times); i++ {
		if gap := st.times[i].Sub(st.times[i-1]); gap < 15*time.Millisecond {
			t.Fatalf("expected backoff between attempts, gap %d was %s", i, gap)
		}
	}
}

func TestRunGivesEachSlotItsOwnCandidates(t *testing.T) {
	in := testInput()
	tasks, byKind := tasksWithFailures(nil)
	byKind[analysis.KindAmenity].run = func(ctx context.Context, in analysis.Input) analysis.Outcome {
		in.Candidates[0].Document.Metadata.Venue.Name = "mutated"
		in.Candidates[0].Rank = 99
		return analysis.Success(payloadFor(analysis.KindAmenity))
	}
	if _, err := New(tasks, fastConfig()).Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if in.Candidates[0].Document.Metadata.Venue.Name != "Harbor Hall" || in.Candidates[0].Rank != 1 {
		t.Fatalf("caller candidates were mutated by a task")
	}
}

func TestLookupNotScheduled(t *testing.T) {
	st := &scriptedTask{kind: analysis.KindCapacity}
	res, err := New([]analysis.Task{st}, fastConfig()).Run(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, presence := res.Lookup(analysis.KindCost); presence != PresenceNotScheduled {
		t.Fatalf("expected not_scheduled, got %s", presence)
	}
	if p, presence := res.Lookup(analysis.KindCapacity); p == nil || presence != PresenceSucceeded {
		t.Fatalf("expected capacity succeeded, got %v %s", p, presence)
	}
}

func TestDefaultsApplied(t *testing.T) {
	o := New(nil, Config{})
	if o.cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", o.cfg)
	}
}
