package recommend

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"venue-recommender/internal/analysis"
	"venue-recommender/internal/catalog"
	"venue-recommender/internal/embedding"
	"venue-recommender/internal/index"
	"venue-recommender/internal/llm"
	"venue-recommender/internal/orchestrator"
	"venue-recommender/internal/retrieval"
	"venue-recommender/internal/synthesis"
)

const testDim = 64

type venueFixture struct {
	id       string
	city     string
	capacity int
	events   int
}

var fixtureVenues = []venueFixture{
	{id: "V300", city: "Boston", capacity: 300, events: 1},
	{id: "V310", city: "Boston", capacity: 310, events: 2},
	{id: "V500", city: "Boston", capacity: 500, events: 1},
	{id: "V150", city: "Chicago", capacity: 150, events: 1},
	{id: "VNY", city: "New York", capacity: 300, events: 1},
}

func seedIndex(t *testing.T, idx index.Index) {
	t.Helper()
	emb := embedding.Hashing{Dim: testDim}
	var docs []index.Document
	for _, v := range fixtureVenues {
		venue := &catalog.VenueProfile{VenueID: v.id, Name: "Venue " + v.id, City: v.city, MaxCapacity: v.capacity, DailyRate: 4000, SetupFee: 500}
		for i := 0; i < v.events; i++ {
			rec := catalog.EventRecord{
				EventID:       fmt.Sprintf("EVT-%s-%d", v.id, i),
				EventName:     "Annual summit",
				VenueID:       v.id,
				City:          v.city,
				AttendeeCount: 280,
			}
			vecs, err := emb.Embed(context.Background(), []string{index.EmbeddingText(rec)})
			if err != nil {
				t.Fatalf("embed: %v", err)
			}
			docs = append(docs, index.BuildDocument(rec, nil, venue, vecs[0], time.Unix(0, 0)))
		}
	}
	if _, err := idx.Upsert(context.Background(), docs); err != nil {
		t.Fatalf("upsert: %v", err)
	}
}

func seedCatalog(t *testing.T) *catalog.MemoryRepo {
	t.Helper()
	repo := catalog.NewMemoryRepo()
	reqs := []catalog.EventRequest{
		{
			EventID:              "EVT-2026-028",
			EventName:            "Annual summit",
			AttendeeCount:        280,
			DurationDays:         2,
			LocationRequirements: catalog.LocationRequirements{Cities: []string{"Boston, MA"}},
		},
		{EventID: "EVT-HUGE", AttendeeCount: 5000},
	}
	for _, r := range reqs {
		if err := repo.UpsertRequest(context.Background(), r); err != nil {
			t.Fatalf("seed request: %v", err)
		}
	}
	return repo
}

// scriptedLLM answers every kind with fixed scores and counts calls. Kinds in
// fail always error.
type scriptedLLM struct {
	calls  atomic.Int32
	scores map[string]float64
	fail   map[string]bool
}

func (s *scriptedLLM) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	s.calls.Add(1)
	if s.fail[p.Name] {
		return "", fmt.Errorf("upstream 503 for %s", p.Name)
	}
	items := make([]string, 0, len(s.scores))
	for _, id := range []string{"V300", "V310", "V500", "GHOST"} {
		score, ok := s.scores[id]
		if !ok {
			continue
		}
		items = append(items, fmt.Sprintf(`{"venue_id":%q,"venue_name":"Venue %s","score":%v,"analysis":"fits","recommendation":{"recommend":true,"pros":"%s works","cons":""}}`, id, id, score, p.Name))
	}
	return fmt.Sprintf(`{"%s_analysis":[%s]}`, p.Name, strings.Join(items, ",")), nil
}

func newTestService(t *testing.T, client llm.Client, idx index.Index, runs RunRepo) *Service {
	t.Helper()
	if idx == nil {
		mem := index.NewMemory(testDim)
		seedIndex(t, mem)
		idx = mem
	}
	orch := orchestrator.New(analysis.DefaultTasks(client, nil), orchestrator.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Timeout:      5 * time.Second,
	})
	return &Service{
		Catalog:     seedCatalog(t),
		Retriever:   &retrieval.Retriever{Embedder: embedding.Hashing{Dim: testDim}, Index: idx},
		Analyzer:    orch,
		Synthesizer: synthesis.New(nil),
		Runs:        runs,
	}
}

func defaultLLM() *scriptedLLM {
	return &scriptedLLM{scores: map[string]float64{"V300": 90, "V310": 70, "V500": 60, "GHOST": 100}}
}
