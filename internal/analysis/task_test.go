package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"venue-recommender/internal/catalog"
	"venue-recommender/internal/index"
	"venue-recommender/internal/llm"
	"venue-recommender/internal/retrieval"
)

func candidates(ids ...string) []retrieval.Candidate {
	var hits []index.Hit
	for i, id := range ids {
		rec := catalog.EventRecord{EventID: "EVT-" + id, VenueID: id, AttendeeCount: 250, Outcome: "success"}
		venue := &catalog.VenueProfile{VenueID: id, Name: "Venue " + id, City: "Boston", MaxCapacity: 300 + i, MeetingRooms: 8, DailyRate: 10000, SetupFee: 500}
		hits = append(hits, index.Hit{Document: index.BuildDocument(rec, nil, venue, nil, time.Unix(0, 0))})
	}
	return retrieval.Dedupe(hits)
}

func input(ids ...string) Input {
	return Input{
		Request: catalog.EventRequest{
			EventID:             "EVT-2026-028",
			AttendeeCount:       280,
			DurationDays:        2,
			Budget:              60000,
			SpecialRequirements: []string{"4 breakout rooms"},
			RequiredAmenities:   []string{"wifi"},
		},
		Candidates: candidates(ids...),
	}
}

func staticClient(out string, err error) llm.Client {
	return llm.ClientFunc(func(ctx context.Context, p llm.Prompt) (string, error) {
		return out, err
	})
}

const capacityJSON = `{"capacity_analysis":[
 {"venue_id":"V1","venue_name":"Venue V1","score":82,"analysis":"fits","capacity_suitable":true,"capacity_utilization":0.93,"meeting_rooms_sufficient":true,"space_adequacy":"good","recommendation":{"recommend":true,"pros":"right size","cons":""}},
 {"venue_id":"GHOST","venue_name":"Invented","score":99,"analysis":"","recommendation":{"recommend":true}}
]}`

func TestRunSuccessDropsUnknownVenues(t *testing.T) {
	task, err := NewTask(KindCapacity, staticClient("```json\n"+capacityJSON+"\n```", nil), nil)
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	out := task.Run(context.Background(), input("V1", "V2"))
	if !out.OK() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	report, ok := out.Payload.(CapacityReport)
	if !ok {
		t.Fatalf("expected CapacityReport, got %T", out.Payload)
	}
	if len(report.Venues) != 1 || report.Venues[0].VenueID != "V1" || report.Venues[0].CapacityUtilization != 0.93 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, ok := out.Payload.Venue("GHOST"); ok {
		t.Fatalf("expected hallucinated venue to be dropped")
	}
}

func TestRunSchemaViolationIsFailure(t *testing.T) {
	tests := map[string]string{
		"not json":        "I cannot help with that",
		"score too high":  `{"capacity_analysis":[{"venue_id":"V1","score":140}]}`,
		"missing id":      `{"capacity_analysis":[{"venue_name":"x","score":50}]}`,
		"empty list":      `{"capacity_analysis":[]}`,
		"wrong kind key":  `{"cost_analysis":[{"venue_id":"V1","score":50}]}`,
		"only unknown id": `{"capacity_analysis":[{"venue_id":"V9","score":50}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			task, _ := NewTask(KindCapacity, staticClient(raw, nil), nil)
			out := task.Run(context.Background(), input("V1"))
			if out.OK() {
				t.Fatalf("expected failure for %q", raw)
			}
			if !errors.Is(out.Err, ErrSchemaViolation) || !errors.Is(out.Err, ErrTaskFailure) {
				t.Fatalf("expected schema violation task failure, got %v", out.Err)
			}
			if out.Kind != KindCapacity {
				t.Fatalf("unexpected kind %s", out.Kind)
			}
		})
	}
}

func TestRunClientErrorIsFailure(t *testing.T) {
	task, _ := NewTask(KindCost, staticClient("", context.DeadlineExceeded), nil)
	out := task.Run(context.Background(), input("V1"))
	if out.OK() || !errors.Is(out.Err, context.DeadlineExceeded) || !errors.Is(out.Err, ErrTaskFailure) {
		t.Fatalf("expected wrapped deadline failure, got %+v", out)
	}
}

func TestPromptHasOneBlockPerVenueAndFiveEvents(t *testing.T) {
	task, _ := NewTask(KindCost, staticClient("", nil), nil)
	p := task.Prompt(input("V1", "V2", "V3", "V4", "V5", "V6", "V7"))
	if !p.JSON || p.Name != "cost" {
		t.Fatalf("unexpected prompt meta %+v", p)
	}
	if got := strings.Count(p.User, "[Venue "); got != 7 {
		t.Fatalf("expected 7 venue blocks, got %d", got)
	}
	if got := strings.Count(p.User, "Similar Event "); got != 5 {
		t.Fatalf("expected 5 similar events, got %d", got)
	}
	for _, want := range []string{"Event Budget: $60000", "Daily Rate: $10000", `"cost_analysis"`} {
		if !strings.Contains(p.User, want) {
			t.Fatalf("expected %q in prompt", want)
		}
	}
}

func TestPromptRespectsTokenBudget(t *testing.T) {
	budget := llm.NewTokenBudget("unknown-model", 1)
	task, _ := NewTask(KindCapacity, staticClient("", nil), budget)
	p := task.Prompt(input("V1", "V2", "V3"))
	if got := strings.Count(p.User, "Similar Event "); got != 1 {
		t.Fatalf("expected budget to keep only the first similar event, got %d", got)
	}
	if !strings.Contains(p.User, "Breakout Room Requirements: 4 breakout rooms") {
		t.Fatalf("expected breakout requirements in capacity prompt")
	}
}

func TestDefaultTasksCoverEveryKind(t *testing.T) {
	tasks := DefaultTasks(llm.PlaceholderClient{}, nil)
	if len(tasks) != len(Kinds) {
		t.Fatalf("expected %d tasks, got %d", len(Kinds), len(tasks))
	}
	for i, k := range Kinds {
		if tasks[i].Kind() != k {
			t.Fatalf("task %d: expected %s, got %s", i, k, tasks[i].Kind())
		}
	}
}

func TestDecodeEachKind(t *testing.T) {
	ids := map[string]struct{}{"V1": {}}
	raws := map[Kind]string{
		KindAmenity:  `{"amenity_analysis":[{"venue_id":"V1","score":70,"required_amenities_match":false,"missing_amenities":["valet"],"recommendation":{"recommend":true}}]}`,
		KindLocation: `{"location_analysis":[{"venue_id":"V1","score":90,"location_match":true,"accessibility_score":0.8,"nearby_accommodations":12,"recommendation":{"recommend":true}}]}`,
		KindCost:     `{"cost_analysis":[{"venue_id":"V1","score":60,"budget_met":true,"estimated_total_cost":58000,"cost_breakdown":{"venue_rental":20000},"recommendation":{"recommend":true}}]}`,
	}
	for k, raw := range raws {
		p, err := Decode(k, raw, ids)
		if err != nil {
			t.Fatalf("%s: %v", k, err)
		}
		if p.Kind() != k || len(p.Assessments()) != 1 {
			t.Fatalf("%s: unexpected payload %+v", k, p)
		}
	}
	if _, err := Decode(KindLocation, `{"location_analysis":[{"venue_id":"V1","score":90,"accessibility_score":3}]}`, ids); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected accessibility_score range violation, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("amenity"); err != nil || k != KindAmenity {
		t.Fatalf("ParseKind(amenity) = %v, %v", k, err)
	}
	if _, err := ParseKind("weather"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
