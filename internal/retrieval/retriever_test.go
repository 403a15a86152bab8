package retrieval

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"venue-recommender/internal/catalog"
	"venue-recommender/internal/embedding"
	"venue-recommender/internal/index"
)

func doc(eventID, venueID, city string, capacity int) index.Document {
	rec := catalog.EventRecord{EventID: eventID, VenueID: venueID, AttendeeCount: 100, EventName: "Summit " + eventID}
	venue := &catalog.VenueProfile{VenueID: venueID, Name: "Venue " + venueID, City: city, MaxCapacity: capacity}
	return index.BuildDocument(rec, nil, venue, nil, time.Unix(0, 0))
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	hits := []index.Hit{
		{Document: doc("e1", "vA", "Boston", 300), Score: 0.9},
		{Document: doc("e2", "vB", "Boston", 300), Score: 0.8},
		{Document: doc("e3", "vA", "Boston", 300), Score: 0.7},
		{Document: doc("e4", "vC", "Boston", 300), Score: 0.6},
	}
	got := Dedupe(hits)
	var venues, events []string
	for _, c := range got {
		venues = append(venues, c.VenueID())
		events = append(events, c.Document.ID)
	}
	if !reflect.DeepEqual(venues, []string{"vA", "vB", "vC"}) {
		t.Fatalf("unexpected venues %v", venues)
	}
	if !reflect.DeepEqual(events, []string{"e1", "e2", "e4"}) {
		t.Fatalf("expected first occurrence kept, got %v", events)
	}
	if got[2].Rank != 3 {
		t.Fatalf("expected rank 3, got %d", got[2].Rank)
	}

	again := Dedupe(hits)
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("dedupe is not idempotent")
	}
}

func seededIndex(t *testing.T, emb embedding.Embedder, docs ...index.Document) *index.Memory {
	t.Helper()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := emb.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i := range docs {
		docs[i].Embedding = vecs[i]
	}
	mem := index.NewMemory(0)
	if _, err := mem.Upsert(context.Background(), docs); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	return mem
}

func TestRetrieveAppliesCapacityWindow(t *testing.T) {
	emb := embedding.Hashing{Dim: 64}
	mem := seededIndex(t, emb,
		doc("e1", "v500", "Boston", 500),
		doc("e2", "v300", "Boston", 300),
		doc("e3", "v150", "Boston", 150),
		doc("e4", "v300", "Boston", 300),
	)
	r := &Retriever{Embedder: emb, Index: mem}
	q, f := BuildQuery(catalog.EventRequest{EventID: "EVT-2026-028", AttendeeCount: 280})

	got, err := r.Retrieve(context.Background(), q, f, 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].VenueID() != "v300" {
		t.Fatalf("expected only v300, got %+v", got)
	}
}

func TestRetrieveEmptyIsNotError(t *testing.T) {
	emb := embedding.Hashing{Dim: 16}
	mem := seededIndex(t, emb, doc("e1", "v1", "Denver", 300))
	r := &Retriever{Embedder: emb, Index: mem, K: 5}
	got, err := r.Retrieve(context.Background(), "anything", index.Filter{Cities: []string{"Boston"}}, 0)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
}

func TestRetrievePropagatesMissingCollection(t *testing.T) {
	r := &Retriever{Embedder: embedding.Hashing{Dim: 8}, Index: index.NewMemory(8)}
	if _, err := r.Retrieve(context.Background(), "q", index.Filter{}, 0); !errors.Is(err, index.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestCloneCandidatesIsIndependent(t *testing.T) {
	in := Dedupe([]index.Hit{{Document: doc("e1", "v1", "Boston", 300)}})
	out := CloneCandidates(in)
	out[0].Document.Metadata.Venue.Name = "changed"
	if in[0].Document.Metadata.Venue.Name == "changed" {
		t.Fatalf("clone shares venue profile with source")
	}
}
