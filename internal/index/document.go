package index

import (
	"fmt"
	"math"
	"strings"
	"time"

	"venue-recommender/internal/catalog"
)

// EventMetadata is the event branch of the metadata tree. Absent values are
// omitted when serialized.
type EventMetadata struct {
	catalog.EventRecord
	IndexedAt time.Time `json:"indexed_at"`
}

// Metadata mirrors {event, client, venue}. Client and Venue are nil when the
// reference entity could not be joined.
type Metadata struct {
	Event  EventMetadata          `json:"event"`
	Client *catalog.ClientProfile `json:"client"`
	Venue  *catalog.VenueProfile  `json:"venue"`
}

// Document is an indexed event record. Documents are keyed by event id.
type Document struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
	Metadata  Metadata  `json:"metadata"`
}

// Hit is a document returned by a query with its similarity score.
type Hit struct {
	Document Document
	Score    float32
}

// VenueID returns the venue the event took place at.
func (d Document) VenueID() string {
	if d.Metadata.Venue != nil && d.Metadata.Venue.VenueID != "" {
		return d.Metadata.Venue.VenueID
	}
	return d.Metadata.Event.VenueID
}

// VenueCity returns the joined venue city, or "" when the venue is unknown.
func (d Document) VenueCity() string {
	if d.Metadata.Venue == nil {
		return ""
	}
	return d.Metadata.Venue.City
}

// VenueMaxCapacity returns the joined venue capacity, or 0 when the venue is unknown.
func (d Document) VenueMaxCapacity() int {
	if d.Metadata.Venue == nil {
		return 0
	}
	return d.Metadata.Venue.MaxCapacity
}

// Validate reports why a document cannot be written.
func (d Document) Validate(dim int) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedDocument)
	}
	if strings.TrimSpace(d.VenueID()) == "" {
		return fmt.Errorf("%w: %s has no venue id", ErrMalformedDocument, d.ID)
	}
	if len(d.Embedding) == 0 {
		return fmt.Errorf("%w: %s has no embedding", ErrMalformedDocument, d.ID)
	}
	if dim > 0 && len(d.Embedding) != dim {
		return fmt.Errorf("%w: %s embedding has %d dimensions, want %d", ErrMalformedDocument, d.ID, len(d.Embedding), dim)
	}
	for _, v := range d.Embedding {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: %s embedding is not finite", ErrMalformedDocument, d.ID)
		}
	}
	return nil
}

// BuildDocument joins an event record with its reference entities.
func BuildDocument(rec catalog.EventRecord, client *catalog.ClientProfile, venue *catalog.VenueProfile, embedding []float32, now time.Time) Document {
	return Document{
		ID:        rec.EventID,
		Text:      EmbeddingText(rec),
		Embedding: embedding,
		Metadata: Metadata{
			Event:  EventMetadata{EventRecord: rec, IndexedAt: now.UTC()},
			Client: client,
			Venue:  venue,
		},
	}
}

// EmbeddingText renders the narrative that is embedded for similarity search.
func EmbeddingText(rec catalog.EventRecord) string {
	var b strings.Builder
	line := func(label string, value any) {
		fmt.Fprintf(&b, "%s: %v\n", label, value)
	}
	line("Event ID", rec.EventID)
	line("Event Name", rec.EventName)
	line("Event Type", rec.EventType)
	line("Attendee Count", rec.AttendeeCount)
	line("Client Name", rec.ClientName)
	line("Venue ID", rec.VenueID)
	line("Venue Name", rec.VenueName)
	line("Venue City", rec.City)
	line("Key Requirements", strings.Join(rec.KeyRequirements, ", "))
	line("Requirements Met", valueOrEmpty(rec.RequirementsMet))
	line("Success Factors", strings.Join(rec.SuccessFactors, ", "))
	line("Challenges", strings.Join(rec.Challenges, ", "))
	line("Positive Feedback", strings.Join(rec.PositiveFeedback, "; "))
	line("Negative Feedback", strings.Join(rec.NegativeFeedback, "; "))
	line("Notes", rec.Notes)
	line("Outcome", rec.Outcome)
	return b.String()
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
