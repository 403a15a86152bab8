package retrieval

import (
	"fmt"
	"math"
	"strings"

	"venue-recommender/internal/catalog"
	"venue-recommender/internal/index"
)

const minCapacityTolerance = 50

// CapacityRange returns the inclusive venue capacity window for n attendees:
// n ± max(0.2n, 50), rounded, with the lower bound clamped to 1.
func CapacityRange(n int) index.Range {
	tol := math.Max(0.2*float64(n), minCapacityTolerance)
	lower := int(math.Round(float64(n) - tol))
	if lower < 1 {
		lower = 1
	}
	return index.Range{Min: lower, Max: int(math.Round(float64(n) + tol))}
}

// CityToken strips a trailing ", <region>" from a location string.
func CityToken(location string) string {
	if i := strings.Index(location, ","); i >= 0 {
		location = location[:i]
	}
	return strings.TrimSpace(location)
}

// BuildQuery derives the similarity query text and hard filters for req.
// It is pure: equal requests yield identical output.
func BuildQuery(req catalog.EventRequest) (string, index.Filter) {
	capacity := CapacityRange(req.AttendeeCount)
	f := index.Filter{Capacity: &capacity}
	for _, loc := range req.LocationRequirements.Cities {
		if tok := CityToken(loc); tok != "" {
			f.Cities = append(f.Cities, tok)
		}
	}
	return QueryText(req), f
}

// QueryText renders the request the same way documents are rendered for
// embedding so both land in the same space.
func QueryText(req catalog.EventRequest) string {
	var b strings.Builder
	line := func(label string, value any) {
		fmt.Fprintf(&b, "%s: %v\n", label, value)
	}
	line("Event ID", req.EventID)
	line("Event Name", req.EventName)
	line("Event Type", req.EventType)
	line("Attendee Count", req.AttendeeCount)
	line("Client Name", req.ClientName)
	line("Location", req.LocationPreference)
	line("Location Requirements", strings.Join(req.LocationRequirements.Cities, ", "))
	line("Key Requirements", strings.Join(req.KeyRequirements, ", "))
	line("Required Amenities", strings.Join(req.RequiredAmenities, ", "))
	line("Preferred Amenities", strings.Join(req.PreferredAmenities, ", "))
	line("Event Style", req.EventStyle)
	line("Special Requirements", strings.Join(req.SpecialRequirements, ", "))
	line("Client Preferences", strings.Join(req.ClientPreferences, ", "))
	return b.String()
}
