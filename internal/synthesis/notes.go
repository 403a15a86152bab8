package synthesis

import (
	"fmt"
	"strings"

	"venue-recommender/internal/analysis"
	"venue-recommender/internal/catalog"
)

// notes turns one kind-specific assessment into strengths and considerations.
func notes(detail any, req catalog.EventRequest) ([]string, []string) {
	var strengths, considerations []string
	add := func(cond bool, yes, no string) {
		if cond {
			if yes != "" {
				strengths = append(strengths, yes)
			}
			return
		}
		if no != "" {
			considerations = append(considerations, no)
		}
	}

	var verdict analysis.Verdict
	switch d := detail.(type) {
	case analysis.CapacityAssessment:
		verdict = d.Recommendation
		add(d.CapacitySuitable,
			fmt.Sprintf("Capacity suits %d attendees", req.AttendeeCount),
			fmt.Sprintf("Capacity may not suit %d attendees", req.AttendeeCount))
		add(d.MeetingRoomsSufficient, "Enough meeting rooms for breakouts", "Meeting rooms may be insufficient")
		if d.CapacityUtilization > 0.95 {
			considerations = append(considerations, fmt.Sprintf("Venue would run at %.0f%% of capacity", d.CapacityUtilization*100))
		}
	case analysis.AmenityAssessment:
		verdict = d.Recommendation
		add(d.RequiredAmenitiesMatch, "Meets all required amenities", "")
		if len(d.MissingAmenities) > 0 {
			considerations = append(considerations, "Missing amenities: "+strings.Join(d.MissingAmenities, ", "))
		}
	case analysis.LocationAssessment:
		verdict = d.Recommendation
		add(d.LocationMatch, "Matches the preferred location", "Outside the preferred location")
		if d.AccessibilityScore >= 0.8 {
			strengths = append(strengths, "Highly accessible")
		}
		if d.NearbyAccommodations > 0 {
			strengths = append(strengths, fmt.Sprintf("%d hotels nearby", d.NearbyAccommodations))
		}
	case analysis.CostAssessment:
		verdict = d.Recommendation
		add(d.BudgetMet, "Fits within budget", "May exceed budget")
		if len(d.HiddenCosts) > 0 {
			considerations = append(considerations, "Possible extra costs: "+strings.Join(d.HiddenCosts, ", "))
		}
	default:
		return nil, nil
	}

	if p := strings.TrimSpace(verdict.Pros); p != "" {
		strengths = append(strengths, p)
	}
	if c := strings.TrimSpace(verdict.Cons); c != "" {
		considerations = append(considerations, c)
	}
	return strengths, considerations
}
