package analysis

import (
	"fmt"
	"strings"

	"venue-recommender/internal/catalog"
	"venue-recommender/internal/retrieval"
)

type template struct {
	system       string
	venueHeading string
	shape        string
	request      func(catalog.EventRequest) string
	venue        func(retrieval.Candidate) string
}

const sharedRules = `
Score every venue from 0 to 100; higher means a better fit for this event.
Use the similar events as evidence and be specific.
Copy venue_id and venue_name exactly as given. Return one entry per venue.
Respond with JSON only. Numbers must not contain commas or currency symbols.`

var templates = map[Kind]template{
	KindCapacity: {
		system: `You are a capacity and space analyst for event venue recommendations.
Judge how well each venue's capacity and room layout fits the event: attendee count against
maximum capacity (70-90% utilization is usually ideal), meeting rooms for breakout sessions, and
space for registration and networking. Flag venues that are too small or far too large.` + sharedRules,
		venueHeading: "Capacity & Space",
		shape: `{"capacity_analysis":[{"venue_id":"","venue_name":"","score":0,"analysis":"",` +
			`"capacity_suitable":true,"capacity_utilization":0.0,"meeting_rooms_sufficient":true,` +
			`"space_adequacy":"excellent|good|adequate|tight|insufficient",` +
			`"recommendation":{"recommend":true,"pros":"","cons":""}}]}`,
		request: capacityRequest,
		venue:   capacityVenue,
	},
	KindAmenity: {
		system: `You are an amenity matching analyst for event venue recommendations.
Check each venue's amenities against the event's required amenities (must-have), preferred
amenities (nice-to-have) and special requirements such as catering, dietary needs or
accessibility. List what is missing.` + sharedRules,
		venueHeading: "Amenities",
		shape: `{"amenity_analysis":[{"venue_id":"","venue_name":"","score":0,"analysis":"",` +
			`"required_amenities_match":true,"missing_amenities":[],"available_amenities":[],` +
			`"special_requirements_status":"met|partially_met|not_met",` +
			`"recommendation":{"recommend":true,"pros":"","cons":""}}]}`,
		request: amenityRequest,
		venue:   amenityVenue,
	},
	KindLocation: {
		system: `You are a location analyst for event venue recommendations.
Judge each venue's location against the event's preferred cities and regions, airport distance
limit, public transit access and nearby hotels for attendees.` + sharedRules + `
accessibility_score is between 0 and 1.`,
		venueHeading: "Location",
		shape: `{"location_analysis":[{"venue_id":"","venue_name":"","score":0,"analysis":"",` +
			`"location_match":true,"region_match":true,"accessibility_score":0.0,"nearby_accommodations":0,` +
			`"recommendation":{"recommend":true,"pros":"","cons":""}}]}`,
		request: locationRequest,
		venue:   locationVenue,
	},
	KindCost: {
		system: `You are a cost analyst for event venue recommendations.
Estimate the total cost of the event at each venue from daily rates, setup fees and likely
catering and AV costs over the event duration. Compare it to the budget and its flexibility,
assess value, and list hidden costs such as parking or cancellation terms.` + sharedRules,
		venueHeading: "Pricing",
		shape: `{"cost_analysis":[{"venue_id":"","venue_name":"","score":0,"analysis":"",` +
			`"budget_met":true,"estimated_total_cost":0,"cost_breakdown":{"venue_rental":0},` +
			`"value_assessment":"excellent|good|fair|poor","hidden_costs":[],` +
			`"recommendation":{"recommend":true,"pros":"","cons":""}}]}`,
		request: costRequest,
		venue:   costVenue,
	},
}

type lines []string

func (l *lines) add(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

func (l *lines) list(label string, items []string) {
	if len(items) > 0 {
		l.add("%s: %s", label, strings.Join(items, ", "))
	}
}

func (l lines) String() string { return strings.Join(l, "\n") }

func orNone(items []string) string {
	if len(items) == 0 {
		return "None specified"
	}
	return strings.Join(items, ", ")
}

func venueOf(c retrieval.Candidate) catalog.VenueProfile {
	if v := c.Document.Metadata.Venue; v != nil {
		return *v
	}
	ev := c.Document.Metadata.Event
	return catalog.VenueProfile{VenueID: ev.VenueID, Name: ev.VenueName, City: ev.City}
}

func header(l *lines, v catalog.VenueProfile) {
	l.add("Venue ID: %s", v.VenueID)
	name := v.Name
	if name == "" {
		name = "Unknown"
	}
	l.add("Venue: %s", name)
}

func capacityRequest(r catalog.EventRequest) string {
	var l lines
	l.add("Event Type: %s", r.EventType)
	l.add("Attendee Count: %d", r.AttendeeCount)
	l.add("Duration: %d days", r.DurationDays)
	l.list("Special Requirements", r.SpecialRequirements)
	var breakout []string
	for _, s := range r.SpecialRequirements {
		if strings.Contains(strings.ToLower(s), "breakout") {
			breakout = append(breakout, s)
		}
	}
	l.list("Breakout Room Requirements", breakout)
	return l.String()
}

func capacityVenue(c retrieval.Candidate) string {
	v := venueOf(c)
	var l lines
	header(&l, v)
	l.add("Maximum Capacity: %d", v.MaxCapacity)
	l.add("Minimum Capacity: %d", v.MinCapacity)
	l.add("Meeting Rooms: %d", v.MeetingRooms)
	if v.TotalSqft > 0 {
		l.add("Total Square Footage: %d sqft", v.TotalSqft)
	}
	if v.LargestRoomSqft > 0 {
		l.add("Largest Room: %d sqft", v.LargestRoomSqft)
	}
	if v.BallroomCapacity > 0 {
		l.add("Ballroom Capacity: %d", v.BallroomCapacity)
	}
	return l.String()
}

func amenityRequest(r catalog.EventRequest) string {
	var l lines
	l.add("Event Type: %s", r.EventType)
	l.add("Event Style: %s", r.EventStyle)
	l.add("Required Amenities: %s", orNone(r.RequiredAmenities))
	l.list("Preferred Amenities", r.PreferredAmenities)
	l.list("Special Requirements", r.SpecialRequirements)
	return l.String()
}

func amenityVenue(c retrieval.Candidate) string {
	v := venueOf(c)
	var l lines
	header(&l, v)
	if len(v.Amenities) == 0 {
		l.add("Available Amenities: None listed")
	} else {
		l.list("Available Amenities", v.Amenities)
	}
	l.list("Features", v.Features)
	l.list("Catering Options", v.CateringOptions)
	if v.AVIncluded {
		l.add("AV Equipment: Included in-house")
	} else {
		l.add("AV Equipment: May require external rental")
	}
	return l.String()
}

func locationRequest(r catalog.EventRequest) string {
	var l lines
	l.add("Location Preference: %s", r.LocationPreference)
	l.list("Preferred Regions", r.LocationRequirements.Region)
	l.list("Preferred Cities", r.LocationRequirements.Cities)
	if d := r.LocationRequirements.MaxAirportDistanceMiles; d != nil {
		l.add("Maximum Airport Distance: %g miles", *d)
	}
	return l.String()
}

func locationVenue(c retrieval.Candidate) string {
	v := venueOf(c)
	var l lines
	header(&l, v)
	l.add("City: %s", v.City)
	if v.State != "" {
		l.add("State: %s", v.State)
	}
	if v.Region != "" {
		l.add("Region: %s", v.Region)
	}
	if v.Address != "" {
		l.add("Address: %s", v.Address)
	}
	if v.AirportDistanceMiles != nil {
		l.add("Airport Distance: %g miles", *v.AirportDistanceMiles)
	}
	l.add("Public Transit Available: %t", v.PublicTransit)
	if v.NearbyHotels > 0 {
		l.add("Nearby Hotels: %d", v.NearbyHotels)
	}
	return l.String()
}

func costRequest(r catalog.EventRequest) string {
	var l lines
	flex := r.BudgetFlexibility
	if flex == "" {
		flex = "firm"
	}
	days := r.DurationDays
	if days <= 0 {
		days = 1
	}
	l.add("Event Budget: $%.0f", r.Budget)
	l.add("Budget Flexibility: %s", flex)
	l.add("Duration: %d days", days)
	l.add("Attendee Count: %d", r.AttendeeCount)
	return l.String()
}

func costVenue(c retrieval.Candidate) string {
	v := venueOf(c)
	var l lines
	header(&l, v)
	l.add("Daily Rate: $%.0f", v.DailyRate)
	l.add("Half-Day Rate: $%.0f", v.HalfDayRate)
	l.add("Setup Fee: $%.0f", v.SetupFee)
	l.add("AV Equipment Included: %t", v.AVIncluded)
	if v.CancellationPolicy != "" {
		l.add("Cancellation Policy: %s", v.CancellationPolicy)
	}
	return l.String()
}
