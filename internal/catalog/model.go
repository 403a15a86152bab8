package catalog

// EventRecord is one historical event as ingested from the event history dataset.
// Records are never mutated after ingestion.
type EventRecord struct {
	EventID             string   `json:"event_id" validate:"required"`
	EventName           string   `json:"event_name,omitempty"`
	EventType           string   `json:"event_type,omitempty"`
	EventStyle          string   `json:"event_style,omitempty"`
	ClientID            string   `json:"client_id,omitempty"`
	ClientName          string   `json:"client_name,omitempty"`
	VenueID             string   `json:"venue_id" validate:"required"`
	VenueName           string   `json:"venue_name,omitempty"`
	City                string   `json:"city,omitempty"`
	AttendeeCount       int      `json:"attendee_count" validate:"gte=1"`
	DurationDays        int      `json:"duration_days,omitempty"`
	EventDates          any      `json:"event_dates,omitempty"`
	KeyRequirements     []string `json:"key_requirements,omitempty"`
	RequirementsMet     any      `json:"requirements_met,omitempty"`
	SuccessFactors      []string `json:"success_factors,omitempty"`
	Challenges          []string `json:"challenges,omitempty"`
	PositiveFeedback    []string `json:"positive_feedback,omitempty"`
	NegativeFeedback    []string `json:"negative_feedback,omitempty"`
	Notes               string   `json:"notes,omitempty"`
	Outcome             string   `json:"outcome,omitempty"`
	TotalCost           *float64 `json:"total_cost,omitempty"`
	VenueCost           *float64 `json:"venue_cost,omitempty"`
	OtherCosts          *float64 `json:"other_costs,omitempty"`
	BudgetMet           *bool    `json:"budget_met,omitempty"`
	ClientRating        *float64 `json:"client_rating,omitempty"`
	VenueRating         *float64 `json:"venue_rating,omitempty"`
	AverageRating       *float64 `json:"average_rating,omitempty"`
	OverallSatisfaction any      `json:"overall_satisfaction,omitempty"`
	WouldRecommend      *bool    `json:"would_recommend,omitempty"`
	WouldRebook         *bool    `json:"would_rebook,omitempty"`
	RebookingLikelihood any      `json:"rebooking_likelihood,omitempty"`
}

// ClientProfile is reference data about a client, keyed by ClientID.
type ClientProfile struct {
	ClientID         string   `json:"client_id" validate:"required"`
	Name             string   `json:"name,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	CompanySize      string   `json:"company_size,omitempty"`
	Tier             string   `json:"tier,omitempty"`
	PreferredCities  []string `json:"preferred_cities,omitempty"`
	PreferredVenues  []string `json:"preferred_venues,omitempty"`
	Preferences      []string `json:"preferences,omitempty"`
	TypicalBudget    *float64 `json:"typical_budget,omitempty"`
	EventsPerYear    *int     `json:"events_per_year,omitempty"`
	SatisfactionNote string   `json:"satisfaction_note,omitempty"`
}

// VenueProfile is reference data about a venue, keyed by VenueID.
type VenueProfile struct {
	VenueID              string   `json:"venue_id" validate:"required"`
	Name                 string   `json:"name,omitempty"`
	City                 string   `json:"city,omitempty"`
	State                string   `json:"state,omitempty"`
	Region               string   `json:"region,omitempty"`
	Address              string   `json:"address,omitempty"`
	MaxCapacity          int      `json:"max_capacity"`
	MinCapacity          int      `json:"min_capacity,omitempty"`
	MeetingRooms         int      `json:"meeting_rooms,omitempty"`
	TotalSqft            int      `json:"total_sqft,omitempty"`
	LargestRoomSqft      int      `json:"largest_room_sqft,omitempty"`
	BallroomCapacity     int      `json:"ballroom_capacity,omitempty"`
	Amenities            []string `json:"amenities,omitempty"`
	Features             []string `json:"features,omitempty"`
	CateringOptions      []string `json:"catering_options,omitempty"`
	AVIncluded           bool     `json:"av_included,omitempty"`
	AirportDistanceMiles *float64 `json:"airport_distance_miles,omitempty"`
	PublicTransit        bool     `json:"public_transit,omitempty"`
	NearbyHotels         int      `json:"nearby_hotels,omitempty"`
	DailyRate            float64  `json:"daily_rate,omitempty"`
	HalfDayRate          float64  `json:"half_day_rate,omitempty"`
	SetupFee             float64  `json:"setup_fee,omitempty"`
	CancellationPolicy   string   `json:"cancellation_policy,omitempty"`
}

// LocationRequirements narrows where an event may take place.
type LocationRequirements struct {
	Cities                  []string `json:"cities,omitempty"`
	Region                  []string `json:"region,omitempty"`
	MaxAirportDistanceMiles *float64 `json:"max_airport_distance_miles,omitempty"`
}

// EventRequest is an open request for a venue recommendation.
type EventRequest struct {
	EventID              string               `json:"event_id" validate:"required"`
	EventName            string               `json:"event_name,omitempty"`
	EventType            string               `json:"event_type,omitempty"`
	EventStyle           string               `json:"event_style,omitempty"`
	ClientID             string               `json:"client_id,omitempty"`
	ClientName           string               `json:"client_name,omitempty"`
	AttendeeCount        int                  `json:"attendee_count" validate:"gte=1"`
	DurationDays         int                  `json:"duration_days,omitempty"`
	Budget               float64              `json:"budget,omitempty"`
	BudgetFlexibility    string               `json:"budget_flexibility,omitempty"`
	LocationPreference   string               `json:"location_preference,omitempty"`
	LocationRequirements LocationRequirements `json:"location_requirements"`
	KeyRequirements      []string             `json:"key_requirements,omitempty"`
	RequiredAmenities    []string             `json:"required_amenities,omitempty"`
	PreferredAmenities   []string             `json:"preferred_amenities,omitempty"`
	SpecialRequirements  []string             `json:"special_requirements,omitempty"`
	ClientPreferences    []string             `json:"client_preferences,omitempty"`
}
