package analysis

// Verdict is the per-venue recommendation of one task.
type Verdict struct {
	Recommend bool   `json:"recommend"`
	Pros      string `json:"pros"`
	Cons      string `json:"cons"`
}

// Assessment holds the fields every kind reports per venue.
type Assessment struct {
	VenueID        string  `json:"venue_id" validate:"required"`
	VenueName      string  `json:"venue_name"`
	Score          float64 `json:"score" validate:"gte=0,lte=100"`
	Analysis       string  `json:"analysis"`
	Recommendation Verdict `json:"recommendation"`
}

func (a Assessment) base() Assessment { return a }

type CapacityAssessment struct {
	Assessment
	CapacitySuitable       bool    `json:"capacity_suitable"`
	CapacityUtilization    float64 `json:"capacity_utilization" validate:"gte=0"`
	MeetingRoomsSufficient bool    `json:"meeting_rooms_sufficient"`
	SpaceAdequacy          string  `json:"space_adequacy"`
}

type AmenityAssessment struct {
	Assessment
	RequiredAmenitiesMatch    bool     `json:"required_amenities_match"`
	MissingAmenities          []string `json:"missing_amenities"`
	AvailableAmenities        []string `json:"available_amenities"`
	SpecialRequirementsStatus string   `json:"special_requirements_status"`
}

type LocationAssessment struct {
	Assessment
	LocationMatch        bool    `json:"location_match"`
	RegionMatch          bool    `json:"region_match"`
	AccessibilityScore   float64 `json:"accessibility_score" validate:"gte=0,lte=1"`
	NearbyAccommodations int     `json:"nearby_accommodations" validate:"gte=0"`
}

type CostAssessment struct {
	Assessment
	BudgetMet          bool               `json:"budget_met"`
	EstimatedTotalCost float64            `json:"estimated_total_cost" validate:"gte=0"`
	CostBreakdown      map[string]float64 `json:"cost_breakdown"`
	ValueAssessment    string             `json:"value_assessment"`
	HiddenCosts        []string           `json:"hidden_costs"`
}

// Payload is the validated result of one task: one assessment per venue.
type Payload interface {
	Kind() Kind
	// Assessments returns the shared view of every venue assessment.
	Assessments() []Assessment
	// Venue returns the kind-specific assessment for venueID.
	Venue(venueID string) (any, bool)
	retain(ids map[string]struct{}) Payload
	size() int
}

type CapacityReport struct {
	Venues []CapacityAssessment `json:"capacity_analysis" validate:"required,min=1,dive"`
}

type AmenityReport struct {
	Venues []AmenityAssessment `json:"amenity_analysis" validate:"required,min=1,dive"`
}

type LocationReport struct {
	Venues []LocationAssessment `json:"location_analysis" validate:"required,min=1,dive"`
}

type CostReport struct {
	Venues []CostAssessment `json:"cost_analysis" validate:"required,min=1,dive"`
}

func (CapacityReport) Kind() Kind { return KindCapacity }
func (AmenityReport) Kind() Kind  { return KindAmenity }
func (LocationReport) Kind() Kind { return KindLocation }
func (CostReport) Kind() Kind     { return KindCost }

func (r CapacityReport) Assessments() []Assessment { return bases(r.Venues) }
func (r AmenityReport) Assessments() []Assessment  { return bases(r.Venues) }
func (r LocationReport) Assessments() []Assessment { return bases(r.Venues) }
func (r CostReport) Assessments() []Assessment     { return bases(r.Venues) }

func (r CapacityReport) Venue(id string) (any, bool) { return find(r.Venues, id) }
func (r AmenityReport) Venue(id string) (any, bool)  { return find(r.Venues, id) }
func (r LocationReport) Venue(id string) (any, bool) { return find(r.Venues, id) }
func (r CostReport) Venue(id string) (any, bool)     { return find(r.Venues, id) }

func (r CapacityReport) retain(ids map[string]struct{}) Payload {
	return CapacityReport{Venues: keep(r.Venues, ids)}
}

func (r AmenityReport) retain(ids map[string]struct{}) Payload {
	return AmenityReport{Venues: keep(r.Venues, ids)}
}

func (r LocationReport) retain(ids map[string]struct{}) Payload {
	return LocationReport{Venues: keep(r.Venues, ids)}
}

func (r CostReport) retain(ids map[string]struct{}) Payload {
	return CostReport{Venues: keep(r.Venues, ids)}
}

func (r CapacityReport) size() int { return len(r.Venues) }
func (r AmenityReport) size() int  { return len(r.Venues) }
func (r LocationReport) size() int { return len(r.Venues) }
func (r CostReport) size() int     { return len(r.Venues) }

type venueAssessment interface {
	base() Assessment
}

func bases[T venueAssessment](items []T) []Assessment {
	out := make([]Assessment, len(items))
	for i, it := range items {
		out[i] = it.base()
	}
	return out
}

func find[T venueAssessment](items []T, id string) (any, bool) {
	for _, it := range items {
		if it.base().VenueID == id {
			return it, true
		}
	}
	return nil, false
}

// keep drops assessments for venues outside ids and repeated venues.
func keep[T venueAssessment](items []T, ids map[string]struct{}) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		id := it.base().VenueID
		if _, ok := ids[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, it)
	}
	return out
}

func newPayload(k Kind) Payload {
	switch k {
	case KindCapacity:
		return &CapacityReport{}
	case KindAmenity:
		return &AmenityReport{}
	case KindLocation:
		return &LocationReport{}
	case KindCost:
		return &CostReport{}
	default:
		return nil
	}
}
