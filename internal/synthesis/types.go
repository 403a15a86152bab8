package synthesis

import "venue-recommender/internal/analysis"

// Recommendation is one ranked venue.
type Recommendation struct {
	VenueID   string `json:"venue_id"`
	VenueName string `json:"venue_name"`
	Ranking   int    `json:"ranking"`
	// Score is the weighted mean of the surviving analysis scores, 0..100.
	Score float64 `json:"score"`
	// Confidence is the share of the total weight backed by surviving analyses.
	Confidence     float64               `json:"confidence"`
	EstimatedCost  *float64              `json:"estimated_cost"`
	Analysis       map[analysis.Kind]any `json:"analysis"`
	Strengths      []string              `json:"strengths"`
	Considerations []string              `json:"considerations"`

	retrievalRank int
}

// Weights sets how much each kind contributes to the ranking score.
type Weights map[analysis.Kind]float64

// DefaultWeights favours capacity and location fit over cost and amenities.
func DefaultWeights() Weights {
	return Weights{
		analysis.KindCapacity: 0.35,
		analysis.KindLocation: 0.30,
		analysis.KindCost:     0.175,
		analysis.KindAmenity:  0.175,
	}
}

func (w Weights) total() float64 {
	sum := 0.0
	for _, k := range analysis.Kinds {
		sum += w[k]
	}
	return sum
}
