package synthesis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"venue-recommender/internal/analysis"
	"venue-recommender/internal/catalog"
	"venue-recommender/internal/retrieval"
)

// Synthesizer ranks candidates from the surviving analyses. It is
// deterministic for a given input.
type Synthesizer struct {
	weights Weights
}

// New returns a synthesizer using w. A nil or all-zero w takes the defaults.
func New(w Weights) *Synthesizer {
	if w == nil || w.total() <= 0 {
		w = DefaultWeights()
	}
	return &Synthesizer{weights: w}
}

type venueView struct {
	kinds       []analysis.Kind
	assessments map[analysis.Kind]analysis.Assessment
	detail      map[analysis.Kind]any
}

// Synthesize returns at most topN recommendations. Venues without any
// surviving assessment are not ranked.
func (s *Synthesizer) Synthesize(analyses map[analysis.Kind]analysis.Payload, req catalog.EventRequest, candidates []retrieval.Candidate, topN int) []Recommendation {
	if topN <= 0 || len(candidates) == 0 {
		return []Recommendation{}
	}

	byKind := make(map[analysis.Kind]map[string]analysis.Assessment, len(analyses))
	for kind, p := range analyses {
		if p == nil {
			continue
		}
		m := make(map[string]analysis.Assessment)
		for _, a := range p.Assessments() {
			m[a.VenueID] = a
		}
		byKind[kind] = m
	}

	out := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		id := c.VenueID()
		view := venueView{assessments: map[analysis.Kind]analysis.Assessment{}, detail: map[analysis.Kind]any{}}
		for _, k := range analysis.Kinds {
			a, ok := byKind[k][id]
			if !ok {
				continue
			}
			view.kinds = append(view.kinds, k)
			view.assessments[k] = a
			if d, ok := analyses[k].Venue(id); ok {
				view.detail[k] = d
			}
		}
		if len(view.kinds) == 0 {
			continue
		}
		out = append(out, s.build(c, view, req, analyses))
	}

	sortRecommendations(out)
	if len(out) > topN {
		out = out[:topN]
	}
	for i := range out {
		out[i].Ranking = i + 1
	}
	return out
}

func (s *Synthesizer) build(c retrieval.Candidate, v venueView, req catalog.EventRequest, analyses map[analysis.Kind]analysis.Payload) Recommendation {
	rec := Recommendation{
		VenueID:       c.VenueID(),
		VenueName:     venueName(c, v),
		Analysis:      v.detail,
		retrievalRank: c.Rank,
	}
	rec.Score, rec.Confidence = s.score(v)
	rec.EstimatedCost = estimatedCost(c, v, req)

	var strengths, considerations []string
	for _, k := range analysis.Kinds {
		d, ok := v.detail[k]
		if !ok {
			if _, ran := analyses[k]; !ran {
				considerations = append(considerations, fmt.Sprintf("No %s analysis was available for this venue", k))
			}
			continue
		}
		st, co := notes(d, req)
		strengths = append(strengths, st...)
		considerations = append(considerations, co...)
	}
	rec.Strengths = uniqueStrings(strengths)
	rec.Considerations = uniqueStrings(considerations)
	return rec
}

// score is the weighted mean over present kinds. Kinds with zero weight
// still count when no weighted kind is present.
func (s *Synthesizer) score(v venueView) (float64, float64) {
	var sum, weight float64
	for _, k := range v.kinds {
		w := s.weights[k]
		sum += w * v.assessments[k].Score
		weight += w
	}
	confidence := weight / s.weights.total()
	if weight > 0 {
		return round2(sum / weight), round2(confidence)
	}
	for _, k := range v.kinds {
		sum += v.assessments[k].Score
	}
	return round2(sum / float64(len(v.kinds))), 0
}

func venueName(c retrieval.Candidate, v venueView) string {
	if venue := c.Document.Metadata.Venue; venue != nil && strings.TrimSpace(venue.Name) != "" {
		return venue.Name
	}
	for _, k := range v.kinds {
		if n := strings.TrimSpace(v.assessments[k].VenueName); n != "" {
			return n
		}
	}
	return c.Document.Metadata.Event.VenueName
}

// estimatedCost prefers the cost analysis and falls back to the venue's
// published rates.
func estimatedCost(c retrieval.Candidate, v venueView, req catalog.EventRequest) *float64 {
	if d, ok := v.detail[analysis.KindCost].(analysis.CostAssessment); ok && d.EstimatedTotalCost > 0 {
		cost := d.EstimatedTotalCost
		return &cost
	}
	venue := c.Document.Metadata.Venue
	if venue == nil || venue.DailyRate <= 0 {
		return nil
	}
	days := req.DurationDays
	if days <= 0 {
		days = 1
	}
	cost := round2(venue.DailyRate*float64(days) + venue.SetupFee)
	return &cost
}

func sortRecommendations(items []Recommendation) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.retrievalRank != b.retrievalRank {
			return a.retrievalRank < b.retrievalRank
		}
		return a.VenueID < b.VenueID
	})
}

func uniqueStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
