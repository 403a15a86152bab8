package index

import "strings"

// Range is an inclusive integer range.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies within the range, bounds included.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Filter is a hard constraint on query results: documents failing it are
// excluded before ranking. A nil Capacity or empty Cities applies no constraint.
// When both are set a document passes by fitting the capacity range or by
// sitting in one of the cities.
type Filter struct {
	Capacity *Range   `json:"capacity,omitempty"`
	Cities   []string `json:"cities,omitempty"`
}

// Match reports whether d passes f. Cities are matched as prefixes of the
// venue city, any one of them sufficing.
func (f Filter) Match(d Document) bool {
	cities := f.cityPrefixes()
	switch {
	case f.Capacity == nil && len(cities) == 0:
		return true
	case f.Capacity != nil && f.Capacity.Contains(d.VenueMaxCapacity()):
		return true
	}
	city := d.VenueCity()
	for _, c := range cities {
		if strings.HasPrefix(city, c) {
			return true
		}
	}
	return false
}

func (f Filter) cityPrefixes() []string {
	var out []string
	for _, c := range f.Cities {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
