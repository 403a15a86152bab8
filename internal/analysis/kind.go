package analysis

import "fmt"

// Kind identifies an analysis task. The set is closed.
type Kind string

const (
	KindCapacity Kind = "capacity"
	KindAmenity  Kind = "amenity"
	KindLocation Kind = "location"
	KindCost     Kind = "cost"
)

// Kinds lists every kind in a fixed order.
var Kinds = []Kind{KindCapacity, KindAmenity, KindLocation, KindCost}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown analysis kind %q", s)
}

func (k Kind) String() string { return string(k) }
