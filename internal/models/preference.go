package models

// SortKey is one of the result-ordering criteria a user can rank.
type SortKey string

const (
	SortPersonalized  SortKey = "personalized"
	SortRating        SortKey = "rating"
	SortDistance      SortKey = "distance"
	SortAccessibility SortKey = "accessibility"
)

// SortPriorityLen is the fixed length of a usable sort-priority ordering.
const SortPriorityLen = 3

// ParseSortKey returns the SortKey for a wire name, or false if unknown.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(s) {
	case SortPersonalized, SortRating, SortDistance, SortAccessibility:
		return SortKey(s), true
	}
	return "", false
}

// PreferenceSet is a user's result-ordering and accessibility-filter choices.
// It is a value object: construct it, don't mutate it.
type PreferenceSet struct {
	SortPriority     []SortKey `json:"sort_priority_order"`
	Ramp             bool      `json:"ramp"`
	Restroom         bool      `json:"restroom"`
	Elevator         bool      `json:"elevator"`
	BrailleMenu      bool      `json:"braille_menu"`
	GuideDogFriendly bool      `json:"guide_dog_friendly"`
}

// DefaultPreferences is the ordering every profile starts with: personalized
// results first, then rating, then distance. All filters off.
func DefaultPreferences() PreferenceSet {
	return PreferenceSet{
		SortPriority: []SortKey{SortPersonalized, SortRating, SortDistance},
	}
}

// Valid reports whether the sort priority is exactly three distinct keys.
func (p PreferenceSet) Valid() bool {
	if len(p.SortPriority) != SortPriorityLen {
		return false
	}
	seen := make(map[SortKey]struct{}, SortPriorityLen)
	for _, k := range p.SortPriority {
		if _, ok := ParseSortKey(string(k)); !ok {
			return false
		}
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}

// Equal compares two preference sets structurally.
func (p PreferenceSet) Equal(o PreferenceSet) bool {
	if len(p.SortPriority) != len(o.SortPriority) {
		return false
	}
	for i := range p.SortPriority {
		if p.SortPriority[i] != o.SortPriority[i] {
			return false
		}
	}
	return p.Ramp == o.Ramp &&
		p.Restroom == o.Restroom &&
		p.Elevator == o.Elevator &&
		p.BrailleMenu == o.BrailleMenu &&
		p.GuideDogFriendly == o.GuideDogFriendly
}
