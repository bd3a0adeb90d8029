// Package model contains domain models passed between layers.
package model

// Dimension is one named skill axis a rider is rated on independently.
type Dimension string

// The fixed dimension set. Persisted layouts must preserve these names
// verbatim as keys, plus the separate "overall" field.
const (
	DimensionFlat      Dimension = "flat"
	DimensionCobbles   Dimension = "cobbles"
	DimensionMountain  Dimension = "mountain"
	DimensionTimeTrial Dimension = "time_trial"
	DimensionSprint    Dimension = "sprint"
	DimensionGC        Dimension = "gc"
	DimensionOneDay    Dimension = "one_day"
	DimensionEndurance Dimension = "endurance"
)

// DimensionOverall addresses the blended overall score in ranking queries.
// It is not a member of the rated dimension set.
const DimensionOverall Dimension = "overall"

// Dimensions returns the rated dimension set in its canonical order.
func Dimensions() []Dimension {
	return []Dimension{
		DimensionFlat,
		DimensionCobbles,
		DimensionMountain,
		DimensionTimeTrial,
		DimensionSprint,
		DimensionGC,
		DimensionOneDay,
		DimensionEndurance,
	}
}

// ValidDimension reports whether d is a member of the rated dimension set.
func ValidDimension(d Dimension) bool {
	for _, known := range Dimensions() {
		if d == known {
			return true
		}
	}
	return false
}

// DimensionScores maps each rated dimension to an integer score.
type DimensionScores map[Dimension]int

// Clone returns an independent copy of the score map.
func (s DimensionScores) Clone() DimensionScores {
	out := make(DimensionScores, len(s))
	for d, v := range s {
		out[d] = v
	}
	return out
}

// NewDimensionScores returns a score map with every rated dimension set to v.
func NewDimensionScores(v int) DimensionScores {
	out := make(DimensionScores, len(Dimensions()))
	for _, d := range Dimensions() {
		out[d] = v
	}
	return out
}
