package model

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies a race by its competitive tier. The tier maps to an
// importance multiplier that scales rating changes.
type Category string

// Race categories.
const (
	CategoryGrandTour         Category = "GT"
	CategoryMonument          Category = "Monument"
	CategoryWorldChampionship Category = "WC"
	CategoryWorldTour         Category = "WT"
	CategoryProSeries         Category = "ProSeries"
	CategoryOthers            Category = "Others"
)

// Categories returns all known race categories.
func Categories() []Category {
	return []Category{
		CategoryGrandTour,
		CategoryMonument,
		CategoryWorldChampionship,
		CategoryWorldTour,
		CategoryProSeries,
		CategoryOthers,
	}
}

// ParseCategory maps a string to a known Category, falling back to
// CategoryOthers for empty input.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOthers, nil
	}
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown race category: %q", s)
}

// Race represents a professional cycling race (or a single stage of one).
type Race struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id,omitempty"`
	Name       string    `json:"name"`
	Category   Category  `json:"category"`
	Date       time.Time `json:"date"`
	Season     int       `json:"season"`
	Country    string    `json:"country,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ErrInvalidWeights signals a malformed race profile: a weight outside
// [0,1] or a missing dimension key. Rejected at profile-creation time.
var ErrInvalidWeights = errors.New("invalid race profile weights")

// RaceProfile weights how much each dimension matters for one race.
// 1:1 with Race; immutable once a rating update has run against it.
type RaceProfile struct {
	RaceID  string                `json:"race_id"`
	Weights map[Dimension]float64 `json:"weights"`
}

// Validate checks that every rated dimension is present with a weight in
// [0,1]. Unknown dimension keys are rejected.
func (p RaceProfile) Validate() error {
	for _, d := range Dimensions() {
		w, ok := p.Weights[d]
		if !ok {
			return fmt.Errorf("%w: missing dimension %q", ErrInvalidWeights, d)
		}
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: dimension %q weight %v outside [0,1]", ErrInvalidWeights, d, w)
		}
	}
	for d := range p.Weights {
		if !ValidDimension(d) {
			return fmt.Errorf("%w: unknown dimension %q", ErrInvalidWeights, d)
		}
	}
	return nil
}

// CloneWeights returns an independent copy of the weight map.
func (p RaceProfile) CloneWeights() map[Dimension]float64 {
	out := make(map[Dimension]float64, len(p.Weights))
	for d, w := range p.Weights {
		out[d] = w
	}
	return out
}

// RaceResult is one finishing row of one rider in one race.
// Positions start at 1 and are distinct within a race; ties are not modeled.
type RaceResult struct {
	ID                string    `json:"id"`
	RaceID            string    `json:"race_id"`
	RiderID           string    `json:"rider_id"`
	Position          int       `json:"position"`
	TimeSeconds       int       `json:"time_seconds,omitempty"`
	TimeBehindSeconds int       `json:"time_behind_seconds,omitempty"`
	DidNotFinish      bool      `json:"did_not_finish,omitempty"`
	DidNotStart       bool      `json:"did_not_start,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Eligible reports whether the result counts toward rating computation.
func (r RaceResult) Eligible() bool {
	return !r.DidNotFinish && !r.DidNotStart
}
