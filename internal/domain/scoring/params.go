package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/peloton/internal/domain/model"
)

// Default rating system parameters.
const (
	DefaultKFactor       = 32.0
	DefaultInitialRating = 1500
	DefaultMinRating     = 1000
	DefaultMaxRating     = 2500
)

// overallWeightTolerance bounds the acceptable drift of the overall weight
// sum from 1.0 when validating configured parameters.
const overallWeightTolerance = 1e-9

// ErrInvalidParams signals a malformed parameter set.
var ErrInvalidParams = errors.New("invalid rating parameters")

// Params is the versioned configuration value object of the rating system:
// the ELO constants, score bounds, the fixed overall blending weights, and
// the category importance table. It is injected into the engine at
// construction so alternate rating schemes can be swapped without touching
// the algorithm.
type Params struct {
	KFactor       float64
	InitialRating int
	MinRating     int
	MaxRating     int

	// OverallWeights blends dimension scores into the overall score.
	// The weights must cover every rated dimension and sum to 1.0.
	OverallWeights map[model.Dimension]float64

	// Importance scales rating changes by race category.
	Importance map[model.Category]float64
}

// DefaultParams returns the stock parameter set.
func DefaultParams() Params {
	return Params{
		KFactor:       DefaultKFactor,
		InitialRating: DefaultInitialRating,
		MinRating:     DefaultMinRating,
		MaxRating:     DefaultMaxRating,
		OverallWeights: map[model.Dimension]float64{
			model.DimensionFlat:      0.15,
			model.DimensionCobbles:   0.10,
			model.DimensionMountain:  0.20,
			model.DimensionTimeTrial: 0.15,
			model.DimensionSprint:    0.10,
			model.DimensionGC:        0.15,
			model.DimensionOneDay:    0.10,
			model.DimensionEndurance: 0.05,
		},
		Importance: map[model.Category]float64{
			model.CategoryGrandTour:         2.0,
			model.CategoryMonument:          1.8,
			model.CategoryWorldChampionship: 1.7,
			model.CategoryWorldTour:         1.3,
			model.CategoryProSeries:         1.0,
			model.CategoryOthers:            0.7,
		},
	}
}

// Validate checks the parameter set for internal consistency.
func (p Params) Validate() error {
	if p.KFactor <= 0 {
		return fmt.Errorf("%w: k factor must be positive, got %v", ErrInvalidParams, p.KFactor)
	}
	if p.MinRating >= p.MaxRating {
		return fmt.Errorf("%w: min rating %d not below max rating %d", ErrInvalidParams, p.MinRating, p.MaxRating)
	}
	if p.InitialRating < p.MinRating || p.InitialRating > p.MaxRating {
		return fmt.Errorf("%w: initial rating %d outside [%d,%d]", ErrInvalidParams, p.InitialRating, p.MinRating, p.MaxRating)
	}

	var sum float64
	for _, d := range model.Dimensions() {
		w, ok := p.OverallWeights[d]
		if !ok {
			return fmt.Errorf("%w: overall weights missing dimension %q", ErrInvalidParams, d)
		}
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: overall weight for %q outside [0,1]", ErrInvalidParams, d)
		}
		sum += w
	}
	for d := range p.OverallWeights {
		if !model.ValidDimension(d) {
			return fmt.Errorf("%w: overall weights contain unknown dimension %q", ErrInvalidParams, d)
		}
	}
	if math.Abs(sum-1.0) > overallWeightTolerance {
		return fmt.Errorf("%w: overall weights sum to %v, want 1.0", ErrInvalidParams, sum)
	}

	for c, m := range p.Importance {
		if m <= 0 {
			return fmt.Errorf("%w: importance for category %q must be positive", ErrInvalidParams, c)
		}
	}
	return nil
}
