// Package scoring contains the pure score functions of the rating system:
// expected-outcome probability, position-based performance score, and the
// bounded rating delta. All functions are stateless and side-effect free.
package scoring

import (
	"math"

	"github.com/okian/peloton/internal/domain/model"
)

// Expected returns the logistic pairwise-comparison probability that a
// competitor rated a beats one rated b. Symmetric:
// Expected(a, b) + Expected(b, a) == 1 for any finite ratings.
func Expected(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// Performance converts a finishing position into a score in [0,1],
// non-increasing within each position band. fieldSize is accepted for
// interface symmetry but does not currently alter the formula.
func Performance(position, fieldSize int) float64 {
	_ = fieldSize
	switch {
	case position == 1:
		return 1.0
	case position <= 3:
		return 0.9 - float64(position-1)*0.15 // 2nd: 0.75, 3rd: 0.60
	case position <= 10:
		return 0.6 - float64(position-3)*0.05
	case position <= 20:
		return 0.3 - float64(position-10)*0.02
	default:
		return math.Max(0.1, 0.1-float64(position-20)*0.005)
	}
}

// Delta computes the bounded rating change for one dimension:
// round(K * importance * (actual - expected)). importance folds in both
// the race category multiplier and the per-dimension weight.
func (p Params) Delta(expected, actual, importance float64) int {
	return int(math.Round(p.KFactor * importance * (actual - expected)))
}

// Clamp bounds a score to the configured rating range.
func (p Params) Clamp(score int) int {
	if score < p.MinRating {
		return p.MinRating
	}
	if score > p.MaxRating {
		return p.MaxRating
	}
	return score
}

// Overall blends a full dimension score map into the single overall score
// using the fixed overall weight table, rounded and clamped.
func (p Params) Overall(scores model.DimensionScores) int {
	var sum float64
	for d, w := range p.OverallWeights {
		sum += float64(scores[d]) * w
	}
	return p.Clamp(int(math.Round(sum)))
}

// ImportanceFor returns the importance multiplier for a race category,
// falling back to 1.0 for categories absent from the table.
func (p Params) ImportanceFor(c model.Category) float64 {
	if m, ok := p.Importance[c]; ok {
		return m
	}
	return 1.0
}
