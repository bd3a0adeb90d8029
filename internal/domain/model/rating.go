package model

import "time"

// RiderRating is the current multi-dimensional rating of one rider.
// It is a value record: updates produce a fresh record from the old one
// rather than mutating in place. Only the rating engine writes it.
type RiderRating struct {
	RiderID      string          `json:"rider_id"`
	Scores       DimensionScores `json:"scores"`
	Overall      int             `json:"overall"`
	RacesCount   int             `json:"races_count"`
	WinsCount    int             `json:"wins_count"`
	PodiumsCount int             `json:"podiums_count"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewRiderRating returns the default rating record for a rider: every
// dimension and overall at initial, all counters zero.
func NewRiderRating(riderID string, initial int) RiderRating {
	return RiderRating{
		RiderID:   riderID,
		Scores:    NewDimensionScores(initial),
		Overall:   initial,
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone returns an independent copy of the rating record.
func (r RiderRating) Clone() RiderRating {
	out := r
	out.Scores = r.Scores.Clone()
	return out
}

// Score returns the rating in dimension d, or overall for DimensionOverall.
func (r RiderRating) Score(d Dimension) int {
	if d == DimensionOverall {
		return r.Overall
	}
	return r.Scores[d]
}

// RatingSnapshot is an immutable, append-only record of a rider's full
// rating state immediately after one processed race. Snapshots form the
// audit trail used for rating evolution views.
type RatingSnapshot struct {
	ID        string          `json:"id"`
	RiderID   string          `json:"rider_id"`
	RaceID    string          `json:"race_id"`
	Date      time.Time       `json:"date"` // the race date, not the write time
	Scores    DimensionScores `json:"scores"`
	Overall   int             `json:"overall"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}
