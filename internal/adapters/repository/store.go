// Package repository defines the rating store interface and errors.
package repository

import (
	"context"

	"github.com/okian/peloton/internal/domain/model"
)

// RankEntry represents one ranking row for a dimension.
type RankEntry struct {
	Rank      int             `json:"rank"`
	RiderID   string          `json:"rider_id"`
	Name      string          `json:"name"`
	Team      string          `json:"team,omitempty"`
	Dimension model.Dimension `json:"dimension"`
	Score     int             `json:"score"`
}

// RatingUpdate is the atomic output of one rating computation: the fresh
// rating records and the snapshots produced for one race. A store applies
// all of it or none of it.
type RatingUpdate struct {
	RaceID    string
	Ratings   []model.RiderRating
	Snapshots []model.RatingSnapshot
}

// Store provides read/write access to riders, races, results, ratings and
// the snapshot history.
type Store interface {
	// PutRider inserts or replaces a rider record.
	PutRider(ctx context.Context, rider model.Rider) error
	// GetRider returns a rider by id. Returns ErrRiderNotFound if unknown.
	GetRider(ctx context.Context, id string) (model.Rider, error)
	// GetRiderByName returns a rider by exact name.
	// Returns ErrRiderNotFound if unknown.
	GetRiderByName(ctx context.Context, name string) (model.Rider, error)
	// ListRiders returns all riders ordered by name.
	ListRiders(ctx context.Context) ([]model.Rider, error)

	// PutRace inserts or replaces a race record.
	PutRace(ctx context.Context, race model.Race) error
	// GetRace returns a race by id. Returns ErrRaceNotFound if unknown.
	GetRace(ctx context.Context, id string) (model.Race, error)
	// GetRaceByName returns the most recent race with the given name.
	// Returns ErrRaceNotFound if unknown.
	GetRaceByName(ctx context.Context, name string) (model.Race, error)
	// ListRaces returns all races ordered by date ascending.
	ListRaces(ctx context.Context) ([]model.Race, error)

	// PutProfile stores the dimension weights of a race.
	PutProfile(ctx context.Context, profile model.RaceProfile) error
	// GetProfile returns the weights of a race.
	// Returns ErrProfileNotFound if the race carries no profile.
	GetProfile(ctx context.Context, raceID string) (model.RaceProfile, error)

	// PutResult appends one finishing row to a race. Returns
	// ErrDuplicateResult if the rider already has a row in the race.
	PutResult(ctx context.Context, result model.RaceResult) error
	// ListResults returns all results of a race ordered by position.
	ListResults(ctx context.Context, raceID string) ([]model.RaceResult, error)

	// GetRating returns the current rating record of a rider.
	// Returns ErrRatingNotFound if the rider has never been rated.
	GetRating(ctx context.Context, riderID string) (model.RiderRating, error)
	// PutRating inserts or replaces a rider's rating record.
	PutRating(ctx context.Context, rating model.RiderRating) error
	// ApplyRatingUpdate atomically writes the ratings and snapshots
	// produced for one race.
	ApplyRatingUpdate(ctx context.Context, update RatingUpdate) error

	// ListSnapshots returns a rider's snapshots newest first, at most
	// limit rows (0 means no limit).
	ListSnapshots(ctx context.Context, riderID string, limit int) ([]model.RatingSnapshot, error)
	// HasRaceSnapshots reports whether any snapshot references the race.
	HasRaceSnapshots(ctx context.Context, raceID string) (bool, error)

	// TopByDimension returns the top rated riders in a dimension ordered
	// by score desc, name asc. DimensionOverall ranks the blended score.
	// Returns ErrInvalidLimit for a non-positive limit.
	TopByDimension(ctx context.Context, d model.Dimension, limit int) ([]RankEntry, error)

	// CountRiders returns the number of riders tracked in the store.
	CountRiders(ctx context.Context) int

	// Close releases store resources, flushing state where applicable.
	Close(ctx context.Context) error
}
