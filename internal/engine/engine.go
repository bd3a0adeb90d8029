// Package engine implements the rating computation: it turns the results of
// one race into per-dimension rating changes, a fresh overall score and an
// append-only snapshot per finisher.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/domain/scoring"
	"github.com/okian/peloton/pkg/logger"
	"github.com/okian/peloton/pkg/metrics"
)

// RiderUpdate reports the outcome of one race for one rider.
type RiderUpdate struct {
	RiderID       string `json:"rider_id"`
	Name          string `json:"name"`
	Position      int    `json:"position"`
	OverallBefore int    `json:"overall_before"`
	OverallAfter  int    `json:"overall_after"`
	OverallChange int    `json:"overall_change"`
}

// Summary reports the outcome of processing one race.
type Summary struct {
	RaceID   string        `json:"race_id"`
	RaceName string        `json:"race_name"`
	Date     time.Time     `json:"date"`
	Updated  int           `json:"updated"`
	Updates  []RiderUpdate `json:"updates,omitempty"`
}

// Engine computes rating updates against a Store. A mutex serializes update
// runs so the processed-race check and the atomic write cannot interleave
// between concurrent callers.
type Engine struct {
	mu     sync.Mutex
	store  repository.Store
	params scoring.Params
	lg     logger.Logger
}

// New builds an Engine over the given store.
func New(store repository.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("engine: store is required")
	}
	e := &Engine{
		store:  store,
		params: scoring.DefaultParams(),
		lg:     logger.Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.params.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return e, nil
}

// InitializeRiderRating returns the rider's current rating record, creating
// and persisting the default record on first touch.
func (e *Engine) InitializeRiderRating(ctx context.Context, riderID string) (model.RiderRating, error) {
	if _, err := e.store.GetRider(ctx, riderID); err != nil {
		return model.RiderRating{}, fmt.Errorf("initialize rating: %w", err)
	}
	rating, err := e.store.GetRating(ctx, riderID)
	if err == nil {
		return rating, nil
	}
	if !isRatingNotFound(err) {
		return model.RiderRating{}, fmt.Errorf("initialize rating: %w", err)
	}
	rating = model.NewRiderRating(riderID, e.params.InitialRating)
	if err := e.store.PutRating(ctx, rating); err != nil {
		return model.RiderRating{}, fmt.Errorf("initialize rating: %w", err)
	}
	return rating, nil
}

// UpdateRatingsForRace runs the rating computation for one race: every
// eligible finisher gains or loses points per dimension against the average
// of the other finishers, weighted by the race profile and category. The
// resulting ratings and snapshots are written atomically. A race already
// carrying snapshots is rejected with ErrAlreadyProcessed.
func (e *Engine) UpdateRatingsForRace(ctx context.Context, raceID string) (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	summary, err := e.updateLocked(ctx, raceID)
	if err != nil {
		metrics.RecordRatingUpdateFailure()
		return Summary{}, err
	}
	metrics.RecordRatingUpdate()
	metrics.RecordUpdateLatency(float64(time.Since(start).Milliseconds()))
	e.lg.Info(ctx, "ratings updated",
		logger.String("race_id", summary.RaceID),
		logger.String("race", summary.RaceName),
		logger.Int("riders", summary.Updated),
		logger.Duration("took", time.Since(start)))
	return summary, nil
}

func (e *Engine) updateLocked(ctx context.Context, raceID string) (Summary, error) {
	race, err := e.store.GetRace(ctx, raceID)
	if err != nil {
		return Summary{}, fmt.Errorf("update ratings: %w", err)
	}
	profile, err := e.store.GetProfile(ctx, raceID)
	if err != nil {
		if isProfileNotFound(err) {
			return Summary{}, fmt.Errorf("%w: race %s", ErrMissingProfile, raceID)
		}
		return Summary{}, fmt.Errorf("update ratings: %w", err)
	}
	processed, err := e.store.HasRaceSnapshots(ctx, raceID)
	if err != nil {
		return Summary{}, fmt.Errorf("update ratings: %w", err)
	}
	if processed {
		return Summary{}, fmt.Errorf("%w: race %s", ErrAlreadyProcessed, raceID)
	}

	results, err := e.store.ListResults(ctx, raceID)
	if err != nil {
		return Summary{}, fmt.Errorf("update ratings: %w", err)
	}
	eligible := make([]model.RaceResult, 0, len(results))
	for _, row := range results {
		if row.Eligible() {
			eligible = append(eligible, row)
		}
	}

	summary := Summary{RaceID: race.ID, RaceName: race.Name, Date: race.Date}
	if len(eligible) == 0 {
		return summary, nil
	}

	// Snapshot the pre-update ratings first: the competitor averages are
	// computed against the state before this race so the outcome does not
	// depend on iteration order.
	before := make(map[string]model.RiderRating, len(eligible))
	for _, row := range eligible {
		rating, err := e.store.GetRating(ctx, row.RiderID)
		if isRatingNotFound(err) {
			rating = model.NewRiderRating(row.RiderID, e.params.InitialRating)
			err = nil
		}
		if err != nil {
			return Summary{}, fmt.Errorf("update ratings: %w", err)
		}
		before[row.RiderID] = rating
	}

	importance := e.params.ImportanceFor(race.Category)
	now := time.Now().UTC()
	update := repository.RatingUpdate{RaceID: race.ID}

	for _, row := range eligible {
		old := before[row.RiderID]
		next := old.Clone()

		actual := scoring.Performance(row.Position, len(eligible))
		for dim, weight := range profile.Weights {
			if weight == 0 {
				continue
			}
			avg := e.competitorAverage(before, row.RiderID, dim)
			expected := scoring.Expected(float64(old.Scores[dim]), avg)
			delta := e.params.Delta(expected, actual, importance*weight)
			next.Scores[dim] = e.params.Clamp(old.Scores[dim] + delta)
		}

		next.Overall = e.params.Overall(next.Scores)
		next.RacesCount++
		if row.Position == 1 {
			next.WinsCount++
		}
		if row.Position <= 3 {
			next.PodiumsCount++
		}
		next.UpdatedAt = now

		update.Ratings = append(update.Ratings, next)
		update.Snapshots = append(update.Snapshots, model.RatingSnapshot{
			ID:        uuid.NewString(),
			RiderID:   row.RiderID,
			RaceID:    race.ID,
			Date:      race.Date,
			Scores:    next.Scores.Clone(),
			Overall:   next.Overall,
			Reason:    fmt.Sprintf("Race result: %s (P%d)", race.Name, row.Position),
			CreatedAt: now,
		})

		summary.Updates = append(summary.Updates, RiderUpdate{
			RiderID:       row.RiderID,
			Name:          e.riderName(ctx, row.RiderID),
			Position:      row.Position,
			OverallBefore: old.Overall,
			OverallAfter:  next.Overall,
			OverallChange: next.Overall - old.Overall,
		})
	}

	if err := e.store.ApplyRatingUpdate(ctx, update); err != nil {
		return Summary{}, fmt.Errorf("update ratings: %w", err)
	}
	summary.Updated = len(update.Ratings)
	return summary, nil
}

// competitorAverage returns the mean pre-update score of every eligible
// finisher except riderID in one dimension, or the initial rating when the
// rider raced alone.
func (e *Engine) competitorAverage(before map[string]model.RiderRating, riderID string, dim model.Dimension) float64 {
	var (
		sum   float64
		count int
	)
	for id, rating := range before {
		if id == riderID {
			continue
		}
		sum += float64(rating.Scores[dim])
		count++
	}
	if count == 0 {
		return float64(e.params.InitialRating)
	}
	return sum / float64(count)
}

func (e *Engine) riderName(ctx context.Context, riderID string) string {
	rider, err := e.store.GetRider(ctx, riderID)
	if err != nil {
		return ""
	}
	return rider.Name
}

func isRatingNotFound(err error) bool {
	return errors.Is(err, repository.ErrRatingNotFound)
}

func isProfileNotFound(err error) bool {
	return errors.Is(err, repository.ErrProfileNotFound)
}
