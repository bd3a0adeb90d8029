package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/pkg/metrics"
)

// MemStore is the in-memory Store backend guarded by a single RWMutex.
// With a data file configured it loads state on construction and writes a
// JSON snapshot of the full state on Save/Close.
type MemStore struct {
	mu       sync.RWMutex
	dataFile string

	riders     map[string]model.Rider
	riderNames map[string]string // exact name -> rider id
	races      map[string]model.Race
	profiles   map[string]model.RaceProfile
	results    map[string][]model.RaceResult // race id -> rows
	ratings    map[string]model.RiderRating
	snapshots  map[string][]model.RatingSnapshot // rider id -> rows, oldest first
	raceSnaps  map[string]int                    // race id -> snapshot count
}

// memState is the persisted form of the store.
type memState struct {
	Riders    []model.Rider          `json:"riders"`
	Races     []model.Race           `json:"races"`
	Profiles  []model.RaceProfile    `json:"profiles"`
	Results   []model.RaceResult     `json:"results"`
	Ratings   []model.RiderRating    `json:"ratings"`
	Snapshots []model.RatingSnapshot `json:"snapshots"`
}

// NewMemStore builds an empty in-memory store and, when a data file is
// configured and exists, loads the persisted state from it.
func NewMemStore(opts ...Option) (*MemStore, error) {
	s := &MemStore{
		riders:     make(map[string]model.Rider),
		riderNames: make(map[string]string),
		races:      make(map[string]model.Race),
		profiles:   make(map[string]model.RaceProfile),
		results:    make(map[string][]model.RaceResult),
		ratings:    make(map[string]model.RiderRating),
		snapshots:  make(map[string][]model.RatingSnapshot),
		raceSnaps:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dataFile != "" {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("load data file: %w", err)
		}
	}
	return s, nil
}

// PutRider inserts or replaces a rider record.
func (s *MemStore) PutRider(_ context.Context, rider model.Rider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.riders[rider.ID]; ok && old.Name != rider.Name {
		delete(s.riderNames, old.Name)
	}
	s.riders[rider.ID] = rider
	s.riderNames[rider.Name] = rider.ID
	metrics.UpdateTotalRiders(len(s.riders))
	return nil
}

// GetRider returns a rider by id.
func (s *MemStore) GetRider(_ context.Context, id string) (model.Rider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rider, ok := s.riders[id]
	if !ok {
		return model.Rider{}, ErrRiderNotFound
	}
	return rider, nil
}

// GetRiderByName returns a rider by exact name.
func (s *MemStore) GetRiderByName(_ context.Context, name string) (model.Rider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.riderNames[name]
	if !ok {
		return model.Rider{}, ErrRiderNotFound
	}
	return s.riders[id], nil
}

// ListRiders returns all riders ordered by name.
func (s *MemStore) ListRiders(_ context.Context) ([]model.Rider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Rider, 0, len(s.riders))
	for _, rider := range s.riders {
		out = append(out, rider)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// PutRace inserts or replaces a race record.
func (s *MemStore) PutRace(_ context.Context, race model.Race) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.races[race.ID] = race
	return nil
}

// GetRace returns a race by id.
func (s *MemStore) GetRace(_ context.Context, id string) (model.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	race, ok := s.races[id]
	if !ok {
		return model.Race{}, ErrRaceNotFound
	}
	return race, nil
}

// GetRaceByName returns the most recent race with the given name.
func (s *MemStore) GetRaceByName(_ context.Context, name string) (model.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		found bool
		best  model.Race
	)
	for _, race := range s.races {
		if race.Name != name {
			continue
		}
		if !found || race.Date.After(best.Date) {
			best, found = race, true
		}
	}
	if !found {
		return model.Race{}, ErrRaceNotFound
	}
	return best, nil
}

// ListRaces returns all races ordered by date ascending.
func (s *MemStore) ListRaces(_ context.Context) ([]model.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Race, 0, len(s.races))
	for _, race := range s.races {
		out = append(out, race)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// PutProfile stores the dimension weights of a race.
func (s *MemStore) PutProfile(_ context.Context, profile model.RaceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.RaceID] = model.RaceProfile{
		RaceID:  profile.RaceID,
		Weights: profile.CloneWeights(),
	}
	return nil
}

// GetProfile returns the weights of a race.
func (s *MemStore) GetProfile(_ context.Context, raceID string) (model.RaceProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[raceID]
	if !ok {
		return model.RaceProfile{}, ErrProfileNotFound
	}
	return model.RaceProfile{RaceID: profile.RaceID, Weights: profile.CloneWeights()}, nil
}

// PutResult appends one finishing row to a race.
func (s *MemStore) PutResult(_ context.Context, result model.RaceResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.results[result.RaceID] {
		if row.RiderID == result.RiderID {
			return fmt.Errorf("%w: rider %s already placed in race %s",
				ErrDuplicateResult, result.RiderID, result.RaceID)
		}
		if row.Position == result.Position {
			return fmt.Errorf("%w: position %d already taken in race %s",
				ErrDuplicateResult, result.Position, result.RaceID)
		}
	}
	s.results[result.RaceID] = append(s.results[result.RaceID], result)
	return nil
}

// ListResults returns all results of a race ordered by position.
func (s *MemStore) ListResults(_ context.Context, raceID string) ([]model.RaceResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.results[raceID]
	out := make([]model.RaceResult, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// GetRating returns the current rating record of a rider.
func (s *MemStore) GetRating(_ context.Context, riderID string) (model.RiderRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rating, ok := s.ratings[riderID]
	if !ok {
		return model.RiderRating{}, ErrRatingNotFound
	}
	return rating.Clone(), nil
}

// PutRating inserts or replaces a rider's rating record.
func (s *MemStore) PutRating(_ context.Context, rating model.RiderRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[rating.RiderID] = rating.Clone()
	return nil
}

// ApplyRatingUpdate atomically writes the ratings and snapshots produced
// for one race.
func (s *MemStore) ApplyRatingUpdate(_ context.Context, update RatingUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rating := range update.Ratings {
		s.ratings[rating.RiderID] = rating.Clone()
	}
	for _, snap := range update.Snapshots {
		s.snapshots[snap.RiderID] = append(s.snapshots[snap.RiderID], snap)
		s.raceSnaps[snap.RaceID]++
	}
	metrics.RecordSnapshotsAppended(len(update.Snapshots))
	return nil
}

// ListSnapshots returns a rider's snapshots newest first.
func (s *MemStore) ListSnapshots(_ context.Context, riderID string, limit int) ([]model.RatingSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.snapshots[riderID]
	out := make([]model.RatingSnapshot, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// HasRaceSnapshots reports whether any snapshot references the race.
func (s *MemStore) HasRaceSnapshots(_ context.Context, raceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raceSnaps[raceID] > 0, nil
}

// TopByDimension returns the top rated riders in a dimension.
func (s *MemStore) TopByDimension(_ context.Context, d model.Dimension, limit int) ([]RankEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if !model.ValidDimension(d) && d != model.DimensionOverall {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, d)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]RankEntry, 0, len(s.ratings))
	for riderID, rating := range s.ratings {
		rider := s.riders[riderID]
		entries = append(entries, RankEntry{
			RiderID:   riderID,
			Name:      rider.Name,
			Team:      rider.Team,
			Dimension: d,
			Score:     rating.Score(d),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// CountRiders returns the number of riders tracked in the store.
func (s *MemStore) CountRiders(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.riders)
}

// Save writes the full state as JSON to the configured data file using a
// temp-file rename so a crash mid-write never truncates the previous state.
func (s *MemStore) Save(_ context.Context) error {
	if s.dataFile == "" {
		return nil
	}
	s.mu.RLock()
	state := memState{
		Riders:   make([]model.Rider, 0, len(s.riders)),
		Races:    make([]model.Race, 0, len(s.races)),
		Profiles: make([]model.RaceProfile, 0, len(s.profiles)),
		Ratings:  make([]model.RiderRating, 0, len(s.ratings)),
	}
	for _, rider := range s.riders {
		state.Riders = append(state.Riders, rider)
	}
	for _, race := range s.races {
		state.Races = append(state.Races, race)
	}
	for _, profile := range s.profiles {
		state.Profiles = append(state.Profiles, profile)
	}
	for _, rows := range s.results {
		state.Results = append(state.Results, rows...)
	}
	for _, rating := range s.ratings {
		state.Ratings = append(state.Ratings, rating)
	}
	for _, rows := range s.snapshots {
		state.Snapshots = append(state.Snapshots, rows...)
	}
	s.mu.RUnlock()

	// Deterministic file content regardless of map iteration order.
	sort.Slice(state.Riders, func(i, j int) bool { return state.Riders[i].ID < state.Riders[j].ID })
	sort.Slice(state.Races, func(i, j int) bool { return state.Races[i].ID < state.Races[j].ID })
	sort.Slice(state.Profiles, func(i, j int) bool { return state.Profiles[i].RaceID < state.Profiles[j].RaceID })
	sort.Slice(state.Results, func(i, j int) bool { return state.Results[i].ID < state.Results[j].ID })
	sort.Slice(state.Ratings, func(i, j int) bool { return state.Ratings[i].RiderID < state.Ratings[j].RiderID })
	sort.Slice(state.Snapshots, func(i, j int) bool { return state.Snapshots[i].ID < state.Snapshots[j].ID })

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if dir := filepath.Dir(s.dataFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	tmp := s.dataFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.dataFile); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Close flushes state to the data file when persistence is configured.
func (s *MemStore) Close(ctx context.Context) error {
	return s.Save(ctx)
}

func (s *MemStore) load() error {
	data, err := os.ReadFile(s.dataFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil // first run, nothing persisted yet
	}
	if err != nil {
		return err
	}
	var state memState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("unmarshal state: %w", err)
	}
	for _, rider := range state.Riders {
		s.riders[rider.ID] = rider
		s.riderNames[rider.Name] = rider.ID
	}
	for _, race := range state.Races {
		s.races[race.ID] = race
	}
	for _, profile := range state.Profiles {
		s.profiles[profile.RaceID] = profile
	}
	for _, result := range state.Results {
		s.results[result.RaceID] = append(s.results[result.RaceID], result)
	}
	for _, rating := range state.Ratings {
		s.ratings[rating.RiderID] = rating
	}
	for _, snap := range state.Snapshots {
		s.snapshots[snap.RiderID] = append(s.snapshots[snap.RiderID], snap)
		s.raceSnaps[snap.RaceID]++
	}
	for _, rows := range s.snapshots {
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		})
	}
	metrics.UpdateTotalRiders(len(s.riders))
	return nil
}
