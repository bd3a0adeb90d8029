package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/domain/profile"
	"github.com/okian/peloton/pkg/logger"
	"github.com/okian/peloton/pkg/metrics"
)

// Ingestor writes riders, races and results into the store, resolving race
// profiles through the template catalog.
type Ingestor struct {
	store   repository.Store
	catalog *profile.Catalog
	lg      logger.Logger
}

// New builds an Ingestor.
func New(store repository.Store, catalog *profile.Catalog) (*Ingestor, error) {
	if store == nil {
		return nil, fmt.Errorf("ingest: store is required")
	}
	if catalog == nil {
		catalog = profile.NewCatalog()
	}
	return &Ingestor{
		store:   store,
		catalog: catalog,
		lg:      logger.Named("ingest"),
	}, nil
}

// RegisterRider returns the rider with the given name, creating the record
// on first reference. Team, country and the upstream external id refresh an
// existing record when they carry new values.
func (in *Ingestor) RegisterRider(ctx context.Context, name, team, country, externalID string) (model.Rider, error) {
	if name == "" {
		return model.Rider{}, fmt.Errorf("ingest: rider name is required")
	}
	now := time.Now().UTC()

	rider, err := in.store.GetRiderByName(ctx, name)
	if err == nil {
		changed := false
		if team != "" && team != rider.Team {
			rider.Team, changed = team, true
		}
		if country != "" && country != rider.Country {
			rider.Country, changed = country, true
		}
		if externalID != "" && externalID != rider.ExternalID {
			rider.ExternalID, changed = externalID, true
		}
		if changed {
			rider.UpdatedAt = now
			if err := in.store.PutRider(ctx, rider); err != nil {
				return model.Rider{}, fmt.Errorf("register rider: %w", err)
			}
		}
		return rider, nil
	}
	if !errors.Is(err, repository.ErrRiderNotFound) {
		return model.Rider{}, fmt.Errorf("register rider: %w", err)
	}

	rider = model.Rider{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		Name:       name,
		Team:       team,
		Country:    country,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := in.store.PutRider(ctx, rider); err != nil {
		return model.Rider{}, fmt.Errorf("register rider: %w", err)
	}
	metrics.RecordRiderRegistered()
	return rider, nil
}

// CreateRace stores a race and its profile. The profile comes from the
// named template when set, the explicit weight map otherwise.
func (in *Ingestor) CreateRace(ctx context.Context, data RaceData) (model.Race, error) {
	if data.Name == "" {
		return model.Race{}, fmt.Errorf("ingest: race name is required")
	}
	category, err := model.ParseCategory(data.Category)
	if err != nil {
		return model.Race{}, fmt.Errorf("create race: %w", err)
	}

	weights := data.Weights
	if data.TemplateName != "" {
		weights, err = in.catalog.Get(data.TemplateName)
		if err != nil {
			return model.Race{}, fmt.Errorf("create race %q: %w", data.Name, err)
		}
	}

	season := data.Season
	if season == 0 {
		season = data.Date.Year()
	}
	race := model.Race{
		ID:         uuid.NewString(),
		ExternalID: data.ExternalID,
		Name:       data.Name,
		Category:   category,
		Date:       data.Date,
		Season:     season,
		Country:    data.Country,
		CreatedAt:  time.Now().UTC(),
	}
	raceProfile := model.RaceProfile{RaceID: race.ID, Weights: weights}
	if err := raceProfile.Validate(); err != nil {
		return model.Race{}, fmt.Errorf("create race %q: %w", data.Name, err)
	}

	if err := in.store.PutRace(ctx, race); err != nil {
		return model.Race{}, fmt.Errorf("create race: %w", err)
	}
	if err := in.store.PutProfile(ctx, raceProfile); err != nil {
		return model.Race{}, fmt.Errorf("create race profile: %w", err)
	}
	metrics.RecordRaceIngested()
	in.lg.Info(ctx, "race created",
		logger.String("race_id", race.ID),
		logger.String("name", race.Name),
		logger.String("category", string(race.Category)))
	return race, nil
}

// AddResults appends finishing rows to a race, registering unknown riders
// on the way. Returns the number of rows stored.
func (in *Ingestor) AddResults(ctx context.Context, raceID string, rows []ResultData) (int, error) {
	if _, err := in.store.GetRace(ctx, raceID); err != nil {
		return 0, fmt.Errorf("add results: %w", err)
	}

	stored := 0
	for _, row := range rows {
		rider, err := in.RegisterRider(ctx, row.RiderName, row.Team, row.Country, "")
		if err != nil {
			return stored, err
		}
		result := model.RaceResult{
			ID:                uuid.NewString(),
			RaceID:            raceID,
			RiderID:           rider.ID,
			Position:          row.Position,
			TimeSeconds:       row.TimeSeconds,
			TimeBehindSeconds: row.TimeBehindSeconds,
			DidNotFinish:      row.DidNotFinish,
			DidNotStart:       row.DidNotStart,
			CreatedAt:         time.Now().UTC(),
		}
		if err := in.store.PutResult(ctx, result); err != nil {
			return stored, fmt.Errorf("add results: %w", err)
		}
		stored++
	}
	metrics.RecordResultsIngested(stored)
	return stored, nil
}

// FindRace looks up a previously ingested race edition by name and date.
// Feed sources redeliver finished races on every pass, so callers use this
// to recognize an edition that is already stored.
func (in *Ingestor) FindRace(ctx context.Context, name string, date time.Time) (model.Race, bool, error) {
	race, err := in.store.GetRaceByName(ctx, name)
	if errors.Is(err, repository.ErrRaceNotFound) {
		return model.Race{}, false, nil
	}
	if err != nil {
		return model.Race{}, false, fmt.Errorf("find race: %w", err)
	}
	if !sameDay(race.Date, date) {
		return model.Race{}, false, nil
	}
	return race, true, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// IngestRace stores a race, its profile and all its results in one call.
func (in *Ingestor) IngestRace(ctx context.Context, data RaceData) (model.Race, int, error) {
	race, err := in.CreateRace(ctx, data)
	if err != nil {
		return model.Race{}, 0, err
	}
	stored, err := in.AddResults(ctx, race.ID, data.Results)
	if err != nil {
		return race, stored, err
	}
	return race, stored, nil
}
