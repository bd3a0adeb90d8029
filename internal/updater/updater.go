// Package updater runs the periodic ingestion pass: pull finished races
// from a source, store them, and run the rating computation for each.
package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/peloton/internal/engine"
	"github.com/okian/peloton/internal/ingest"
	"github.com/okian/peloton/pkg/logger"
)

// RatingUpdater runs the rating computation for one race.
type RatingUpdater interface {
	UpdateRatingsForRace(ctx context.Context, raceID string) (engine.Summary, error)
}

// RaceFailure records one race that could not be processed during a run.
type RaceFailure struct {
	RaceName string
	Err      error
}

// RunReport summarizes one updater pass.
type RunReport struct {
	Day      time.Time
	Races    int
	Riders   int
	Skipped  int
	Failures []RaceFailure
}

// Updater pulls races from a source and feeds them through ingestion and
// the rating engine on a fixed interval.
type Updater struct {
	source   ingest.Source
	ingestor *ingest.Ingestor
	ratings  RatingUpdater
	interval time.Duration
	lg       logger.Logger
}

// New builds an Updater.
func New(source ingest.Source, ingestor *ingest.Ingestor, ratings RatingUpdater, interval time.Duration) (*Updater, error) {
	if source == nil || ingestor == nil || ratings == nil {
		return nil, fmt.Errorf("updater: source, ingestor and ratings are required")
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Updater{
		source:   source,
		ingestor: ingestor,
		ratings:  ratings,
		interval: interval,
		lg:       logger.Named("updater"),
	}, nil
}

// Run executes one pass immediately and then one per interval until ctx is
// canceled.
func (u *Updater) Run(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.runAndLog(ctx, time.Now().UTC())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			u.runAndLog(ctx, now.UTC())
		}
	}
}

func (u *Updater) runAndLog(ctx context.Context, day time.Time) {
	report, err := u.RunOnce(ctx, day)
	if err != nil {
		u.lg.Error(ctx, "updater pass failed", logger.Error(err))
		return
	}
	u.lg.Info(ctx, "updater pass finished",
		logger.Time("day", report.Day),
		logger.Int("races", report.Races),
		logger.Int("riders", report.Riders),
		logger.Int("skipped", report.Skipped),
		logger.Int("failed", len(report.Failures)))
}

// RunOnce processes every race the source delivers for one day. Sources
// redeliver finished races, so an edition that is already stored is not
// ingested again and an already rated one only bumps the skip count; a
// failing race is recorded and skipped so one bad feed entry cannot stall
// the rest of the pass.
func (u *Updater) RunOnce(ctx context.Context, day time.Time) (RunReport, error) {
	races, err := u.source.Races(ctx, day)
	if err != nil {
		return RunReport{}, fmt.Errorf("fetch races: %w", err)
	}

	report := RunReport{Day: day}
	for _, data := range races {
		race, known, err := u.ingestor.FindRace(ctx, data.Name, data.Date)
		if err != nil {
			report.Failures = append(report.Failures, RaceFailure{RaceName: data.Name, Err: err})
			continue
		}
		if !known {
			race, _, err = u.ingestor.IngestRace(ctx, data)
			if err != nil {
				report.Failures = append(report.Failures, RaceFailure{RaceName: data.Name, Err: err})
				continue
			}
		}
		summary, err := u.ratings.UpdateRatingsForRace(ctx, race.ID)
		if errors.Is(err, engine.ErrAlreadyProcessed) {
			report.Skipped++
			continue
		}
		if err != nil {
			report.Failures = append(report.Failures, RaceFailure{RaceName: data.Name, Err: err})
			continue
		}
		report.Races++
		report.Riders += summary.Updated
	}
	return report, nil
}
