package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/peloton/pkg/logger"
)

// csvDateLayout is the date format expected in race CSV rows.
const csvDateLayout = "2006-01-02"

// RowError ties an import failure to its CSV line.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Report summarizes one CSV import run. Row-level failures are collected
// rather than aborting the run.
type Report struct {
	Rows     int
	Imported int
	Errors   []RowError
}

// columnIndex maps lowercased header names to their column position.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func field(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func boolField(record []string, idx map[string]int, name string) bool {
	switch strings.ToLower(field(record, idx, name)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func intField(record []string, idx map[string]int, name string) (int, error) {
	raw := field(record, idx, name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// ImportRiders reads rider rows (name, team, country, external_id) and
// registers each.
func (in *Ingestor) ImportRiders(ctx context.Context, r io.Reader) (Report, error) {
	return in.importRows(ctx, r, func(ctx context.Context, record []string, idx map[string]int) error {
		_, err := in.RegisterRider(ctx,
			field(record, idx, "name"),
			field(record, idx, "team"),
			field(record, idx, "country"),
			field(record, idx, "external_id"))
		return err
	})
}

// ImportRaces reads race rows (name, date, category, template, country,
// season, external_id) and creates each race with its template profile.
func (in *Ingestor) ImportRaces(ctx context.Context, r io.Reader) (Report, error) {
	return in.importRows(ctx, r, func(ctx context.Context, record []string, idx map[string]int) error {
		date, err := time.Parse(csvDateLayout, field(record, idx, "date"))
		if err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
		season, err := intField(record, idx, "season")
		if err != nil {
			return fmt.Errorf("parse season: %w", err)
		}
		_, err = in.CreateRace(ctx, RaceData{
			Name:         field(record, idx, "name"),
			ExternalID:   field(record, idx, "external_id"),
			Date:         date,
			Category:     field(record, idx, "category"),
			TemplateName: field(record, idx, "template"),
			Country:      field(record, idx, "country"),
			Season:       season,
		})
		return err
	})
}

// ImportResults reads result rows (race_name, rider_name, position, team,
// time_seconds, time_behind_seconds, dnf, dns) and appends each to the
// named race, registering unknown riders on the way.
func (in *Ingestor) ImportResults(ctx context.Context, r io.Reader) (Report, error) {
	return in.importRows(ctx, r, func(ctx context.Context, record []string, idx map[string]int) error {
		race, err := in.store.GetRaceByName(ctx, field(record, idx, "race_name"))
		if err != nil {
			return err
		}
		position, err := intField(record, idx, "position")
		if err != nil {
			return fmt.Errorf("parse position: %w", err)
		}
		timeSeconds, err := intField(record, idx, "time_seconds")
		if err != nil {
			return fmt.Errorf("parse time_seconds: %w", err)
		}
		behind, err := intField(record, idx, "time_behind_seconds")
		if err != nil {
			return fmt.Errorf("parse time_behind_seconds: %w", err)
		}
		_, err = in.AddResults(ctx, race.ID, []ResultData{{
			RiderName:         field(record, idx, "rider_name"),
			Team:              field(record, idx, "team"),
			Position:          position,
			TimeSeconds:       timeSeconds,
			TimeBehindSeconds: behind,
			DidNotFinish:      boolField(record, idx, "dnf"),
			DidNotStart:       boolField(record, idx, "dns"),
		}})
		return err
	})
}

// importRows drives one CSV import: the first record is the header, every
// later record is handed to apply. Row failures land in the report.
func (in *Ingestor) importRows(ctx context.Context, r io.Reader,
	apply func(ctx context.Context, record []string, idx map[string]int) error) (Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows validate per-field, not by width

	header, err := reader.Read()
	if err == io.EOF {
		return Report{}, nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("read csv header: %w", err)
	}
	idx := columnIndex(header)

	var report Report
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read csv row: %w", err)
		}
		report.Rows++
		if err := apply(ctx, record, idx); err != nil {
			report.Errors = append(report.Errors, RowError{Line: line, Err: err})
			continue
		}
		report.Imported++
	}

	if len(report.Errors) > 0 {
		in.lg.Warn(ctx, "csv import finished with row errors",
			logger.Int("rows", report.Rows),
			logger.Int("imported", report.Imported),
			logger.Int("failed", len(report.Errors)))
	}
	return report, nil
}
