// Package ingest brings riders, races and results into the store: a typed
// source contract for feed adapters plus CSV importers for bulk loads.
package ingest

import (
	"context"
	"time"

	"github.com/okian/peloton/internal/domain/model"
)

// ResultData is one finishing row as delivered by a data source.
type ResultData struct {
	RiderName         string
	Team              string
	Country           string
	Position          int
	TimeSeconds       int
	TimeBehindSeconds int
	DidNotFinish      bool
	DidNotStart       bool
}

// RaceData is one race as delivered by a data source. Either TemplateName
// or Weights describes the profile; TemplateName wins when both are set.
type RaceData struct {
	Name         string
	ExternalID   string
	Date         time.Time
	Category     string
	Country      string
	Season       int
	TemplateName string
	Weights      map[model.Dimension]float64
	Results      []ResultData
}

// Source delivers the races that finished on a given day.
type Source interface {
	Races(ctx context.Context, on time.Time) ([]RaceData, error)
}
