// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Layer file and environment values over the defaults in Load.
package config

import (
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/domain/scoring"
)

// Storage backend names.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Storage selects the store backend: memory or postgres.
	Storage string `koanf:"storage"`

	// DatabaseURL is the postgres DSN when Storage is postgres.
	DatabaseURL string `koanf:"database_url"`

	// DataFile persists the memory store as JSON when set.
	DataFile string `koanf:"data_file"`

	// QueueSize bounds the in-memory rating job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rating update workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxRankingsLimit caps GET /rankings?limit.
	MaxRankingsLimit int `koanf:"max_rankings_limit"`

	// UpdaterEnabled starts the periodic source updater.
	UpdaterEnabled bool `koanf:"updater_enabled"`

	// UpdaterIntervalHours sets the updater period.
	UpdaterIntervalHours int `koanf:"updater_interval_hours"`

	// Rating system knobs.
	KFactor       float64 `koanf:"k_factor"`
	InitialRating int     `koanf:"initial_rating"`
	MinRating     int     `koanf:"min_rating"`
	MaxRating     int     `koanf:"max_rating"`

	// OverallWeights replaces the stock dimension blend for the overall
	// score when set. The table must cover every rated dimension and sum
	// to 1.0.
	OverallWeights map[string]float64 `koanf:"overall_weights"`

	// Importance replaces the stock per-category rating impact
	// multipliers when set.
	Importance map[string]float64 `koanf:"importance"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		Storage:              StorageMemory,
		DataFile:             "",
		QueueSize:            4096,
		WorkerCount:          1,
		MaxRankingsLimit:     100,
		UpdaterEnabled:       false,
		UpdaterIntervalHours: 24,
		KFactor:              scoring.DefaultKFactor,
		InitialRating:        scoring.DefaultInitialRating,
		MinRating:            scoring.DefaultMinRating,
		MaxRating:            scoring.DefaultMaxRating,
	}
}

// Params builds the rating parameter set from the configured knobs. The
// weight and importance tables default to the stock tables when the config
// leaves them empty; Load rejects a configured table that fails
// scoring.Params validation.
func (c *Config) Params() scoring.Params {
	p := scoring.DefaultParams()
	p.KFactor = c.KFactor
	p.InitialRating = c.InitialRating
	p.MinRating = c.MinRating
	p.MaxRating = c.MaxRating

	if len(c.OverallWeights) > 0 {
		weights := make(map[model.Dimension]float64, len(c.OverallWeights))
		for name, w := range c.OverallWeights {
			weights[model.Dimension(name)] = w
		}
		p.OverallWeights = weights
	}
	if len(c.Importance) > 0 {
		importance := make(map[model.Category]float64, len(c.Importance))
		for name, m := range c.Importance {
			importance[model.Category(name)] = m
		}
		p.Importance = importance
	}
	return p
}
