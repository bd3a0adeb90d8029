// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	jobqueue "github.com/okian/peloton/internal/adapters/mq/queue"
	workerpool "github.com/okian/peloton/internal/adapters/mq/worker"
	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/config"
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/domain/profile"
	"github.com/okian/peloton/internal/engine"
	"github.com/okian/peloton/internal/ingest"
	"github.com/okian/peloton/internal/seed"
	"github.com/okian/peloton/internal/updater"
	"github.com/okian/peloton/pkg/logger"
	"github.com/okian/peloton/pkg/metrics"
)

// Service wires the store, the rating engine, ingestion and the worker pool
// behind the methods the HTTP API needs.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	store    repository.Store
	catalog  *profile.Catalog
	engine   *engine.Engine
	ingestor *ingest.Ingestor
	queue    *jobqueue.InMemoryQueue
	pool     *workerpool.Pool
	updater  *updater.Updater
	source   ingest.Source

	// Races with a rating update in flight, guarded by its own mutex so
	// workers can release entries while Stop holds mu. An entry is
	// released when the job fails, so the race can be resubmitted; a
	// processed race is rejected by the snapshot check instead.
	queuedMu sync.Mutex
	queued   map[string]struct{}

	started      bool
	cancelWorker context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the service configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore injects a pre-built store, overriding the configured backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSource sets the race feed used by the periodic updater.
func WithSource(source ingest.Source) Option {
	return func(s *Service) {
		if source != nil {
			s.source = source
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(lg logger.Logger) Option {
	return func(s *Service) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    config.New(),
		queued: make(map[string]struct{}),
		source: seed.NewSampleSource(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting rating service...")

	if s.store == nil {
		store, err := s.buildStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
	}
	s.catalog = profile.NewCatalog()

	eng, err := engine.New(s.store, engine.WithParams(s.cfg.Params()))
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	s.engine = eng

	s.ingestor, err = ingest.New(s.store, s.catalog)
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	s.queue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.cfg.QueueSize),
		jobqueue.WithBufferSize(s.cfg.QueueSize),
	)
	s.pool = workerpool.NewPool(s.cfg.WorkerCount, s.queue, &trackedUpdater{svc: s})

	workerCtx, cancel := context.WithCancel(context.Background())
	s.cancelWorker = cancel
	s.pool.Start(workerCtx)

	if s.cfg.UpdaterEnabled {
		interval := time.Duration(s.cfg.UpdaterIntervalHours) * time.Hour
		s.updater, err = updater.New(s.source, s.ingestor, s.engine, interval)
		if err != nil {
			return fmt.Errorf("start service: %w", err)
		}
		go s.updater.Run(workerCtx)
	}

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.String("storage", s.cfg.Storage),
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queue_size", s.cfg.QueueSize))
	return nil
}

func (s *Service) buildStore(ctx context.Context) (repository.Store, error) {
	switch s.cfg.Storage {
	case config.StoragePostgres:
		store, err := repository.NewPostgresStore(ctx, s.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("start service: %w", err)
		}
		s.logger.Info(ctx, "using postgres store")
		return store, nil
	default:
		store, err := repository.NewMemStore(repository.WithDataFile(s.cfg.DataFile))
		if err != nil {
			return nil, fmt.Errorf("start service: %w", err)
		}
		s.logger.Info(ctx, "using memory store", logger.String("data_file", s.cfg.DataFile))
		return store, nil
	}
}

// Stop gracefully shuts down the service, flushing the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping rating service...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.cancelWorker != nil {
		s.cancelWorker()
	}
	if s.store != nil {
		if err := s.store.Close(ctx); err != nil {
			s.logger.Error(ctx, "error closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// RegisterRider creates (or refreshes) a rider and ensures a rating record
// exists for them.
func (s *Service) RegisterRider(ctx context.Context, name, team, country, externalID string) (model.Rider, model.RiderRating, error) {
	rider, err := s.ingestor.RegisterRider(ctx, name, team, country, externalID)
	if err != nil {
		return model.Rider{}, model.RiderRating{}, err
	}
	rating, err := s.engine.InitializeRiderRating(ctx, rider.ID)
	if err != nil {
		return model.Rider{}, model.RiderRating{}, err
	}
	return rider, rating, nil
}

// GetRider returns a rider together with their current rating.
func (s *Service) GetRider(ctx context.Context, id string) (model.Rider, model.RiderRating, error) {
	rider, err := s.store.GetRider(ctx, id)
	if err != nil {
		return model.Rider{}, model.RiderRating{}, err
	}
	rating, err := s.engine.InitializeRiderRating(ctx, id)
	if err != nil {
		return model.Rider{}, model.RiderRating{}, err
	}
	return rider, rating, nil
}

// RiderHistory returns a rider's rating snapshots newest first.
func (s *Service) RiderHistory(ctx context.Context, riderID string, limit int) ([]model.RatingSnapshot, error) {
	if _, err := s.store.GetRider(ctx, riderID); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, riderID, limit)
}

// CreateRace ingests a race with its profile and results.
func (s *Service) CreateRace(ctx context.Context, data ingest.RaceData) (model.Race, int, error) {
	return s.ingestor.IngestRace(ctx, data)
}

// GetRace returns a race with its profile and results.
func (s *Service) GetRace(ctx context.Context, id string) (model.Race, model.RaceProfile, []model.RaceResult, error) {
	race, err := s.store.GetRace(ctx, id)
	if err != nil {
		return model.Race{}, model.RaceProfile{}, nil, err
	}
	raceProfile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return model.Race{}, model.RaceProfile{}, nil, err
	}
	results, err := s.store.ListResults(ctx, id)
	if err != nil {
		return model.Race{}, model.RaceProfile{}, nil, err
	}
	return race, raceProfile, results, nil
}

// EnqueueRatingUpdate queues the rating computation for a race. Returns
// false when the job was refused: race already queued or queue full.
func (s *Service) EnqueueRatingUpdate(ctx context.Context, raceID, reason string) (bool, error) {
	if _, err := s.store.GetRace(ctx, raceID); err != nil {
		return false, err
	}
	processed, err := s.store.HasRaceSnapshots(ctx, raceID)
	if err != nil {
		return false, err
	}
	if processed {
		return false, fmt.Errorf("%w: race %s", engine.ErrAlreadyProcessed, raceID)
	}

	s.queuedMu.Lock()
	if _, dup := s.queued[raceID]; dup {
		s.queuedMu.Unlock()
		metrics.RecordDuplicateJob()
		return false, nil
	}
	s.queued[raceID] = struct{}{}
	s.queuedMu.Unlock()

	ok := s.queue.Enqueue(ctx, jobqueue.Job{RaceID: raceID, Reason: reason})
	if !ok {
		s.releaseQueued(raceID)
	}
	return ok, nil
}

func (s *Service) releaseQueued(raceID string) {
	s.queuedMu.Lock()
	delete(s.queued, raceID)
	s.queuedMu.Unlock()
}

// trackedUpdater runs the rating update for queued jobs and releases the
// race's submission slot when the update fails, so a transient store error
// does not block the race from being queued again. An already processed
// race keeps its slot: the snapshot check rejects it anyway.
type trackedUpdater struct {
	svc *Service
}

func (t *trackedUpdater) UpdateRatingsForRace(ctx context.Context, raceID string) (engine.Summary, error) {
	summary, err := t.svc.engine.UpdateRatingsForRace(ctx, raceID)
	if err != nil && !errors.Is(err, engine.ErrAlreadyProcessed) {
		t.svc.releaseQueued(raceID)
	}
	return summary, err
}

// UpdateRatingsNow runs the rating computation synchronously.
func (s *Service) UpdateRatingsNow(ctx context.Context, raceID string) (engine.Summary, error) {
	return s.engine.UpdateRatingsForRace(ctx, raceID)
}

// Rankings returns the top rated riders in a dimension. An empty dimension
// means overall. The limit is capped by configuration.
func (s *Service) Rankings(ctx context.Context, dimension string, limit int) ([]repository.RankEntry, error) {
	d := model.DimensionOverall
	if dimension != "" {
		d = model.Dimension(dimension)
	}
	if limit <= 0 {
		limit = s.cfg.MaxRankingsLimit
	}
	if limit > s.cfg.MaxRankingsLimit {
		limit = s.cfg.MaxRankingsLimit
	}
	return s.store.TopByDimension(ctx, d, limit)
}

// Templates returns the names of all race profile presets.
func (s *Service) Templates() []string {
	return s.catalog.Names()
}

// Template returns the weight table of one preset.
func (s *Service) Template(name string) (map[model.Dimension]float64, error) {
	return s.catalog.Get(name)
}

// ImportRidersCSV bulk-loads riders from CSV.
func (s *Service) ImportRidersCSV(ctx context.Context, r io.Reader) (ingest.Report, error) {
	return s.ingestor.ImportRiders(ctx, r)
}

// ImportRacesCSV bulk-loads races from CSV.
func (s *Service) ImportRacesCSV(ctx context.Context, r io.Reader) (ingest.Report, error) {
	return s.ingestor.ImportRaces(ctx, r)
}

// ImportResultsCSV bulk-loads race results from CSV.
func (s *Service) ImportResultsCSV(ctx context.Context, r io.Reader) (ingest.Report, error) {
	return s.ingestor.ImportResults(ctx, r)
}

// SeedSampleData ingests and rates the built-in sample fixture.
func (s *Service) SeedSampleData(ctx context.Context) (updater.RunReport, error) {
	u, err := updater.New(seed.NewSampleSource(), s.ingestor, s.engine, time.Hour)
	if err != nil {
		return updater.RunReport{}, err
	}
	return u.RunOnce(ctx, time.Now().UTC())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"storage":      s.cfg.Storage,
		"worker_count": s.cfg.WorkerCount,
		"queue_size":   s.cfg.QueueSize,
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		riders := s.store.CountRiders(ctx)
		stats["queue_length"] = queueLen
		stats["total_riders"] = riders

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalRiders(riders)
	}
	return stats
}
