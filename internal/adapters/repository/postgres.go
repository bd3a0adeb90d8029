package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/pkg/metrics"
)

// PostgresStore is the database-backed Store for deployments that outlive a
// single process. The schema is created on construction if missing.
type PostgresStore struct {
	db *sql.DB
}

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS riders (
		id          TEXT PRIMARY KEY,
		external_id TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL UNIQUE,
		team        TEXT NOT NULL DEFAULT '',
		country     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS races (
		id          TEXT PRIMARY KEY,
		external_id TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL,
		category    TEXT NOT NULL,
		date        TIMESTAMPTZ NOT NULL,
		season      INT NOT NULL,
		country     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS race_profiles (
		race_id TEXT PRIMARY KEY REFERENCES races(id),
		weights JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS race_results (
		id                  TEXT PRIMARY KEY,
		race_id             TEXT NOT NULL REFERENCES races(id),
		rider_id            TEXT NOT NULL REFERENCES riders(id),
		position            INT NOT NULL,
		time_seconds        INT NOT NULL DEFAULT 0,
		time_behind_seconds INT NOT NULL DEFAULT 0,
		did_not_finish      BOOLEAN NOT NULL DEFAULT FALSE,
		did_not_start       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at          TIMESTAMPTZ NOT NULL,
		UNIQUE (race_id, rider_id),
		UNIQUE (race_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS rider_ratings (
		rider_id      TEXT PRIMARY KEY REFERENCES riders(id),
		scores        JSONB NOT NULL,
		overall       INT NOT NULL,
		races_count   INT NOT NULL DEFAULT 0,
		wins_count    INT NOT NULL DEFAULT 0,
		podiums_count INT NOT NULL DEFAULT 0,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rating_snapshots (
		id         TEXT PRIMARY KEY,
		rider_id   TEXT NOT NULL REFERENCES riders(id),
		race_id    TEXT NOT NULL REFERENCES races(id),
		date       TIMESTAMPTZ NOT NULL,
		scores     JSONB NOT NULL,
		overall    INT NOT NULL,
		reason     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_rider ON rating_snapshots (rider_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_snapshots_race ON rating_snapshots (race_id)`,
}

// NewPostgresStore connects to the database and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	for _, stmt := range pgSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &PostgresStore{db: db}, nil
}

// PutRider inserts or replaces a rider record.
func (s *PostgresStore) PutRider(ctx context.Context, rider model.Rider) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO riders (id, external_id, name, team, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			name = EXCLUDED.name,
			team = EXCLUDED.team,
			country = EXCLUDED.country,
			updated_at = EXCLUDED.updated_at`,
		rider.ID, rider.ExternalID, rider.Name, rider.Team, rider.Country,
		rider.CreatedAt, rider.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put rider: %w", err)
	}
	return nil
}

func scanRider(row *sql.Row) (model.Rider, error) {
	var r model.Rider
	err := row.Scan(&r.ID, &r.ExternalID, &r.Name, &r.Team, &r.Country, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Rider{}, ErrRiderNotFound
	}
	if err != nil {
		return model.Rider{}, fmt.Errorf("scan rider: %w", err)
	}
	return r, nil
}

// GetRider returns a rider by id.
func (s *PostgresStore) GetRider(ctx context.Context, id string) (model.Rider, error) {
	return scanRider(s.db.QueryRowContext(ctx, `
		SELECT id, external_id, name, team, country, created_at, updated_at
		FROM riders WHERE id = $1`, id))
}

// GetRiderByName returns a rider by exact name.
func (s *PostgresStore) GetRiderByName(ctx context.Context, name string) (model.Rider, error) {
	return scanRider(s.db.QueryRowContext(ctx, `
		SELECT id, external_id, name, team, country, created_at, updated_at
		FROM riders WHERE name = $1`, name))
}

// ListRiders returns all riders ordered by name.
func (s *PostgresStore) ListRiders(ctx context.Context) ([]model.Rider, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, external_id, name, team, country, created_at, updated_at
		FROM riders ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list riders: %w", err)
	}
	defer rows.Close()

	var out []model.Rider
	for rows.Next() {
		var r model.Rider
		if err := rows.Scan(&r.ID, &r.ExternalID, &r.Name, &r.Team, &r.Country,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rider: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PutRace inserts or replaces a race record.
func (s *PostgresStore) PutRace(ctx context.Context, race model.Race) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO races (id, external_id, name, category, date, season, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			date = EXCLUDED.date,
			season = EXCLUDED.season,
			country = EXCLUDED.country`,
		race.ID, race.ExternalID, race.Name, string(race.Category), race.Date,
		race.Season, race.Country, race.CreatedAt)
	if err != nil {
		return fmt.Errorf("put race: %w", err)
	}
	return nil
}

func scanRace(row *sql.Row) (model.Race, error) {
	var (
		r   model.Race
		cat string
	)
	err := row.Scan(&r.ID, &r.ExternalID, &r.Name, &cat, &r.Date, &r.Season, &r.Country, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Race{}, ErrRaceNotFound
	}
	if err != nil {
		return model.Race{}, fmt.Errorf("scan race: %w", err)
	}
	r.Category = model.Category(cat)
	return r, nil
}

// GetRace returns a race by id.
func (s *PostgresStore) GetRace(ctx context.Context, id string) (model.Race, error) {
	return scanRace(s.db.QueryRowContext(ctx, `
		SELECT id, external_id, name, category, date, season, country, created_at
		FROM races WHERE id = $1`, id))
}

// GetRaceByName returns the most recent race with the given name.
func (s *PostgresStore) GetRaceByName(ctx context.Context, name string) (model.Race, error) {
	return scanRace(s.db.QueryRowContext(ctx, `
		SELECT id, external_id, name, category, date, season, country, created_at
		FROM races WHERE name = $1 ORDER BY date DESC LIMIT 1`, name))
}

// ListRaces returns all races ordered by date ascending.
func (s *PostgresStore) ListRaces(ctx context.Context) ([]model.Race, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, external_id, name, category, date, season, country, created_at
		FROM races ORDER BY date, name`)
	if err != nil {
		return nil, fmt.Errorf("list races: %w", err)
	}
	defer rows.Close()

	var out []model.Race
	for rows.Next() {
		var (
			r   model.Race
			cat string
		)
		if err := rows.Scan(&r.ID, &r.ExternalID, &r.Name, &cat, &r.Date,
			&r.Season, &r.Country, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan race: %w", err)
		}
		r.Category = model.Category(cat)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PutProfile stores the dimension weights of a race.
func (s *PostgresStore) PutProfile(ctx context.Context, profile model.RaceProfile) error {
	weights, err := json.Marshal(profile.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO race_profiles (race_id, weights) VALUES ($1, $2)
		ON CONFLICT (race_id) DO UPDATE SET weights = EXCLUDED.weights`,
		profile.RaceID, weights)
	if err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

// GetProfile returns the weights of a race.
func (s *PostgresStore) GetProfile(ctx context.Context, raceID string) (model.RaceProfile, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT weights FROM race_profiles WHERE race_id = $1`, raceID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RaceProfile{}, ErrProfileNotFound
	}
	if err != nil {
		return model.RaceProfile{}, fmt.Errorf("get profile: %w", err)
	}
	profile := model.RaceProfile{RaceID: raceID}
	if err := json.Unmarshal(raw, &profile.Weights); err != nil {
		return model.RaceProfile{}, fmt.Errorf("unmarshal weights: %w", err)
	}
	return profile, nil
}

// PutResult appends one finishing row to a race.
func (s *PostgresStore) PutResult(ctx context.Context, result model.RaceResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO race_results
			(id, race_id, rider_id, position, time_seconds, time_behind_seconds,
			 did_not_finish, did_not_start, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		result.ID, result.RaceID, result.RiderID, result.Position,
		result.TimeSeconds, result.TimeBehindSeconds,
		result.DidNotFinish, result.DidNotStart, result.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: rider %s position %d in race %s",
			ErrDuplicateResult, result.RiderID, result.Position, result.RaceID)
	}
	if err != nil {
		return fmt.Errorf("put result: %w", err)
	}
	return nil
}

// ListResults returns all results of a race ordered by position.
func (s *PostgresStore) ListResults(ctx context.Context, raceID string) ([]model.RaceResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, race_id, rider_id, position, time_seconds, time_behind_seconds,
		       did_not_finish, did_not_start, created_at
		FROM race_results WHERE race_id = $1 ORDER BY position`, raceID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []model.RaceResult
	for rows.Next() {
		var r model.RaceResult
		if err := rows.Scan(&r.ID, &r.RaceID, &r.RiderID, &r.Position,
			&r.TimeSeconds, &r.TimeBehindSeconds,
			&r.DidNotFinish, &r.DidNotStart, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRating returns the current rating record of a rider.
func (s *PostgresStore) GetRating(ctx context.Context, riderID string) (model.RiderRating, error) {
	var (
		r   model.RiderRating
		raw []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT rider_id, scores, overall, races_count, wins_count, podiums_count, updated_at
		FROM rider_ratings WHERE rider_id = $1`, riderID).
		Scan(&r.RiderID, &raw, &r.Overall, &r.RacesCount, &r.WinsCount, &r.PodiumsCount, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RiderRating{}, ErrRatingNotFound
	}
	if err != nil {
		return model.RiderRating{}, fmt.Errorf("get rating: %w", err)
	}
	if err := json.Unmarshal(raw, &r.Scores); err != nil {
		return model.RiderRating{}, fmt.Errorf("unmarshal scores: %w", err)
	}
	return r, nil
}

// PutRating inserts or replaces a rider's rating record.
func (s *PostgresStore) PutRating(ctx context.Context, rating model.RiderRating) error {
	if err := upsertRating(ctx, s.db, rating); err != nil {
		return fmt.Errorf("put rating: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRating(ctx context.Context, db execer, rating model.RiderRating) error {
	scores, err := json.Marshal(rating.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO rider_ratings
			(rider_id, scores, overall, races_count, wins_count, podiums_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (rider_id) DO UPDATE SET
			scores = EXCLUDED.scores,
			overall = EXCLUDED.overall,
			races_count = EXCLUDED.races_count,
			wins_count = EXCLUDED.wins_count,
			podiums_count = EXCLUDED.podiums_count,
			updated_at = EXCLUDED.updated_at`,
		rating.RiderID, scores, rating.Overall,
		rating.RacesCount, rating.WinsCount, rating.PodiumsCount, rating.UpdatedAt)
	return err
}

// ApplyRatingUpdate writes the ratings and snapshots produced for one race
// in a single transaction.
func (s *PostgresStore) ApplyRatingUpdate(ctx context.Context, update RatingUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, rating := range update.Ratings {
		if err := upsertRating(ctx, tx, rating); err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}
	}
	for _, snap := range update.Snapshots {
		scores, err := json.Marshal(snap.Scores)
		if err != nil {
			return fmt.Errorf("marshal snapshot scores: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rating_snapshots
				(id, rider_id, race_id, date, scores, overall, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			snap.ID, snap.RiderID, snap.RaceID, snap.Date, scores,
			snap.Overall, snap.Reason, snap.CreatedAt); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	metrics.RecordSnapshotsAppended(len(update.Snapshots))
	return nil
}

// ListSnapshots returns a rider's snapshots newest first.
func (s *PostgresStore) ListSnapshots(ctx context.Context, riderID string, limit int) ([]model.RatingSnapshot, error) {
	query := `
		SELECT id, rider_id, race_id, date, scores, overall, reason, created_at
		FROM rating_snapshots WHERE rider_id = $1 ORDER BY created_at DESC`
	args := []any{riderID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.RatingSnapshot
	for rows.Next() {
		var (
			snap model.RatingSnapshot
			raw  []byte
		)
		if err := rows.Scan(&snap.ID, &snap.RiderID, &snap.RaceID, &snap.Date,
			&raw, &snap.Overall, &snap.Reason, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if err := json.Unmarshal(raw, &snap.Scores); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot scores: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// HasRaceSnapshots reports whether any snapshot references the race.
func (s *PostgresStore) HasRaceSnapshots(ctx context.Context, raceID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM rating_snapshots WHERE race_id = $1)`, raceID).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check race snapshots: %w", err)
	}
	return exists, nil
}

// TopByDimension returns the top rated riders in a dimension.
func (s *PostgresStore) TopByDimension(ctx context.Context, d model.Dimension, limit int) ([]RankEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if !model.ValidDimension(d) && d != model.DimensionOverall {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, d)
	}

	// The dimension is validated against the known set above, so the
	// interpolated score expression cannot carry user input.
	score := "rr.overall"
	if d != model.DimensionOverall {
		score = fmt.Sprintf("(rr.scores->>'%s')::int", string(d))
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT rr.rider_id, r.name, r.team, %s AS score
		FROM rider_ratings rr JOIN riders r ON r.id = rr.rider_id
		ORDER BY score DESC, r.name ASC
		LIMIT $1`, score), limit)
	if err != nil {
		return nil, fmt.Errorf("rank by dimension: %w", err)
	}
	defer rows.Close()

	var out []RankEntry
	for rows.Next() {
		entry := RankEntry{Dimension: d}
		if err := rows.Scan(&entry.RiderID, &entry.Name, &entry.Team, &entry.Score); err != nil {
			return nil, fmt.Errorf("scan rank entry: %w", err)
		}
		entry.Rank = len(out) + 1
		out = append(out, entry)
	}
	return out, rows.Err()
}

// CountRiders returns the number of riders tracked in the store.
func (s *PostgresStore) CountRiders(ctx context.Context) int {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM riders`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Close releases the database connection pool.
func (s *PostgresStore) Close(_ context.Context) error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr interface{ SQLState() string }
	return errors.As(err, &pqErr) && pqErr.SQLState() == "23505"
}
