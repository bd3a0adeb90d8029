// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/peloton/internal/adapters/repository"
	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/domain/profile"
	"github.com/okian/peloton/internal/engine"
	"github.com/okian/peloton/internal/ingest"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RegisterRider(ctx context.Context, name, team, country, externalID string) (model.Rider, model.RiderRating, error)
	GetRider(ctx context.Context, id string) (model.Rider, model.RiderRating, error)
	RiderHistory(ctx context.Context, riderID string, limit int) ([]model.RatingSnapshot, error)

	CreateRace(ctx context.Context, data ingest.RaceData) (model.Race, int, error)
	GetRace(ctx context.Context, id string) (model.Race, model.RaceProfile, []model.RaceResult, error)

	EnqueueRatingUpdate(ctx context.Context, raceID, reason string) (bool, error)
	UpdateRatingsNow(ctx context.Context, raceID string) (engine.Summary, error)

	Rankings(ctx context.Context, dimension string, limit int) ([]repository.RankEntry, error)
	Templates() []string
	Template(name string) (map[model.Dimension]float64, error)
}

// StatsProvider exposes service statistics for the stats endpoint.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	ridersHandler    *RidersHandler
	racesHandler     *RacesHandler
	rankingsHandler  *RankingsHandler
	templatesHandler *TemplatesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRankingsLimit int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		ridersHandler:    NewRidersHandler(deps),
		racesHandler:     NewRacesHandler(deps),
		rankingsHandler:  NewRankingsHandler(deps, maxRankingsLimit),
		templatesHandler: NewTemplatesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/riders", MetricsMiddleware(s.ridersHandler.HandleRiders, "riders"))
	mux.HandleFunc("/riders/", MetricsMiddleware(s.ridersHandler.HandleRider, "rider"))
	mux.HandleFunc("/races", MetricsMiddleware(s.racesHandler.HandleRaces, "races"))
	mux.HandleFunc("/races/", MetricsMiddleware(s.racesHandler.HandleRace, "race"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/templates", MetricsMiddleware(s.templatesHandler.HandleListTemplates, "templates"))
	mux.HandleFunc("/templates/", MetricsMiddleware(s.templatesHandler.HandleGetTemplate, "template"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain error kinds to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrRiderNotFound),
		errors.Is(err, repository.ErrRaceNotFound),
		errors.Is(err, repository.ErrProfileNotFound),
		errors.Is(err, repository.ErrRatingNotFound),
		errors.Is(err, profile.ErrUnknownTemplate):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrInvalidWeights),
		errors.Is(err, repository.ErrUnknownDimension),
		errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, engine.ErrAlreadyProcessed),
		errors.Is(err, repository.ErrDuplicateResult):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, engine.ErrMissingProfile):
		writeError(w, http.StatusUnprocessableEntity, "missing_profile", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
