package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/okian/peloton/internal/domain/model"
	"github.com/okian/peloton/internal/ingest"
)

// raceDateLayout is the date format accepted in race payloads.
const raceDateLayout = "2006-01-02"

// RacesHandler handles race requests.
type RacesHandler struct {
	deps Dependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps Dependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// raceResultRequest is one finishing row in a race payload.
type raceResultRequest struct {
	RiderName         string `json:"rider_name"`
	Team              string `json:"team"`
	Country           string `json:"country"`
	Position          int    `json:"position"`
	TimeSeconds       int    `json:"time_seconds"`
	TimeBehindSeconds int    `json:"time_behind_seconds"`
	DNF               bool   `json:"dnf"`
	DNS               bool   `json:"dns"`
}

// raceRequest mirrors the schema for POST /races. Template and weights are
// alternatives; template wins when both are present.
type raceRequest struct {
	Name     string                      `json:"name"`
	Date     string                      `json:"date"`
	Category string                      `json:"category"`
	Country  string                      `json:"country"`
	Season   int                         `json:"season"`
	Template string                      `json:"template"`
	Weights  map[model.Dimension]float64 `json:"weights"`
	Results  []raceResultRequest         `json:"results"`
}

// raceResponse bundles a race with its profile and results.
type raceResponse struct {
	Race    model.Race         `json:"race"`
	Profile model.RaceProfile  `json:"profile"`
	Results []model.RaceResult `json:"results"`
}

type raceCreatedResponse struct {
	Race    model.Race `json:"race"`
	Results int        `json:"results"`
}

type enqueueResponse struct {
	Status string `json:"status"`
	RaceID string `json:"race_id"`
}

// HandleRaces handles POST /races requests.
func (h *RacesHandler) HandleRaces(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req raceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Date) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	date, err := time.Parse(raceDateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	data := ingest.RaceData{
		Name:         req.Name,
		Date:         date,
		Category:     req.Category,
		Country:      req.Country,
		Season:       req.Season,
		TemplateName: req.Template,
		Weights:      req.Weights,
	}
	for _, row := range req.Results {
		data.Results = append(data.Results, ingest.ResultData{
			RiderName:         row.RiderName,
			Team:              row.Team,
			Country:           row.Country,
			Position:          row.Position,
			TimeSeconds:       row.TimeSeconds,
			TimeBehindSeconds: row.TimeBehindSeconds,
			DidNotFinish:      row.DNF,
			DidNotStart:       row.DNS,
		})
	}

	race, stored, err := h.deps.CreateRace(r.Context(), data)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, raceCreatedResponse{Race: race, Results: stored})
}

// HandleRace handles GET /races/{id} and POST /races/{id}/ratings.
func (h *RacesHandler) HandleRace(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/races/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		race, raceProfile, results, err := h.deps.GetRace(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, raceResponse{Race: race, Profile: raceProfile, Results: results})
	case sub == "ratings" && r.Method == http.MethodPost:
		h.handleRatings(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleRatings triggers the rating computation for one race: queued by
// default, synchronous with ?sync=true.
func (h *RacesHandler) handleRatings(w http.ResponseWriter, r *http.Request, raceID string) {
	if r.URL.Query().Get("sync") == "true" {
		summary, err := h.deps.UpdateRatingsNow(r.Context(), raceID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
		return
	}

	ok, err := h.deps.EnqueueRatingUpdate(r.Context(), raceID, "api request")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, enqueueResponse{Status: "queued", RaceID: raceID})
}
