package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/peloton/internal/domain/model"
)

// RidersHandler handles rider requests.
type RidersHandler struct {
	deps Dependencies
}

// NewRidersHandler creates a new riders handler.
func NewRidersHandler(deps Dependencies) *RidersHandler {
	return &RidersHandler{deps: deps}
}

// riderRequest mirrors the schema for POST /riders.
type riderRequest struct {
	Name       string `json:"name"`
	Team       string `json:"team"`
	Country    string `json:"country"`
	ExternalID string `json:"external_id"`
}

// riderResponse bundles a rider with their current rating.
type riderResponse struct {
	Rider  model.Rider       `json:"rider"`
	Rating model.RiderRating `json:"rating"`
}

// HandleRiders handles POST /riders requests.
func (h *RidersHandler) HandleRiders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req riderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	rider, rating, err := h.deps.RegisterRider(r.Context(), req.Name, req.Team, req.Country, req.ExternalID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, riderResponse{Rider: rider, Rating: rating})
}

// HandleRider handles GET /riders/{id} and GET /riders/{id}/history.
func (h *RidersHandler) HandleRider(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/riders/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch sub {
	case "":
		rider, rating, err := h.deps.GetRider(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, riderResponse{Rider: rider, Rating: rating})
	case "history":
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
				return
			}
			limit = n
		}
		snapshots, err := h.deps.RiderHistory(r.Context(), id, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshots)
	default:
		http.NotFound(w, r)
	}
}
