package api

import (
	"net/http"
	"strings"

	"github.com/okian/peloton/internal/domain/model"
)

// TemplatesHandler handles race template requests.
type TemplatesHandler struct {
	deps Dependencies
}

// NewTemplatesHandler creates a new templates handler.
func NewTemplatesHandler(deps Dependencies) *TemplatesHandler {
	return &TemplatesHandler{deps: deps}
}

type templateResponse struct {
	Name    string                      `json:"name"`
	Weights map[model.Dimension]float64 `json:"weights"`
}

// HandleListTemplates handles GET /templates requests.
func (h *TemplatesHandler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Templates())
}

// HandleGetTemplate handles GET /templates/{name} requests.
func (h *TemplatesHandler) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/templates/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	weights, err := h.deps.Template(name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templateResponse{Name: name, Weights: weights})
}
