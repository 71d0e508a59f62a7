package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	scenarioModel "github.com/avharris/repcoach/internal/model/scenario"
	"github.com/avharris/repcoach/pkg/utils"
)

// Handler serves the scenario catalog.
type Handler struct {
	store scenarioModel.Store
}

// New creates the scenario handler.
func New(store scenarioModel.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the catalog routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/static/scenarios.json", h.handleList)
	r.Post("/add_scenario", h.handleAdd)
}

// handleList returns the full catalog as a JSON array, the same shape the
// original served as a static file.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.List())
}

// handleAdd appends a scenario to the in-memory catalog.
func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var sc scenarioModel.Scenario
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		utils.RespondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sc.Validate(); err != nil {
		utils.RespondDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Add(sc); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scenarioModel.ErrDuplicateID) {
			status = http.StatusBadRequest
		}
		utils.RespondDetail(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Scenario %q added successfully.", sc.Title),
	})
}
