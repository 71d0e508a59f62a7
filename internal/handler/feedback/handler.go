package feedback

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatModel "github.com/avharris/repcoach/internal/model/chat"
	scenarioModel "github.com/avharris/repcoach/internal/model/scenario"
	"github.com/avharris/repcoach/internal/service/review"
	"github.com/avharris/repcoach/pkg/utils"
)

// Handler serves the coaching feedback endpoint.
type Handler struct {
	reviews *review.Service
	store   scenarioModel.Store
}

// New creates the feedback handler.
func New(reviews *review.Service, store scenarioModel.Store) *Handler {
	return &Handler{reviews: reviews, store: store}
}

// RegisterRoutes mounts the feedback route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/feedback", h.handleFeedback)
}

// handleFeedback reviews a submitted transcript.
func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		History    chatModel.Transcript `json:"history"`
		ScenarioID string               `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.History) == 0 {
		utils.RespondDetail(w, http.StatusBadRequest, "history must not be empty")
		return
	}

	sc, ok := h.store.FindByID(payload.ScenarioID)
	if !ok {
		utils.RespondDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid scenario_id provided: %s", payload.ScenarioID))
		return
	}

	raw := h.reviews.Compose(payload.History, sc)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"feedback": raw})
}
