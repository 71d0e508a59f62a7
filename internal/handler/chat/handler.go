package chat

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	scenarioModel "github.com/avharris/repcoach/internal/model/scenario"
	"github.com/avharris/repcoach/internal/service/simulator"
	"github.com/avharris/repcoach/pkg/utils"
)

// Handler serves the conversation endpoints.
type Handler struct {
	sim   *simulator.Service
	store scenarioModel.Store
}

// New creates the chat handler.
func New(sim *simulator.Service, store scenarioModel.Store) *Handler {
	return &Handler{sim: sim, store: store}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/start_chat", h.handleStartChat)
	r.Post("/chat", h.handleChat)
}

// handleStartChat provisions a session and returns the customer's opening turn.
func (h *Handler) handleStartChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID  string `json:"session_id"`
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondDetail(w, http.StatusBadRequest, "session_id is required")
		return
	}

	sc, ok := h.store.FindByID(payload.ScenarioID)
	if !ok {
		utils.RespondDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid scenario_id provided: %s", payload.ScenarioID))
		return
	}

	opening, err := h.sim.StartChat(r.Context(), payload.SessionID, sc)
	if err != nil {
		utils.RespondDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"response": opening})
}

// handleChat forwards one representative message to the simulated customer.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message    string `json:"message"`
		SessionID  string `json:"session_id"`
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondDetail(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if payload.Message == "" {
		utils.RespondDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	sc, ok := h.store.FindByID(payload.ScenarioID)
	if !ok {
		utils.RespondDetail(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid scenario_id provided: %s", payload.ScenarioID))
		return
	}

	reply, err := h.sim.Respond(r.Context(), payload.SessionID, sc, payload.Message)
	if err != nil {
		utils.RespondDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"response": reply})
}
