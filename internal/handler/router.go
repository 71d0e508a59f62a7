package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chatHandler "github.com/avharris/repcoach/internal/handler/chat"
	feedbackHandler "github.com/avharris/repcoach/internal/handler/feedback"
	scenarioHandler "github.com/avharris/repcoach/internal/handler/scenario"
	middlewarePkg "github.com/avharris/repcoach/internal/middleware"
	scenarioModel "github.com/avharris/repcoach/internal/model/scenario"
	"github.com/avharris/repcoach/internal/service/review"
	"github.com/avharris/repcoach/internal/service/simulator"
)

// NewRouter wires the practice-server routes to core services. The paths
// match the remote backend's contract exactly so the trainer client cannot
// tell the two apart.
func NewRouter(store scenarioModel.Store, sim *simulator.Service, reviews *review.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	scenarioHandler.New(store).RegisterRoutes(r)
	chatHandler.New(sim, store).RegisterRoutes(r)
	feedbackHandler.New(reviews, store).RegisterRoutes(r)

	return r
}
