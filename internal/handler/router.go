package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pethealthai/advisor/internal/handler/advice"
	"github.com/pethealthai/advisor/internal/handler/vets"
	"github.com/pethealthai/advisor/internal/middleware"
	"github.com/pethealthai/advisor/internal/model/vet"
)

// NewRouter wires the development backend's routes. generator may be nil,
// in which case the advice handler falls back to canned replies.
func NewRouter(generator advice.Generator, vetStore vet.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	adviceHandler := advice.New(generator)
	vetsHandler := vets.New(vetStore)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireBearer)
		adviceHandler.RegisterRoutes(api)
		vetsHandler.RegisterRoutes(api)
	})

	return r
}
