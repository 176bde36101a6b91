// Package vets serves the development backend's /api/find_vets endpoint.
package vets

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pethealthai/advisor/internal/model/vet"
	"github.com/pethealthai/advisor/pkg/utils"
)

// maxResults bounds the clinic list returned for one lookup.
const maxResults = 10

// Handler answers nearby-clinic lookups from the seeded store.
type Handler struct {
	store vet.Store
}

// New creates the vets handler.
func New(store vet.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts the locator route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/find_vets", h.handleFindVets)
}

func (h *Handler) handleFindVets(w http.ResponseWriter, r *http.Request) {
	var origin vet.Coordinates
	if err := json.NewDecoder(r.Body).Decode(&origin); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if origin.Latitude < -90 || origin.Latitude > 90 || origin.Longitude < -180 || origin.Longitude > 180 {
		utils.RespondError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	records := h.store.Nearby(origin, maxResults)
	log.Printf("[vets] lookup at (%.4f, %.4f) returned %d clinics", origin.Latitude, origin.Longitude, len(records))

	utils.RespondJSON(w, http.StatusOK, map[string]any{"vets": records})
}
