package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all deal routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/deals", func(r chi.Router) {
		r.Get("/", h.HandleListDeals)
		r.Get("/filters", h.HandleGetFilters)
		r.Get("/metrics", h.HandleGetMetrics)
		r.Get("/warnings", h.HandleGetWarnings)
		r.Post("/refresh", h.HandleRefresh)

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			h.HandleGetDeal(w, r, id)
		})
	})
}
