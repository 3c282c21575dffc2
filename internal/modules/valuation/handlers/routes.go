package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all calculator routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/valuation", func(r chi.Router) {
		r.Get("/store", h.HandleGetStore)
		r.Get("/milestone", h.HandleGetMilestone)
		r.Post("/upgrade", h.HandleManualUpgrade)

		r.Route("/buildings/{id}", func(r chi.Router) {
			r.Get("/batch", h.HandleGetBatch)
			r.Get("/cost", h.HandleGetCost)
		})
	})
}
