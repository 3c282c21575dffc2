package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers overlay routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/overlay", func(r chi.Router) {
		r.Get("/", h.HandleGetOverlay)
		r.Get("/income", h.HandleGetIncome)
	})
}
