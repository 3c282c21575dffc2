package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the request/response snapshot routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/snapshot", func(r chi.Router) {
		r.Post("/", h.HandleIngest)
		r.Get("/latest", h.HandleGetLatest)
	})
}

// RegisterStreamRoutes registers the long-lived host stream. It must not sit
// behind timeout or compression middleware.
func (h *Handler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/host/ws", h.HandleStream)
}
