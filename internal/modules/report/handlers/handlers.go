// Package handlers provides HTTP handlers for the overlay report.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/modules/report"
)

// Handler handles overlay HTTP requests
type Handler struct {
	service *report.Service
	log     zerolog.Logger
}

// NewHandler creates a new overlay handler
func NewHandler(service *report.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "report").Logger(),
	}
}

// HandleGetOverlay handles GET /api/overlay
func (h *Handler) HandleGetOverlay(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": rep,
		"metadata": map[string]interface{}{
			"timestamp":    time.Now().Format(time.RFC3339),
			"generated_at": rep.GeneratedAt.Format(time.RFC3339),
		},
	})
}

// HandleGetIncome handles GET /api/overlay/income
func (h *Handler) HandleGetIncome(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.latest(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": rep.Income,
		"metadata": map[string]interface{}{
			"timestamp":   time.Now().Format(time.RFC3339),
			"snapshot_id": rep.SnapshotID,
		},
	})
}

func (h *Handler) latest(w http.ResponseWriter) (report.Report, bool) {
	rep, err := h.service.Latest()
	if err != nil {
		if errors.Is(err, report.ErrNoReport) {
			h.writeError(w, http.StatusServiceUnavailable, "No report built yet")
			return report.Report{}, false
		}
		h.log.Error().Err(err).Msg("Failed to load report")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return report.Report{}, false
	}
	return rep, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
