// Package handlers provides HTTP and WebSocket endpoints for host snapshots.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/modules/snapshot"
)

// maxSnapshotBytes bounds one host message.
const maxSnapshotBytes = 4 << 20

// Handler handles snapshot ingest requests
type Handler struct {
	store          *snapshot.Store
	originPatterns []string
	log            zerolog.Logger
}

// NewHandler creates a new snapshot handler. originPatterns lists the hosts
// allowed to open the WebSocket stream; empty allows same-origin only.
func NewHandler(store *snapshot.Store, originPatterns []string, log zerolog.Logger) *Handler {
	return &Handler{
		store:          store,
		originPatterns: originPatterns,
		log:            log.With().Str("handler", "snapshot").Logger(),
	}
}

type ingestResponse struct {
	ID       string   `json:"id"`
	Warnings []string `json:"warnings,omitempty"`
}

// HandleIngest handles POST /api/snapshot
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		h.writeError(w, http.StatusRequestEntityTooLarge, "Failed to read body: "+err.Error())
		return
	}

	snap, err := h.store.IngestJSON(body)
	if err != nil {
		h.log.Warn().Err(err).Msg("Rejected snapshot")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": ingestResponse{ID: snap.ID, Warnings: snap.Warnings},
	})
}

// HandleGetLatest handles GET /api/snapshot/latest
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.store.Latest()
	if errors.Is(err, domain.ErrNoSnapshot) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": snap,
		"metadata": map[string]interface{}{
			"owned_upgrades": snap.OwnedNames(),
			"timestamp":      time.Now().Format(time.RFC3339),
		},
	})
}

// HandleStream handles GET /api/host/ws. Every text frame is one snapshot;
// each is answered with an ingest acknowledgement or an error.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxSnapshotBytes)
	defer conn.Close(websocket.StatusInternalError, "")

	h.log.Info().Str("remote", r.RemoteAddr).Msg("Host connected")
	ctx := r.Context()

	for {
		msgType, message, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				h.log.Info().Msg("Host disconnected")
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if ctx.Err() == nil {
				h.log.Warn().Err(err).Msg("Host stream read failed")
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var reply interface{}
		snap, err := h.store.IngestJSON(message)
		if err != nil {
			reply = map[string]string{"error": err.Error()}
		} else {
			reply = ingestResponse{ID: snap.ID, Warnings: snap.Warnings}
		}
		if err := h.reply(ctx, conn, reply); err != nil {
			h.log.Warn().Err(err).Msg("Failed to acknowledge snapshot")
			return
		}
	}
}

func (h *Handler) reply(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
