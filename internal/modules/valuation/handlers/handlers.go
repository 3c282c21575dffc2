// Package handlers provides HTTP handlers for the purchase calculators.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/modules/valuation"
)

// MaxUnits bounds the building counts the batch and cost calculators accept.
const MaxUnits = 10000

// SnapshotSource provides the latest host snapshot.
type SnapshotSource interface {
	Latest() (domain.Snapshot, error)
}

// Options are the calculator defaults.
type Options struct {
	BatchTarget       int
	MilestoneFraction float64
}

// Handler handles calculator HTTP requests
type Handler struct {
	service   *valuation.Service
	snapshots SnapshotSource
	opts      Options
	log       zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(service *valuation.Service, snapshots SnapshotSource, opts Options, log zerolog.Logger) *Handler {
	if opts.BatchTarget <= 0 {
		opts.BatchTarget = valuation.DefaultBatchTarget
	}
	return &Handler{
		service:   service,
		snapshots: snapshots,
		opts:      opts,
		log:       log.With().Str("handler", "valuation").Logger(),
	}
}

// calculator loads the latest snapshot and builds a calculator, writing the error response on failure.
func (h *Handler) calculator(w http.ResponseWriter) (domain.Snapshot, *valuation.Calculator, bool) {
	snap, err := h.snapshots.Latest()
	if err != nil {
		if errors.Is(err, domain.ErrNoSnapshot) {
			h.writeError(w, http.StatusServiceUnavailable, "No snapshot ingested yet")
			return domain.Snapshot{}, nil, false
		}
		h.log.Error().Err(err).Msg("Failed to load snapshot")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return domain.Snapshot{}, nil, false
	}
	calc, err := h.service.CalculatorFor(snap)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return domain.Snapshot{}, nil, false
	}
	return snap, calc, true
}

// HandleGetStore handles GET /api/valuation/store
func (h *Handler) HandleGetStore(w http.ResponseWriter, r *http.Request) {
	snap, calc, ok := h.calculator(w)
	if !ok {
		return
	}

	rows := make([]valuation.Evaluation, 0, len(snap.Buildings)+len(snap.StoreUpgrades))
	for _, b := range snap.Buildings {
		rows = append(rows, calc.Evaluate(b))
	}
	for _, u := range snap.StoreUpgrades {
		rows = append(rows, calc.Evaluate(u))
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": rows,
		"metadata": map[string]interface{}{
			"snapshot_id": snap.ID,
			"timestamp":   time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetBatch handles GET /api/valuation/buildings/{id}/batch?target=N
func (h *Handler) HandleGetBatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid building id")
		return
	}
	target := h.opts.BatchTarget
	if raw := r.URL.Query().Get("target"); raw != "" {
		target, err = strconv.Atoi(raw)
		if err != nil || target < 0 || target > MaxUnits {
			h.writeError(w, http.StatusBadRequest, "Target must be an integer between 0 and "+strconv.Itoa(MaxUnits))
			return
		}
	}

	snap, calc, ok := h.calculator(w)
	if !ok {
		return
	}
	b, found := snap.Building(id)
	if !found {
		h.writeError(w, http.StatusNotFound, "Building not found")
		return
	}

	res, err := calc.Batch(b, target)
	if err != nil {
		h.writeCostError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": res,
		"metadata": map[string]interface{}{
			"snapshot_id": snap.ID,
			"timestamp":   time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetCost handles GET /api/valuation/buildings/{id}/cost?from=A&to=B
func (h *Handler) HandleGetCost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid building id")
		return
	}
	from, errFrom := strconv.Atoi(r.URL.Query().Get("from"))
	to, errTo := strconv.Atoi(r.URL.Query().Get("to"))
	if errFrom != nil || errTo != nil {
		h.writeError(w, http.StatusBadRequest, "from and to must be integers")
		return
	}
	if to > MaxUnits {
		h.writeError(w, http.StatusBadRequest, "to cannot exceed "+strconv.Itoa(MaxUnits))
		return
	}

	snap, err := h.snapshots.Latest()
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	b, found := snap.Building(id)
	if !found {
		h.writeError(w, http.StatusNotFound, "Building not found")
		return
	}

	if b.Incomplete {
		h.writeCostError(w, valuation.ErrIncomplete)
		return
	}
	cost, err := valuation.TotalCostForBuildings(b, from, to)
	if err != nil {
		h.writeCostError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"building": b.Ref(),
			"from":     from,
			"to":       to,
			"cost":     cost,
		},
	})
}

// manualRequest is the semi-manual upgrade calculator input.
type manualRequest struct {
	UpgradeID  *int     `json:"upgrade_id"`
	Price      *float64 `json:"price"`
	BuildingID *int     `json:"building_id"` // absent = global
	AddPercent float64  `json:"add_percent"`
}

// HandleManualUpgrade handles POST /api/valuation/upgrade
func (h *Handler) HandleManualUpgrade(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.UpgradeID == nil && req.Price == nil {
		h.writeError(w, http.StatusBadRequest, "Either upgrade_id or price is required")
		return
	}

	snap, calc, ok := h.calculator(w)
	if !ok {
		return
	}

	var price float64
	if req.Price != nil {
		price = *req.Price
	} else {
		u, found := snap.Upgrade(*req.UpgradeID)
		if !found {
			h.writeError(w, http.StatusNotFound, "Upgrade not found")
			return
		}
		if u.Incomplete {
			h.writeError(w, http.StatusUnprocessableEntity, "Upgrade has no known price, supply one")
			return
		}
		price = u.BasePrice
	}
	if price < 0 {
		h.writeError(w, http.StatusBadRequest, "Price cannot be negative")
		return
	}

	target := valuation.GlobalTarget()
	if req.BuildingID != nil {
		b, found := snap.Building(*req.BuildingID)
		if !found {
			h.writeError(w, http.StatusNotFound, "Building not found")
			return
		}
		target = valuation.BuildingTarget(b)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": calc.ManualUpgrade(price, target, req.AddPercent/100),
	})
}

// HandleGetMilestone handles GET /api/valuation/milestone?fraction=F
func (h *Handler) HandleGetMilestone(w http.ResponseWriter, r *http.Request) {
	fraction := h.opts.MilestoneFraction
	if raw := r.URL.Query().Get("fraction"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 {
			h.writeError(w, http.StatusBadRequest, "Fraction must be a positive number")
			return
		}
		fraction = f
	}

	snap, calc, ok := h.calculator(w)
	if !ok {
		return
	}

	var pick interface{}
	if m, found := calc.NextGrowthMilestone(snap.Buildings, fraction); found {
		pick = m
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"fraction":  fraction,
			"estimate":  calc.EstimateTimeToNextGrowthMilestone(snap.Buildings, fraction),
			"milestone": pick,
		},
	})
}

// writeCostError maps a cost calculation failure to its status code
func (h *Handler) writeCostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, valuation.ErrInvalidRange):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, valuation.ErrCostOverflow), errors.Is(err, valuation.ErrIncomplete):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Msg("Cost calculation failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
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
