package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/comptroller/internal/di"
	"github.com/aristath/comptroller/internal/domain"
	"github.com/aristath/comptroller/internal/events"
	"github.com/aristath/comptroller/internal/scheduler"
)

// Version is the service version reported by /health and the status endpoint.
const Version = "0.3.0"

// SystemHandlers serves process and service status and manual job runs
type SystemHandlers struct {
	log       zerolog.Logger
	container *di.Container
	jobs      *di.JobInstances
	scheduler *scheduler.Scheduler
	startedAt time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, container *di.Container, jobs *di.JobInstances, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		container: container,
		jobs:      jobs,
		scheduler: sched,
		startedAt: time.Now(),
	}
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status           string              `json:"status"`
	Version          string              `json:"version"`
	Uptime           string              `json:"uptime"`
	StartedAt        string              `json:"started_at"`
	CPUPercent       float64             `json:"cpu_percent"`
	MemoryPercent    float64             `json:"memory_percent"`
	HeapAlloc        string              `json:"heap_alloc"`
	Goroutines       int                 `json:"goroutines"`
	HistoryDB        *HistoryDBStatus    `json:"history_db,omitempty"`
	Constants        ConstantsStatus     `json:"constants"`
	LatestSnapshot   *LatestSnapshotInfo `json:"latest_snapshot,omitempty"`
	ScheduledJobs    int                 `json:"scheduled_jobs"`
	EventSubscribers map[string]int      `json:"event_subscribers"`
}

// HistoryDBStatus describes the history database
type HistoryDBStatus struct {
	Path    string `json:"path"`
	Size    string `json:"size"`
	WALSize string `json:"wal_size"`
	Samples int64  `json:"samples"`
}

// ConstantsStatus describes the production constants in use
type ConstantsStatus struct {
	VerifiedVersion string `json:"verified_version"`
	Tiers           int    `json:"tiers"`
	Maluses         int    `json:"maluses"`
	Stale           bool   `json:"stale"`
}

// LatestSnapshotInfo summarises the last ingested snapshot
type LatestSnapshotInfo struct {
	ID          string `json:"id"`
	HostVersion string `json:"host_version"`
	ReceivedAt  string `json:"received_at"`
	Age         string `json:"age"`
	Warnings    int    `json:"warnings"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, memPercent := h.getSystemStats()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := SystemStatusResponse{
		Status:           "healthy",
		Version:          Version,
		Uptime:           time.Since(h.startedAt).Round(time.Second).String(),
		StartedAt:        h.startedAt.Format(time.RFC3339),
		CPUPercent:       cpuPercent,
		MemoryPercent:    memPercent,
		HeapAlloc:        humanize.Bytes(memStats.HeapAlloc),
		Goroutines:       runtime.NumGoroutine(),
		EventSubscribers: map[string]int{},
	}

	if h.scheduler != nil {
		response.ScheduledJobs = h.scheduler.JobCount()
	}

	c := h.container
	response.Constants = ConstantsStatus{
		VerifiedVersion: c.Table.VerifiedVersion,
		Tiers:           len(c.Table.Tiers),
		Maluses:         len(c.Table.Maluses),
	}

	if c.HistoryDB != nil {
		status := &HistoryDBStatus{Path: c.HistoryDB.Path()}
		if stats, err := c.HistoryDB.GetStats(); err != nil {
			h.log.Warn().Err(err).Msg("Failed to read history database stats")
		} else {
			status.Size = humanize.Bytes(uint64(stats.SizeBytes))
			status.WALSize = humanize.Bytes(uint64(stats.WALSizeBytes))
		}
		if c.HistoryRepo != nil {
			if n, err := c.HistoryRepo.Count(); err == nil {
				status.Samples = n
			}
		}
		response.HistoryDB = status
	}

	if c.SnapshotStore != nil {
		snap, err := c.SnapshotStore.Latest()
		switch {
		case err == nil:
			response.LatestSnapshot = &LatestSnapshotInfo{
				ID:          snap.ID,
				HostVersion: snap.HostVersion,
				ReceivedAt:  snap.ReceivedAt.Format(time.RFC3339),
				Age:         humanize.Time(snap.ReceivedAt),
				Warnings:    len(snap.Warnings),
			}
			response.Constants.Stale = c.Table.Stale(snap.HostVersion)
		case errors.Is(err, domain.ErrNoSnapshot):
			response.Status = "waiting_for_host"
		default:
			h.log.Warn().Err(err).Msg("Failed to read latest snapshot")
		}
	}

	if c.EventBus != nil {
		for _, t := range events.StreamedTypes {
			response.EventSubscribers[string(t)] = c.EventBus.SubscriberCount(t)
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0)
	for name := range h.jobs.All() {
		names = append(names, name)
	}
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": names,
	})
}

// HandleRunJob handles POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	job, ok := h.jobs.All()[name]
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown job"})
		return
	}

	start := time.Now()
	var err error
	if h.scheduler != nil {
		err = h.scheduler.RunNow(job)
	} else {
		err = job.Run()
	}
	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":         name,
		"status":      "completed",
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// getSystemStats returns CPU and RAM usage percentages. The CPU sample is
// short so the status call stays fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
