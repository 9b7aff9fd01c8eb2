package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/isdelr/incomesense-be/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsSource provides the latest process sample.
type StatsSource interface {
	Snapshot() monitoring.ProcessStats
}

// HealthHandler reports liveness, uptime and process resource usage.
type HealthHandler struct {
	store   Pinger
	stats   StatsSource
	started time.Time
}

// NewHealthHandler creates a HealthHandler. stats may be nil.
func NewHealthHandler(store Pinger, stats StatsSource, started time.Time) *HealthHandler {
	return &HealthHandler{store: store, stats: stats, started: started}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string  `json:"status"`
	Database   string  `json:"database"`
	Uptime     string  `json:"uptime"`
	Goroutines int     `json:"goroutines"`
	MemoryRSS  uint64  `json:"memory"`
	CPUPercent float64 `json:"cpu"`
}

// Get answers 200 when the store responds and 503 otherwise.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "up",
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}
	if h.stats != nil {
		snap := h.stats.Snapshot()
		resp.Goroutines = snap.Goroutines
		resp.MemoryRSS = snap.MemoryRSS
		resp.CPUPercent = snap.CPUPercent
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Health check: database unreachable")
		resp.Status = "degraded"
		resp.Database = "down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
