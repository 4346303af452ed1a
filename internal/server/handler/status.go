package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/executor"
	"github.com/alanyoungcy/polysportarb/internal/pipeline"
)

// OrchestratorStats exposes detection counters.
type OrchestratorStats interface {
	Stats() pipeline.Stats
}

// RestingStats exposes resting order counts.
type RestingStats interface {
	Stats(now time.Time, timeout time.Duration) executor.Stats
}

// StatusHandler serves the runtime mode, detection counters and resting
// order summary.
type StatusHandler struct {
	mode         string
	strategies   []string
	volatility   bool
	orchestrator OrchestratorStats
	orders       RestingStats
	orderTimeout time.Duration
	started      time.Time
}

// StatusInfo is the static part of the status response.
type StatusInfo struct {
	Mode         string
	Strategies   []string
	Volatility   bool
	OrderTimeout time.Duration
}

// NewStatusHandler creates a StatusHandler. orders may be nil.
func NewStatusHandler(info StatusInfo, orchestrator OrchestratorStats, orders RestingStats) *StatusHandler {
	return &StatusHandler{
		mode:         info.Mode,
		strategies:   info.Strategies,
		volatility:   info.Volatility,
		orchestrator: orchestrator,
		orders:       orders,
		orderTimeout: info.OrderTimeout,
		started:      time.Now(),
	}
}

// GetStatus responds with the current mode and counters.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	resp := map[string]any{
		"mode":           h.mode,
		"strategies":     h.strategies,
		"volatility":     h.volatility,
		"uptime_seconds": int64(now.Sub(h.started).Seconds()),
		"orchestrator":   h.orchestrator.Stats(),
	}
	if h.orders != nil {
		resp["resting_orders"] = h.orders.Stats(now, h.orderTimeout)
	}
	writeJSON(w, http.StatusOK, resp)
}
