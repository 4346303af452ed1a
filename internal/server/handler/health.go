package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/feed"
)

// FeedStatus reports the market-data subscription state.
type FeedStatus interface {
	Status() feed.Status
}

// QuoteClock reports when the quote cache last changed.
type QuoteClock interface {
	LastAnyUpdate() time.Time
	Len() int
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	feed       FeedStatus
	quotes     QuoteClock
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewHealthHandler creates a HealthHandler. A non-positive staleAfter
// disables the stale check.
func NewHealthHandler(feed FeedStatus, quotes QuoteClock, staleAfter time.Duration, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		feed:       feed,
		quotes:     quotes,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     logHandler(logger, "health"),
	}
}

type healthResponse struct {
	Status       string      `json:"status"`
	Timestamp    time.Time   `json:"timestamp"`
	Feed         feed.Status `json:"feed"`
	Quotes       int         `json:"quotes"`
	LastUpdateAt *time.Time  `json:"last_update_at"`
	Stale        bool        `json:"stale"`
}

// HealthCheck reports feed and quote freshness. The status is "degraded"
// when the feed is disconnected or quotes are stale; the HTTP code stays 200
// so the endpoint can be polled by dashboards.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	last := h.quotes.LastAnyUpdate()
	resp := healthResponse{
		Status:       "ok",
		Timestamp:    now.UTC(),
		Feed:         h.feed.Status(),
		Quotes:       h.quotes.Len(),
		LastUpdateAt: optionalTime(last),
	}
	if h.staleAfter > 0 && resp.Feed.Subscribed > 0 {
		resp.Stale = last.IsZero() || now.Sub(last) > h.staleAfter
	}
	if resp.Stale || (resp.Feed.Subscribed > 0 && !resp.Feed.Connected) {
		resp.Status = "degraded"
		h.logger.DebugContext(r.Context(), "health degraded",
			slog.Bool("connected", resp.Feed.Connected),
			slog.Bool("stale", resp.Stale),
		)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetClock replaces the time source. Intended for tests.
func (h *HealthHandler) SetClock(now func() time.Time) {
	h.now = now
}
