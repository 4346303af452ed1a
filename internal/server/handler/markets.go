package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// MarketLister returns the monitored markets.
type MarketLister interface {
	Markets() []domain.BinaryMarket
	RefreshedAt() time.Time
}

// MarketHandler serves the monitored market list.
type MarketHandler struct {
	markets MarketLister
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets MarketLister, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{markets: markets, logger: logHandler(logger, "markets")}
}

type marketView struct {
	ConditionID string `json:"condition_id"`
	Question    string `json:"question"`
	EventSlug   string `json:"event_slug,omitempty"`
	YesTokenID  string `json:"yes_token_id"`
	NoTokenID   string `json:"no_token_id"`
	URL         string `json:"url"`
}

// ListMarkets returns every monitored market in monitoring order.
// GET /api/markets
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets := h.markets.Markets()
	views := make([]marketView, 0, len(markets))
	for _, m := range markets {
		views = append(views, marketView{
			ConditionID: m.ConditionID,
			Question:    m.Question,
			EventSlug:   m.EventSlug,
			YesTokenID:  m.YesTokenID,
			NoTokenID:   m.NoTokenID,
			URL:         m.URL(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"markets":      views,
		"count":        len(views),
		"refreshed_at": optionalTime(h.markets.RefreshedAt()),
	})
}
