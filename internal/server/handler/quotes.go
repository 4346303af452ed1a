package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// QuoteReader reads the in-memory quote cache.
type QuoteReader interface {
	Snapshot() []domain.Quote
	Get(assetID string) (domain.Quote, bool)
}

// QuoteHandler serves quote snapshots.
type QuoteHandler struct {
	quotes QuoteReader
	logger *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler.
func NewQuoteHandler(quotes QuoteReader, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, logger: logHandler(logger, "quotes")}
}

type quoteView struct {
	AssetID   string     `json:"asset_id"`
	Bid       *float64   `json:"bid"`
	Ask       *float64   `json:"ask"`
	Mid       *float64   `json:"mid"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func newQuoteView(q domain.Quote) quoteView {
	v := quoteView{
		AssetID:   q.AssetID,
		Bid:       q.Bid,
		Ask:       q.Ask,
		UpdatedAt: optionalTime(q.UpdatedAt),
	}
	if mid, ok := q.Mid(); ok {
		v.Mid = &mid
	}
	return v
}

// ListQuotes returns every cached quote sorted by asset id.
// GET /api/quotes
func (h *QuoteHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	snap := h.quotes.Snapshot()
	views := make([]quoteView, 0, len(snap))
	for _, q := range snap {
		views = append(views, newQuoteView(q))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"quotes": views,
		"count":  len(views),
	})
}

// GetQuote returns one cached quote.
// GET /api/quotes/{asset_id}
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("asset_id")
	q, ok := h.quotes.Get(id)
	if !ok {
		h.logger.DebugContext(r.Context(), "quote not found", slog.String("asset_id", id))
		writeError(w, http.StatusNotFound, "quote not found")
		return
	}
	writeJSON(w, http.StatusOK, newQuoteView(q))
}
