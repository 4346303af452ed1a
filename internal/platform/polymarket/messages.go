package polymarket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// MarketSubscription is the single frame sent after dialing the market
// channel.
type MarketSubscription struct {
	AssetIDs []string `json:"assets_ids"`
	Type     string   `json:"type"`
}

// NewMarketSubscription builds the subscription frame for ids.
func NewMarketSubscription(ids []string) MarketSubscription {
	return MarketSubscription{AssetIDs: ids, Type: "MARKET"}
}

// ParseQuoteUpdates decodes one market-channel frame into top-of-book
// updates. A frame is either a single object or an array of objects; array
// entries that are not objects are skipped. Objects without an asset id or
// without any usable price are dropped. Invalid JSON is an error.
func ParseQuoteUpdates(raw []byte) ([]domain.QuoteUpdate, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var msg any
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("polymarket/ws: decode message: %w", err)
	}

	var out []domain.QuoteUpdate
	switch v := msg.(type) {
	case map[string]any:
		out = appendUpdates(out, v)
	case []any:
		for _, entry := range v {
			if obj, ok := entry.(map[string]any); ok {
				out = appendUpdates(out, obj)
			}
		}
	}
	return out, nil
}

// appendUpdates parses obj and any nested price_changes entries.
func appendUpdates(out []domain.QuoteUpdate, obj map[string]any) []domain.QuoteUpdate {
	if u, ok := parseUpdate(obj); ok {
		out = append(out, u)
	}
	if changes, ok := obj["price_changes"].([]any); ok {
		for _, c := range changes {
			if entry, ok := c.(map[string]any); ok {
				if u, ok := parseUpdate(entry); ok {
					out = append(out, u)
				}
			}
		}
	}
	return out
}

func parseUpdate(obj map[string]any) (domain.QuoteUpdate, bool) {
	id := flexID(obj["asset_id"])
	if id == "" {
		id = flexID(obj["assetId"])
	}
	if id == "" {
		return domain.QuoteUpdate{}, false
	}

	bidKeys := []string{"bid", "best_bid"}
	askKeys := []string{"ask", "best_ask"}
	if side, _ := obj["side"].(string); strings.EqualFold(side, "BUY") {
		bidKeys = append(bidKeys, "price")
	} else {
		askKeys = append(askKeys, "price")
	}

	u := domain.QuoteUpdate{AssetID: id}
	u.Bid = firstLevel(obj["bids"])
	if u.Bid == nil {
		u.Bid = firstScalar(obj, bidKeys)
	}
	u.Ask = firstLevel(obj["asks"])
	if u.Ask == nil {
		u.Ask = firstScalar(obj, askKeys)
	}

	if u.Bid == nil && u.Ask == nil {
		return domain.QuoteUpdate{}, false
	}
	return u, true
}

// firstLevel returns the price of the first depth level. Levels are either
// [price, size] pairs or {"price": ..., "size": ...} objects.
func firstLevel(v any) *float64 {
	levels, ok := v.([]any)
	if !ok || len(levels) == 0 {
		return nil
	}
	switch level := levels[0].(type) {
	case []any:
		if len(level) > 0 {
			return flexPrice(level[0])
		}
	case map[string]any:
		return flexPrice(level["price"])
	}
	return nil
}

func firstScalar(obj map[string]any, keys []string) *float64 {
	for _, k := range keys {
		if p := flexPrice(obj[k]); p != nil {
			return p
		}
	}
	return nil
}

// flexPrice accepts a JSON number or a numeric string. Non-finite values
// are treated as absent.
func flexPrice(v any) *float64 {
	var (
		f   float64
		err error
	)
	switch n := v.(type) {
	case json.Number:
		f, err = n.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(n), 64)
	case float64:
		f = n
	default:
		return nil
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func flexID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return id.String()
	}
	return ""
}
