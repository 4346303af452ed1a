package feed

import (
	"context"

	"github.com/alanyoungcy/polysportarb/internal/platform/polymarket"
)

// PolymarketSource subscribes to the Polymarket CLOB market channel.
type PolymarketSource struct {
	feed *polymarket.MarketFeed
}

// NewPolymarketSource creates a source dialing wsURL.
func NewPolymarketSource(wsURL string) *PolymarketSource {
	return &PolymarketSource{feed: polymarket.NewMarketFeed(wsURL)}
}

// Connect dials and subscribes to ids.
func (s *PolymarketSource) Connect(ctx context.Context, ids []string) (Stream, error) {
	stream, err := s.feed.Connect(ctx, ids)
	if err != nil {
		return nil, err
	}
	return stream, nil
}
