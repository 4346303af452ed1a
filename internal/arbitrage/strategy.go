// Package arbitrage detects YES/NO pair arbitrage on binary markets: buying
// both legs under $1 (merge), selling a minted pair over $1 (split) and
// resting bids inside the spread (maker).
package arbitrage

import "github.com/alanyoungcy/polysportarb/internal/domain"

// Quotes is the read side of the price cache.
type Quotes interface {
	BestBid(assetID string) (float64, bool)
	BestAsk(assetID string) (float64, bool)
}

// Strategy is one selectable arbitrage variant.
type Strategy interface {
	Name() string
	// Detect evaluates one market against the current quotes.
	Detect(m domain.BinaryMarket, q Quotes) (domain.ArbSignal, bool)
}

// ScanStrategy runs s over every market, in order.
func ScanStrategy(s Strategy, markets []domain.BinaryMarket, q Quotes) []domain.ArbSignal {
	return Scan(markets, func(m domain.BinaryMarket) (domain.ArbSignal, bool) {
		return s.Detect(m, q)
	})
}

// Merge buys both legs when their asks sum below 1.
type Merge struct{ Params Params }

func (Merge) Name() string { return string(domain.ArbMerge) }

func (s Merge) Detect(m domain.BinaryMarket, q Quotes) (domain.ArbSignal, bool) {
	return CheckMerge(m, q.BestAsk, s.Params)
}

// Split sells a minted pair when the bids sum above 1.
type Split struct{ Params Params }

func (Split) Name() string { return string(domain.ArbSplit) }

func (s Split) Detect(m domain.BinaryMarket, q Quotes) (domain.ArbSignal, bool) {
	return CheckSplit(m, q.BestBid, s.Params)
}

// Maker rests bids on both legs under the best asks.
type Maker struct{ Params Params }

func (Maker) Name() string { return string(domain.ArbMaker) }

func (s Maker) Detect(m domain.BinaryMarket, q Quotes) (domain.ArbSignal, bool) {
	return CheckMaker(m, q.BestAsk, q.BestBid, s.Params)
}
