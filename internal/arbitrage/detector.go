package arbitrage

import "github.com/alanyoungcy/polysportarb/internal/domain"

const (
	// liquidityFloor and liquidityCeiling bound the prices treated as real
	// liquidity; anything at or beyond them is ignored.
	liquidityFloor   = 0.01
	liquidityCeiling = 0.99

	// makerTick is how far above the best bid a maker price is moved when the
	// undercut would otherwise cross or join the bid.
	makerTick = 0.001
)

// PriceFunc returns the current price for an asset, or false when unknown.
type PriceFunc func(assetID string) (float64, bool)

// Params are the numeric inputs shared by every check.
type Params struct {
	MinProfit      float64
	FeeBps         float64
	Size           float64
	MakerBidSpread float64
}

func (p Params) fee() float64 {
	return p.FeeBps / 10000
}

// Check evaluates a single market.
type Check func(m domain.BinaryMarket) (domain.ArbSignal, bool)

// Illiquid reports whether price sits at or beyond the liquidity extremes.
func Illiquid(price float64) bool {
	return price <= liquidityFloor || price >= liquidityCeiling
}

// CheckMerge looks for ask_yes + ask_no below 1 by at least fee + min profit.
func CheckMerge(m domain.BinaryMarket, ask PriceFunc, p Params) (domain.ArbSignal, bool) {
	askYes, okYes := ask(m.YesTokenID)
	askNo, okNo := ask(m.NoTokenID)
	if !okYes || !okNo || Illiquid(askYes) || Illiquid(askNo) {
		return domain.ArbSignal{}, false
	}

	net := 1 - (askYes + askNo) - p.fee()
	if net < p.MinProfit {
		return domain.ArbSignal{}, false
	}
	return domain.ArbSignal{
		Kind:           domain.ArbMerge,
		Market:         m,
		PriceYes:       askYes,
		PriceNo:        askNo,
		Size:           p.Size,
		NetEdge:        net,
		ExpectedProfit: net * p.Size,
	}, true
}

// CheckSplit looks for bid_yes + bid_no above 1 by at least fee + min profit.
func CheckSplit(m domain.BinaryMarket, bid PriceFunc, p Params) (domain.ArbSignal, bool) {
	bidYes, okYes := bid(m.YesTokenID)
	bidNo, okNo := bid(m.NoTokenID)
	if !okYes || !okNo || Illiquid(bidYes) || Illiquid(bidNo) {
		return domain.ArbSignal{}, false
	}

	net := (bidYes + bidNo) - 1 - p.fee()
	if net < p.MinProfit {
		return domain.ArbSignal{}, false
	}
	return domain.ArbSignal{
		Kind:           domain.ArbSplit,
		Market:         m,
		PriceYes:       bidYes,
		PriceNo:        bidNo,
		Size:           p.Size,
		NetEdge:        net,
		ExpectedProfit: net * p.Size,
	}, true
}

// CheckMaker proposes resting bids maker_bid_spread under each best ask. A
// proposal that would sit under the best bid is lifted to one tick above it.
func CheckMaker(m domain.BinaryMarket, ask, bid PriceFunc, p Params) (domain.ArbSignal, bool) {
	askYes, okYes := ask(m.YesTokenID)
	askNo, okNo := ask(m.NoTokenID)
	if !okYes || !okNo || Illiquid(askYes) || Illiquid(askNo) {
		return domain.ArbSignal{}, false
	}

	yes := makerPrice(askYes, p.MakerBidSpread, bid, m.YesTokenID)
	no := makerPrice(askNo, p.MakerBidSpread, bid, m.NoTokenID)
	if Illiquid(yes) || Illiquid(no) {
		return domain.ArbSignal{}, false
	}
	cost := yes + no
	if cost >= 1 {
		return domain.ArbSignal{}, false
	}

	net := 1 - cost - p.fee()
	if net < p.MinProfit {
		return domain.ArbSignal{}, false
	}
	return domain.ArbSignal{
		Kind:           domain.ArbMaker,
		Market:         m,
		PriceYes:       yes,
		PriceNo:        no,
		BestAskYes:     askYes,
		BestAskNo:      askNo,
		Size:           p.Size,
		NetEdge:        net,
		ExpectedProfit: net * p.Size,
	}, true
}

func makerPrice(bestAsk, spread float64, bid PriceFunc, assetID string) float64 {
	price := bestAsk - spread
	if bestBid, ok := bid(assetID); ok && price < bestBid {
		price = bestBid + makerTick
	}
	return price
}

// Scan applies check to every market that has both legs and returns the
// signals in input order.
func Scan(markets []domain.BinaryMarket, check Check) []domain.ArbSignal {
	var signals []domain.ArbSignal
	for _, m := range markets {
		if !m.Valid() {
			continue
		}
		if sig, ok := check(m); ok {
			signals = append(signals, sig)
		}
	}
	return signals
}
