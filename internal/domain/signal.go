package domain

// ArbKind discriminates the arbitrage signal variants.
type ArbKind string

const (
	// ArbMerge buys both legs below $1 combined.
	ArbMerge ArbKind = "merge"
	// ArbSplit mints a pair from $1 collateral and sells both legs above $1.
	ArbSplit ArbKind = "split"
	// ArbMaker rests bids on both legs inside the spread.
	ArbMaker ArbKind = "maker"
)

// ArbSignal is a detected YES/NO arbitrage. Leg prices are the best asks for
// merge, the best bids for split and the proposed resting bids for maker.
// BestAskYes/BestAskNo are only set for maker signals.
type ArbSignal struct {
	Kind           ArbKind
	Market         BinaryMarket
	PriceYes       float64
	PriceNo        float64
	BestAskYes     float64
	BestAskNo      float64
	Size           float64
	NetEdge        float64
	ExpectedProfit float64
}

// Cost returns the combined price of both legs.
func (s ArbSignal) Cost() float64 {
	return s.PriceYes + s.PriceNo
}

// Side is the direction of a single-leg trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// VolatilitySignal recommends a single-leg trade when the mid drifts away
// from its recent mean. Deviation is the absolute fractional deviation.
type VolatilitySignal struct {
	AssetID     string
	ConditionID string
	Question    string
	Side        Side
	Price       float64
	Size        float64
	Deviation   float64
}

// Fill is execution feedback for one order.
type Fill struct {
	OrderID string
	AssetID string
	Side    Side
	Size    float64
}
