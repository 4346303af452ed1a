package arbitrage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysportarb/internal/arbitrage"
	"github.com/alanyoungcy/polysportarb/internal/domain"
)

var market = domain.BinaryMarket{
	ConditionID: "0xabc",
	YesTokenID:  "yes",
	NoTokenID:   "no",
	Question:    "Will it rain?",
}

func prices(m map[string]float64) arbitrage.PriceFunc {
	return func(id string) (float64, bool) {
		v, ok := m[id]
		return v, ok
	}
}

func params() arbitrage.Params {
	return arbitrage.Params{MinProfit: 0.005, Size: 5, MakerBidSpread: 0.01}
}

func TestCheckMerge(t *testing.T) {
	tests := []struct {
		name   string
		asks   map[string]float64
		p      arbitrage.Params
		want   bool
		profit float64
	}{
		{name: "profitable", asks: map[string]float64{"yes": 0.46, "no": 0.50}, p: params(), want: true, profit: 0.04 * 5},
		{name: "exactly one dollar", asks: map[string]float64{"yes": 0.50, "no": 0.50}, p: params()},
		{
			name: "fee eats the edge",
			asks: map[string]float64{"yes": 0.495, "no": 0.495},
			p:    arbitrage.Params{MinProfit: 0.001, FeeBps: 100, Size: 5},
		},
		{name: "missing leg", asks: map[string]float64{"yes": 0.30}, p: params()},
		{name: "illiquid low", asks: map[string]float64{"yes": 0.01, "no": 0.50}, p: params()},
		{name: "illiquid high", asks: map[string]float64{"yes": 0.40, "no": 0.99}, p: params()},
		{name: "deep illiquid still suppressed", asks: map[string]float64{"yes": 0.005, "no": 0.30}, p: params()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := arbitrage.CheckMerge(market, prices(tt.asks), tt.p)
			require.Equal(t, tt.want, ok)
			if !tt.want {
				return
			}
			assert.Equal(t, domain.ArbMerge, sig.Kind)
			assert.Equal(t, market, sig.Market)
			assert.Equal(t, tt.asks["yes"], sig.PriceYes)
			assert.Equal(t, tt.asks["no"], sig.PriceNo)
			assert.Equal(t, tt.p.Size, sig.Size)
			assert.InDelta(t, tt.profit, sig.ExpectedProfit, 1e-9)
		})
	}
}

func TestCheckSplit(t *testing.T) {
	sig, ok := arbitrage.CheckSplit(market, prices(map[string]float64{"yes": 0.55, "no": 0.50}), params())
	require.True(t, ok)
	assert.Equal(t, domain.ArbSplit, sig.Kind)
	assert.InDelta(t, 0.05, sig.NetEdge, 1e-9)
	assert.InDelta(t, 0.25, sig.ExpectedProfit, 1e-9)

	_, ok = arbitrage.CheckSplit(market, prices(map[string]float64{"yes": 0.50, "no": 0.50}), params())
	assert.False(t, ok)

	_, ok = arbitrage.CheckSplit(market, prices(map[string]float64{"yes": 0.995, "no": 0.30}), params())
	assert.False(t, ok, "illiquid bid must suppress the signal")

	fee := params()
	fee.FeeBps = 500
	_, ok = arbitrage.CheckSplit(market, prices(map[string]float64{"yes": 0.55, "no": 0.50}), fee)
	assert.False(t, ok, "a 5 percent fee leaves nothing")
}

func TestCheckMaker(t *testing.T) {
	t.Run("undercuts the asks", func(t *testing.T) {
		asks := prices(map[string]float64{"yes": 0.46, "no": 0.50})
		bids := prices(map[string]float64{"yes": 0.40, "no": 0.485})

		sig, ok := arbitrage.CheckMaker(market, asks, bids, params())
		require.True(t, ok)
		assert.Equal(t, domain.ArbMaker, sig.Kind)
		assert.InDelta(t, 0.45, sig.PriceYes, 1e-9)
		assert.InDelta(t, 0.49, sig.PriceNo, 1e-9)
		assert.Equal(t, 0.46, sig.BestAskYes)
		assert.Equal(t, 0.50, sig.BestAskNo)
		assert.InDelta(t, 0.06*5, sig.ExpectedProfit, 1e-9)
	})

	t.Run("lifts above the best bid", func(t *testing.T) {
		asks := prices(map[string]float64{"yes": 0.46, "no": 0.50})
		bids := prices(map[string]float64{"yes": 0.455, "no": 0.495})

		sig, ok := arbitrage.CheckMaker(market, asks, bids, params())
		require.True(t, ok)
		assert.InDelta(t, 0.456, sig.PriceYes, 1e-9)
		assert.InDelta(t, 0.496, sig.PriceNo, 1e-9)
		assert.Greater(t, sig.PriceYes, 0.455)
		assert.Less(t, sig.PriceYes, 0.46)
	})

	t.Run("proposal at the best bid is kept", func(t *testing.T) {
		p := params()
		p.MakerBidSpread = 0.125
		asks := prices(map[string]float64{"yes": 0.375, "no": 0.5})
		bids := prices(map[string]float64{"yes": 0.25, "no": 0.25})

		sig, ok := arbitrage.CheckMaker(market, asks, bids, p)
		require.True(t, ok)
		assert.Equal(t, 0.25, sig.PriceYes)
		assert.Equal(t, 0.375, sig.PriceNo)
	})

	t.Run("no bids known", func(t *testing.T) {
		asks := prices(map[string]float64{"yes": 0.46, "no": 0.50})
		sig, ok := arbitrage.CheckMaker(market, asks, prices(nil), params())
		require.True(t, ok)
		assert.InDelta(t, 0.45, sig.PriceYes, 1e-9)
	})

	t.Run("missing ask", func(t *testing.T) {
		_, ok := arbitrage.CheckMaker(market, prices(map[string]float64{"yes": 0.46}), prices(nil), params())
		assert.False(t, ok)
	})

	t.Run("proposal illiquid", func(t *testing.T) {
		p := params()
		p.MakerBidSpread = 0.015
		_, ok := arbitrage.CheckMaker(market, prices(map[string]float64{"yes": 0.02, "no": 0.50}), prices(nil), p)
		assert.False(t, ok)
	})

	t.Run("proposals still sum to one", func(t *testing.T) {
		p := params()
		p.MakerBidSpread = 0
		_, ok := arbitrage.CheckMaker(market, prices(map[string]float64{"yes": 0.50, "no": 0.50}), prices(nil), p)
		assert.False(t, ok)
	})

	t.Run("below min profit", func(t *testing.T) {
		p := params()
		p.MakerBidSpread = 0.002
		_, ok := arbitrage.CheckMaker(market, prices(map[string]float64{"yes": 0.50, "no": 0.50}), prices(nil), p)
		assert.False(t, ok)
	})
}

func TestIlliquid(t *testing.T) {
	assert.True(t, arbitrage.Illiquid(0))
	assert.True(t, arbitrage.Illiquid(0.01))
	assert.True(t, arbitrage.Illiquid(0.99))
	assert.True(t, arbitrage.Illiquid(1.2))
	assert.False(t, arbitrage.Illiquid(0.011))
	assert.False(t, arbitrage.Illiquid(0.5))
}

func TestScan(t *testing.T) {
	markets := []domain.BinaryMarket{
		{ConditionID: "m1", YesTokenID: "y1", NoTokenID: "n1"},
		{ConditionID: "skip", YesTokenID: "y2"},
		{ConditionID: "m3", YesTokenID: "y3", NoTokenID: "n3"},
		{ConditionID: "m4", YesTokenID: "y4", NoTokenID: "n4"},
	}
	asks := prices(map[string]float64{
		"y1": 0.40, "n1": 0.50,
		"y2": 0.10, "n2": 0.10,
		"y3": 0.50, "n3": 0.50,
		"y4": 0.30, "n4": 0.30,
	})

	signals := arbitrage.Scan(markets, func(m domain.BinaryMarket) (domain.ArbSignal, bool) {
		return arbitrage.CheckMerge(m, asks, params())
	})

	require.Len(t, signals, 2)
	assert.LessOrEqual(t, len(signals), len(markets))
	assert.Equal(t, "m1", signals[0].Market.ConditionID)
	assert.Equal(t, "m4", signals[1].Market.ConditionID)
	for _, s := range signals {
		assert.Equal(t, "y"+s.Market.ConditionID[1:], s.Market.YesTokenID)
		assert.Equal(t, "n"+s.Market.ConditionID[1:], s.Market.NoTokenID)
	}
}

func TestScan_Empty(t *testing.T) {
	signals := arbitrage.Scan(nil, func(domain.BinaryMarket) (domain.ArbSignal, bool) {
		t.Fatal("check must not run")
		return domain.ArbSignal{}, false
	})
	assert.Empty(t, signals)
}
