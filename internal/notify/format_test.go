package notify_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/notify"
)

func TestFormatArb_Merge(t *testing.T) {
	title, body := notify.FormatArb(domain.ArbSignal{
		Kind:           domain.ArbMerge,
		Market:         domain.BinaryMarket{ConditionID: "0xabc", YesTokenID: "y", NoTokenID: "n", Question: "Will it rain?"},
		PriceYes:       0.46,
		PriceNo:        0.5,
		Size:           5,
		ExpectedProfit: 0.2,
	})

	assert.Equal(t, "Arbitrage opportunity (merge)", title)
	want := strings.Join([]string{
		"Market",
		"Will it rain?",
		"",
		"Prices",
		"Buy YES: 0.460",
		"Buy NO:  0.500",
		"Sum:     0.960 (< 1 means arbitrage)",
		"",
		"Order",
		"Size per leg: 5.0",
		"Expected profit: $0.20",
		"",
		"Link",
		"https://polymarket.com/market/0xabc",
	}, "\n")
	assert.Equal(t, want, body)
}

func TestFormatArb_SplitAndMaker(t *testing.T) {
	m := domain.BinaryMarket{ConditionID: "c", YesTokenID: "y", NoTokenID: "n"}

	_, body := notify.FormatArb(domain.ArbSignal{Kind: domain.ArbSplit, Market: m, PriceYes: 0.55, PriceNo: 0.5})
	assert.Contains(t, body, "Sell YES: 0.550")
	assert.Contains(t, body, "Arbitrage opportunity", "blank question falls back to a label")

	_, body = notify.FormatArb(domain.ArbSignal{Kind: domain.ArbMaker, Market: m, PriceYes: 0.47, PriceNo: 0.49, BestAskYes: 0.48, BestAskNo: 0.5})
	assert.Contains(t, body, "Bid YES: 0.470")
	assert.Contains(t, body, "Best asks: 0.480 / 0.500")
}

func TestFormatArb_TruncatesQuestion(t *testing.T) {
	long := strings.Repeat("é", 130)
	_, body := notify.FormatArb(domain.ArbSignal{Kind: domain.ArbMerge, Market: domain.BinaryMarket{Question: long}})

	line := strings.Split(body, "\n")[1]
	assert.Equal(t, 120, utf8.RuneCountInString(line))
	assert.True(t, strings.HasSuffix(line, "..."))

	exact := strings.Repeat("a", 120)
	_, body = notify.FormatArb(domain.ArbSignal{Kind: domain.ArbMerge, Market: domain.BinaryMarket{Question: exact}})
	assert.Equal(t, exact, strings.Split(body, "\n")[1])
}

func TestFormatArb_NoURLWithoutConditionID(t *testing.T) {
	_, body := notify.FormatArb(domain.ArbSignal{Kind: domain.ArbMerge, Market: domain.BinaryMarket{Question: "Q"}})
	assert.NotContains(t, body, "Link")
}

func TestFormatVolatility(t *testing.T) {
	title, body := notify.FormatVolatility(domain.VolatilitySignal{
		AssetID: "y", ConditionID: "0xabc", Question: "Q", Side: domain.SideBuy,
		Price: 0.4, Size: 5, Deviation: 0.1667,
	})
	assert.Equal(t, "Volatility signal", title)
	assert.Contains(t, body, "BUY YES at 0.400")
	assert.Contains(t, body, "Deviation from mean: 16.7%")
	assert.Contains(t, body, "https://polymarket.com/market/0xabc")
}
