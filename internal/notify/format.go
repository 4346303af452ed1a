package notify

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

const maxQuestionRunes = 120

// truncateQuestion shortens q to 120 runes, ending in "..." when cut.
func truncateQuestion(q string) string {
	q = strings.TrimSpace(q)
	r := []rune(q)
	if len(r) <= maxQuestionRunes {
		return q
	}
	return string(r[:maxQuestionRunes-3]) + "..."
}

// FormatArb renders an arbitrage signal as a plain-text alert.
func FormatArb(sig domain.ArbSignal) (title, body string) {
	q := truncateQuestion(sig.Market.Question)
	if q == "" {
		q = "Arbitrage opportunity"
	}

	var verb, sumNote string
	switch sig.Kind {
	case domain.ArbSplit:
		verb, sumNote = "Sell", "> 1 means arbitrage"
	case domain.ArbMaker:
		verb, sumNote = "Bid", "< 1 if both bids fill"
	default:
		verb, sumNote = "Buy", "< 1 means arbitrage"
	}

	var b strings.Builder
	b.WriteString("Market\n")
	b.WriteString(q + "\n\n")
	b.WriteString("Prices\n")
	fmt.Fprintf(&b, "%s YES: %.3f\n", verb, sig.PriceYes)
	fmt.Fprintf(&b, "%s NO:  %.3f\n", verb, sig.PriceNo)
	fmt.Fprintf(&b, "Sum:     %.3f (%s)\n", sig.Cost(), sumNote)
	if sig.Kind == domain.ArbMaker {
		fmt.Fprintf(&b, "Best asks: %.3f / %.3f\n", sig.BestAskYes, sig.BestAskNo)
	}
	b.WriteString("\nOrder\n")
	fmt.Fprintf(&b, "Size per leg: %.1f\n", sig.Size)
	fmt.Fprintf(&b, "Expected profit: $%.2f\n", sig.ExpectedProfit)
	if url := sig.Market.URL(); url != "" {
		b.WriteString("\nLink\n")
		b.WriteString(url)
	}

	return fmt.Sprintf("Arbitrage opportunity (%s)", sig.Kind), strings.TrimRight(b.String(), "\n")
}

// FormatVolatility renders a volatility signal as a plain-text alert.
func FormatVolatility(sig domain.VolatilitySignal) (title, body string) {
	var b strings.Builder
	if q := truncateQuestion(sig.Question); q != "" {
		b.WriteString("Market\n")
		b.WriteString(q + "\n\n")
	}
	fmt.Fprintf(&b, "%s YES at %.3f\n", strings.ToUpper(string(sig.Side)), sig.Price)
	fmt.Fprintf(&b, "Deviation from mean: %.1f%%\n", sig.Deviation*100)
	fmt.Fprintf(&b, "Size: %.1f", sig.Size)
	if url := (domain.BinaryMarket{ConditionID: sig.ConditionID}).URL(); url != "" {
		b.WriteString("\n\nLink\n")
		b.WriteString(url)
	}
	return "Volatility signal", b.String()
}
