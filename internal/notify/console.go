package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// Console prints each tick's signals as a table. Quiet ticks print nothing.
type Console struct {
	out io.Writer
	mu  sync.Mutex
}

// NewConsole creates a console reporter. A nil writer means stdout.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

// ReportTick renders arbs and volatility signals found at at.
func (c *Console) ReportTick(_ context.Context, at time.Time, markets int, arbs []domain.ArbSignal, vols []domain.VolatilitySignal) {
	if len(arbs) == 0 && len(vols) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "\n[%s] %d markets, %d arbitrage, %d volatility\n",
		at.Format("15:04:05"), markets, len(arbs), len(vols))

	if len(arbs) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("Kind", "Market", "YES", "NO", "Sum", "Size", "Edge", "Profit")
		for _, s := range arbs {
			table.Append(
				string(s.Kind),
				label(s.Market.Question, s.Market.ConditionID),
				fmt.Sprintf("%.3f", s.PriceYes),
				fmt.Sprintf("%.3f", s.PriceNo),
				fmt.Sprintf("%.3f", s.Cost()),
				fmt.Sprintf("%.1f", s.Size),
				fmt.Sprintf("%.4f", s.NetEdge),
				fmt.Sprintf("$%.2f", s.ExpectedProfit),
			)
		}
		table.Render()
	}

	if len(vols) > 0 {
		table := tablewriter.NewWriter(c.out)
		table.Header("Side", "Market", "Asset", "Price", "Deviation", "Size")
		for _, s := range vols {
			table.Append(
				string(s.Side),
				label(s.Question, s.ConditionID),
				short(s.AssetID, 12),
				fmt.Sprintf("%.3f", s.Price),
				fmt.Sprintf("%.1f%%", s.Deviation*100),
				fmt.Sprintf("%.1f", s.Size),
			)
		}
		table.Render()
	}
}

func label(question, conditionID string) string {
	if question != "" {
		return short(question, 48)
	}
	return short(conditionID, 18)
}

func short(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
