package arbitrage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysportarb/internal/arbitrage"
	"github.com/alanyoungcy/polysportarb/internal/domain"
)

type fakeQuotes struct {
	bids map[string]float64
	asks map[string]float64
}

func (f fakeQuotes) BestBid(id string) (float64, bool) {
	v, ok := f.bids[id]
	return v, ok
}

func (f fakeQuotes) BestAsk(id string) (float64, bool) {
	v, ok := f.asks[id]
	return v, ok
}

func TestDefaultRegistry(t *testing.T) {
	r := arbitrage.NewDefaultRegistry(params())
	assert.Equal(t, []string{"maker", "merge", "split"}, r.List())

	_, err := r.Get("imbalance")
	require.ErrorIs(t, err, domain.ErrUnknownStrategy)

	_, err = r.Select([]string{"merge", "bogus"})
	require.ErrorIs(t, err, domain.ErrUnknownStrategy)

	selected, err := r.Select([]string{"split", "merge"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "split", selected[0].Name())
	assert.Equal(t, "merge", selected[1].Name())
}

func TestScanStrategy(t *testing.T) {
	tests := map[string]fakeQuotes{
		"merge": {asks: map[string]float64{"yes": 0.46, "no": 0.50}},
		"split": {bids: map[string]float64{"yes": 0.55, "no": 0.50}},
		"maker": {
			bids: map[string]float64{"yes": 0.40, "no": 0.45},
			asks: map[string]float64{"yes": 0.48, "no": 0.50},
		},
	}

	r := arbitrage.NewDefaultRegistry(params())
	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := r.Get(name)
			require.NoError(t, err)

			signals := arbitrage.ScanStrategy(s, []domain.BinaryMarket{market}, q)
			require.Len(t, signals, 1)
			assert.Equal(t, domain.ArbKind(name), signals[0].Kind)
		})
	}
}
