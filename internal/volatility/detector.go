// Package volatility flags single-leg mean-reversion trades when an
// instrument's mid price drifts from the mean of its recent window.
package volatility

import (
	"math"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// DefaultWindowSize is used when Params.WindowSize is not positive.
const DefaultWindowSize = 20

// Params configures every detector created by a Registry.
type Params struct {
	WindowSize   int
	DeviationPct float64
	MaxPosition  float64
	Size         float64
}

// Detector keeps a bounded window of mid prices for one instrument and a
// position counter advanced only by fills. It is not safe for concurrent
// use; Registry serialises access.
type Detector struct {
	assetID  string
	params   Params
	window   []float64
	next     int
	count    int
	position float64
}

// NewDetector creates a detector for assetID.
func NewDetector(assetID string, p Params) *Detector {
	if p.WindowSize <= 0 {
		p.WindowSize = DefaultWindowSize
	}
	return &Detector{
		assetID: assetID,
		params:  p,
		window:  make([]float64, p.WindowSize),
	}
}

// Observe appends the current mid to the window, evicting the oldest entry
// once full. Nothing is recorded when both sides are absent.
func (d *Detector) Observe(bid, ask *float64) {
	mid, ok := domain.Mid(bid, ask)
	if !ok {
		return
	}
	d.window[d.next] = mid
	d.next = (d.next + 1) % len(d.window)
	if d.count < len(d.window) {
		d.count++
	}
}

// Mean returns the window mean and the number of observations.
func (d *Detector) Mean() (float64, int) {
	if d.count == 0 {
		return 0, 0
	}
	var sum float64
	for i := 0; i < d.count; i++ {
		sum += d.window[i]
	}
	return sum / float64(d.count), d.count
}

// Check compares the current mid to the window mean. It emits a buy when the
// price is below trend and a sell when above, unless the deviation is under
// the threshold or the next fill would exceed the position cap. The position
// itself is left untouched.
func (d *Detector) Check(bid, ask *float64) (domain.VolatilitySignal, bool) {
	mean, n := d.Mean()
	if n < 2 || mean <= 0 {
		return domain.VolatilitySignal{}, false
	}
	mid, ok := domain.Mid(bid, ask)
	if !ok {
		return domain.VolatilitySignal{}, false
	}

	deviation := (mid - mean) / mean
	if math.Abs(deviation) < d.params.DeviationPct {
		return domain.VolatilitySignal{}, false
	}
	if d.position+d.params.Size > d.params.MaxPosition {
		return domain.VolatilitySignal{}, false
	}

	side := domain.SideSell
	if deviation < 0 {
		side = domain.SideBuy
	}
	return domain.VolatilitySignal{
		AssetID:   d.assetID,
		Side:      side,
		Price:     mid,
		Size:      d.params.Size,
		Deviation: math.Abs(deviation),
	}, true
}

// Position returns the current position counter.
func (d *Detector) Position() float64 {
	return d.position
}

// ApplyFill moves the position: buys add size, sells subtract it.
func (d *Detector) ApplyFill(side domain.Side, size float64) {
	switch side {
	case domain.SideBuy:
		d.position += size
	case domain.SideSell:
		d.position -= size
	}
}
