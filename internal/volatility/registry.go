package volatility

import (
	"sync"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// PriceFunc returns the current price for an asset, or false when unknown.
type PriceFunc func(assetID string) (float64, bool)

// Registry owns one Detector per monitored instrument. Detectors are created
// lazily on first scan. The mutex lets out-of-band fills land while the
// orchestrator is scanning.
type Registry struct {
	params    Params
	detectors map[string]*Detector
	mu        sync.Mutex
}

// NewRegistry creates an empty registry whose detectors share p.
func NewRegistry(p Params) *Registry {
	return &Registry{
		params:    p,
		detectors: make(map[string]*Detector),
	}
}

// Scan observes the YES leg of every market that has one and checks it
// against its window. The NO leg is not needed. Signals are returned in input
// order.
func (r *Registry) Scan(markets []domain.BinaryMarket, bid, ask PriceFunc) []domain.VolatilitySignal {
	r.mu.Lock()
	defer r.mu.Unlock()

	var signals []domain.VolatilitySignal
	for _, m := range markets {
		if m.YesTokenID == "" {
			continue
		}
		d := r.detector(m.YesTokenID)

		b := lookup(bid, m.YesTokenID)
		a := lookup(ask, m.YesTokenID)
		d.Observe(b, a)
		sig, ok := d.Check(b, a)
		if !ok {
			continue
		}
		sig.ConditionID = m.ConditionID
		sig.Question = m.Question
		signals = append(signals, sig)
	}
	return signals
}

// ApplyFill advances the position of the fill's instrument.
func (r *Registry) ApplyFill(f domain.Fill) {
	if f.AssetID == "" || f.Size <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detector(f.AssetID).ApplyFill(f.Side, f.Size)
}

// Position returns the position for assetID, zero when untracked.
func (r *Registry) Position(assetID string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.detectors[assetID]; ok {
		return d.Position()
	}
	return 0
}

// Len returns the number of tracked instruments.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.detectors)
}

// detector returns the detector for assetID, creating it. Caller holds r.mu.
func (r *Registry) detector(assetID string) *Detector {
	d, ok := r.detectors[assetID]
	if !ok {
		d = NewDetector(assetID, r.params)
		r.detectors[assetID] = d
	}
	return d
}

func lookup(f PriceFunc, assetID string) *float64 {
	if f == nil {
		return nil
	}
	v, ok := f(assetID)
	if !ok {
		return nil
	}
	return &v
}
