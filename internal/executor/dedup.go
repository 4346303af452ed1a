package executor

import (
	"fmt"
	"sync"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// Dedup suppresses repeats of the same key within a time-to-live window. The
// orchestrator uses it so an arbitrage that persists across ticks is only
// notified once per window. It is safe for concurrent use.
type Dedup struct {
	seen map[string]time.Time // key -> last seen time
	ttl  time.Duration
	now  func() time.Time
	mu   sync.Mutex
}

// NewDedup creates a Dedup instance that considers a key a duplicate if it
// has been seen within the given ttl. A non-positive ttl disables dedup.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// IsDuplicate returns true if key has been seen within the TTL window. If
// the key has not been seen (or has expired), it is recorded and false is
// returned.
func (d *Dedup) IsDuplicate(key string) bool {
	if d.ttl <= 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if lastSeen, ok := d.seen[key]; ok {
		if now.Sub(lastSeen) < d.ttl {
			return true
		}
	}

	d.seen[key] = now
	return false
}

// Cleanup removes entries that have expired beyond the TTL. This should be
// called periodically to prevent unbounded memory growth.
func (d *Dedup) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for key, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, key)
		}
	}
}

// Len returns the number of remembered keys.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// SetClock replaces the time source. Intended for tests.
func (d *Dedup) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// ArbKey identifies an arbitrage by kind, market and leg prices rounded to
// the tick.
func ArbKey(s domain.ArbSignal) string {
	return fmt.Sprintf("arb:%s:%s:%.3f:%.3f", s.Kind, s.Market.ConditionID, s.PriceYes, s.PriceNo)
}

// VolatilityKey identifies a volatility signal by instrument, side and price.
func VolatilityKey(s domain.VolatilitySignal) string {
	return fmt.Sprintf("vol:%s:%s:%.3f", s.AssetID, s.Side, s.Price)
}
