package domain

import "time"

// Quote is the latest top of book for one instrument. A nil side means no
// value has been received yet for it.
type Quote struct {
	AssetID   string
	Bid       *float64
	Ask       *float64
	UpdatedAt time.Time
}

// Mid returns the bid/ask midpoint, or whichever side is present.
func (q Quote) Mid() (float64, bool) {
	return Mid(q.Bid, q.Ask)
}

// QuoteUpdate is a parsed partial update for one instrument.
type QuoteUpdate struct {
	AssetID string
	Bid     *float64
	Ask     *float64
}

// Mid averages bid and ask when both are present and falls back to the
// present side otherwise.
func Mid(bid, ask *float64) (float64, bool) {
	switch {
	case bid != nil && ask != nil:
		return (*bid + *ask) / 2, true
	case bid != nil:
		return *bid, true
	case ask != nil:
		return *ask, true
	default:
		return 0, false
	}
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
