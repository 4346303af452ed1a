// Package book holds the in-memory top-of-book store that the feed writes
// and the detectors read.
package book

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

type entry struct {
	bid       *float64
	ask       *float64
	updatedAt time.Time
}

// Store maps asset ids to their latest best bid and ask. It is safe for one
// writer and any number of concurrent readers; the lock is never held across
// I/O.
type Store struct {
	books map[string]*entry
	last  time.Time
	now   func() time.Time
	mu    sync.RWMutex
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		books: make(map[string]*entry),
		now:   time.Now,
	}
}

// Update merges a partial update. Each side is overwritten only when the
// incoming value is finite; an update with no usable side is ignored.
func (s *Store) Update(u domain.QuoteUpdate) {
	if u.AssetID == "" {
		return
	}
	bid, bidOK := finite(u.Bid)
	ask, askOK := finite(u.Ask)
	if !bidOK && !askOK {
		return
	}

	ts := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.books[u.AssetID]
	if !ok {
		e = &entry{}
		s.books[u.AssetID] = e
	}
	if bidOK {
		e.bid = &bid
	}
	if askOK {
		e.ask = &ask
	}
	e.updatedAt = ts
	s.last = ts
}

// BestBid returns the latest best bid for assetID.
func (s *Store) BestBid(assetID string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.books[assetID]
	if !ok || e.bid == nil {
		return 0, false
	}
	return *e.bid, true
}

// BestAsk returns the latest best ask for assetID.
func (s *Store) BestAsk(assetID string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.books[assetID]
	if !ok || e.ask == nil {
		return 0, false
	}
	return *e.ask, true
}

// Get returns a copy of the snapshot for assetID.
func (s *Store) Get(assetID string) (domain.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.books[assetID]
	if !ok {
		return domain.Quote{}, false
	}
	return e.quote(assetID), true
}

// Snapshot returns copies of every quote, sorted by asset id.
func (s *Store) Snapshot() []domain.Quote {
	s.mu.RLock()
	out := make([]domain.Quote, 0, len(s.books))
	for id, e := range s.books {
		out = append(out, e.quote(id))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out
}

// AssetIDs returns every asset id that has a snapshot, sorted.
func (s *Store) AssetIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.books))
	for id := range s.books {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// LastUpdate returns when assetID last received a usable update.
func (s *Store) LastUpdate(assetID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.books[assetID]
	if !ok {
		return time.Time{}, false
	}
	return e.updatedAt, true
}

// LastAnyUpdate returns the time of the most recent update across all
// instruments, or the zero time if nothing was received yet.
func (s *Store) LastAnyUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Len returns the number of instruments with a snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// BidFunc adapts BestBid to a detector accessor.
func (s *Store) BidFunc() func(string) (float64, bool) {
	return s.BestBid
}

// AskFunc adapts BestAsk to a detector accessor.
func (s *Store) AskFunc() func(string) (float64, bool) {
	return s.BestAsk
}

func (e *entry) quote(assetID string) domain.Quote {
	q := domain.Quote{AssetID: assetID, UpdatedAt: e.updatedAt}
	if e.bid != nil {
		q.Bid = domain.Float(*e.bid)
	}
	if e.ask != nil {
		q.Ask = domain.Float(*e.ask)
	}
	return q
}

func finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
