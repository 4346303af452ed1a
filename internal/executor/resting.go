package executor

import (
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// Stats summarises tracked resting orders. TimedOut counts pending orders
// older than the timeout passed to RestingOrders.Stats.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Filled   int `json:"filled"`
	TimedOut int `json:"timed_out"`
}

// RestingOrders tracks maker legs from placement until fill or cancel. It
// is safe for concurrent use.
type RestingOrders struct {
	orders map[string]domain.RestingOrder
	mu     sync.RWMutex
}

// NewRestingOrders creates an empty tracker.
func NewRestingOrders() *RestingOrders {
	return &RestingOrders{orders: make(map[string]domain.RestingOrder)}
}

// Track records o as pending. An existing entry with the same id is replaced.
func (r *RestingOrders) Track(o domain.RestingOrder) {
	if o.OrderID == "" {
		return
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.OrderID] = o
}

// MarkFilled flips an order to filled and returns it. Unknown ids return false.
func (r *RestingOrders) MarkFilled(orderID string) (domain.RestingOrder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.RestingOrder{}, false
	}
	o.Status = domain.OrderStatusFilled
	r.orders[orderID] = o
	return o, true
}

// Remove forgets the given orders.
func (r *RestingOrders) Remove(orderIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range orderIDs {
		delete(r.orders, id)
	}
}

// Get returns one tracked order.
func (r *RestingOrders) Get(orderID string) (domain.RestingOrder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[orderID]
	return o, ok
}

// Stats counts orders by state as of now.
func (r *RestingOrders) Stats(now time.Time, timeout time.Duration) Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := Stats{Total: len(r.orders)}
	for _, o := range r.orders {
		switch o.Status {
		case domain.OrderStatusFilled:
			st.Filled++
		case domain.OrderStatusPending:
			st.Pending++
			if timeout > 0 && now.Sub(o.CreatedAt) > timeout {
				st.TimedOut++
			}
		}
	}
	return st
}

// Expired returns the ids of pending orders older than timeout, sorted.
func (r *RestingOrders) Expired(now time.Time, timeout time.Duration) []string {
	if timeout <= 0 {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, o := range r.orders {
		if o.Status == domain.OrderStatusPending && now.Sub(o.CreatedAt) > timeout {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
