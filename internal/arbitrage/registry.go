package arbitrage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// Registry holds named arbitrage strategies for selection by config.
type Registry struct {
	strategies map[string]Strategy
	mu         sync.RWMutex
}

// NewRegistry returns an empty registry. Call Register to add strategies.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// NewDefaultRegistry returns a registry with merge, split and maker sharing p.
func NewDefaultRegistry(p Params) *Registry {
	r := NewRegistry()
	for _, s := range []Strategy{Merge{Params: p}, Split{Params: p}, Maker{Params: p}} {
		r.Register(s)
	}
	return r
}

// Register adds s under its own name, replacing any previous entry.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Get returns the strategy by name.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("arbitrage: %w: %q", domain.ErrUnknownStrategy, name)
	}
	return s, nil
}

// Select resolves names in order, failing on the first unknown one.
func (r *Registry) Select(names []string) ([]Strategy, error) {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		s, err := r.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// List returns all registered strategy names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
