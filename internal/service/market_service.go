package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/platform/polymarket"
)

// EventSource fetches a page of Gamma events.
type EventSource interface {
	GetEvents(ctx context.Context, q polymarket.EventsQuery) ([]polymarket.APIEvent, error)
}

// MarketConfig selects which discovered markets are monitored.
type MarketConfig struct {
	TagID        *int
	Limit        int
	Offset       int
	MaxMarkets   int
	ConditionIDs []string
}

// MarketService handles market discovery. It keeps the monitored list as an
// immutable snapshot that is swapped on every successful refresh.
type MarketService struct {
	events   EventSource
	cfg      MarketConfig
	logger   *slog.Logger
	now      func() time.Time
	onChange func([]domain.BinaryMarket)

	markets     atomic.Pointer[[]domain.BinaryMarket]
	refreshedAt atomic.Int64
}

// NewMarketService creates a MarketService with an empty market list.
func NewMarketService(events EventSource, cfg MarketConfig, logger *slog.Logger) *MarketService {
	s := &MarketService{
		events: events,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "market_service")),
		now:    time.Now,
	}
	empty := []domain.BinaryMarket{}
	s.markets.Store(&empty)
	return s
}

// OnChange registers fn to run after a refresh changes the set of monitored
// instruments. Must be called before RunLoop.
func (s *MarketService) OnChange(fn func([]domain.BinaryMarket)) {
	s.onChange = fn
}

// Refresh fetches open events and replaces the monitored list. On failure the
// previous list is kept.
func (s *MarketService) Refresh(ctx context.Context) error {
	events, err := s.events.GetEvents(ctx, polymarket.EventsQuery{
		TagID:  s.cfg.TagID,
		Closed: false,
		Limit:  s.cfg.Limit,
		Offset: s.cfg.Offset,
	})
	if err != nil {
		return fmt.Errorf("market_service: refresh: %w", err)
	}

	discovered := polymarket.EventsToBinaryMarkets(events, s.now())
	selected := s.selectMarkets(discovered)

	prev := s.Markets()
	s.markets.Store(&selected)
	s.refreshedAt.Store(s.now().UnixNano())

	s.logger.InfoContext(ctx, "markets refreshed",
		slog.Int("events", len(events)),
		slog.Int("discovered", len(discovered)),
		slog.Int("monitored", len(selected)),
	)

	if s.onChange != nil && !slices.Equal(domain.AssetIDs(prev), domain.AssetIDs(selected)) {
		s.onChange(selected)
	}
	return nil
}

// selectMarkets dedupes by condition id, applies the configured allow list
// in its order and caps the result.
func (s *MarketService) selectMarkets(discovered []domain.BinaryMarket) []domain.BinaryMarket {
	byID := make(map[string]domain.BinaryMarket, len(discovered))
	var ordered []domain.BinaryMarket
	for _, m := range discovered {
		if _, ok := byID[m.ConditionID]; ok {
			continue
		}
		byID[m.ConditionID] = m
		ordered = append(ordered, m)
	}

	if len(s.cfg.ConditionIDs) > 0 {
		ordered = ordered[:0:0]
		for _, id := range s.cfg.ConditionIDs {
			id = strings.TrimSpace(id)
			m, ok := byID[id]
			if !ok {
				continue
			}
			delete(byID, id)
			ordered = append(ordered, m)
		}
	}

	if s.cfg.MaxMarkets > 0 && len(ordered) > s.cfg.MaxMarkets {
		ordered = ordered[:s.cfg.MaxMarkets]
	}
	if ordered == nil {
		ordered = []domain.BinaryMarket{}
	}
	return ordered
}

// Markets returns the monitored markets. The slice must not be modified.
func (s *MarketService) Markets() []domain.BinaryMarket {
	return *s.markets.Load()
}

// AssetIDs returns the YES/NO token ids of the monitored markets.
func (s *MarketService) AssetIDs() []string {
	return domain.AssetIDs(s.Markets())
}

// RefreshedAt returns the time of the last successful refresh.
func (s *MarketService) RefreshedAt() time.Time {
	ns := s.refreshedAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// RunLoop refreshes on every tick until ctx is cancelled. The first refresh
// is expected to have been done by the caller.
func (s *MarketService) RunLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.ErrorContext(ctx, "market refresh failed, keeping previous list",
					slog.String("error", err.Error()),
					slog.Int("monitored", len(s.Markets())),
				)
			}
		}
	}
}
