package executor

import (
	"context"
	"log/slog"
	"time"
)

// Canceller cancels resting orders.
type Canceller interface {
	CancelOrders(ctx context.Context, orderIDs []string) error
}

// Sweeper cancels maker legs that have rested longer than the timeout.
type Sweeper struct {
	orders    *RestingOrders
	canceller Canceller
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewSweeper creates a sweeper over orders.
func NewSweeper(orders *RestingOrders, canceller Canceller, timeout time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		orders:    orders,
		canceller: canceller,
		timeout:   timeout,
		logger:    logger.With(slog.String("component", "order_sweeper")),
		now:       time.Now,
	}
}

// Sweep cancels and forgets every expired pending order. It returns the
// number of orders cancelled. On cancel failure the orders stay tracked and
// are retried on the next sweep.
func (s *Sweeper) Sweep(ctx context.Context) int {
	now := s.now()
	expired := s.orders.Expired(now, s.timeout)
	if len(expired) == 0 {
		return 0
	}
	if err := s.canceller.CancelOrders(ctx, expired); err != nil {
		s.logger.WarnContext(ctx, "cancel expired orders failed",
			slog.Int("count", len(expired)),
			slog.String("error", err.Error()),
		)
		return 0
	}
	s.orders.Remove(expired...)

	st := s.orders.Stats(now, s.timeout)
	s.logger.InfoContext(ctx, "expired maker orders cancelled",
		slog.Int("cancelled", len(expired)),
		slog.Int("pending", st.Pending),
		slog.Int("filled", st.Filled),
	)
	return len(expired)
}

// RunLoop sweeps on every tick until ctx is cancelled.
func (s *Sweeper) RunLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *Sweeper) SetClock(now func() time.Time) {
	s.now = now
}
