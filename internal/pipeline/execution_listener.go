package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/executor"
)

// ExecutionListener applies order events published by the external order
// service: placements are tracked as resting orders, fills advance the
// position book and cancels are forgotten.
type ExecutionListener struct {
	bus       domain.SignalBus
	channel   string
	orders    *executor.RestingOrders
	positions executor.PositionBook
	logger    *slog.Logger
	now       func() time.Time
}

// NewExecutionListener creates a listener on channel. positions may be nil.
func NewExecutionListener(
	bus domain.SignalBus,
	channel string,
	orders *executor.RestingOrders,
	positions executor.PositionBook,
	logger *slog.Logger,
) *ExecutionListener {
	if channel == "" {
		channel = executor.DefaultExecutionChannel
	}
	return &ExecutionListener{
		bus:       bus,
		channel:   channel,
		orders:    orders,
		positions: positions,
		logger:    logger.With(slog.String("component", "execution_listener")),
		now:       time.Now,
	}
}

// Run subscribes to the execution channel and applies every event until ctx
// is cancelled.
func (l *ExecutionListener) Run(ctx context.Context) error {
	ch, err := l.bus.Subscribe(ctx, l.channel)
	if err != nil {
		return fmt.Errorf("pipeline: subscribe executions: %w", err)
	}
	l.logger.InfoContext(ctx, "execution listener started", slog.String("channel", l.channel))
	defer l.logger.Info("execution listener stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("pipeline: execution subscription closed")
			}
			var ev domain.ExecutionEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				l.logger.WarnContext(ctx, "invalid execution event", slog.String("error", err.Error()))
				continue
			}
			l.Apply(ctx, ev)
		}
	}
}

// Apply updates order and position state for one event.
func (l *ExecutionListener) Apply(ctx context.Context, ev domain.ExecutionEvent) {
	log := l.logger.With(
		slog.String("type", string(ev.Type)),
		slog.String("order_id", ev.OrderID),
	)
	if ev.OrderID == "" {
		log.WarnContext(ctx, "execution event without order id")
		return
	}

	switch ev.Type {
	case domain.EventPlaced:
		l.orders.Track(domain.RestingOrder{
			OrderID:   ev.OrderID,
			SignalID:  ev.SignalID,
			AssetID:   ev.AssetID,
			Price:     ev.Price,
			Size:      ev.Size,
			CreatedAt: l.now(),
		})
		log.DebugContext(ctx, "order placed")

	case domain.EventFilled:
		o, tracked := l.orders.MarkFilled(ev.OrderID)
		assetID, size := ev.AssetID, ev.Size
		if assetID == "" && tracked {
			assetID = o.AssetID
		}
		if size == 0 && tracked {
			size = o.Size
		}
		side := ev.Side
		if side == "" {
			side = domain.SideBuy
		}
		if l.positions != nil {
			l.positions.ApplyFill(domain.Fill{OrderID: ev.OrderID, AssetID: assetID, Side: side, Size: size})
		}
		log.InfoContext(ctx, "order filled",
			slog.String("asset_id", assetID),
			slog.Float64("size", size),
			slog.Bool("tracked", tracked),
		)

	case domain.EventCancelled:
		l.orders.Remove(ev.OrderID)
		log.DebugContext(ctx, "order cancelled")

	default:
		log.WarnContext(ctx, "unknown execution event type")
	}
}
