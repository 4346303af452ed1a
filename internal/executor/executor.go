// Package executor turns detector signals into orders: logged and simulated
// in paper mode, published to the signal bus in live mode.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// PositionBook receives fills so position caps can be enforced.
type PositionBook interface {
	ApplyFill(f domain.Fill)
}

// Paper logs every signal instead of trading. Maker legs are tracked as
// resting orders; volatility trades fill immediately against the position
// book so caps behave as they would live.
type Paper struct {
	orders    *RestingOrders
	positions PositionBook
	logger    *slog.Logger
	now       func() time.Time
}

// NewPaper creates a paper executor. positions may be nil when volatility
// detection is disabled.
func NewPaper(orders *RestingOrders, positions PositionBook, logger *slog.Logger) *Paper {
	if orders == nil {
		orders = NewRestingOrders()
	}
	return &Paper{
		orders:    orders,
		positions: positions,
		logger:    logger.With(slog.String("component", "paper_executor")),
		now:       time.Now,
	}
}

// ExecuteArb logs the legs of sig and tracks maker bids.
func (p *Paper) ExecuteArb(ctx context.Context, sig domain.ArbSignal) error {
	log := p.logger.With(
		slog.String("kind", string(sig.Kind)),
		slog.String("condition_id", sig.Market.ConditionID),
		slog.Float64("price_yes", sig.PriceYes),
		slog.Float64("price_no", sig.PriceNo),
		slog.Float64("size", sig.Size),
	)

	switch sig.Kind {
	case domain.ArbMerge:
		log.InfoContext(ctx, "[PAPER] merge: buy YES and NO, then merge",
			slog.Float64("cost", sig.Cost()*sig.Size),
			slog.Float64("expected_profit", sig.ExpectedProfit),
		)
	case domain.ArbSplit:
		log.InfoContext(ctx, "[PAPER] split: mint pair, sell YES and NO",
			slog.Float64("collateral", sig.Size),
			slog.Float64("proceeds", sig.Cost()*sig.Size),
			slog.Float64("expected_profit", sig.ExpectedProfit),
		)
	case domain.ArbMaker:
		signalID := uuid.New().String()
		now := p.now()
		yesID, noID := uuid.New().String(), uuid.New().String()
		p.orders.Track(domain.RestingOrder{
			OrderID: yesID, SignalID: signalID, AssetID: sig.Market.YesTokenID,
			Price: sig.PriceYes, Size: sig.Size, CreatedAt: now,
		})
		p.orders.Track(domain.RestingOrder{
			OrderID: noID, SignalID: signalID, AssetID: sig.Market.NoTokenID,
			Price: sig.PriceNo, Size: sig.Size, CreatedAt: now,
		})
		log.InfoContext(ctx, "[PAPER] maker: resting bids on YES and NO",
			slog.String("signal_id", signalID),
			slog.String("yes_order_id", yesID),
			slog.String("no_order_id", noID),
			slog.Float64("cost", sig.Cost()*sig.Size),
			slog.Float64("expected_profit", sig.ExpectedProfit),
		)
	default:
		log.WarnContext(ctx, "[PAPER] unknown arbitrage kind, skipping")
	}
	return nil
}

// ExecuteVolatility logs sig and applies a simulated fill.
func (p *Paper) ExecuteVolatility(ctx context.Context, sig domain.VolatilitySignal) error {
	orderID := uuid.New().String()
	p.logger.InfoContext(ctx, "[PAPER] volatility trade",
		slog.String("order_id", orderID),
		slog.String("asset_id", sig.AssetID),
		slog.String("side", string(sig.Side)),
		slog.Float64("price", sig.Price),
		slog.Float64("size", sig.Size),
		slog.Float64("deviation", sig.Deviation),
	)
	if p.positions != nil {
		p.positions.ApplyFill(domain.Fill{
			OrderID: orderID,
			AssetID: sig.AssetID,
			Side:    sig.Side,
			Size:    sig.Size,
		})
	}
	return nil
}

// CancelOrders forgets the given resting orders.
func (p *Paper) CancelOrders(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	p.orders.Remove(orderIDs...)
	p.logger.InfoContext(ctx, "[PAPER] cancelled resting orders", slog.Int("count", len(orderIDs)))
	return nil
}

// Orders returns the resting-order tracker.
func (p *Paper) Orders() *RestingOrders {
	return p.orders
}
