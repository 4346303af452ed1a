package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// Channel names used on the signal bus.
const (
	DefaultSignalChannel    = "polysportarb:signals"
	DefaultSignalStream     = "polysportarb:signals:stream"
	DefaultCancelChannel    = "polysportarb:cancels"
	DefaultExecutionChannel = "polysportarb:executions"
)

// Envelope types.
const (
	TypeArbPrefix  = "arb."
	TypeVolatility = "volatility"
	TypeCancel     = "cancel"
)

// Envelope wraps every message the Bus executor publishes.
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Signal    any       `json:"signal"`
}

// CancelRequest is the payload of a cancel envelope.
type CancelRequest struct {
	OrderIDs []string `json:"order_ids"`
}

// BusChannels names the channels and stream the Bus executor writes to.
type BusChannels struct {
	Signals string
	Stream  string
	Cancels string
}

// Bus hands signals to an external order service through the signal bus.
// Each signal is published for live consumers and appended to a stream for
// replay.
type Bus struct {
	bus      domain.SignalBus
	channels BusChannels
	logger   *slog.Logger
	now      func() time.Time
}

// NewBus creates a live executor. Empty channel names fall back to defaults.
func NewBus(bus domain.SignalBus, channels BusChannels, logger *slog.Logger) *Bus {
	if channels.Signals == "" {
		channels.Signals = DefaultSignalChannel
	}
	if channels.Stream == "" {
		channels.Stream = DefaultSignalStream
	}
	if channels.Cancels == "" {
		channels.Cancels = DefaultCancelChannel
	}
	return &Bus{
		bus:      bus,
		channels: channels,
		logger:   logger.With(slog.String("component", "bus_executor")),
		now:      time.Now,
	}
}

// ExecuteArb publishes sig as an "arb.<kind>" envelope.
func (b *Bus) ExecuteArb(ctx context.Context, sig domain.ArbSignal) error {
	id, err := b.publishSignal(ctx, TypeArbPrefix+string(sig.Kind), arbPayload(sig))
	if err != nil {
		return err
	}
	b.logger.InfoContext(ctx, "arbitrage signal published",
		slog.String("envelope_id", id),
		slog.String("kind", string(sig.Kind)),
		slog.String("condition_id", sig.Market.ConditionID),
	)
	return nil
}

// ExecuteVolatility publishes sig as a "volatility" envelope.
func (b *Bus) ExecuteVolatility(ctx context.Context, sig domain.VolatilitySignal) error {
	id, err := b.publishSignal(ctx, TypeVolatility, volatilityPayload(sig))
	if err != nil {
		return err
	}
	b.logger.InfoContext(ctx, "volatility signal published",
		slog.String("envelope_id", id),
		slog.String("asset_id", sig.AssetID),
		slog.String("side", string(sig.Side)),
	)
	return nil
}

// CancelOrders publishes one cancel request for orderIDs.
func (b *Bus) CancelOrders(ctx context.Context, orderIDs []string) error {
	if len(orderIDs) == 0 {
		return nil
	}
	data, err := b.encode(TypeCancel, CancelRequest{OrderIDs: orderIDs})
	if err != nil {
		return err
	}
	if err := b.bus.Publish(ctx, b.channels.Cancels, data); err != nil {
		return fmt.Errorf("executor: publish cancel: %w", err)
	}
	b.logger.InfoContext(ctx, "cancel request published", slog.Int("count", len(orderIDs)))
	return nil
}

func (b *Bus) publishSignal(ctx context.Context, typ string, payload any) (string, error) {
	env := b.envelope(typ, payload)
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("executor: encode %s: %w", typ, err)
	}

	var errs []error
	if err := b.bus.Publish(ctx, b.channels.Signals, data); err != nil {
		errs = append(errs, fmt.Errorf("executor: publish %s: %w", typ, err))
	}
	if err := b.bus.StreamAppend(ctx, b.channels.Stream, data); err != nil {
		errs = append(errs, fmt.Errorf("executor: stream %s: %w", typ, err))
	}
	return env.ID, errors.Join(errs...)
}

func (b *Bus) encode(typ string, payload any) ([]byte, error) {
	data, err := json.Marshal(b.envelope(typ, payload))
	if err != nil {
		return nil, fmt.Errorf("executor: encode %s: %w", typ, err)
	}
	return data, nil
}

func (b *Bus) envelope(typ string, payload any) Envelope {
	return Envelope{
		ID:        uuid.New().String(),
		Type:      typ,
		CreatedAt: b.now().UTC(),
		Signal:    payload,
	}
}

// ArbPayload is the wire form of an arbitrage signal.
type ArbPayload struct {
	Kind           string  `json:"kind"`
	ConditionID    string  `json:"condition_id"`
	YesTokenID     string  `json:"yes_token_id"`
	NoTokenID      string  `json:"no_token_id"`
	Question       string  `json:"question,omitempty"`
	PriceYes       float64 `json:"price_yes"`
	PriceNo        float64 `json:"price_no"`
	BestAskYes     float64 `json:"best_ask_yes,omitempty"`
	BestAskNo      float64 `json:"best_ask_no,omitempty"`
	Size           float64 `json:"size"`
	NetEdge        float64 `json:"net_edge"`
	ExpectedProfit float64 `json:"expected_profit"`
}

func arbPayload(s domain.ArbSignal) ArbPayload {
	return ArbPayload{
		Kind:           string(s.Kind),
		ConditionID:    s.Market.ConditionID,
		YesTokenID:     s.Market.YesTokenID,
		NoTokenID:      s.Market.NoTokenID,
		Question:       s.Market.Question,
		PriceYes:       s.PriceYes,
		PriceNo:        s.PriceNo,
		BestAskYes:     s.BestAskYes,
		BestAskNo:      s.BestAskNo,
		Size:           s.Size,
		NetEdge:        s.NetEdge,
		ExpectedProfit: s.ExpectedProfit,
	}
}

// VolatilityPayload is the wire form of a volatility signal.
type VolatilityPayload struct {
	AssetID     string  `json:"asset_id"`
	ConditionID string  `json:"condition_id,omitempty"`
	Side        string  `json:"side"`
	Price       float64 `json:"price"`
	Size        float64 `json:"size"`
	Deviation   float64 `json:"deviation"`
}

func volatilityPayload(s domain.VolatilitySignal) VolatilityPayload {
	return VolatilityPayload{
		AssetID:     s.AssetID,
		ConditionID: s.ConditionID,
		Side:        string(s.Side),
		Price:       s.Price,
		Size:        s.Size,
		Deviation:   s.Deviation,
	}
}
