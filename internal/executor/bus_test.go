package executor_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/executor"
)

type message struct {
	target  string
	payload []byte
}

type fakeBus struct {
	mu        sync.Mutex
	published []message
	streamed  []message
	streamErr error
}

func (b *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, message{channel, payload})
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (b *fakeBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamErr != nil {
		return b.streamErr
	}
	b.streamed = append(b.streamed, message{stream, payload})
	return nil
}

type decodedEnvelope struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Signal json.RawMessage `json:"signal"`
}

func decode(t *testing.T, raw []byte) decodedEnvelope {
	t.Helper()
	var env decodedEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestBus_ExecuteArb(t *testing.T) {
	fb := &fakeBus{}
	b := executor.NewBus(fb, executor.BusChannels{}, discardLogger())

	sig := domain.ArbSignal{Kind: domain.ArbMerge, Market: market, PriceYes: 0.46, PriceNo: 0.5, Size: 5, NetEdge: 0.04, ExpectedProfit: 0.2}
	require.NoError(t, b.ExecuteArb(context.Background(), sig))

	require.Len(t, fb.published, 1)
	require.Len(t, fb.streamed, 1)
	assert.Equal(t, executor.DefaultSignalChannel, fb.published[0].target)
	assert.Equal(t, executor.DefaultSignalStream, fb.streamed[0].target)
	assert.Equal(t, fb.published[0].payload, fb.streamed[0].payload)

	env := decode(t, fb.published[0].payload)
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "arb.merge", env.Type)

	var payload executor.ArbPayload
	require.NoError(t, json.Unmarshal(env.Signal, &payload))
	assert.Equal(t, "c1", payload.ConditionID)
	assert.Equal(t, "y", payload.YesTokenID)
	assert.InDelta(t, 0.2, payload.ExpectedProfit, 1e-12)
}

func TestBus_ExecuteVolatility(t *testing.T) {
	fb := &fakeBus{}
	b := executor.NewBus(fb, executor.BusChannels{Signals: "sig", Stream: "st"}, discardLogger())

	require.NoError(t, b.ExecuteVolatility(context.Background(), domain.VolatilitySignal{AssetID: "y", Side: domain.SideSell, Price: 0.6, Size: 5}))
	require.Len(t, fb.published, 1)
	assert.Equal(t, "sig", fb.published[0].target)
	assert.Equal(t, "volatility", decode(t, fb.published[0].payload).Type)
}

func TestBus_StreamFailureIsReported(t *testing.T) {
	fb := &fakeBus{streamErr: errors.New("xadd failed")}
	b := executor.NewBus(fb, executor.BusChannels{}, discardLogger())

	err := b.ExecuteArb(context.Background(), domain.ArbSignal{Kind: domain.ArbSplit, Market: market})
	require.Error(t, err)
	assert.Len(t, fb.published, 1, "publish still happens")
}

func TestBus_CancelOrders(t *testing.T) {
	fb := &fakeBus{}
	b := executor.NewBus(fb, executor.BusChannels{}, discardLogger())

	require.NoError(t, b.CancelOrders(context.Background(), nil))
	assert.Empty(t, fb.published)

	require.NoError(t, b.CancelOrders(context.Background(), []string{"o1", "o2"}))
	require.Len(t, fb.published, 1)
	assert.Equal(t, executor.DefaultCancelChannel, fb.published[0].target)

	env := decode(t, fb.published[0].payload)
	assert.Equal(t, "cancel", env.Type)
	var req executor.CancelRequest
	require.NoError(t, json.Unmarshal(env.Signal, &req))
	assert.Equal(t, []string{"o1", "o2"}, req.OrderIDs)
}
