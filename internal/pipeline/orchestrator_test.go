package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysportarb/internal/arbitrage"
	"github.com/alanyoungcy/polysportarb/internal/book"
	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/pipeline"
	"github.com/alanyoungcy/polysportarb/internal/volatility"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticMarkets []domain.BinaryMarket

func (s staticMarkets) Markets() []domain.BinaryMarket { return s }

type recordingExecutor struct {
	mu   sync.Mutex
	arbs []domain.ArbSignal
	vols []domain.VolatilitySignal
	err  error
}

func (e *recordingExecutor) ExecuteArb(_ context.Context, sig domain.ArbSignal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.arbs = append(e.arbs, sig)
	return e.err
}

func (e *recordingExecutor) ExecuteVolatility(_ context.Context, sig domain.VolatilitySignal) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vols = append(e.vols, sig)
	return e.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	arbs []domain.ArbSignal
	vols []domain.VolatilitySignal
}

func (n *recordingNotifier) NotifyArb(_ context.Context, sig domain.ArbSignal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.arbs = append(n.arbs, sig)
}

func (n *recordingNotifier) NotifyVolatility(_ context.Context, sig domain.VolatilitySignal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.vols = append(n.vols, sig)
}

type recordingReporter struct {
	mu    sync.Mutex
	ticks int
	arbs  int
}

func (r *recordingReporter) ReportTick(_ context.Context, _ time.Time, _ int, arbs []domain.ArbSignal, _ []domain.VolatilitySignal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
	r.arbs += len(arbs)
}

var markets = staticMarkets{
	{ConditionID: "c1", YesTokenID: "y1", NoTokenID: "n1", Question: "Q1"},
	{ConditionID: "c2", YesTokenID: "y2", NoTokenID: "n2", Question: "Q2"},
}

func arbParams() arbitrage.Params {
	return arbitrage.Params{MinProfit: 0.005, Size: 5, MakerBidSpread: 0.01}
}

func mergeStrategies(t *testing.T) []arbitrage.Strategy {
	t.Helper()
	s, err := arbitrage.NewDefaultRegistry(arbParams()).Select([]string{"merge"})
	require.NoError(t, err)
	return s
}

func set(store *book.Store, id string, bid, ask float64) {
	store.Update(domain.QuoteUpdate{AssetID: id, Bid: domain.Float(bid), Ask: domain.Float(ask)})
}

func TestOrchestrator_TickExecutesAndNotifies(t *testing.T) {
	store := book.NewStore()
	set(store, "y1", 0.44, 0.46)
	set(store, "n1", 0.48, 0.50)
	set(store, "y2", 0.50, 0.52)
	set(store, "n2", 0.47, 0.49)

	exec := &recordingExecutor{}
	notifier := &recordingNotifier{}
	reporter := &recordingReporter{}
	o := pipeline.NewOrchestrator(markets, store, mergeStrategies(t), nil, exec, pipeline.Config{NotifyDedupTTL: time.Minute}, discardLogger())
	o.SetNotifier(notifier)
	o.SetReporter(reporter)

	res := o.Tick(context.Background())
	o.Wait()

	assert.Equal(t, 2, res.Markets)
	require.Len(t, res.Arbs, 1)
	assert.Equal(t, "c1", res.Arbs[0].Market.ConditionID)
	assert.Len(t, exec.arbs, 1)
	assert.Len(t, notifier.arbs, 1)
	assert.Equal(t, 1, reporter.ticks)

	// The same opportunity on the next tick executes again but is not re-notified.
	o.Tick(context.Background())
	o.Wait()
	assert.Len(t, exec.arbs, 2)
	assert.Len(t, notifier.arbs, 1)

	st := o.Stats()
	assert.Equal(t, int64(2), st.Ticks)
	assert.Equal(t, int64(2), st.Arbs)
	assert.False(t, st.LastTickAt.IsZero())
}

func TestOrchestrator_ExecutorErrorsDoNotStopNotification(t *testing.T) {
	store := book.NewStore()
	set(store, "y1", 0.44, 0.46)
	set(store, "n1", 0.48, 0.50)

	exec := &recordingExecutor{err: errors.New("bus down")}
	notifier := &recordingNotifier{}
	o := pipeline.NewOrchestrator(markets, store, mergeStrategies(t), nil, exec, pipeline.Config{}, discardLogger())
	o.SetNotifier(notifier)

	o.Tick(context.Background())
	o.Wait()
	assert.Len(t, notifier.arbs, 1)
	assert.Equal(t, int64(1), o.Stats().ExecErrors)
}

func TestOrchestrator_Volatility(t *testing.T) {
	store := book.NewStore()
	reg := volatility.NewRegistry(volatility.Params{WindowSize: 5, DeviationPct: 0.05, MaxPosition: 50, Size: 5})
	exec := &recordingExecutor{}
	o := pipeline.NewOrchestrator(markets[:1], store, nil, reg, exec, pipeline.Config{}, discardLogger())

	for i := 0; i < 5; i++ {
		set(store, "y1", 0.49, 0.51)
		assert.Empty(t, o.Tick(context.Background()).Volatility)
	}
	set(store, "y1", 0.39, 0.41)
	res := o.Tick(context.Background())
	require.Len(t, res.Volatility, 1)
	assert.Equal(t, domain.SideBuy, res.Volatility[0].Side)
	assert.Len(t, exec.vols, 1)
}

func TestOrchestrator_NoQuotesNoSignals(t *testing.T) {
	exec := &recordingExecutor{}
	o := pipeline.NewOrchestrator(markets, book.NewStore(), mergeStrategies(t), nil, exec, pipeline.Config{}, discardLogger())
	res := o.Tick(context.Background())
	assert.Empty(t, res.Arbs)
	assert.Empty(t, exec.arbs)
}

func TestOrchestrator_RunTicksUntilCancelled(t *testing.T) {
	store := book.NewStore()
	o := pipeline.NewOrchestrator(markets, store, mergeStrategies(t), nil, &recordingExecutor{},
		pipeline.Config{PollInterval: 5 * time.Millisecond, Warmup: time.Millisecond}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	require.Eventually(t, func() bool { return o.Stats().Ticks >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestOrchestrator_CancelDuringWarmup(t *testing.T) {
	o := pipeline.NewOrchestrator(markets, book.NewStore(), nil, nil, &recordingExecutor{},
		pipeline.Config{Warmup: time.Hour}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, o.Run(ctx), context.Canceled)
	assert.Equal(t, int64(0), o.Stats().Ticks)
}
