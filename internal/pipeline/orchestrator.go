// Package pipeline drives detection: on every poll it evaluates the
// configured arbitrage strategies and the volatility detector over the
// monitored markets and hands each signal to execution and notification.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/arbitrage"
	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/executor"
	"github.com/alanyoungcy/polysportarb/internal/volatility"
)

// DefaultPollInterval is used when the configured interval is not positive.
const DefaultPollInterval = 2 * time.Second

// MarketSource returns the markets currently monitored.
type MarketSource interface {
	Markets() []domain.BinaryMarket
}

// Executor acts on signals.
type Executor interface {
	ExecuteArb(ctx context.Context, sig domain.ArbSignal) error
	ExecuteVolatility(ctx context.Context, sig domain.VolatilitySignal) error
}

// Notifier alerts on signals. Implementations handle their own failures.
type Notifier interface {
	NotifyArb(ctx context.Context, sig domain.ArbSignal)
	NotifyVolatility(ctx context.Context, sig domain.VolatilitySignal)
}

// Reporter receives the outcome of every tick.
type Reporter interface {
	ReportTick(ctx context.Context, at time.Time, markets int, arbs []domain.ArbSignal, vols []domain.VolatilitySignal)
}

// Config tunes the orchestrator loop.
type Config struct {
	PollInterval   time.Duration
	Warmup         time.Duration
	NotifyDedupTTL time.Duration
}

// Result is what one tick found.
type Result struct {
	At         time.Time
	Markets    int
	Arbs       []domain.ArbSignal
	Volatility []domain.VolatilitySignal
}

// Stats are cumulative counters since start.
type Stats struct {
	Ticks      int64     `json:"ticks"`
	Arbs       int64     `json:"arbs"`
	Volatility int64     `json:"volatility"`
	ExecErrors int64     `json:"exec_errors"`
	LastTickAt time.Time `json:"last_tick_at"`
}

// Orchestrator runs detection on a fixed poll interval. Volatility and the
// notifier and reporter are optional.
type Orchestrator struct {
	markets    MarketSource
	quotes     arbitrage.Quotes
	strategies []arbitrage.Strategy
	vol        *volatility.Registry
	exec       Executor
	notifier   Notifier
	reporter   Reporter
	dedup      *executor.Dedup
	cfg        Config
	logger     *slog.Logger

	ticks      atomic.Int64
	arbs       atomic.Int64
	vols       atomic.Int64
	execErrors atomic.Int64
	lastTick   atomic.Int64

	// notifications in flight
	wg sync.WaitGroup
}

// NewOrchestrator wires the detection loop.
func NewOrchestrator(
	markets MarketSource,
	quotes arbitrage.Quotes,
	strategies []arbitrage.Strategy,
	vol *volatility.Registry,
	exec Executor,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Orchestrator{
		markets:    markets,
		quotes:     quotes,
		strategies: strategies,
		vol:        vol,
		exec:       exec,
		dedup:      executor.NewDedup(cfg.NotifyDedupTTL),
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "orchestrator")),
	}
}

// SetNotifier sets the notifier. Must be called before Run.
func (o *Orchestrator) SetNotifier(n Notifier) {
	o.notifier = n
}

// SetReporter sets the per-tick reporter. Must be called before Run.
func (o *Orchestrator) SetReporter(r Reporter) {
	o.reporter = r
}

// Run waits for the warmup, then ticks on the poll interval until ctx is
// cancelled. In-flight notifications are awaited before returning.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.wg.Wait()

	names := make([]string, 0, len(o.strategies))
	for _, s := range o.strategies {
		names = append(names, s.Name())
	}
	o.logger.InfoContext(ctx, "orchestrator starting",
		slog.Any("strategies", names),
		slog.Bool("volatility", o.vol != nil),
		slog.Duration("poll_interval", o.cfg.PollInterval),
		slog.Duration("warmup", o.cfg.Warmup),
	)

	if o.cfg.Warmup > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.cfg.Warmup):
		}
	}

	o.Tick(ctx)

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator stopped", slog.Int64("ticks", o.ticks.Load()))
			return ctx.Err()
		case <-ticker.C:
			o.Tick(ctx)
			o.dedup.Cleanup()
		}
	}
}

// Tick runs one evaluation over the current markets. Signals are executed
// synchronously; notifications are dispatched in the background.
func (o *Orchestrator) Tick(ctx context.Context) Result {
	markets := o.markets.Markets()
	res := Result{At: time.Now(), Markets: len(markets)}

	for _, s := range o.strategies {
		res.Arbs = append(res.Arbs, arbitrage.ScanStrategy(s, markets, o.quotes)...)
	}
	if o.vol != nil {
		res.Volatility = o.vol.Scan(markets, o.quotes.BestBid, o.quotes.BestAsk)
	}

	for _, sig := range res.Arbs {
		o.handleArb(ctx, sig)
	}
	for _, sig := range res.Volatility {
		o.handleVolatility(ctx, sig)
	}

	o.ticks.Add(1)
	o.arbs.Add(int64(len(res.Arbs)))
	o.vols.Add(int64(len(res.Volatility)))
	o.lastTick.Store(res.At.UnixNano())

	if len(res.Arbs) > 0 || len(res.Volatility) > 0 {
		o.logger.InfoContext(ctx, "signals detected",
			slog.Int("markets", res.Markets),
			slog.Int("arbs", len(res.Arbs)),
			slog.Int("volatility", len(res.Volatility)),
		)
	}
	if o.reporter != nil {
		o.reporter.ReportTick(ctx, res.At, res.Markets, res.Arbs, res.Volatility)
	}
	return res
}

func (o *Orchestrator) handleArb(ctx context.Context, sig domain.ArbSignal) {
	if err := o.exec.ExecuteArb(ctx, sig); err != nil {
		o.execErrors.Add(1)
		o.logger.ErrorContext(ctx, "execute arbitrage failed",
			slog.String("kind", string(sig.Kind)),
			slog.String("condition_id", sig.Market.ConditionID),
			slog.String("error", err.Error()),
		)
	}
	if o.notifier == nil || o.dedup.IsDuplicate(executor.ArbKey(sig)) {
		return
	}
	nctx := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.notifier.NotifyArb(nctx, sig)
	}()
}

func (o *Orchestrator) handleVolatility(ctx context.Context, sig domain.VolatilitySignal) {
	if err := o.exec.ExecuteVolatility(ctx, sig); err != nil {
		o.execErrors.Add(1)
		o.logger.ErrorContext(ctx, "execute volatility failed",
			slog.String("asset_id", sig.AssetID),
			slog.String("side", string(sig.Side)),
			slog.String("error", err.Error()),
		)
	}
	if o.notifier == nil || o.dedup.IsDuplicate(executor.VolatilityKey(sig)) {
		return
	}
	nctx := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.notifier.NotifyVolatility(nctx, sig)
	}()
}

// Wait blocks until background notifications finish.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Stats returns cumulative counters.
func (o *Orchestrator) Stats() Stats {
	st := Stats{
		Ticks:      o.ticks.Load(),
		Arbs:       o.arbs.Load(),
		Volatility: o.vols.Load(),
		ExecErrors: o.execErrors.Load(),
	}
	if ns := o.lastTick.Load(); ns > 0 {
		st.LastTickAt = time.Unix(0, ns)
	}
	return st
}
