package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polysportarb/internal/arbitrage"
	"github.com/alanyoungcy/polysportarb/internal/book"
	"github.com/alanyoungcy/polysportarb/internal/cache/redis"
	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/executor"
	"github.com/alanyoungcy/polysportarb/internal/feed"
	"github.com/alanyoungcy/polysportarb/internal/notify"
	"github.com/alanyoungcy/polysportarb/internal/pipeline"
	"github.com/alanyoungcy/polysportarb/internal/server"
	"github.com/alanyoungcy/polysportarb/internal/server/handler"
	"github.com/alanyoungcy/polysportarb/internal/service"
	"github.com/alanyoungcy/polysportarb/internal/volatility"
)

// signalExecutor is what the orchestrator and the sweeper need from an
// executor.
type signalExecutor interface {
	pipeline.Executor
	executor.Canceller
}

// PaperMode detects and logs signals without placing orders. Maker legs and
// volatility fills are simulated locally.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting paper mode")
	return a.runDetection(ctx, deps, func(orders *executor.RestingOrders, positions executor.PositionBook) signalExecutor {
		return executor.NewPaper(orders, positions, a.logger)
	})
}

// LiveMode publishes every signal to the Redis signal bus for the order
// service and applies the execution events it sends back.
func (a *App) LiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting live mode")
	if deps.SignalBus == nil {
		return fmt.Errorf("app: live mode requires redis")
	}
	return a.runDetection(ctx, deps, func(*executor.RestingOrders, executor.PositionBook) signalExecutor {
		return executor.NewBus(deps.SignalBus, executor.BusChannels{
			Signals: a.cfg.Redis.SignalChannel,
			Stream:  a.cfg.Redis.SignalStream,
			Cancels: a.cfg.Redis.CancelChannel,
		}, a.logger)
	})
}

// runDetection starts the feed, market refresh, orchestrator and their
// supporting loops under one errgroup.
func (a *App) runDetection(
	ctx context.Context,
	deps *Dependencies,
	newExecutor func(*executor.RestingOrders, executor.PositionBook) signalExecutor,
) error {
	cfg := a.cfg
	g, ctx := errgroup.WithContext(ctx)

	// Market discovery. A failed first refresh leaves the list empty; the
	// feed idles until the refresh loop finds markets.
	markets := service.NewMarketService(deps.Gamma, service.MarketConfig{
		TagID:        cfg.Polymarket.TagID,
		Limit:        cfg.Polymarket.EventsLimit,
		Offset:       cfg.Polymarket.EventsOffset,
		MaxMarkets:   cfg.Polymarket.MaxMarketsMonitor,
		ConditionIDs: cfg.Polymarket.MonitorConditionIDs,
	}, a.logger)
	if err := markets.Refresh(ctx); err != nil {
		a.logger.ErrorContext(ctx, "initial market refresh failed", slog.String("error", err.Error()))
	}
	if len(markets.Markets()) == 0 {
		a.logger.WarnContext(ctx, "no binary markets to monitor, detection will idle")
	}

	// Feed.
	store := book.NewStore()
	ingestor := feed.NewIngestor(deps.Feed, markets.AssetIDs, store, cfg.Feed.ReconnectBackoff.Duration, a.logger)
	markets.OnChange(func(ms []domain.BinaryMarket) {
		a.logger.InfoContext(ctx, "monitored markets changed, resubscribing", slog.Int("markets", len(ms)))
		ingestor.Resubscribe()
	})

	// Detectors.
	strategies, err := arbitrage.NewDefaultRegistry(cfg.Arbitrage.Params()).Select(cfg.Arbitrage.Strategies)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	var (
		vol       *volatility.Registry
		positions executor.PositionBook
	)
	if cfg.Volatility.Enabled {
		vol = volatility.NewRegistry(volatility.Params{
			WindowSize:   cfg.Volatility.WindowSize,
			DeviationPct: cfg.Volatility.DeviationPct,
			MaxPosition:  cfg.Volatility.MaxPositionPerMarket,
			Size:         cfg.Arbitrage.DefaultSize,
		})
		positions = vol
	}

	// Execution.
	orders := executor.NewRestingOrders()
	exec := newExecutor(orders, positions)

	orch := pipeline.NewOrchestrator(markets, store, strategies, vol, exec, pipeline.Config{
		PollInterval:   cfg.Orchestrator.PollInterval.Duration,
		Warmup:         cfg.Feed.Warmup.Duration,
		NotifyDedupTTL: cfg.Orchestrator.NotifyDedupTTL.Duration,
	}, a.logger)
	if deps.Notifier.Enabled() {
		orch.SetNotifier(deps.Notifier)
	}
	if cfg.Notify.Console {
		orch.SetReporter(notify.NewConsole(os.Stdout))
	}

	g.Go(func() error { return ingestor.Run(ctx) })
	g.Go(func() error { return markets.RunLoop(ctx, cfg.Polymarket.RefreshInterval.Duration) })
	g.Go(func() error { return orch.Run(ctx) })

	if usesMaker(cfg.Arbitrage.Strategies) && cfg.Arbitrage.MakerOrderTimeout.Duration > 0 {
		sweeper := executor.NewSweeper(orders, exec, cfg.Arbitrage.MakerOrderTimeout.Duration, a.logger)
		g.Go(func() error { return sweeper.RunLoop(ctx, cfg.Orchestrator.SweepInterval.Duration) })
	}

	if cfg.Live() {
		listener := pipeline.NewExecutionListener(deps.SignalBus, cfg.Redis.ExecutionChannel, orders, positions, a.logger)
		g.Go(func() error { return listener.Run(ctx) })
	}

	if deps.QuoteMirror != nil && cfg.Redis.MirrorInterval.Duration > 0 {
		g.Go(func() error {
			return redis.MirrorLoop(ctx, deps.QuoteMirror, store.Snapshot, cfg.Redis.MirrorInterval.Duration, a.logger)
		})
	}

	if cfg.Server.Enabled {
		srv := a.newServer(store, ingestor, markets, orch, orders)
		g.Go(func() error { return srv.Run(ctx) })
	}

	if deps.Notifier.Enabled() {
		deps.Notifier.Startup(ctx, cfg.Mode, len(markets.Markets()))
		g.Go(func() error { return deps.Notifier.RunHeartbeat(ctx, cfg.Notify.HeartbeatInterval.Duration) })
	}

	a.logger.InfoContext(ctx, "detection running",
		slog.Int("markets", len(markets.Markets())),
		slog.Int("assets", len(markets.AssetIDs())),
		slog.Duration("poll_interval", cfg.Orchestrator.PollInterval.Duration),
	)
	return g.Wait()
}

func (a *App) newServer(
	store *book.Store,
	ingestor *feed.Ingestor,
	markets *service.MarketService,
	orch *pipeline.Orchestrator,
	orders *executor.RestingOrders,
) *server.Server {
	cfg := a.cfg
	handlers := server.Handlers{
		Health:  handler.NewHealthHandler(ingestor, store, cfg.Server.StaleAfter.Duration, a.logger),
		Quotes:  handler.NewQuoteHandler(store, a.logger),
		Markets: handler.NewMarketHandler(markets, a.logger),
		Status: handler.NewStatusHandler(handler.StatusInfo{
			Mode:         cfg.Mode,
			Strategies:   cfg.Arbitrage.Strategies,
			Volatility:   cfg.Volatility.Enabled,
			OrderTimeout: cfg.Arbitrage.MakerOrderTimeout.Duration,
		}, orch, orders),
	}
	return server.NewServer(server.Config{
		Addr:        ":" + strconv.Itoa(cfg.Server.Port),
		CORSOrigins: cfg.Server.CORSOrigins,
		APIKey:      cfg.Server.APIKey,
		RatePerSec:  cfg.Server.RatePerSec,
		RateBurst:   cfg.Server.RateBurst,
	}, handlers, a.logger)
}

func usesMaker(strategies []string) bool {
	return slices.Contains(strategies, string(domain.ArbMaker))
}
