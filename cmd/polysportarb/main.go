// Command polysportarb monitors Polymarket sports markets for YES/NO
// arbitrage and volatility signals. It loads configuration, validates it,
// sets up signal handling and runs the detection loop in the configured mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/app"
	"github.com/alanyoungcy/polysportarb/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default $CONFIG_PATH or "+config.DefaultPath+")")
	paper := flag.Bool("paper", false, "force paper mode")
	live := flag.Bool("live", false, "force live mode")
	poll := flag.Float64("poll", 0, "poll interval in seconds, overrides the config")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *paper && *live {
		logger.Error("-paper and -live are mutually exclusive")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	switch {
	case *paper:
		cfg.Mode = config.ModePaper
	case *live:
		cfg.Mode = config.ModeLive
	}
	if *poll > 0 {
		cfg.Orchestrator.PollInterval.Duration = time.Duration(*poll * float64(time.Second))
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redacted := config.RedactedConfig(cfg)
	logger.Info("polysportarb starting",
		slog.String("mode", cfg.Mode),
		slog.Any("config", redacted),
	)

	application := app.New(cfg, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error", slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			application.Close()
			os.Exit(1)
		}
	}

	logger.Info("polysportarb stopped")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
