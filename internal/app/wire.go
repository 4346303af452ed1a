package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polysportarb/internal/cache/redis"
	"github.com/alanyoungcy/polysportarb/internal/config"
	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/feed"
	"github.com/alanyoungcy/polysportarb/internal/notify"
	"github.com/alanyoungcy/polysportarb/internal/platform/polymarket"
)

// Dependencies bundles the external clients the modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Polymarket
	Gamma *polymarket.GammaClient
	Feed  feed.Source

	// Redis, nil unless live mode or redis.enabled
	SignalBus   domain.SignalBus
	QuoteMirror domain.QuoteMirror

	Notifier *notify.Notifier
}

// Wire constructs the concrete clients from cfg and returns them together
// with a cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Gamma: polymarket.NewGammaClient(cfg.Polymarket.GammaHost),
		Feed:  feed.NewPolymarketSource(cfg.Polymarket.WsURL),
	}

	// --- Redis ---
	if cfg.RedisRequired() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			URL:        cfg.Redis.URL,
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.QuoteMirror = redis.NewQuoteMirror(redisClient, cfg.Redis.QuoteTTL.Duration)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		tg, err := notify.NewTelegramSender(notify.TelegramConfig{
			Token:  cfg.Notify.TelegramToken,
			ChatID: cfg.Notify.TelegramChatID,
		})
		if err != nil {
			logger.WarnContext(ctx, "telegram disabled", slog.String("error", err.Error()))
		} else {
			senders = append(senders, tg)
		}
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	deps.Notifier.SetRateLimit(cfg.Notify.RatePerMinute, cfg.Notify.RateBurst)

	return deps, cleanup, nil
}
