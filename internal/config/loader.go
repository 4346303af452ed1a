package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultPath is read when neither -config nor CONFIG_PATH names a file.
const DefaultPath = "config/config.toml"

// Load merges the TOML file at path over the built-in defaults and applies
// POLYARB_* environment overrides. A missing file is not an error; the
// defaults and environment are used as-is. An empty path falls back to
// CONFIG_PATH and then DefaultPath. The returned Config has NOT been
// validated.
func Load(path string) (*Config, error) {
	// Load .env first so CONFIG_PATH may come from it.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Defaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYARB_* environment variables and
// overwrites the corresponding fields when a variable is set. The unprefixed
// TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID and PAPER_TRADING names are honoured
// for existing deployments; the prefixed names win when both are set.
func applyEnvOverrides(cfg *Config) {
	// ── Legacy names ──
	setStr(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TELEGRAM_CHAT_ID")
	if v := os.Getenv("PAPER_TRADING"); v != "" {
		if paper, err := strconv.ParseBool(v); err == nil {
			cfg.Mode = ModePaper
			if !paper {
				cfg.Mode = ModeLive
			}
		}
	}

	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYARB_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsURL, "POLYARB_POLYMARKET_WS_URL")
	setIntPtr(&cfg.Polymarket.TagID, "POLYARB_POLYMARKET_TAG_ID")
	setInt(&cfg.Polymarket.EventsLimit, "POLYARB_POLYMARKET_EVENTS_LIMIT")
	setInt(&cfg.Polymarket.EventsOffset, "POLYARB_POLYMARKET_EVENTS_OFFSET")
	setInt(&cfg.Polymarket.MaxMarketsMonitor, "POLYARB_POLYMARKET_MAX_MARKETS_MONITOR")
	setStringSlice(&cfg.Polymarket.MonitorConditionIDs, "POLYARB_POLYMARKET_MONITOR_CONDITION_IDS")
	setDuration(&cfg.Polymarket.RefreshInterval, "POLYARB_POLYMARKET_REFRESH_INTERVAL")

	// ── Feed ──
	setDuration(&cfg.Feed.ReconnectBackoff, "POLYARB_FEED_RECONNECT_BACKOFF")
	setDuration(&cfg.Feed.Warmup, "POLYARB_FEED_WARMUP")

	// ── Arbitrage ──
	setStringSlice(&cfg.Arbitrage.Strategies, "POLYARB_ARBITRAGE_STRATEGIES")
	setFloat64(&cfg.Arbitrage.MinProfit, "POLYARB_ARBITRAGE_MIN_PROFIT")
	setFloat64(&cfg.Arbitrage.FeeBps, "POLYARB_ARBITRAGE_FEE_BPS")
	setFloat64(&cfg.Arbitrage.DefaultSize, "POLYARB_ARBITRAGE_DEFAULT_SIZE")
	setFloat64(&cfg.Arbitrage.MakerBidSpread, "POLYARB_ARBITRAGE_MAKER_BID_SPREAD")
	setDuration(&cfg.Arbitrage.MakerOrderTimeout, "POLYARB_ARBITRAGE_MAKER_ORDER_TIMEOUT")

	// ── Volatility ──
	setBool(&cfg.Volatility.Enabled, "POLYARB_VOLATILITY_ENABLED")
	setInt(&cfg.Volatility.WindowSize, "POLYARB_VOLATILITY_WINDOW_SIZE")
	setFloat64(&cfg.Volatility.DeviationPct, "POLYARB_VOLATILITY_DEVIATION_PCT")
	setFloat64(&cfg.Volatility.MaxPositionPerMarket, "POLYARB_VOLATILITY_MAX_POSITION_PER_MARKET")

	// ── Orchestrator ──
	setDuration(&cfg.Orchestrator.PollInterval, "POLYARB_ORCHESTRATOR_POLL_INTERVAL")
	setDuration(&cfg.Orchestrator.NotifyDedupTTL, "POLYARB_ORCHESTRATOR_NOTIFY_DEDUP_TTL")
	setDuration(&cfg.Orchestrator.SweepInterval, "POLYARB_ORCHESTRATOR_SWEEP_INTERVAL")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYARB_REDIS_ENABLED")
	setStr(&cfg.Redis.URL, "POLYARB_REDIS_URL")
	setStr(&cfg.Redis.Addr, "POLYARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYARB_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.SignalChannel, "POLYARB_REDIS_SIGNAL_CHANNEL")
	setStr(&cfg.Redis.SignalStream, "POLYARB_REDIS_SIGNAL_STREAM")
	setStr(&cfg.Redis.CancelChannel, "POLYARB_REDIS_CANCEL_CHANNEL")
	setStr(&cfg.Redis.ExecutionChannel, "POLYARB_REDIS_EXECUTION_CHANNEL")
	setDuration(&cfg.Redis.MirrorInterval, "POLYARB_REDIS_MIRROR_INTERVAL")
	setDuration(&cfg.Redis.QuoteTTL, "POLYARB_REDIS_QUOTE_TTL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "POLYARB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "POLYARB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "POLYARB_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "POLYARB_SERVER_API_KEY")
	setFloat64(&cfg.Server.RatePerSec, "POLYARB_SERVER_RATE_PER_SEC")
	setInt(&cfg.Server.RateBurst, "POLYARB_SERVER_RATE_BURST")
	setDuration(&cfg.Server.StaleAfter, "POLYARB_SERVER_STALE_AFTER")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYARB_NOTIFY_EVENTS")
	setInt(&cfg.Notify.RatePerMinute, "POLYARB_NOTIFY_RATE_PER_MINUTE")
	setInt(&cfg.Notify.RateBurst, "POLYARB_NOTIFY_RATE_BURST")
	setDuration(&cfg.Notify.HeartbeatInterval, "POLYARB_NOTIFY_HEARTBEAT_INTERVAL")
	setBool(&cfg.Notify.Console, "POLYARB_NOTIFY_CONSOLE")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYARB_MODE")
	setStr(&cfg.LogLevel, "POLYARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and parses.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setIntPtr(dst **int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = &n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
