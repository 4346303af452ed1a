// Package config defines the top-level configuration for the sports
// arbitrage monitor and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/arbitrage"
)

// Modes.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by POLYARB_* environment variables.
type Config struct {
	Polymarket   PolymarketConfig   `toml:"polymarket"`
	Feed         FeedConfig         `toml:"feed"`
	Arbitrage    ArbitrageConfig    `toml:"arbitrage"`
	Volatility   VolatilityConfig   `toml:"volatility"`
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
	Redis        RedisConfig        `toml:"redis"`
	Server       ServerConfig       `toml:"server"`
	Notify       NotifyConfig       `toml:"notify"`
	Mode         string             `toml:"mode"`
	LogLevel     string             `toml:"log_level"`
}

// PolymarketConfig holds the discovery and market-data endpoints and the
// market selection.
type PolymarketConfig struct {
	GammaHost           string   `toml:"gamma_host"`
	WsURL               string   `toml:"ws_url"`
	TagID               *int     `toml:"tag_id"`
	EventsLimit         int      `toml:"events_limit"`
	EventsOffset        int      `toml:"events_offset"`
	MaxMarketsMonitor   int      `toml:"max_markets_monitor"`
	MonitorConditionIDs []string `toml:"monitor_condition_ids"`
	RefreshInterval     duration `toml:"refresh_interval"`
}

// FeedConfig tunes the WebSocket subscription.
type FeedConfig struct {
	ReconnectBackoff duration `toml:"reconnect_backoff"`
	Warmup           duration `toml:"warmup"`
}

// ArbitrageConfig holds the YES/NO detector thresholds.
type ArbitrageConfig struct {
	Strategies        []string `toml:"strategies"`
	MinProfit         float64  `toml:"min_profit"`
	FeeBps            float64  `toml:"fee_bps"`
	DefaultSize       float64  `toml:"default_size"`
	MakerBidSpread    float64  `toml:"maker_bid_spread"`
	MakerOrderTimeout duration `toml:"maker_order_timeout"`
}

// Params converts the section into detector parameters.
func (a ArbitrageConfig) Params() arbitrage.Params {
	return arbitrage.Params{
		MinProfit:      a.MinProfit,
		FeeBps:         a.FeeBps,
		Size:           a.DefaultSize,
		MakerBidSpread: a.MakerBidSpread,
	}
}

// VolatilityConfig holds the mean-reversion detector settings.
type VolatilityConfig struct {
	Enabled              bool    `toml:"enabled"`
	WindowSize           int     `toml:"window_size"`
	DeviationPct         float64 `toml:"deviation_pct"`
	MaxPositionPerMarket float64 `toml:"max_position_per_market"`
}

// OrchestratorConfig tunes the detection loop.
type OrchestratorConfig struct {
	PollInterval   duration `toml:"poll_interval"`
	NotifyDedupTTL duration `toml:"notify_dedup_ttl"`
	SweepInterval  duration `toml:"sweep_interval"`
}

// RedisConfig holds Redis connection parameters and bus names. Redis is
// required in live mode and optional in paper mode, where it only mirrors
// quotes.
type RedisConfig struct {
	Enabled          bool     `toml:"enabled"`
	URL              string   `toml:"url"`
	Addr             string   `toml:"addr"`
	Password         string   `toml:"password"`
	DB               int      `toml:"db"`
	PoolSize         int      `toml:"pool_size"`
	MaxRetries       int      `toml:"max_retries"`
	TLSEnabled       bool     `toml:"tls_enabled"`
	SignalChannel    string   `toml:"signal_channel"`
	SignalStream     string   `toml:"signal_stream"`
	CancelChannel    string   `toml:"cancel_channel"`
	ExecutionChannel string   `toml:"execution_channel"`
	MirrorInterval   duration `toml:"mirror_interval"`
	QuoteTTL         duration `toml:"quote_ttl"`
}

// ServerConfig holds HTTP status API parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RatePerSec  float64  `toml:"rate_per_sec"`
	RateBurst   int      `toml:"rate_burst"`
	StaleAfter  duration `toml:"stale_after"`
}

// NotifyConfig holds notification channel credentials and limits.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	RatePerMinute     int      `toml:"rate_per_minute"`
	RateBurst         int      `toml:"rate_burst"`
	HeartbeatInterval duration `toml:"heartbeat_interval"`
	Console           bool     `toml:"console"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:         "https://gamma-api.polymarket.com",
			WsURL:             "wss://ws-subscriptions-clob.polymarket.com/ws/market",
			EventsLimit:       50,
			MaxMarketsMonitor: 10,
			RefreshInterval:   duration{10 * time.Minute},
		},
		Feed: FeedConfig{
			ReconnectBackoff: duration{5 * time.Second},
			Warmup:           duration{3 * time.Second},
		},
		Arbitrage: ArbitrageConfig{
			Strategies:        []string{"merge"},
			MinProfit:         0.005,
			FeeBps:            0,
			DefaultSize:       5,
			MakerBidSpread:    0.01,
			MakerOrderTimeout: duration{300 * time.Second},
		},
		Volatility: VolatilityConfig{
			Enabled:              false,
			WindowSize:           20,
			DeviationPct:         0.05,
			MaxPositionPerMarket: 50,
		},
		Orchestrator: OrchestratorConfig{
			PollInterval:   duration{2 * time.Second},
			NotifyDedupTTL: duration{5 * time.Minute},
			SweepInterval:  duration{30 * time.Second},
		},
		Redis: RedisConfig{
			Addr:             "localhost:6379",
			PoolSize:         10,
			MaxRetries:       3,
			SignalChannel:    "polysportarb:signals",
			SignalStream:     "polysportarb:signals:stream",
			CancelChannel:    "polysportarb:cancels",
			ExecutionChannel: "polysportarb:executions",
			MirrorInterval:   duration{5 * time.Second},
			QuoteTTL:         duration{5 * time.Minute},
		},
		Server: ServerConfig{
			Enabled:    true,
			Port:       8080,
			RatePerSec: 20,
			RateBurst:  40,
			StaleAfter: duration{60 * time.Second},
		},
		Notify: NotifyConfig{
			RatePerMinute:     20,
			RateBurst:         5,
			HeartbeatInterval: duration{time.Hour},
			Console:           true,
		},
		Mode:     ModePaper,
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	ModePaper: true,
	ModeLive:  true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Live reports whether signals go to the order service.
func (c *Config) Live() bool {
	return strings.EqualFold(c.Mode, ModeLive)
}

// RedisRequired reports whether a Redis connection must be opened.
func (c *Config) RedisRequired() bool {
	return c.Live() || c.Redis.Enabled
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: paper, live)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.WsURL == "" {
		errs = append(errs, "polymarket: ws_url must not be empty")
	}
	if c.Polymarket.EventsLimit < 1 {
		errs = append(errs, "polymarket: events_limit must be >= 1")
	}
	if c.Polymarket.EventsOffset < 0 {
		errs = append(errs, "polymarket: events_offset must be >= 0")
	}
	if c.Polymarket.MaxMarketsMonitor < 1 {
		errs = append(errs, "polymarket: max_markets_monitor must be >= 1")
	}
	if c.Polymarket.RefreshInterval.Duration < 0 {
		errs = append(errs, "polymarket: refresh_interval must be >= 0")
	}

	// Feed
	if c.Feed.ReconnectBackoff.Duration <= 0 {
		errs = append(errs, "feed: reconnect_backoff must be > 0")
	}
	if c.Feed.Warmup.Duration < 0 {
		errs = append(errs, "feed: warmup must be >= 0")
	}

	// Arbitrage
	if len(c.Arbitrage.Strategies) == 0 && !c.Volatility.Enabled {
		errs = append(errs, "arbitrage: strategies must not be empty unless volatility is enabled")
	}
	known := arbitrage.NewDefaultRegistry(c.Arbitrage.Params())
	if _, err := known.Select(c.Arbitrage.Strategies); err != nil {
		errs = append(errs, fmt.Sprintf("%v (valid: %s)", err, strings.Join(known.List(), ", ")))
	}
	if c.Arbitrage.MinProfit < 0 {
		errs = append(errs, "arbitrage: min_profit must be >= 0")
	}
	if c.Arbitrage.FeeBps < 0 || c.Arbitrage.FeeBps >= 10000 {
		errs = append(errs, fmt.Sprintf("arbitrage: fee_bps must be in [0, 10000), got %g", c.Arbitrage.FeeBps))
	}
	if c.Arbitrage.DefaultSize <= 0 {
		errs = append(errs, "arbitrage: default_size must be > 0")
	}
	if c.Arbitrage.MakerBidSpread < 0 || c.Arbitrage.MakerBidSpread >= 1 {
		errs = append(errs, "arbitrage: maker_bid_spread must be in [0, 1)")
	}
	if c.Arbitrage.MakerOrderTimeout.Duration < 0 {
		errs = append(errs, "arbitrage: maker_order_timeout must be >= 0")
	}

	// Volatility
	if c.Volatility.Enabled {
		if c.Volatility.WindowSize < 2 {
			errs = append(errs, "volatility: window_size must be >= 2")
		}
		if c.Volatility.DeviationPct <= 0 {
			errs = append(errs, "volatility: deviation_pct must be > 0")
		}
		if c.Volatility.MaxPositionPerMarket < c.Arbitrage.DefaultSize {
			errs = append(errs, "volatility: max_position_per_market must be >= arbitrage.default_size")
		}
	}

	// Orchestrator
	if c.Orchestrator.PollInterval.Duration <= 0 {
		errs = append(errs, "orchestrator: poll_interval must be > 0")
	}
	if c.Orchestrator.NotifyDedupTTL.Duration < 0 {
		errs = append(errs, "orchestrator: notify_dedup_ttl must be >= 0")
	}

	// Redis
	if c.RedisRequired() {
		if c.Redis.URL == "" && c.Redis.Addr == "" {
			errs = append(errs, "redis: url or addr must be set")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}
	if c.Live() {
		if c.Redis.SignalChannel == "" || c.Redis.ExecutionChannel == "" || c.Redis.CancelChannel == "" {
			errs = append(errs, "redis: signal_channel, cancel_channel and execution_channel are required in live mode")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	if c.Notify.RatePerMinute < 0 {
		errs = append(errs, "notify: rate_per_minute must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
