package config

import "net/url"

// RedactedConfig returns a copy of cfg with credentials replaced by "***", for
// logging the active configuration.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Redis.Password)
	redactURLPassword(&out.Redis.URL)
	redact(&out.Server.APIKey)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Slices are copied; the result shares no memory with cfg.
	out.Polymarket.MonitorConditionIDs = cloneStrings(cfg.Polymarket.MonitorConditionIDs)
	out.Arbitrage.Strategies = cloneStrings(cfg.Arbitrage.Strategies)
	out.Server.CORSOrigins = cloneStrings(cfg.Server.CORSOrigins)
	out.Notify.Events = cloneStrings(cfg.Notify.Events)
	if cfg.Polymarket.TagID != nil {
		tag := *cfg.Polymarket.TagID
		out.Polymarket.TagID = &tag
	}
	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

// redactURLPassword masks the userinfo password of a connection URL.
func redactURLPassword(s *string) {
	u, err := url.Parse(*s)
	if err != nil || u.User == nil {
		return
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redacted)
		*s = u.String()
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
