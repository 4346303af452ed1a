package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// DefaultQuoteTTL expires mirrored quotes that stop being refreshed.
const DefaultQuoteTTL = 5 * time.Minute

// QuoteMirror copies the in-memory quote cache into Redis hashes at
// "quote:{assetID}" with fields bid, ask and ts (unix nanoseconds). Absent
// sides are written as empty strings.
type QuoteMirror struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteMirror creates a QuoteMirror. A non-positive ttl uses DefaultQuoteTTL.
func NewQuoteMirror(c *Client, ttl time.Duration) *QuoteMirror {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	return &QuoteMirror{rdb: c.Underlying(), ttl: ttl}
}

func quoteKey(assetID string) string {
	return "quote:" + assetID
}

func quoteFields(q domain.Quote) map[string]interface{} {
	return map[string]interface{}{
		"bid": formatSide(q.Bid),
		"ask": formatSide(q.Ask),
		"ts":  strconv.FormatInt(q.UpdatedAt.UnixNano(), 10),
	}
}

func formatSide(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Mirror writes every quote in a single pipeline.
func (m *QuoteMirror) Mirror(ctx context.Context, quotes []domain.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	pipe := m.rdb.Pipeline()
	for _, q := range quotes {
		key := quoteKey(q.AssetID)
		pipe.HSet(ctx, key, quoteFields(q))
		pipe.Expire(ctx, key, m.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: mirror %d quotes: %w", len(quotes), err)
	}
	return nil
}

// MirrorLoop mirrors snapshot() on every tick until ctx is cancelled. Errors
// are logged and the loop continues.
func MirrorLoop(
	ctx context.Context,
	mirror domain.QuoteMirror,
	snapshot func() []domain.Quote,
	interval time.Duration,
	logger *slog.Logger,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			quotes := snapshot()
			if err := mirror.Mirror(ctx, quotes); err != nil && ctx.Err() == nil {
				logger.WarnContext(ctx, "quote mirror failed",
					slog.Int("quotes", len(quotes)),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

var _ domain.QuoteMirror = (*QuoteMirror)(nil)
