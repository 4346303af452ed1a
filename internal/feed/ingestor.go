// Package feed keeps a market-data subscription alive and forwards every
// top-of-book update into a sink.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// DefaultReconnectBackoff is used when the configured backoff is not positive.
const DefaultReconnectBackoff = 5 * time.Second

// IDSource resolves the instruments to subscribe to. It is called again
// before every connection attempt.
type IDSource func() []string

// StaticIDs returns an IDSource for a fixed list.
func StaticIDs(ids ...string) IDSource {
	return func() []string { return ids }
}

// Source opens a subscribed stream for a set of instrument ids.
type Source interface {
	Connect(ctx context.Context, ids []string) (Stream, error)
}

// Stream yields parsed updates until the connection fails. Next returns an
// error on EOF or transport failure; frames that do not decode yield an
// empty batch.
type Stream interface {
	Next(ctx context.Context) ([]domain.QuoteUpdate, error)
	Close() error
}

// Sink receives every parsed update.
type Sink interface {
	Update(u domain.QuoteUpdate)
}

// Status describes the subscription for health reporting.
type Status struct {
	Connected     bool      `json:"connected"`
	Subscribed    int       `json:"subscribed"`
	Connects      int64     `json:"connects"`
	Failures      int64     `json:"failures"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// Ingestor runs the connect / read / reconnect loop. The backoff is fixed:
// the same delay follows every failure and every disconnect.
type Ingestor struct {
	source  Source
	ids     IDSource
	sink    Sink
	backoff time.Duration
	logger  *slog.Logger

	mu          sync.Mutex
	status      Status
	stream      Stream
	resubscribe bool
}

// NewIngestor creates an ingestor. A nil ids source behaves as an empty list.
func NewIngestor(source Source, ids IDSource, sink Sink, backoff time.Duration, logger *slog.Logger) *Ingestor {
	if backoff <= 0 {
		backoff = DefaultReconnectBackoff
	}
	if ids == nil {
		ids = StaticIDs()
	}
	return &Ingestor{
		source:  source,
		ids:     ids,
		sink:    sink,
		backoff: backoff,
		logger:  logger.With(slog.String("component", "feed_ingestor")),
	}
}

// Run connects, forwards updates and reconnects until ctx is cancelled. It
// never dials with an empty id set and always returns ctx.Err().
func (in *Ingestor) Run(ctx context.Context) error {
	in.logger.InfoContext(ctx, "feed ingestor started", slog.Duration("backoff", in.backoff))
	defer in.logger.Info("feed ingestor stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// A request raised before the ids are resolved is satisfied by them.
		in.takeResubscribe()
		ids := normalizeIDs(in.ids())
		if len(ids) == 0 {
			in.logger.DebugContext(ctx, "no asset ids to subscribe, waiting")
			if !sleep(ctx, in.backoff) {
				return ctx.Err()
			}
			continue
		}

		err := in.runConnection(ctx, ids)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if in.takeResubscribe() {
			in.logger.InfoContext(ctx, "feed resubscribing to refreshed asset ids")
			continue
		}

		in.logger.WarnContext(ctx, "feed disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("backoff", in.backoff),
		)
		if !sleep(ctx, in.backoff) {
			return ctx.Err()
		}
	}
}

func (in *Ingestor) runConnection(ctx context.Context, ids []string) error {
	stream, err := in.source.Connect(ctx, ids)
	if err != nil {
		in.mu.Lock()
		in.status.Failures++
		in.mu.Unlock()
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer stream.Close()

	in.mu.Lock()
	in.stream = stream
	in.status.Connected = true
	in.status.Subscribed = len(ids)
	in.status.Connects++
	if in.resubscribe {
		// The id set changed while dialing.
		_ = stream.Close()
	}
	in.mu.Unlock()

	defer func() {
		in.mu.Lock()
		in.stream = nil
		in.status.Connected = false
		in.mu.Unlock()
	}()

	in.logger.InfoContext(ctx, "feed subscribed", slog.Int("assets", len(ids)))

	for {
		updates, err := stream.Next(ctx)
		if err != nil {
			return fmt.Errorf("feed: read: %w", err)
		}

		in.mu.Lock()
		in.status.LastMessageAt = time.Now()
		in.mu.Unlock()

		for _, u := range updates {
			in.sink.Update(u)
		}
	}
}

// Resubscribe drops the current connection so the next attempt picks up
// the latest ids without waiting for the backoff. A call made while a
// connection is being dialed closes that connection as soon as it is up.
func (in *Ingestor) Resubscribe() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.resubscribe = true
	if in.stream != nil {
		_ = in.stream.Close()
	}
}

func (in *Ingestor) takeResubscribe() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	r := in.resubscribe
	in.resubscribe = false
	return r
}

// Status returns a copy of the current subscription status.
func (in *Ingestor) Status() Status {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.status
}

// normalizeIDs drops blanks and duplicates, keeping first-seen order.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
