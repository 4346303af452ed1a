package domain

import "context"

// SignalBus provides pub/sub and durable streams.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
}

// QuoteMirror copies quote snapshots to an external cache for diagnostics.
type QuoteMirror interface {
	Mirror(ctx context.Context, quotes []Quote) error
}
