package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

func TestHasPattern(t *testing.T) {
	assert.False(t, hasPattern("polysportarb:signals"))
	assert.True(t, hasPattern("polysportarb:*"))
	assert.True(t, hasPattern("exec?"))
	assert.True(t, hasPattern("exec[12]"))
}

func TestQuoteFields(t *testing.T) {
	at := time.Unix(1700000000, 5)
	f := quoteFields(domain.Quote{AssetID: "y", Bid: domain.Float(0.45), UpdatedAt: at})
	assert.Equal(t, map[string]interface{}{
		"bid": "0.45",
		"ask": "",
		"ts":  "1700000000000000005",
	}, f)
	assert.Equal(t, "quote:y", quoteKey("y"))
}

func TestOptions(t *testing.T) {
	opts, err := options(ClientConfig{URL: "redis://:secret@cache:6380/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Nil(t, opts.TLSConfig)

	opts, err = options(ClientConfig{Addr: "localhost:6379", TLSEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.NotNil(t, opts.TLSConfig)

	_, err = options(ClientConfig{URL: "http://nope"})
	require.Error(t, err)
}

type countingMirror struct {
	calls atomic.Int64
}

func (m *countingMirror) Mirror(context.Context, []domain.Quote) error {
	m.calls.Add(1)
	return errors.New("unavailable")
}

func TestMirrorLoop(t *testing.T) {
	m := &countingMirror{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- MirrorLoop(ctx, m, func() []domain.Quote { return nil }, 5*time.Millisecond, logger)
	}()

	require.Eventually(t, func() bool { return m.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
