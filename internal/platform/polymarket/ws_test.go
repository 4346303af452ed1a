package polymarket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/platform/polymarket"
)

// marketServer accepts one subscription and replies with frames, then
// closes the connection.
func marketServer(t *testing.T, frames []string, subs chan<- polymarket.MarketSubscription) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub polymarket.MarketSubscription
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subs <- sub

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestMarketFeed_StreamsUpdates(t *testing.T) {
	subs := make(chan polymarket.MarketSubscription, 1)
	srv := marketServer(t, []string{
		`[{"asset_id":"y","best_bid":"0.40","best_ask":"0.42"}]`,
		`not json`,
		`{"asset_id":"n","ask":0.57}`,
	}, subs)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := polymarket.NewMarketFeed(wsURL(srv)).Connect(ctx, []string{"y", "n"})
	require.NoError(t, err)
	defer stream.Close()

	select {
	case sub := <-subs:
		assert.Equal(t, []string{"y", "n"}, sub.AssetIDs)
		assert.Equal(t, "MARKET", sub.Type)
	case <-ctx.Done():
		t.Fatal("no subscription received")
	}

	updates, err := stream.Next(ctx)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "y", updates[0].AssetID)

	updates, err = stream.Next(ctx)
	require.NoError(t, err, "unparseable frames are dropped")
	assert.Empty(t, updates)

	updates, err = stream.Next(ctx)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "n", updates[0].AssetID)

	_, err = stream.Next(ctx)
	require.ErrorIs(t, err, domain.ErrWSDisconnect)
}

func TestMarketFeed_ConnectRequiresIDs(t *testing.T) {
	_, err := polymarket.NewMarketFeed("ws://127.0.0.1:1").Connect(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrNoAssets)
}

func TestMarketFeed_DialError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := polymarket.NewMarketFeed(wsURL(srv)).Connect(context.Background(), []string{"y"})
	require.Error(t, err)
}

func TestMarketFeed_CancelClosesStream(t *testing.T) {
	subs := make(chan polymarket.MarketSubscription, 1)
	release := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var sub polymarket.MarketSubscription
		_ = conn.ReadJSON(&sub)
		subs <- sub
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := polymarket.NewMarketFeed(wsURL(srv)).Connect(ctx, []string{"y"})
	require.NoError(t, err)
	<-subs

	errs := make(chan error, 1)
	go func() {
		_, err := stream.Next(ctx)
		errs <- err
	}()

	cancel()
	select {
	case err := <-errs:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("read not interrupted by cancellation")
	}
	assert.NoError(t, stream.Close())
}
