package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 15 * time.Second
)

// DefaultMarketWSURL is the public CLOB market channel.
const DefaultMarketWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

// MarketFeed dials the Polymarket CLOB market channel. Each Connect returns a
// fresh MarketStream; reconnection policy belongs to the caller.
type MarketFeed struct {
	wsURL  string
	dialer websocket.Dialer
}

// NewMarketFeed creates a feed for the given WebSocket URL.
//
// wsURL is the CLOB WebSocket endpoint, e.g. "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewMarketFeed(wsURL string) *MarketFeed {
	if wsURL == "" {
		wsURL = DefaultMarketWSURL
	}
	return &MarketFeed{
		wsURL: wsURL,
		dialer: websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// URL returns the endpoint this feed dials.
func (f *MarketFeed) URL() string {
	return f.wsURL
}

// Connect dials the market channel and sends one subscription frame for ids.
// The connection is closed when ctx is cancelled.
func (f *MarketFeed) Connect(ctx context.Context, ids []string) (*MarketStream, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("polymarket/ws: %w", domain.ErrNoAssets)
	}

	conn, _, err := f.dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/ws: connect: %w", err)
	}

	s := &MarketStream{
		conn: conn,
		done: make(chan struct{}),
	}

	// Set up pong handler for keep-alive.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	if err := s.writeJSON(NewMarketSubscription(ids)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("polymarket/ws: subscribe: %w", err)
	}

	s.stop = context.AfterFunc(ctx, func() { s.closeOnce.Do(s.shutdown) })
	go s.pingLoop()

	return s, nil
}

// MarketStream is one live market-channel connection.
type MarketStream struct {
	conn *websocket.Conn

	// writeMu serialises writes; gorilla allows one concurrent writer.
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
	stop      func() bool
}

// Next blocks for the next frame and returns the updates it carries. A
// frame that does not decode yields no updates and no error; read failures
// and closed connections are returned as errors.
func (s *MarketStream) Next(ctx context.Context) ([]domain.QuoteUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, message, err := s.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("polymarket/ws: read: %w: %w", domain.ErrWSDisconnect, err)
	}
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

	updates, err := ParseQuoteUpdates(message)
	if err != nil {
		// Silently drop unparseable messages.
		return nil, nil
	}
	return updates, nil
}

// Close sends a close frame and tears the connection down. Safe to call
// more than once.
func (s *MarketStream) Close() error {
	s.stop()
	s.closeOnce.Do(s.shutdown)
	return s.closeErr
}

func (s *MarketStream) shutdown() {
	close(s.done)

	s.writeMu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	s.writeMu.Unlock()

	s.closeErr = s.conn.Close()
}

func (s *MarketStream) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// pingLoop sends periodic ping messages to keep the WebSocket alive.
func (s *MarketStream) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
