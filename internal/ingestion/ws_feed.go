package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"intraday-almanac/internal/domain"
)

// FeedConfig configures WebSocket feed behavior.
type FeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout is how long to wait for a subscribe ack.
	SubscribeTimeout time.Duration
}

// DefaultFeedConfig returns default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  30 * time.Second,
	}
}

// WSFeed implements BarFeed over gorilla/websocket. The feed speaks a
// JSON protocol: a {"type":"subscribe","id":N,"symbol":S} request
// acked by {"type":"subscribed","id":N}, then a stream of
// {"type":"bar",...} messages.
type WSFeed struct {
	endpoint string
	config   FeedConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps symbol to delivery channel
	subs   map[string]chan domain.Bar
	subsMu sync.RWMutex

	// pendingAcks maps request ID to channel waiting for the ack
	pendingAcks   map[uint64]chan struct{}
	pendingAcksMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

var _ BarFeed = (*WSFeed)(nil)

// NewWSFeed creates a bar feed and connects to the endpoint.
func NewWSFeed(ctx context.Context, endpoint string, config *FeedConfig) (*WSFeed, error) {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}

	f := &WSFeed{
		endpoint:    endpoint,
		config:      cfg,
		subs:        make(map[string]chan domain.Bar),
		pendingAcks: make(map[uint64]chan struct{}),
		done:        make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

func (f *WSFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.conn = conn
	return nil
}

// Subscribe starts streaming bars for the symbol.
func (f *WSFeed) Subscribe(ctx context.Context, symbol string) (<-chan domain.Bar, error) {
	if f.closed.Load() {
		return nil, fmt.Errorf("feed closed")
	}

	// Large buffer absorbs bursts; the dispatcher blocks rather than
	// drop bars.
	ch := make(chan domain.Bar, 10000)

	// Register before writing the request: bars can arrive on the
	// read loop the instant the server acks, and none may be dropped.
	f.subsMu.Lock()
	f.subs[symbol] = ch
	f.subsMu.Unlock()

	if err := f.sendSubscribe(ctx, symbol); err != nil {
		f.subsMu.Lock()
		delete(f.subs, symbol)
		f.subsMu.Unlock()
		return nil, err
	}

	return ch, nil
}

// sendSubscribe writes the subscribe request and waits for its ack.
func (f *WSFeed) sendSubscribe(ctx context.Context, symbol string) error {
	reqID := f.requestID.Add(1)
	req := feedRequest{Type: "subscribe", ID: reqID, Symbol: symbol}

	ackCh := make(chan struct{}, 1)
	f.pendingAcksMu.Lock()
	f.pendingAcks[reqID] = ackCh
	f.pendingAcksMu.Unlock()

	clearPending := func() {
		f.pendingAcksMu.Lock()
		delete(f.pendingAcks, reqID)
		f.pendingAcksMu.Unlock()
	}

	f.connMu.Lock()
	if f.conn == nil {
		f.connMu.Unlock()
		clearPending()
		return fmt.Errorf("not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	err := f.conn.WriteJSON(req)
	f.connMu.Unlock()

	if err != nil {
		clearPending()
		return fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case <-ackCh:
		return nil
	case <-time.After(f.config.SubscribeTimeout):
		clearPending()
		return fmt.Errorf("subscribe timeout for %s", symbol)
	case <-f.done:
		return fmt.Errorf("feed closed")
	case <-ctx.Done():
		clearPending()
		return ctx.Err()
	}
}

// Close closes the feed connection and all subscription channels.
func (f *WSFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}

	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.subsMu.Lock()
	for symbol, ch := range f.subs {
		close(ch)
		delete(f.subs, symbol)
	}
	f.subsMu.Unlock()

	f.pendingAcksMu.Lock()
	for id, ch := range f.pendingAcks {
		close(ch)
		delete(f.pendingAcks, id)
	}
	f.pendingAcksMu.Unlock()

	f.wg.Wait()
	return nil
}

// readLoop reads messages from the socket and dispatches them.
func (f *WSFeed) readLoop() {
	defer f.wg.Done()

	reconnectDelay := f.config.ReconnectDelay

	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}

			// Connection error, reconnect with exponential backoff
			if !f.reconnecting.Swap(true) {
				go f.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > f.config.MaxReconnectDelay {
				reconnectDelay = f.config.MaxReconnectDelay
			}

			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = f.config.ReconnectDelay

		f.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe every live symbol.
func (f *WSFeed) reconnect(delay time.Duration) {
	defer f.reconnecting.Store(false)

	if f.closed.Load() {
		return
	}

	select {
	case <-f.done:
		return
	case <-time.After(delay):
	}

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := f.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}

	f.subsMu.RLock()
	symbols := make([]string, 0, len(f.subs))
	for s := range f.subs {
		symbols = append(symbols, s)
	}
	f.subsMu.RUnlock()

	for _, symbol := range symbols {
		subCtx, subCancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := f.sendSubscribe(subCtx, symbol)
		subCancel()
		if err != nil {
			// Failed to resubscribe, the symbol's channel stays open and
			// the next reconnect retries
			continue
		}
	}
}

// handleMessage processes one incoming message.
func (f *WSFeed) handleMessage(message []byte) {
	var env feedEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		return
	}

	switch env.Type {
	case "subscribed":
		f.pendingAcksMu.Lock()
		ch, ok := f.pendingAcks[env.ID]
		if ok {
			delete(f.pendingAcks, env.ID)
		}
		f.pendingAcksMu.Unlock()
		if ok {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	case "bar":
		f.handleBar(&env)
	}
}

// handleBar dispatches a bar message to its symbol's subscriber.
func (f *WSFeed) handleBar(env *feedEnvelope) {
	ts, err := time.Parse(time.RFC3339, env.Time)
	if err != nil {
		return
	}

	bar := domain.Bar{
		Symbol: env.Symbol,
		Time:   ts,
		Open:   env.Open,
		High:   env.High,
		Low:    env.Low,
		Close:  env.Close,
		Volume: env.Volume,
	}

	f.subsMu.RLock()
	ch, ok := f.subs[env.Symbol]
	f.subsMu.RUnlock()

	if ok {
		// Block until delivered, never drop bars
		select {
		case ch <- bar:
		case <-f.done:
			return
		}
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (f *WSFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			f.connMu.Unlock()
		}
	}
}

// Feed message types

type feedRequest struct {
	Type   string `json:"type"`
	ID     uint64 `json:"id"`
	Symbol string `json:"symbol"`
}

type feedEnvelope struct {
	Type   string  `json:"type"`
	ID     uint64  `json:"id,omitempty"`
	Symbol string  `json:"symbol,omitempty"`
	Time   string  `json:"time,omitempty"`
	Open   float64 `json:"open,omitempty"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Close  float64 `json:"close,omitempty"`
	Volume int64   `json:"volume,omitempty"`
}
