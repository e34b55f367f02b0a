package websocket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// DecodeFunc translates one venue frame into book snapshots and deltas.
// Frames that are heartbeats or control messages decode to empty slices.
type DecodeFunc func(frame []byte) ([]types.BookSnapshot, []types.BookDelta, error)

// SubscribePayloadFunc builds the venue subscription message for a set of
// token IDs. Called on first subscribe and again after every reconnect.
type SubscribePayloadFunc func(tokenIDs []string) interface{}

// FeedConfig holds book feed configuration.
type FeedConfig struct {
	URL                   string
	Decode                DecodeFunc
	SubscribePayload      SubscribePayloadFunc
	DialTimeout           time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	BufferSize            int
	Logger                *zap.Logger
}

// Feed maintains one order-book WebSocket connection for a venue and fans
// decoded snapshots and deltas out on channels. The venue adapter supplies
// the frame decoder and the subscription payload shape; everything else
// (dial, reconnect with backoff, resubscribe) is generic. The feed sends no
// pings of its own; a dropped connection is noticed when a read fails.
type Feed struct {
	cfg          FeedConfig
	logger       *zap.Logger
	reconnectMgr *ReconnectManager

	snapshotChan chan types.BookSnapshot
	deltaChan    chan types.BookDelta

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	conn       *websocket.Conn
	subscribed map[string]bool
	connected  atomic.Bool
}

// NewFeed creates a book feed.
func NewFeed(cfg FeedConfig) *Feed {
	ctx, cancel := context.WithCancel(context.Background())

	return &Feed{
		cfg:    cfg,
		logger: cfg.Logger,
		reconnectMgr: NewReconnectManager(ReconnectConfig{
			InitialDelay:      cfg.ReconnectInitialDelay,
			MaxDelay:          cfg.ReconnectMaxDelay,
			BackoffMultiplier: cfg.ReconnectBackoffMult,
		}, cfg.Logger),
		snapshotChan: make(chan types.BookSnapshot, cfg.BufferSize),
		deltaChan:    make(chan types.BookDelta, cfg.BufferSize),
		ctx:          ctx,
		cancel:       cancel,
		subscribed:   make(map[string]bool),
	}
}

// Start dials the venue and begins reading.
func (f *Feed) Start() error {
	f.logger.Info("book-feed-starting", zap.String("url", f.cfg.URL))

	err := f.connect(f.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	f.wg.Add(2)
	go f.readLoop()
	go f.reconnectLoop()

	return nil
}

func (f *Feed) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: f.cfg.DialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	f.connected.Store(true)
	ActiveConnections.Set(1)

	f.logger.Info("book-feed-connected")

	return nil
}

// Subscribe subscribes to order books for the given token IDs.
func (f *Feed) Subscribe(tokenIDs []string) error {
	f.mu.Lock()

	newTokens := make([]string, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		if !f.subscribed[id] {
			newTokens = append(newTokens, id)
			f.subscribed[id] = true
		}
	}

	if len(newTokens) == 0 {
		f.mu.Unlock()
		return nil
	}

	conn := f.conn
	total := len(f.subscribed)
	f.mu.Unlock()

	err := conn.WriteJSON(f.cfg.SubscribePayload(newTokens))
	if err != nil {
		f.mu.Lock()
		for _, id := range newTokens {
			delete(f.subscribed, id)
		}
		f.mu.Unlock()
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscriptionCount.Set(float64(total))

	f.logger.Info("subscribed-to-books",
		zap.Int("new-count", len(newTokens)),
		zap.Int("total-count", total))

	return nil
}

// readLoop reads frames until the connection drops.
func (f *Feed) readLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		default:
		}

		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, frame, err := conn.ReadMessage()
		if err != nil {
			f.logger.Warn("read-error", zap.Error(err))
			f.connected.Store(false)
			ActiveConnections.Set(0)
			return
		}

		snapshots, deltas, err := f.cfg.Decode(frame)
		if err != nil {
			// Control frames and heartbeats are not decodable book data.
			if isControlFrame(frame) {
				continue
			}
			f.logger.Debug("undecodable-frame",
				zap.Error(err),
				zap.Int("bytes", len(frame)))
			continue
		}

		for _, snap := range snapshots {
			MessagesReceivedTotal.WithLabelValues("snapshot").Inc()
			select {
			case f.snapshotChan <- snap:
			default:
				MessagesDroppedTotal.WithLabelValues("channel_full").Inc()
			}
		}

		for _, delta := range deltas {
			MessagesReceivedTotal.WithLabelValues("delta").Inc()
			select {
			case f.deltaChan <- delta:
			default:
				MessagesDroppedTotal.WithLabelValues("channel_full").Inc()
			}
		}
	}
}

// isControlFrame reports whether the frame is a heartbeat or venue control
// message rather than book data.
func isControlFrame(frame []byte) bool {
	if len(frame) < 10 {
		return true
	}
	var control map[string]interface{}
	if json.Unmarshal(frame, &control) == nil {
		_, hasType := control["type"]
		return hasType
	}
	return false
}

// reconnectLoop re-dials with backoff whenever the connection drops and
// resubscribes to every tracked token.
func (f *Feed) reconnectLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		default:
		}

		if f.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		f.logger.Warn("connection-lost-initiating-reconnect")

		err := f.reconnectMgr.Reconnect(f.ctx, f.connect)
		if err != nil {
			if err == context.Canceled {
				return
			}
			f.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		err = f.resubscribeAll()
		if err != nil {
			f.logger.Error("resubscribe-failed", zap.Error(err))
			f.connected.Store(false)
			continue
		}

		f.wg.Add(1)
		go f.readLoop()
	}
}

func (f *Feed) resubscribeAll() error {
	f.mu.RLock()
	tokenIDs := make([]string, 0, len(f.subscribed))
	for id := range f.subscribed {
		tokenIDs = append(tokenIDs, id)
	}
	conn := f.conn
	f.mu.RUnlock()

	if len(tokenIDs) == 0 {
		return nil
	}

	err := conn.WriteJSON(f.cfg.SubscribePayload(tokenIDs))
	if err != nil {
		return fmt.Errorf("write resubscribe message: %w", err)
	}

	f.logger.Info("resubscribed-to-all-books", zap.Int("count", len(tokenIDs)))

	return nil
}

// Snapshots returns the snapshot delivery channel.
func (f *Feed) Snapshots() <-chan types.BookSnapshot {
	return f.snapshotChan
}

// Deltas returns the delta delivery channel.
func (f *Feed) Deltas() <-chan types.BookDelta {
	return f.deltaChan
}

// Close shuts the feed down.
func (f *Feed) Close() error {
	f.logger.Info("closing-book-feed")

	f.cancel()

	f.mu.RLock()
	if f.conn != nil {
		f.conn.Close()
	}
	f.mu.RUnlock()

	f.wg.Wait()

	close(f.snapshotChan)
	close(f.deltaChan)

	ActiveConnections.Set(0)

	f.logger.Info("book-feed-closed")

	return nil
}
