package orderbook

import (
	"context"
	"sync"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/events"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// SnapshotRequester asks the venue for a fresh book snapshot after a
// crossed book or sequence corruption. Implemented by the exchange client.
type SnapshotRequester interface {
	RequestSnapshot(ctx context.Context, tokenID string) error
}

// Manager owns the order books for all subscribed tokens of one venue,
// applies snapshot and delta streams in sequence order, and notifies
// readers of updated tokens.
type Manager struct {
	exchange  string
	logger    *zap.Logger
	hub       *events.Hub
	requester SnapshotRequester

	snapshotTimeout time.Duration

	snapshotChan <-chan types.BookSnapshot
	deltaChan    <-chan types.BookDelta
	updateChan   chan string // token IDs with fresh data

	mu    sync.RWMutex
	books map[string]*Book

	ctx context.Context
	wg  sync.WaitGroup
}

// Config holds orderbook manager configuration.
type Config struct {
	Exchange  string
	Logger    *zap.Logger
	Hub       *events.Hub
	Requester SnapshotRequester
	Snapshots <-chan types.BookSnapshot
	Deltas    <-chan types.BookDelta

	// SnapshotTimeout bounds recovery snapshot requests. Default 10s.
	SnapshotTimeout time.Duration
}

// New creates a new orderbook manager.
func New(cfg *Config) *Manager {
	timeout := cfg.SnapshotTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Manager{
		exchange:        cfg.Exchange,
		logger:          cfg.Logger,
		hub:             cfg.Hub,
		requester:       cfg.Requester,
		snapshotTimeout: timeout,
		snapshotChan:    cfg.Snapshots,
		deltaChan:       cfg.Deltas,
		updateChan:      make(chan string, 100000),
		books:           make(map[string]*Book),
	}
}

// Start starts the ingestion loop.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx
	m.logger.Info("orderbook-manager-starting", zap.String("exchange", m.exchange))

	m.wg.Add(1)
	go m.ingest()

	return nil
}

func (m *Manager) ingest() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("orderbook-manager-stopping")
			return
		case snap, ok := <-m.snapshotChan:
			if !ok {
				return
			}
			m.applySnapshot(snap)
		case delta, ok := <-m.deltaChan:
			if !ok {
				return
			}
			m.applyDelta(delta)
		}
	}
}

func (m *Manager) applySnapshot(snap types.BookSnapshot) {
	book := m.bookFor(snap.TokenID)

	err := book.ApplySnapshot(snap)
	if err != nil {
		// A crossed snapshot means the venue state itself is broken;
		// keep the book paused and ask again.
		m.logger.Warn("snapshot-crossed",
			zap.String("token-id", snap.TokenID),
			zap.Error(err))
		BookResetsTotal.WithLabelValues("crossed_snapshot").Inc()
		m.requestSnapshot(snap.TokenID)
		return
	}

	UpdatesTotal.WithLabelValues("snapshot").Inc()
	m.notify(snap.TokenID)
}

func (m *Manager) applyDelta(delta types.BookDelta) {
	book := m.bookFor(delta.TokenID)

	applied, err := book.ApplyDelta(delta)
	if err != nil {
		m.logger.Warn("book-crossed-requesting-snapshot",
			zap.String("token-id", delta.TokenID),
			zap.Uint64("seq", delta.Seq),
			zap.Error(err))
		BookResetsTotal.WithLabelValues("crossed_delta").Inc()
		m.hub.Publish(events.Event{
			Type:     events.TypeBookReset,
			Exchange: m.exchange,
			TokenID:  delta.TokenID,
			Err:      err,
		})
		m.requestSnapshot(delta.TokenID)
		return
	}

	if !applied {
		StaleDeltasTotal.Inc()
		return
	}

	UpdatesTotal.WithLabelValues("delta").Inc()
	m.notify(delta.TokenID)
}

func (m *Manager) requestSnapshot(tokenID string) {
	if m.requester == nil {
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.snapshotTimeout)
	defer cancel()

	err := m.requester.RequestSnapshot(ctx, tokenID)
	if err != nil {
		m.logger.Error("snapshot-request-failed",
			zap.String("token-id", tokenID),
			zap.Error(err))
	}
}

func (m *Manager) notify(tokenID string) {
	select {
	case m.updateChan <- tokenID:
	default:
		UpdatesDroppedTotal.WithLabelValues("channel_full").Inc()
	}
}

func (m *Manager) bookFor(tokenID string) *Book {
	m.mu.RLock()
	book, ok := m.books[tokenID]
	m.mu.RUnlock()
	if ok {
		return book
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if book, ok = m.books[tokenID]; ok {
		return book
	}

	book = NewBook(m.exchange, tokenID)
	m.books[tokenID] = book
	BooksTracked.Set(float64(len(m.books)))
	return book
}

// Book returns the live book for a token, if tracked.
func (m *Manager) Book(tokenID string) (*Book, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[tokenID]
	return book, ok
}

// Track ensures a book exists for a token before the first feed message.
func (m *Manager) Track(tokenID string) {
	m.bookFor(tokenID)
}

// Stale reports whether a token's book is older than maxAge or untracked.
func (m *Manager) Stale(tokenID string, maxAge time.Duration, now time.Time) bool {
	book, ok := m.Book(tokenID)
	if !ok {
		return true
	}
	return book.Age(now) > maxAge
}

// UpdateChan returns the channel carrying token IDs with fresh book data.
func (m *Manager) UpdateChan() <-chan string {
	return m.updateChan
}

// Close gracefully closes the manager.
func (m *Manager) Close() error {
	m.logger.Info("closing-orderbook-manager")
	m.wg.Wait()
	close(m.updateChan)
	m.logger.Info("orderbook-manager-closed")
	return nil
}
