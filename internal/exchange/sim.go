package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// failureMode forces the next order on a token into a terminal state.
type failureMode int

const (
	failNone failureMode = iota
	failReject
	failTimeout
)

type simBook struct {
	bids []types.BookLevel
	asks []types.BookLevel
	seq  uint64
}

// SimClient is a deterministic in-memory venue. It backs paper trading and
// the execution tests: orders consume book depth, fills are computed with
// the same fixed-point sweep the live path uses, and every mutation is
// published as a fresh snapshot on the feed channels.
type SimClient struct {
	name   string
	feePct float64
	logger *zap.Logger

	mu         sync.Mutex
	markets    []*types.Market
	books      map[string]*simBook
	balances   map[string]float64
	subscribed map[string]bool
	failures   map[string]failureMode

	snapshotChan chan types.BookSnapshot
	deltaChan    chan types.BookDelta
}

// SimConfig holds sim venue configuration.
type SimConfig struct {
	Name    string
	FeePct  float64
	Balance float64
	Logger  *zap.Logger
}

// NewSimClient creates a sim venue.
func NewSimClient(cfg SimConfig) *SimClient {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SimClient{
		name:         cfg.Name,
		feePct:       cfg.FeePct,
		logger:       logger,
		books:        make(map[string]*simBook),
		balances:     map[string]float64{"USDC": cfg.Balance},
		subscribed:   make(map[string]bool),
		failures:     make(map[string]failureMode),
		snapshotChan: make(chan types.BookSnapshot, 1000),
		deltaChan:    make(chan types.BookDelta, 1000),
	}
}

// Name returns the venue identifier.
func (c *SimClient) Name() string {
	return c.name
}

// SetMarkets replaces the active market list.
func (c *SimClient) SetMarkets(markets []*types.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markets = markets
}

// ListMarkets returns the active market list.
func (c *SimClient) ListMarkets(ctx context.Context) ([]*types.Market, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*types.Market, len(c.markets))
	copy(out, c.markets)
	return out, nil
}

// SetBook replaces a token's book and publishes the snapshot.
func (c *SimClient) SetBook(tokenID string, bids, asks []types.BookLevel) {
	c.mu.Lock()
	book := c.bookLocked(tokenID)
	book.bids = append([]types.BookLevel(nil), bids...)
	book.asks = append([]types.BookLevel(nil), asks...)
	book.seq++
	snap := c.snapshotLocked(tokenID, book)
	c.mu.Unlock()

	c.publishSnapshot(snap)
}

// FailNextOrder forces the next order on tokenID to be rejected.
func (c *SimClient) FailNextOrder(tokenID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[tokenID] = failReject
}

// TimeoutNextOrder forces the next order on tokenID to time out.
func (c *SimClient) TimeoutNextOrder(tokenID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[tokenID] = failTimeout
}

// SetBalance sets the free balance for a currency.
func (c *SimClient) SetBalance(currency string, amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[currency] = amount
}

// GetBalance returns the free balance for a currency.
func (c *SimClient) GetBalance(ctx context.Context, currency string) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[currency], nil
}

// SubscribeBook marks tokens as subscribed and publishes current snapshots.
func (c *SimClient) SubscribeBook(ctx context.Context, tokenIDs []string) error {
	c.mu.Lock()
	snaps := make([]types.BookSnapshot, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		c.subscribed[id] = true
		if book, ok := c.books[id]; ok {
			snaps = append(snaps, c.snapshotLocked(id, book))
		}
	}
	c.mu.Unlock()

	for _, snap := range snaps {
		c.publishSnapshot(snap)
	}
	return nil
}

// RequestSnapshot republishes a token's current book.
func (c *SimClient) RequestSnapshot(ctx context.Context, tokenID string) error {
	c.mu.Lock()
	book, ok := c.books[tokenID]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown token %q", tokenID)
	}
	book.seq++
	snap := c.snapshotLocked(tokenID, book)
	c.mu.Unlock()

	c.publishSnapshot(snap)
	return nil
}

// PlaceOrder executes against the in-memory book. BUY with FOK is strict
// all-or-nothing within the limit price; SELL fills whatever bid depth is
// available at or above the limit (zero limit accepts any bid).
func (c *SimClient) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	c.mu.Lock()

	if mode := c.failures[req.TokenID]; mode != failNone {
		delete(c.failures, req.TokenID)
		c.mu.Unlock()

		switch mode {
		case failTimeout:
			// Emulate a venue that never answers inside the deadline.
			<-ctx.Done()
			return OrderResult{Status: StatusTimeout}, nil
		default:
			return OrderResult{Status: StatusRejected, Reason: "forced rejection"}, nil
		}
	}

	book := c.bookLocked(req.TokenID)

	var result OrderResult
	if req.Side == types.Buy {
		result = c.fillBuyLocked(book, req)
	} else {
		result = c.fillSellLocked(book, req)
	}

	var snap types.BookSnapshot
	published := false
	if result.Filled() {
		book.seq++
		snap = c.snapshotLocked(req.TokenID, book)
		published = true
	}
	c.mu.Unlock()

	if published {
		c.publishSnapshot(snap)
	}

	return result, nil
}

// fillBuyLocked consumes ask depth at prices <= limit, all-or-nothing.
func (c *SimClient) fillBuyLocked(book *simBook, req OrderRequest) OrderResult {
	var available types.Size
	for _, lvl := range book.asks {
		if lvl.Price > req.Price {
			break
		}
		available += lvl.Size
	}

	if available < req.Size {
		return OrderResult{Status: StatusRejected, Reason: "FOK not fillable"}
	}

	filled, cost := consume(&book.asks, req.Size)
	avg := avgPrice(cost, filled)

	return OrderResult{
		Status:       StatusFilled,
		VenueOrderID: uuid.New().String(),
		Price:        avg,
		Size:         filled,
		Fee:          c.feePct * avg.Float64() * filled.Float64(),
	}
}

// fillSellLocked consumes bid depth at prices >= limit, partial fills allowed.
func (c *SimClient) fillSellLocked(book *simBook, req OrderRequest) OrderResult {
	var available types.Size
	for _, lvl := range book.bids {
		if lvl.Price < req.Price {
			break
		}
		available += lvl.Size
	}

	size := req.Size
	if available < size {
		size = available
	}
	if size == 0 {
		return OrderResult{Status: StatusRejected, Reason: "no bid depth"}
	}

	filled, proceeds := consume(&book.bids, size)
	avg := avgPrice(proceeds, filled)

	return OrderResult{
		Status:       StatusFilled,
		VenueOrderID: uuid.New().String(),
		Price:        avg,
		Size:         filled,
		Fee:          c.feePct * avg.Float64() * filled.Float64(),
	}
}

// consume removes size shares from the front of a side, returning the
// filled size and its micro-dollar value.
func consume(side *[]types.BookLevel, size types.Size) (types.Size, int64) {
	var filled types.Size
	var value int64

	levels := *side
	for len(levels) > 0 && filled < size {
		take := size - filled
		if take > levels[0].Size {
			take = levels[0].Size
		}
		value += types.Cost(levels[0].Price, take)
		filled += take
		levels[0].Size -= take
		if levels[0].Size == 0 {
			levels = levels[1:]
		}
	}

	*side = levels
	return filled, value
}

func avgPrice(valueMicro int64, size types.Size) types.Price {
	if size == 0 {
		return 0
	}
	return types.Price(valueMicro * types.SizeScale / int64(size))
}

func (c *SimClient) bookLocked(tokenID string) *simBook {
	book, ok := c.books[tokenID]
	if !ok {
		book = &simBook{}
		c.books[tokenID] = book
	}
	return book
}

func (c *SimClient) snapshotLocked(tokenID string, book *simBook) types.BookSnapshot {
	return types.BookSnapshot{
		Exchange: c.name,
		TokenID:  tokenID,
		Seq:      book.seq,
		Bids:     append([]types.BookLevel(nil), book.bids...),
		Asks:     append([]types.BookLevel(nil), book.asks...),
		At:       time.Now(),
	}
}

func (c *SimClient) publishSnapshot(snap types.BookSnapshot) {
	select {
	case c.snapshotChan <- snap:
	default:
		c.logger.Warn("sim-snapshot-channel-full", zap.String("token-id", snap.TokenID))
	}
}

// Snapshots returns the snapshot feed channel.
func (c *SimClient) Snapshots() <-chan types.BookSnapshot {
	return c.snapshotChan
}

// Deltas returns the delta feed channel. The sim venue publishes full
// snapshots only, so this channel never carries data but satisfies Client.
func (c *SimClient) Deltas() <-chan types.BookDelta {
	return c.deltaChan
}
