package orderbook

import (
	"sort"
	"sync"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
)

// Book holds both sides of one token's order book with a monotonically
// non-decreasing sequence number. Bids are kept descending by price, asks
// ascending, so Walk returns levels in fill order.
type Book struct {
	mu        sync.RWMutex
	exchange  string
	tokenID   string
	bids      []types.BookLevel
	asks      []types.BookLevel
	seq       uint64
	updatedAt time.Time
	paused    bool // crossed book observed; waiting for a fresh snapshot
}

// NewBook creates an empty book for a token.
func NewBook(exchange, tokenID string) *Book {
	return &Book{
		exchange: exchange,
		tokenID:  tokenID,
	}
}

// ApplySnapshot resets both sides and the sequence number. A snapshot
// always clears the paused state: it is the recovery path after a crossed
// book. Returns types.ErrBookCrossed if the snapshot itself is crossed.
func (b *Book) ApplySnapshot(snap types.BookSnapshot) error {
	bids := sortedCopy(snap.Bids, types.BidSide)
	asks := sortedCopy(snap.Asks, types.AskSide)

	if crossed(bids, asks) {
		return types.ErrBookCrossed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = bids
	b.asks = asks
	b.seq = snap.Seq
	b.updatedAt = snap.At
	if b.updatedAt.IsZero() {
		b.updatedAt = time.Now()
	}
	b.paused = false

	return nil
}

// ApplyDelta updates one price level. Deltas with seq <= the applied one
// are dropped without state change; the first return value reports whether
// the delta was applied. A crossed book after application returns
// types.ErrBookCrossed, leaves the state unchanged, and pauses the book
// until a snapshot arrives.
func (b *Book) ApplyDelta(delta types.BookDelta) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if delta.Seq <= b.seq {
		return false, nil
	}

	side := &b.bids
	if delta.Side == types.AskSide {
		side = &b.asks
	}

	updated := applyLevel(*side, delta.Side, delta.Price, delta.NewSize)

	if delta.Side == types.BidSide {
		if crossed(updated, b.asks) {
			b.paused = true
			return false, types.ErrBookCrossed
		}
	} else {
		if crossed(b.bids, updated) {
			b.paused = true
			return false, types.ErrBookCrossed
		}
	}

	*side = updated
	b.seq = delta.Seq
	b.updatedAt = delta.At
	if b.updatedAt.IsZero() {
		b.updatedAt = time.Now()
	}

	return true, nil
}

// Best returns the top level of a side.
func (b *Book) Best(side types.BookSide) (types.BookLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	levels := b.bids
	if side == types.AskSide {
		levels = b.asks
	}
	if len(levels) == 0 {
		return types.BookLevel{}, false
	}
	return levels[0], true
}

// Walk returns up to maxLevels levels of a side in fill order
// (bids descending, asks ascending).
func (b *Book) Walk(side types.BookSide, maxLevels int) []types.BookLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()

	levels := b.bids
	if side == types.AskSide {
		levels = b.asks
	}
	if maxLevels > len(levels) {
		maxLevels = len(levels)
	}

	out := make([]types.BookLevel, maxLevels)
	copy(out, levels[:maxLevels])
	return out
}

// Seq returns the last applied sequence number.
func (b *Book) Seq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}

// Age returns the time since the last applied update.
func (b *Book) Age(now time.Time) time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.updatedAt.IsZero() {
		return now.Sub(time.Time{})
	}
	return now.Sub(b.updatedAt)
}

// Paused reports whether the book is awaiting a recovery snapshot.
func (b *Book) Paused() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.paused
}

// applyLevel returns the side with the level at price set to size.
// A zero size deletes the level. The side's ordering is preserved.
func applyLevel(levels []types.BookLevel, side types.BookSide, price types.Price, size types.Size) []types.BookLevel {
	idx := sort.Search(len(levels), func(i int) bool {
		if side == types.BidSide {
			return levels[i].Price <= price
		}
		return levels[i].Price >= price
	})

	out := make([]types.BookLevel, len(levels))
	copy(out, levels)

	if idx < len(out) && out[idx].Price == price {
		if size == 0 {
			return append(out[:idx], out[idx+1:]...)
		}
		out[idx].Size = size
		return out
	}

	if size == 0 {
		return out
	}

	out = append(out, types.BookLevel{})
	copy(out[idx+1:], out[idx:])
	out[idx] = types.BookLevel{Price: price, Size: size}
	return out
}

// sortedCopy normalizes snapshot levels: drops empty levels, merges
// duplicates, and sorts into fill order.
func sortedCopy(levels []types.BookLevel, side types.BookSide) []types.BookLevel {
	merged := make(map[types.Price]types.Size, len(levels))
	for _, lvl := range levels {
		if lvl.Price <= 0 || lvl.Size <= 0 {
			continue
		}
		merged[lvl.Price] += lvl.Size
	}

	out := make([]types.BookLevel, 0, len(merged))
	for price, size := range merged {
		out = append(out, types.BookLevel{Price: price, Size: size})
	}

	sort.Slice(out, func(i, j int) bool {
		if side == types.BidSide {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})

	return out
}

// crossed reports best bid >= best ask with both sides non-empty.
func crossed(bids, asks []types.BookLevel) bool {
	if len(bids) == 0 || len(asks) == 0 {
		return false
	}
	return bids[0].Price >= asks[0].Price
}
