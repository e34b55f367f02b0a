package storage

import (
	"context"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
)

// TradeSink persists executed trade legs. Implementations must be
// idempotent on the (exchange, venue_order_id) key: replaying a trade
// record is a no-op.
type TradeSink interface {
	// Record persists one trade leg.
	Record(ctx context.Context, trade *types.Trade) error

	// Close closes the sink.
	Close() error
}
