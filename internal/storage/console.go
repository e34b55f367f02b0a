package storage

import (
	"context"
	"sync"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// ConsoleSink implements TradeSink by logging trades. Duplicate
// (exchange, venue_order_id) keys are dropped to preserve idempotency.
type ConsoleSink struct {
	logger *zap.Logger

	mu   sync.Mutex
	seen map[string]bool
}

// NewConsoleSink creates a console trade sink.
func NewConsoleSink(logger *zap.Logger) *ConsoleSink {
	logger.Info("console-trade-sink-initialized")
	return &ConsoleSink{
		logger: logger,
		seen:   make(map[string]bool),
	}
}

// Record logs one trade leg.
func (c *ConsoleSink) Record(ctx context.Context, trade *types.Trade) error {
	key := trade.Exchange + ":" + trade.VenueOrderID

	c.mu.Lock()
	if c.seen[key] {
		c.mu.Unlock()
		return nil
	}
	c.seen[key] = true
	c.mu.Unlock()

	TradesRecordedTotal.WithLabelValues(trade.Exchange, string(trade.Side)).Inc()

	c.logger.Info("trade-recorded",
		zap.String("exchange", trade.Exchange),
		zap.String("market-id", trade.MarketID),
		zap.String("outcome", trade.Outcome),
		zap.String("side", string(trade.Side)),
		zap.String("price", trade.Price.String()),
		zap.String("size", trade.Size.String()),
		zap.Float64("fee", trade.Fee))

	return nil
}

// Close is a no-op for the console sink.
func (c *ConsoleSink) Close() error {
	c.logger.Info("closing-console-trade-sink")
	return nil
}
