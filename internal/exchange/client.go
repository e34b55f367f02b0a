// Package exchange defines the capability surface the core consumes from a
// trading venue. Concrete venue adapters (REST/WebSocket transports,
// authentication) live outside the core; the engine only sees this
// interface.
package exchange

import (
	"context"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
)

// TimeInForce constrains how an order may rest.
type TimeInForce string

const (
	// FOK fills the entire order immediately or cancels it in full.
	FOK TimeInForce = "FOK"
	// IOC fills whatever is immediately available and cancels the rest.
	// Used for defensive unwinds into bid depth.
	IOC TimeInForce = "IOC"
)

// OrderStatus is the terminal state of a placed order.
type OrderStatus string

const (
	StatusFilled   OrderStatus = "filled"
	StatusRejected OrderStatus = "rejected"
	StatusTimeout  OrderStatus = "timeout"
)

// OrderRequest describes one order.
type OrderRequest struct {
	TokenID     string
	Side        types.OrderSide
	Price       types.Price // limit price; 0 on a SELL means "any bid"
	Size        types.Size
	TimeInForce TimeInForce
}

// OrderResult is the venue's answer to PlaceOrder.
type OrderResult struct {
	Status       OrderStatus
	VenueOrderID string
	Price        types.Price // average fill price when filled
	Size         types.Size  // filled size
	Fee          float64     // USD
	Reason       string      // venue reason when rejected
}

// Filled reports a complete or partial fill.
func (r OrderResult) Filled() bool {
	return r.Status == StatusFilled && r.Size > 0
}

// Client is the unified capability set over one venue.
type Client interface {
	// Name returns the venue identifier ("polymarket", "kalshi").
	Name() string

	// ListMarkets returns active binary markets.
	ListMarkets(ctx context.Context) ([]*types.Market, error)

	// SubscribeBook begins streaming book data for the given tokens onto
	// the Snapshots and Deltas channels.
	SubscribeBook(ctx context.Context, tokenIDs []string) error

	// RequestSnapshot asks for a fresh snapshot of one token's book, used
	// to recover from a crossed book or sequence gap.
	RequestSnapshot(ctx context.Context, tokenID string) error

	// PlaceOrder submits one order and waits for its terminal state.
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)

	// GetBalance returns the free balance for a currency.
	GetBalance(ctx context.Context, currency string) (float64, error)

	// Snapshots and Deltas carry streamed book data for subscribed tokens.
	Snapshots() <-chan types.BookSnapshot
	Deltas() <-chan types.BookDelta
}
