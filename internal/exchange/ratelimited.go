package exchange

import (
	"context"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/ratelimit"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
)

// RateLimitedClient decorates a Client with sliding-window admission
// control. Order placement is critical and blocks for a slot; every other
// call backs off under the normal class. No call uses the background
// class, so none is dropped on refusal.
type RateLimitedClient struct {
	inner   Client
	limiter *ratelimit.Limiter
}

// NewRateLimitedClient wraps a client.
func NewRateLimitedClient(inner Client, limiter *ratelimit.Limiter) *RateLimitedClient {
	return &RateLimitedClient{inner: inner, limiter: limiter}
}

func (c *RateLimitedClient) key(class string) string {
	return c.inner.Name() + ":" + class
}

// Name returns the wrapped venue identifier.
func (c *RateLimitedClient) Name() string {
	return c.inner.Name()
}

// ListMarkets fetches markets under the normal class.
func (c *RateLimitedClient) ListMarkets(ctx context.Context) ([]*types.Market, error) {
	err := c.limiter.Acquire(ctx, c.key("markets"), ratelimit.Normal)
	if err != nil {
		return nil, err
	}
	return c.inner.ListMarkets(ctx)
}

// SubscribeBook counts against the normal class.
func (c *RateLimitedClient) SubscribeBook(ctx context.Context, tokenIDs []string) error {
	err := c.limiter.Acquire(ctx, c.key("markets"), ratelimit.Normal)
	if err != nil {
		return err
	}
	return c.inner.SubscribeBook(ctx, tokenIDs)
}

// RequestSnapshot counts against the normal class.
func (c *RateLimitedClient) RequestSnapshot(ctx context.Context, tokenID string) error {
	err := c.limiter.Acquire(ctx, c.key("markets"), ratelimit.Normal)
	if err != nil {
		return err
	}
	return c.inner.RequestSnapshot(ctx, tokenID)
}

// PlaceOrder is critical: it blocks until admitted rather than dropping.
func (c *RateLimitedClient) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	err := c.limiter.Acquire(ctx, c.key("orders"), ratelimit.Critical)
	if err != nil {
		return OrderResult{}, err
	}
	return c.inner.PlaceOrder(ctx, req)
}

// GetBalance counts against the normal class.
func (c *RateLimitedClient) GetBalance(ctx context.Context, currency string) (float64, error) {
	err := c.limiter.Acquire(ctx, c.key("markets"), ratelimit.Normal)
	if err != nil {
		return 0, err
	}
	return c.inner.GetBalance(ctx, currency)
}

// Snapshots passes through the streamed snapshots.
func (c *RateLimitedClient) Snapshots() <-chan types.BookSnapshot {
	return c.inner.Snapshots()
}

// Deltas passes through the streamed deltas.
func (c *RateLimitedClient) Deltas() <-chan types.BookDelta {
	return c.inner.Deltas()
}

// Close forwards to the wrapped client when it holds resources.
func (c *RateLimitedClient) Close() error {
	if closer, ok := c.inner.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
