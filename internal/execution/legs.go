package execution

import (
	"context"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/exchange"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Leg describes one side of the paired entry.
type Leg struct {
	Client   exchange.Client
	MarketID string
	TokenID  string
	Outcome  string // "YES" or "NO"
	Price    types.Price
	Size     types.Size
}

// LegResult is the outcome of one leg's placement.
type LegResult struct {
	Leg    Leg
	Result exchange.OrderResult
	Err    error
}

// PlaceBothLegs dispatches two fill-or-kill BUY orders concurrently, one
// per outcome token, and waits for both within the overall timeout. FOK
// orders cannot be cancelled mid-flight, so both legs are always awaited
// to their terminal state.
func PlaceBothLegs(ctx context.Context, yes, no Leg, timeout time.Duration) (LegResult, LegResult) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]LegResult, 2)
	legs := []Leg{yes, no}

	g, gctx := errgroup.WithContext(ctx)
	for i := range legs {
		g.Go(func() error {
			leg := legs[i]
			res, err := leg.Client.PlaceOrder(gctx, exchange.OrderRequest{
				TokenID:     leg.TokenID,
				Side:        types.Buy,
				Price:       leg.Price,
				Size:        leg.Size,
				TimeInForce: exchange.FOK,
			})

			if err == nil && gctx.Err() != nil && res.Status == "" {
				res = exchange.OrderResult{Status: exchange.StatusTimeout}
			}

			results[i] = LegResult{Leg: leg, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i := range results {
		if results[i].Err == nil && results[i].Result.Status == "" {
			results[i].Result = exchange.OrderResult{Status: exchange.StatusTimeout}
		}
	}

	return results[0], results[1]
}

// UnwindLeg sells a filled leg back into available bid depth. Partial
// fills are accepted: the venue returns whatever the bids could absorb.
func UnwindLeg(ctx context.Context, leg Leg, filled types.Size, timeout time.Duration) (exchange.OrderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return leg.Client.PlaceOrder(ctx, exchange.OrderRequest{
		TokenID:     leg.TokenID,
		Side:        types.Sell,
		Price:       0, // any bid
		Size:        filled,
		TimeInForce: exchange.IOC,
	})
}
