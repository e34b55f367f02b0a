// Package impact computes depth-aware effective prices by sweeping ask
// levels from the best price outward. All arithmetic is fixed-point:
// micro-dollar prices and ten-thousandth sizes.
package impact

import (
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
)

// Result describes the outcome of a book sweep.
type Result struct {
	Shares         types.Size  // shares acquired
	EffPrice       types.Price // depth-weighted average price per share
	Cost           int64       // total cost in micro-dollars
	DepthExhausted bool        // requested size exceeded available depth
}

// merge collapses consecutive equal-price levels. Levels arrive in fill
// order from Book.Walk; duplicate prices can still appear when multiple
// venue levels map to the same fixed-point price.
func merge(levels []types.BookLevel) []types.BookLevel {
	out := make([]types.BookLevel, 0, len(levels))
	for _, lvl := range levels {
		if lvl.Size <= 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Price == lvl.Price {
			out[n-1].Size += lvl.Size
			continue
		}
		out = append(out, lvl)
	}
	return out
}

// EffectivePrice sweeps asks greedily to acquire n shares. When depth is
// insufficient the result covers what is available and is flagged
// DepthExhausted.
func EffectivePrice(asks []types.BookLevel, n types.Size) Result {
	if n <= 0 {
		return Result{}
	}

	asks = merge(asks)

	var filled types.Size
	var cost int64

	for _, lvl := range asks {
		take := n - filled
		if take > lvl.Size {
			take = lvl.Size
		}
		cost += types.Cost(lvl.Price, take)
		filled += take
		if filled == n {
			break
		}
	}

	if filled == 0 {
		return Result{DepthExhausted: true}
	}

	return Result{
		Shares:         filled,
		EffPrice:       effPrice(cost, filled),
		Cost:           cost,
		DepthExhausted: filled < n,
	}
}

// SharesForSpend sweeps asks until spend (micro-dollars) is exhausted or
// the book is.
func SharesForSpend(asks []types.BookLevel, spend int64) Result {
	if spend <= 0 {
		return Result{}
	}

	asks = merge(asks)

	var filled types.Size
	var cost int64
	exhausted := true

	for _, lvl := range asks {
		remaining := spend - cost
		levelCost := types.Cost(lvl.Price, lvl.Size)

		if levelCost <= remaining {
			cost += levelCost
			filled += lvl.Size
			continue
		}

		// Partial fill of this level: shares = remaining / price.
		take := types.Size(remaining * types.SizeScale / int64(lvl.Price))
		cost += types.Cost(lvl.Price, take)
		filled += take
		exhausted = false
		break
	}

	if filled == 0 {
		return Result{DepthExhausted: exhausted}
	}

	return Result{
		Shares:         filled,
		EffPrice:       effPrice(cost, filled),
		Cost:           cost,
		DepthExhausted: exhausted,
	}
}

// MaxSharesUnder returns the largest whole-share count n such that the
// effective price of n shares does not exceed priceCap. Effective price is
// non-decreasing in n, so a binary search over whole shares applies.
func MaxSharesUnder(asks []types.BookLevel, priceCap types.Price) types.Size {
	asks = merge(asks)

	avail := Depth(asks).Shares()
	if avail == 0 {
		return 0
	}

	ok := func(shares int64) bool {
		r := EffectivePrice(asks, types.WholeShares(shares))
		return !r.DepthExhausted && r.EffPrice <= priceCap
	}

	if !ok(1) {
		return 0
	}

	lo, hi := int64(1), avail
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if ok(mid) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	return types.WholeShares(lo)
}

// Depth returns the total size available across levels.
func Depth(levels []types.BookLevel) types.Size {
	var total types.Size
	for _, lvl := range levels {
		total += lvl.Size
	}
	return total
}

// effPrice divides cost by shares, rounding up so the reported average
// never understates what was paid.
func effPrice(cost int64, shares types.Size) types.Price {
	num := cost * types.SizeScale
	return types.Price((num + int64(shares) - 1) / int64(shares))
}
