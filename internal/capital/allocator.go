// Package capital sizes individual trades. The allocator scales a base
// stake by opportunity quality, the day's P&L, and time of day, then caps
// the result against available balance less a depth-dependent buffer.
package capital

import (
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
)

// Config holds allocator configuration.
type Config struct {
	CapitalPerTrade float64 // base USD stake
	MaxDailyLoss    float64 // reference for the P&L multiplier
}

// Request carries the opportunity parameters the allocator scales on.
type Request struct {
	ROI              float64     // net profit / gross cost
	Score            float64     // market quality score [0, 100]
	EffPrice         types.Price // combined per-share entry cost (YES + NO)
	TopDepthFraction float64     // share of top-of-book depth the trade consumes
}

// Allocation is the sized trade.
type Allocation struct {
	Dollars float64
	Shares  int64
}

// Allocator computes per-trade sizes.
type Allocator struct {
	cfg Config
}

// New creates an allocator.
func New(cfg Config) *Allocator {
	return &Allocator{cfg: cfg}
}

// Allocate sizes one trade. The result is rounded down to whole shares at
// the combined effective entry price; a zero allocation means skip.
func (a *Allocator) Allocate(req Request, dailyPnL, balance float64, now time.Time) Allocation {
	size := a.cfg.CapitalPerTrade *
		roiMultiplier(req.ROI) *
		qualityMultiplier(req.Score) *
		a.pnlMultiplier(dailyPnL) *
		timeMultiplier(now)

	limit := balance * (1 - dynamicBuffer(req.TopDepthFraction))
	if size > limit {
		size = limit
	}

	if req.EffPrice <= 0 || size <= 0 {
		return Allocation{}
	}

	shares := int64(size / req.EffPrice.Float64())
	if shares <= 0 {
		return Allocation{}
	}

	return Allocation{
		Dollars: float64(shares) * req.EffPrice.Float64(),
		Shares:  shares,
	}
}

// roiMultiplier scales linearly around a 2% reference ROI.
func roiMultiplier(roi float64) float64 {
	return clamp(roi/0.02, 0.5, 2.0)
}

// qualityMultiplier scales linearly around the quality threshold.
func qualityMultiplier(score float64) float64 {
	return clamp(score/50, 0.5, 1.5)
}

// pnlMultiplier tapers sizing as the day's losses approach half of the
// daily loss limit.
func (a *Allocator) pnlMultiplier(dailyPnL float64) float64 {
	if dailyPnL >= 0 {
		return 1.0
	}

	halfLimit := 0.5 * a.cfg.MaxDailyLoss
	if halfLimit <= 0 {
		return 1.0
	}

	if dailyPnL <= -halfLimit {
		return 0.5
	}

	// Linear interpolation between 1.0 at zero and 0.5 at -halfLimit.
	return 1.0 - 0.5*(-dailyPnL/halfLimit)
}

// timeMultiplier favors peak liquidity hours (14:00-20:00 UTC) and shrinks
// overnight sizing (00:00-08:00 UTC).
func timeMultiplier(now time.Time) float64 {
	hour := now.UTC().Hour()
	switch {
	case hour >= 14 && hour < 20:
		return 1.2
	case hour < 8:
		return 0.6
	default:
		return 1.0
	}
}

// dynamicBuffer reserves 2% of balance for shallow consumption of the top
// of book, scaling linearly to 10% when the trade would consume it all.
func dynamicBuffer(depthFraction float64) float64 {
	f := clamp(depthFraction, 0, 1)
	if f < 0.25 {
		return 0.02
	}
	return 0.02 + (f-0.25)/0.75*0.08
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
