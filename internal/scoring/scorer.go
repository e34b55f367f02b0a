// Package scoring ranks markets by how worthwhile they are to monitor.
// The composite score in [0, 100] weighs traded volume, visible book
// liquidity, quoted spread, and time to resolution.
package scoring

import (
	"math"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/orderbook"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
)

// Weights control the contribution of each sub-score.
type Weights struct {
	Volume    float64
	Liquidity float64
	Spread    float64
	TimeLeft  float64
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Volume:    0.35,
		Liquidity: 0.30,
		Spread:    0.20,
		TimeLeft:  0.15,
	}
}

const (
	// referenceVolume is the traded volume that earns a full volume score.
	referenceVolume = 1_000_000.0
	// referenceLiquidity is the top-of-book share depth (top 5 levels,
	// both sides, both tokens) that earns a full liquidity score.
	referenceLiquidity = 10_000.0
	// widestScoredSpread is the quoted spread beyond which the spread
	// sub-score reaches zero.
	widestScoredSpread = 0.10
	liquidityLevels    = 5
)

// Scorer computes market quality scores.
type Scorer struct {
	weights Weights
}

// New creates a scorer.
func New(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score rates a market given the live books of its two tokens. Either book
// may be nil before the first snapshot; the missing sub-scores are zero.
func (s *Scorer) Score(m *types.Market, yesBook, noBook *orderbook.Book, now time.Time) float64 {
	score := s.weights.Volume*volumeScore(m.Volume) +
		s.weights.Liquidity*liquidityScore(yesBook, noBook) +
		s.weights.Spread*spreadScore(yesBook, noBook) +
		s.weights.TimeLeft*timeScore(m.CloseAt.Sub(now))

	return clamp(score, 0, 100)
}

// volumeScore is log-scaled against the reference volume.
func volumeScore(volume float64) float64 {
	if volume <= 0 {
		return 0
	}
	return clamp(100*math.Log1p(volume)/math.Log1p(referenceVolume), 0, 100)
}

// liquidityScore sums the top-5 bid and ask sizes of both tokens.
func liquidityScore(yesBook, noBook *orderbook.Book) float64 {
	var shares float64
	for _, book := range []*orderbook.Book{yesBook, noBook} {
		if book == nil {
			continue
		}
		for _, side := range []types.BookSide{types.BidSide, types.AskSide} {
			for _, lvl := range book.Walk(side, liquidityLevels) {
				shares += lvl.Size.Float64()
			}
		}
	}
	return clamp(100*shares/referenceLiquidity, 0, 100)
}

// spreadScore inverts the average quoted spread of the two tokens: tighter
// books score higher. A one-sided or empty book scores zero.
func spreadScore(yesBook, noBook *orderbook.Book) float64 {
	var total float64
	var counted int

	for _, book := range []*orderbook.Book{yesBook, noBook} {
		if book == nil {
			return 0
		}
		bid, okBid := book.Best(types.BidSide)
		ask, okAsk := book.Best(types.AskSide)
		if !okBid || !okAsk {
			return 0
		}
		total += ask.Price.Float64() - bid.Price.Float64()
		counted++
	}

	avg := total / float64(counted)
	return clamp(100*(1-avg/widestScoredSpread), 0, 100)
}

// timeScore is bell-shaped over time to resolution: markets closing within
// the hour are hard to fill and settle, markets further than thirty days
// out tie up capital.
func timeScore(until time.Duration) float64 {
	hours := until.Hours()

	switch {
	case hours <= 0:
		return 0
	case hours < 1:
		return 40 * hours
	case hours <= 48:
		return 40 + 60*(hours-1)/47
	case hours <= 720:
		return 100 - 40*(hours-48)/672
	default:
		return clamp(60-(hours-720)/24, 0, 60)
	}
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
