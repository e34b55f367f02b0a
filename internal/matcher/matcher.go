// Package matcher pairs equivalent markets across venues by title
// similarity so the engine can arbitrage one venue's YES against the
// other's NO.
package matcher

import (
	"sync"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/cache"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

const (
	// minSimilarity is the Jaccard threshold for forming a pair.
	minSimilarity = 0.80
	// maxCloseSkew is the largest allowed gap between the two markets'
	// closure times.
	maxCloseSkew = 24 * time.Hour

	titleCacheTTL = 24 * time.Hour
)

// Matcher maintains cross-venue market pairs.
type Matcher struct {
	logger *zap.Logger
	cache  cache.Cache

	mu         sync.RWMutex
	byExchange map[string][]*types.Market
	pairs      map[string]*types.MarketPair
}

// New creates a matcher. The cache, when provided, memoizes normalized
// titles across discovery polls.
func New(logger *zap.Logger, titleCache cache.Cache) *Matcher {
	return &Matcher{
		logger:     logger,
		cache:      titleCache,
		byExchange: make(map[string][]*types.Market),
		pairs:      make(map[string]*types.MarketPair),
	}
}

// tokens returns the normalized token set for a market title.
func (m *Matcher) tokens(mk *types.Market) []string {
	key := "title:" + mk.Exchange + ":" + mk.ID

	if m.cache != nil {
		if cached, ok := m.cache.Get(key); ok {
			if toks, ok := cached.([]string); ok {
				return toks
			}
		}
	}

	toks := Normalize(mk.Question)

	if m.cache != nil {
		m.cache.Set(key, toks, titleCacheTTL)
	}

	return toks
}

// AddMarket registers a market and returns any new pairs it forms with
// markets from other venues.
func (m *Matcher) AddMarket(mk *types.Market) []*types.MarketPair {
	mkTokens := m.tokens(mk)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.byExchange[mk.Exchange] {
		if existing.ID == mk.ID {
			return nil
		}
	}
	m.byExchange[mk.Exchange] = append(m.byExchange[mk.Exchange], mk)

	var formed []*types.MarketPair
	for exchangeName, markets := range m.byExchange {
		if exchangeName == mk.Exchange {
			continue
		}

		for _, other := range markets {
			skew := mk.CloseAt.Sub(other.CloseAt)
			if skew < 0 {
				skew = -skew
			}
			if skew > maxCloseSkew {
				continue
			}

			similarity := Jaccard(mkTokens, m.tokens(other))
			if similarity < minSimilarity {
				continue
			}

			pair := &types.MarketPair{A: other, B: mk, Similarity: similarity}
			if _, exists := m.pairs[pair.Key()]; exists {
				continue
			}

			m.pairs[pair.Key()] = pair
			formed = append(formed, pair)

			PairsFormed.Inc()
			m.logger.Info("market-pair-formed",
				zap.String("a", other.Exchange+":"+other.Slug),
				zap.String("b", mk.Exchange+":"+mk.Slug),
				zap.Float64("similarity", similarity))
		}
	}

	return formed
}

// Pairs returns all current pairs.
func (m *Matcher) Pairs() []*types.MarketPair {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.MarketPair, 0, len(m.pairs))
	for _, p := range m.pairs {
		out = append(out, p)
	}
	return out
}

// RemoveMarket drops a market and any pairs it participates in.
func (m *Matcher) RemoveMarket(exchangeName, marketID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	markets := m.byExchange[exchangeName]
	for i, mk := range markets {
		if mk.ID == marketID {
			m.byExchange[exchangeName] = append(markets[:i], markets[i+1:]...)
			break
		}
	}

	for key, pair := range m.pairs {
		if (pair.A.Exchange == exchangeName && pair.A.ID == marketID) ||
			(pair.B.Exchange == exchangeName && pair.B.ID == marketID) {
			delete(m.pairs, key)
		}
	}
}
