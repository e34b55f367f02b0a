package arbitrage

import (
	"sort"
	"sync"
	"time"
)

const (
	// replaceHysteresis guards against churn: a new same-market
	// opportunity must beat the cached ROI by 5% to replace it.
	replaceHysteresis = 1.05
	// replaceAge is the cache entry age beyond which any newer
	// opportunity replaces it regardless of ROI.
	replaceAge = 2 * time.Second
)

// OpportunityCache keeps the current best opportunity per market.
type OpportunityCache struct {
	mu      sync.Mutex
	entries map[string]*Opportunity
}

// NewOpportunityCache creates an empty cache.
func NewOpportunityCache() *OpportunityCache {
	return &OpportunityCache{entries: make(map[string]*Opportunity)}
}

// Insert stores o unless a same-market entry with meaningfully better ROI
// is already cached. Returns whether o became the live entry.
func (c *OpportunityCache) Insert(o *Opportunity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.entries[o.MarketID]
	if ok {
		fresh := o.ObservedAt.Sub(existing.ObservedAt) < replaceAge
		if fresh && o.ROI <= existing.ROI*replaceHysteresis {
			return false
		}
	}

	c.entries[o.MarketID] = o
	CacheSize.Set(float64(len(c.entries)))
	return true
}

// Get returns the cached opportunity for a market.
func (c *OpportunityCache) Get(marketID string) (*Opportunity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	o, ok := c.entries[marketID]
	return o, ok
}

// TopK returns up to k opportunities sorted by ROI descending.
func (c *OpportunityCache) TopK(k int) []*Opportunity {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*Opportunity, 0, len(c.entries))
	for _, o := range c.entries {
		out = append(out, o)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ROI > out[j].ROI
	})

	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Remove drops one market's entry.
func (c *OpportunityCache) Remove(marketID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, marketID)
	CacheSize.Set(float64(len(c.entries)))
}

// Purge removes entries whose predicate reports stale (typically: the
// underlying book has not updated within the staleness horizon).
func (c *OpportunityCache) Purge(stale func(o *Opportunity) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for marketID, o := range c.entries {
		if stale(o) {
			delete(c.entries, marketID)
			removed++
		}
	}

	if removed > 0 {
		CacheSize.Set(float64(len(c.entries)))
		CachePurgedTotal.Add(float64(removed))
	}
	return removed
}
