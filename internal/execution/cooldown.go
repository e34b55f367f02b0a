package execution

import (
	"sync"
	"time"
)

// Cooldown enforces a minimum interval between execution attempts on the
// same market. An attempt counts regardless of fill outcome.
type Cooldown struct {
	interval time.Duration

	mu   sync.Mutex
	last map[string]time.Time
}

// NewCooldown creates a cooldown manager.
func NewCooldown(interval time.Duration) *Cooldown {
	return &Cooldown{
		interval: interval,
		last:     make(map[string]time.Time),
	}
}

// CanTrade reports whether the market is outside its cooldown window.
func (c *Cooldown) CanTrade(marketID string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.last[marketID]
	if !ok {
		return true
	}
	return now.Sub(last) >= c.interval
}

// Record marks an execution attempt. Call immediately after every attempt,
// filled or not.
func (c *Cooldown) Record(marketID string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last[marketID] = now
}

// LastAttempt returns the last recorded attempt time for a market.
func (c *Cooldown) LastAttempt(marketID string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.last[marketID]
	return last, ok
}
