package capital

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BalanceSource is the slice of the exchange client the tracker needs.
type BalanceSource interface {
	Name() string
	GetBalance(ctx context.Context, currency string) (float64, error)
}

// BalanceTracker polls venue balances in the background so the hot path
// reads a cached value instead of blocking on network I/O. A venue that
// cannot be queried reports the configured fallback balance.
type BalanceTracker struct {
	sources  []BalanceSource
	currency string
	interval time.Duration
	timeout  time.Duration
	fallback float64
	logger   *zap.Logger

	mu       sync.RWMutex
	balances map[string]float64

	wg sync.WaitGroup
}

// BalanceTrackerConfig holds tracker configuration.
type BalanceTrackerConfig struct {
	Sources  []BalanceSource
	Currency string
	Interval time.Duration
	Timeout  time.Duration
	Fallback float64
	Logger   *zap.Logger
}

// NewBalanceTracker creates a tracker.
func NewBalanceTracker(cfg BalanceTrackerConfig) *BalanceTracker {
	return &BalanceTracker{
		sources:  cfg.Sources,
		currency: cfg.Currency,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		fallback: cfg.Fallback,
		logger:   cfg.Logger,
		balances: make(map[string]float64),
	}
}

// Start fetches once immediately, then polls in the background.
func (t *BalanceTracker) Start(ctx context.Context) error {
	t.refresh(ctx)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.refresh(ctx)
			}
		}
	}()

	return nil
}

func (t *BalanceTracker) refresh(ctx context.Context) {
	for _, src := range t.sources {
		fetchCtx, cancel := context.WithTimeout(ctx, t.timeout)
		balance, err := src.GetBalance(fetchCtx, t.currency)
		cancel()

		if err != nil {
			t.logger.Warn("balance-fetch-failed-using-fallback",
				zap.String("exchange", src.Name()),
				zap.Float64("fallback", t.fallback),
				zap.Error(err))
			balance = t.fallback
		}

		t.mu.Lock()
		t.balances[src.Name()] = balance
		t.mu.Unlock()

		BalanceGauge.WithLabelValues(src.Name()).Set(balance)
	}
}

// Available returns the last known balance for a venue; the fallback if
// the venue has never been polled.
func (t *BalanceTracker) Available(exchange string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	balance, ok := t.balances[exchange]
	if !ok {
		return t.fallback
	}
	return balance
}

// Close waits for the polling goroutine.
func (t *BalanceTracker) Close() error {
	t.wg.Wait()
	return nil
}
