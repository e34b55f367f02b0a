// Package markets discovers venue markets, scores them, and keeps the
// best-quality ones subscribed for book data.
package markets

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/exchange"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/matcher"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/orderbook"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/scoring"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// Scored is a market with its current quality score.
type Scored struct {
	Market *types.Market
	Score  float64
}

// Config holds registry configuration.
type Config struct {
	Clients      map[string]exchange.Client
	Books        map[string]*orderbook.Manager
	Scorer       *scoring.Scorer
	Matcher      *matcher.Matcher // nil when cross-platform trading is off
	PollInterval time.Duration
	MinVolume    float64
	MinScore     float64
	MaxMarkets   int
	Logger       *zap.Logger
}

// Registry owns the set of monitored markets.
type Registry struct {
	cfg    Config
	logger *zap.Logger

	mu         sync.RWMutex
	markets    map[string]*types.Market // key: exchange ":" market ID
	scores     map[string]float64
	subscribed map[string]bool // key: exchange ":" token ID

	wg sync.WaitGroup
}

// New creates a registry.
func New(cfg Config) *Registry {
	return &Registry{
		cfg:        cfg,
		logger:     cfg.Logger,
		markets:    make(map[string]*types.Market),
		scores:     make(map[string]float64),
		subscribed: make(map[string]bool),
	}
}

// Run polls discovery until the context is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	r.logger.Info("market-registry-starting",
		zap.Duration("poll-interval", r.cfg.PollInterval),
		zap.Float64("min-volume", r.cfg.MinVolume),
		zap.Float64("min-score", r.cfg.MinScore),
		zap.Int("max-markets", r.cfg.MaxMarkets))

	err := r.poll(ctx)
	if err != nil {
		r.logger.Error("initial-poll-failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("market-registry-stopping")
			return ctx.Err()
		case <-ticker.C:
			err = r.poll(ctx)
			if err != nil {
				r.logger.Error("poll-failed", zap.Error(err))
			}
		}
	}
}

// poll fetches markets from every venue, rescores, and reconciles
// subscriptions toward the highest-quality set.
func (r *Registry) poll(ctx context.Context) error {
	start := time.Now()
	defer func() {
		PollDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	var firstErr error
	for name, client := range r.cfg.Clients {
		fetched, err := client.ListMarkets(ctx)
		if err != nil {
			PollErrorsTotal.Inc()
			if firstErr == nil {
				firstErr = fmt.Errorf("list markets %s: %w", name, err)
			}
			continue
		}

		r.ingest(name, fetched)
	}

	r.rescore(time.Now())
	r.reconcileSubscriptions(ctx)

	return firstErr
}

func (r *Registry) ingest(exchangeName string, fetched []*types.Market) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mk := range fetched {
		if mk.Volume < r.cfg.MinVolume {
			continue
		}
		if !mk.CloseAt.After(now) {
			continue
		}

		key := exchangeName + ":" + mk.ID
		if _, known := r.markets[key]; known {
			r.markets[key].Volume = mk.Volume
			continue
		}

		mk.Exchange = exchangeName
		r.markets[key] = mk
		MarketsDiscoveredTotal.Inc()

		if r.cfg.Matcher != nil {
			r.cfg.Matcher.AddMarket(mk)
		}

		r.logger.Info("market-discovered",
			zap.String("exchange", exchangeName),
			zap.String("slug", mk.Slug),
			zap.Float64("volume", mk.Volume))
	}

	// Drop markets past their close.
	for key, mk := range r.markets {
		if !mk.CloseAt.After(now) {
			delete(r.markets, key)
			delete(r.scores, key)
			if r.cfg.Matcher != nil {
				r.cfg.Matcher.RemoveMarket(mk.Exchange, mk.ID)
			}
		}
	}

	MarketsTracked.Set(float64(len(r.markets)))
}

// rescore recomputes quality scores from current books.
func (r *Registry) rescore(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, mk := range r.markets {
		books := r.cfg.Books[mk.Exchange]
		if books == nil {
			continue
		}
		yesBook, _ := books.Book(mk.Yes.TokenID)
		noBook, _ := books.Book(mk.No.TokenID)
		r.scores[key] = r.cfg.Scorer.Score(mk, yesBook, noBook, now)
	}
}

// reconcileSubscriptions subscribes books for the top-quality markets.
func (r *Registry) reconcileSubscriptions(ctx context.Context) {
	top := r.Top(r.cfg.MaxMarkets)

	want := make(map[string][]string) // exchange -> token IDs to subscribe
	for _, scored := range top {
		if scored.Score < r.cfg.MinScore && scored.Score > 0 {
			continue
		}

		mk := scored.Market
		for _, tokenID := range []string{mk.Yes.TokenID, mk.No.TokenID} {
			key := mk.Exchange + ":" + tokenID

			r.mu.RLock()
			already := r.subscribed[key]
			r.mu.RUnlock()

			if already {
				continue
			}
			want[mk.Exchange] = append(want[mk.Exchange], tokenID)
		}
	}

	for exchangeName, tokenIDs := range want {
		client := r.cfg.Clients[exchangeName]
		books := r.cfg.Books[exchangeName]

		for _, id := range tokenIDs {
			books.Track(id)
		}

		err := client.SubscribeBook(ctx, tokenIDs)
		if err != nil {
			r.logger.Error("subscribe-failed",
				zap.String("exchange", exchangeName),
				zap.Int("count", len(tokenIDs)),
				zap.Error(err))
			continue
		}

		r.mu.Lock()
		for _, id := range tokenIDs {
			r.subscribed[exchangeName+":"+id] = true
		}
		r.mu.Unlock()

		SubscriptionsTotal.Add(float64(len(tokenIDs)))
	}
}

// Top returns up to k markets sorted by score descending. A zero score
// (no book data yet) still qualifies: the first snapshot has to arrive
// before the score is meaningful.
func (r *Registry) Top(k int) []Scored {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Scored, 0, len(r.markets))
	for key, mk := range r.markets {
		out = append(out, Scored{Market: mk, Score: r.scores[key]})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Score returns the current score of one market.
func (r *Registry) Score(exchangeName, marketID string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scores[exchangeName+":"+marketID]
}

// Get returns a market by venue and ID.
func (r *Registry) Get(exchangeName, marketID string) (*types.Market, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mk, ok := r.markets[exchangeName+":"+marketID]
	return mk, ok
}

// Pairs returns current cross-venue pairs, empty when matching is off.
func (r *Registry) Pairs() []*types.MarketPair {
	if r.cfg.Matcher == nil {
		return nil
	}
	return r.cfg.Matcher.Pairs()
}

// Close waits for background work.
func (r *Registry) Close() error {
	r.wg.Wait()
	return nil
}
