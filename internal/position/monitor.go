// Package position tracks open arbitrage positions, marks them to market
// against live bids, and drives exits signalled by the risk manager.
package position

import (
	"context"
	"sync"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/exchange"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/orderbook"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/risk"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/events"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// Position is one open paired holding. For arbitrage entries the two legs
// always carry equal share counts; the legs may sit on different venues
// for cross-platform pairs.
type Position struct {
	MarketID    string
	YesExchange string
	NoExchange  string
	YesTokenID  string
	NoTokenID   string
	YesShares   types.Size
	NoShares    types.Size
	YesAvgPrice types.Price
	NoAvgPrice  types.Price
	OpenedAt    time.Time
	RealizedPnL float64
}

// CostBasis returns the USD spent opening the position.
func (p *Position) CostBasis() float64 {
	return p.YesAvgPrice.Float64()*p.YesShares.Float64() +
		p.NoAvgPrice.Float64()*p.NoShares.Float64()
}

// Config holds position monitor configuration.
type Config struct {
	Books           map[string]*orderbook.Manager // keyed by exchange
	Clients         map[string]exchange.Client    // keyed by exchange
	Risk            *risk.Manager
	Hub             *events.Hub
	Logger          *zap.Logger
	PollInterval    time.Duration // mark-to-market cadence
	ExitRetryWindow time.Duration // how long to chase residual exits
	OrderTimeout    time.Duration
}

// Monitor owns all open positions.
type Monitor struct {
	cfg    Config
	logger *zap.Logger

	mu        sync.RWMutex
	positions map[string]*Position
	exiting   map[string]bool

	ctx context.Context
	wg  sync.WaitGroup
}

// NewMonitor creates a position monitor.
func NewMonitor(cfg Config) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.ExitRetryWindow <= 0 {
		cfg.ExitRetryWindow = 30 * time.Second
	}

	return &Monitor{
		cfg:       cfg,
		logger:    cfg.Logger,
		positions: make(map[string]*Position),
		exiting:   make(map[string]bool),
	}
}

// Start begins the mark-to-market loop and the exit signal drain.
func (m *Monitor) Start(ctx context.Context) error {
	m.ctx = ctx
	m.logger.Info("position-monitor-starting",
		zap.Duration("poll-interval", m.cfg.PollInterval))

	m.wg.Add(2)
	go m.markLoop()
	go m.exitLoop()

	return nil
}

// Open records a new position or augments an existing one with
// size-weighted average prices.
func (m *Monitor) Open(p *Position) {
	m.mu.Lock()

	existing, ok := m.positions[p.MarketID]
	if !ok {
		m.positions[p.MarketID] = p
	} else {
		existing.YesAvgPrice = weightedAvg(existing.YesAvgPrice, existing.YesShares, p.YesAvgPrice, p.YesShares)
		existing.NoAvgPrice = weightedAvg(existing.NoAvgPrice, existing.NoShares, p.NoAvgPrice, p.NoShares)
		existing.YesShares += p.YesShares
		existing.NoShares += p.NoShares
	}

	count := len(m.positions)
	m.mu.Unlock()

	OpenPositions.Set(float64(count))

	m.cfg.Hub.Publish(events.Event{
		Type:     events.TypePositionOpened,
		MarketID: p.MarketID,
		Amount:   p.CostBasis(),
	})

	m.logger.Info("position-opened",
		zap.String("market-id", p.MarketID),
		zap.String("yes-shares", p.YesShares.String()),
		zap.String("no-shares", p.NoShares.String()),
		zap.String("yes-avg", p.YesAvgPrice.String()),
		zap.String("no-avg", p.NoAvgPrice.String()))
}

// Count returns the number of open positions.
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.positions)
}

// Get returns a copy of one position.
func (m *Monitor) Get(marketID string) (Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.positions[marketID]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// All returns copies of every open position.
func (m *Monitor) All() []Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, *p)
	}
	return out
}

// markLoop computes unrealized P&L against best bids and forwards ticks to
// the risk manager.
func (m *Monitor) markLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("position-monitor-stopping")
			return
		case <-ticker.C:
			for _, p := range m.All() {
				m.mark(&p)
			}
		}
	}
}

func (m *Monitor) mark(p *Position) {
	yesBid, okYes := m.bestBid(p.YesExchange, p.YesTokenID)
	noBid, okNo := m.bestBid(p.NoExchange, p.NoTokenID)
	if !okYes || !okNo {
		return
	}

	shares := p.YesShares.Float64()
	unrealized := shares * (yesBid.Float64() + noBid.Float64() -
		p.YesAvgPrice.Float64() - p.NoAvgPrice.Float64())

	UnrealizedPnLUSD.WithLabelValues(p.MarketID).Set(unrealized)

	m.cfg.Risk.PositionTick(risk.Tick{
		MarketID:      p.MarketID,
		UnrealizedPnL: unrealized,
		CostBasis:     p.CostBasis(),
	})
}

func (m *Monitor) bestBid(exchangeName, tokenID string) (types.Price, bool) {
	books, ok := m.cfg.Books[exchangeName]
	if !ok {
		return 0, false
	}
	book, ok := books.Book(tokenID)
	if !ok {
		return 0, false
	}
	best, ok := book.Best(types.BidSide)
	if !ok {
		return 0, false
	}
	return best.Price, true
}

// exitLoop drains exit signals from the risk manager.
func (m *Monitor) exitLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case sig, ok := <-m.cfg.Risk.ExitSignals():
			if !ok {
				return
			}
			m.beginExit(sig)
		}
	}
}

func (m *Monitor) beginExit(sig risk.ExitSignal) {
	m.mu.Lock()
	p, ok := m.positions[sig.MarketID]
	if !ok || m.exiting[sig.MarketID] {
		m.mu.Unlock()
		return
	}
	m.exiting[sig.MarketID] = true
	snapshot := *p
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.exit(&snapshot, sig.Reason)
	}()
}

// exit sells both legs into available bids, one leg after the other. Every
// attempt carries a zero limit, so any bid is taken; residual size is
// retried every 2 s until the retry window expires.
func (m *Monitor) exit(p *Position, reason risk.ExitReason) {
	m.logger.Info("exiting-position",
		zap.String("market-id", p.MarketID),
		zap.String("reason", string(reason)))

	deadline := time.Now().Add(m.cfg.ExitRetryWindow)

	yesRemaining, yesProceeds := m.sellUntil(p.YesExchange, p.YesTokenID, p.YesShares, deadline)
	noRemaining, noProceeds := m.sellUntil(p.NoExchange, p.NoTokenID, p.NoShares, deadline)

	soldCost := p.YesAvgPrice.Float64()*(p.YesShares-yesRemaining).Float64() +
		p.NoAvgPrice.Float64()*(p.NoShares-noRemaining).Float64()
	realized := yesProceeds + noProceeds - soldCost

	m.cfg.Risk.RecordRealized(p.MarketID, realized)

	if yesRemaining > 0 || noRemaining > 0 {
		m.logger.Warn("exit-incomplete",
			zap.String("market-id", p.MarketID),
			zap.String("yes-residual", yesRemaining.String()),
			zap.String("no-residual", noRemaining.String()))

		m.cfg.Hub.Publish(events.Event{
			Type:     events.TypeExitIncomplete,
			MarketID: p.MarketID,
			Amount:   realized,
			Detail:   string(reason),
		})

		m.mu.Lock()
		if live, ok := m.positions[p.MarketID]; ok {
			live.YesShares = yesRemaining
			live.NoShares = noRemaining
			live.RealizedPnL += realized
		}
		delete(m.exiting, p.MarketID)
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	delete(m.positions, p.MarketID)
	delete(m.exiting, p.MarketID)
	count := len(m.positions)
	m.mu.Unlock()

	OpenPositions.Set(float64(count))
	UnrealizedPnLUSD.DeleteLabelValues(p.MarketID)

	m.cfg.Risk.PositionClosed(p.MarketID)

	m.cfg.Hub.Publish(events.Event{
		Type:     events.TypePositionClosed,
		MarketID: p.MarketID,
		Amount:   realized,
		Detail:   string(reason),
	})

	m.logger.Info("position-closed",
		zap.String("market-id", p.MarketID),
		zap.Float64("realized-pnl", realized),
		zap.String("reason", string(reason)))
}

// sellUntil sells size shares of a token into bids, retrying until filled
// or the deadline passes. The first attempt is made even when the deadline
// has already passed. Returns the unfilled residual and USD proceeds.
func (m *Monitor) sellUntil(exchangeName, tokenID string, size types.Size, deadline time.Time) (types.Size, float64) {
	client, ok := m.cfg.Clients[exchangeName]
	if !ok {
		return size, 0
	}

	remaining := size
	var proceeds float64

	for attempt := 0; remaining > 0 && (attempt == 0 || time.Now().Before(deadline)); attempt++ {
		ctx, cancel := context.WithTimeout(m.ctx, m.cfg.OrderTimeout)
		res, err := client.PlaceOrder(ctx, exchange.OrderRequest{
			TokenID:     tokenID,
			Side:        types.Sell,
			Price:       0, // take whatever bids exist
			Size:        remaining,
			TimeInForce: exchange.IOC,
		})
		cancel()

		if err != nil {
			m.logger.Warn("exit-sell-failed",
				zap.String("token-id", tokenID),
				zap.Error(err))
		} else if res.Filled() {
			proceeds += res.Price.Float64()*res.Size.Float64() - res.Fee
			remaining -= res.Size
		}

		if remaining > 0 {
			select {
			case <-m.ctx.Done():
				return remaining, proceeds
			case <-time.After(2 * time.Second):
			}
		}
	}

	return remaining, proceeds
}

// Close waits for in-flight work.
func (m *Monitor) Close() error {
	m.logger.Info("closing-position-monitor")
	m.wg.Wait()
	m.logger.Info("position-monitor-closed")
	return nil
}

func weightedAvg(p1 types.Price, s1 types.Size, p2 types.Price, s2 types.Size) types.Price {
	total := s1 + s2
	if total == 0 {
		return 0
	}
	return types.Price((int64(p1)*int64(s1) + int64(p2)*int64(s2)) / int64(total))
}
