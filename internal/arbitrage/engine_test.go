package arbitrage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/capital"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/exchange"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/execution"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/orderbook"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/position"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/risk"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/events"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// memorySink captures recorded trades for assertions.
type memorySink struct {
	mu     sync.Mutex
	trades []*types.Trade
}

func (s *memorySink) Record(ctx context.Context, trade *types.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trade)
	return nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

type harness struct {
	engine    *Engine
	venues    map[string]*exchange.SimClient
	books     map[string]*orderbook.Manager
	riskMgr   *risk.Manager
	positions *position.Monitor
	cooldown  *execution.Cooldown
	locks     *execution.LockTable
	hub       *events.Hub
	sink      *memorySink
}

// newHarness wires an engine against sim venues. The engine is not
// started: tests drive evaluate directly.
func newHarness(t *testing.T, cfg Config, venueNames ...string) *harness {
	t.Helper()

	logger := zap.NewNop()
	cfg.Logger = logger
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = 20
	}
	if cfg.MaxPositions == 0 {
		cfg.MaxPositions = 10
	}
	if cfg.OrderTimeout == 0 {
		cfg.OrderTimeout = 3 * time.Second
	}
	if cfg.Tick == 0 {
		cfg.Tick = 250 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := events.NewHub()
	sink := &memorySink{}

	venues := make(map[string]*exchange.SimClient)
	clients := make(map[string]exchange.Client)
	books := make(map[string]*orderbook.Manager)
	sources := make([]capital.BalanceSource, 0, len(venueNames))

	for _, name := range venueNames {
		venue := exchange.NewSimClient(exchange.SimConfig{
			Name:    name,
			FeePct:  cfg.FeePct,
			Balance: 1000,
		})
		venues[name] = venue
		clients[name] = venue
		sources = append(sources, venue)

		mgr := orderbook.New(&orderbook.Config{
			Exchange:  name,
			Logger:    logger,
			Hub:       hub,
			Requester: venue,
			Snapshots: venue.Snapshots(),
			Deltas:    venue.Deltas(),
		})
		if err := mgr.Start(ctx); err != nil {
			t.Fatalf("start orderbook manager: %v", err)
		}
		books[name] = mgr
	}

	riskMgr := risk.New(risk.Config{
		StopLoss:     0.05,
		TakeProfit:   0.10,
		MaxDailyLoss: 50,
		Logger:       logger,
		Hub:          hub,
	})
	if err := riskMgr.Start(ctx); err != nil {
		t.Fatalf("start risk manager: %v", err)
	}

	positions := position.NewMonitor(position.Config{
		Books:        books,
		Clients:      clients,
		Risk:         riskMgr,
		Hub:          hub,
		Logger:       logger,
		OrderTimeout: time.Second,
	})

	balances := capital.NewBalanceTracker(capital.BalanceTrackerConfig{
		Sources:  sources,
		Currency: "USDC",
		Interval: time.Hour,
		Timeout:  time.Second,
		Fallback: 1000,
		Logger:   logger,
	})
	if err := balances.Start(ctx); err != nil {
		t.Fatalf("start balance tracker: %v", err)
	}

	cooldown := execution.NewCooldown(30 * time.Second)
	locks := execution.NewLockTable()

	engine := New(cfg, Deps{
		Books:     books,
		Clients:   clients,
		Registry:  nil, // tests drive evaluate directly
		Allocator: capital.New(capital.Config{CapitalPerTrade: cfg.MinProfitDollars * 10, MaxDailyLoss: 50}),
		Balances:  balances,
		Risk:      riskMgr,
		Positions: positions,
		Cooldown:  cooldown,
		Locks:     locks,
		Sink:      sink,
		Hub:       hub,
	})
	engine.ctx = ctx
	engine.nowFn = func() time.Time {
		return time.Now()
	}

	return &harness{
		engine:    engine,
		venues:    venues,
		books:     books,
		riskMgr:   riskMgr,
		positions: positions,
		cooldown:  cooldown,
		locks:     locks,
		hub:       hub,
		sink:      sink,
	}
}

func (h *harness) setBook(t *testing.T, venue, tokenID string, bids, asks []types.BookLevel) {
	t.Helper()

	var prev uint64
	if book, ok := h.books[venue].Book(tokenID); ok {
		prev = book.Seq()
	}
	h.venues[venue].SetBook(tokenID, bids, asks)
	h.waitBook(t, venue, tokenID, prev)
}

// waitBook waits for a fresh book of tokenID whose sequence is past after.
func (h *harness) waitBook(t *testing.T, venue, tokenID string, after uint64) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if book, ok := h.books[venue].Book(tokenID); ok && book.Seq() > after && book.Age(time.Now()) < time.Second {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("book %s:%s never arrived", venue, tokenID)
}

func (h *harness) setAllocator(base float64) {
	h.engine.allocator = capital.New(capital.Config{CapitalPerTrade: base, MaxDailyLoss: 50})
}

func levels(pairs ...float64) []types.BookLevel {
	out := make([]types.BookLevel, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.BookLevel{
			Price: types.PriceFromFloat(pairs[i]),
			Size:  types.SizeFromFloat(pairs[i+1]),
		})
	}
	return out
}

func singleVenueTarget(score float64) target {
	return target{
		lockKey:     "polymarket:m1",
		marketID:    "m1",
		slug:        "test-market",
		question:    "Will X happen?",
		score:       score,
		yesExchange: "polymarket",
		noExchange:  "polymarket",
		yesTokenID:  "yes-tok",
		noTokenID:   "no-tok",
		yesTick:     types.PriceFromFloat(0.01),
		noTick:      types.PriceFromFloat(0.01),
	}
}

func expectEvent(t *testing.T, ch <-chan events.Event, want events.Type) events.Event {
	t.Helper()
	select {
	case e := <-ch:
		if e.Type != want {
			t.Fatalf("event = %s, want %s", e.Type, want)
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s event", want)
		return events.Event{}
	}
}

func expectNoEvent(t *testing.T, ch <-chan events.Event) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

// A profitable spread whose total take stays under the minimum dollar
// profit is detected but not traded.
func TestEngineRejectsBelowMinProfit(t *testing.T) {
	h := newHarness(t, Config{
		MinProfitMargin:  0.02,
		MinProfitDollars: 1.0,
		FeePct:           0.01,
		MaxSlippage:      0.005,
		MinScore:         50,
	}, "polymarket")
	h.setAllocator(10)

	h.setBook(t, "polymarket", "yes-tok", nil, levels(0.48, 100))
	h.setBook(t, "polymarket", "no-tok", nil, levels(0.49, 100))

	detected := h.hub.Subscribe(10, events.TypeOpportunityDetected)
	rejected := h.hub.Subscribe(10, events.TypeBelowMinProfit)

	h.engine.evaluate(singleVenueTarget(50))

	expectEvent(t, detected, events.TypeOpportunityDetected)
	e := expectEvent(t, rejected, events.TypeBelowMinProfit)
	if e.Amount >= 1.0 {
		t.Errorf("rejected profit = %f, want < 1.0", e.Amount)
	}

	if h.positions.Count() != 0 {
		t.Error("position opened despite below-min profit")
	}
	if h.sink.count() != 0 {
		t.Error("trades recorded despite below-min profit")
	}
	// No execution attempt was made, so no cooldown applies.
	if !h.cooldown.CanTrade("m1", time.Now()) {
		t.Error("cooldown recorded without an attempt")
	}
}

// A deep-book spread executes both legs and opens a balanced position.
func TestEngineExecutesDeepBookSpread(t *testing.T) {
	h := newHarness(t, Config{
		MinProfitMargin:  0.01,
		MinProfitDollars: 1.0,
		FeePct:           0.005,
		MaxSlippage:      0.005,
		MinScore:         50,
	}, "polymarket")
	h.setAllocator(50)

	h.setBook(t, "polymarket", "yes-tok", nil, levels(0.40, 50, 0.42, 100))
	h.setBook(t, "polymarket", "no-tok", nil, levels(0.45, 50, 0.47, 100))

	executed := h.hub.Subscribe(10, events.TypeTradeExecuted)
	opened := h.hub.Subscribe(10, events.TypePositionOpened)

	h.engine.evaluate(singleVenueTarget(60))

	e := expectEvent(t, executed, events.TypeTradeExecuted)
	if e.Amount <= 0 {
		t.Errorf("locked profit = %f, want > 0", e.Amount)
	}
	expectEvent(t, opened, events.TypePositionOpened)

	pos, ok := h.positions.Get("m1")
	if !ok {
		t.Fatal("no position opened")
	}

	// Arbitrage positions hold equal shares of both outcomes.
	if pos.YesShares != pos.NoShares {
		t.Fatalf("position parity violated: yes=%s no=%s", pos.YesShares, pos.NoShares)
	}
	if pos.YesShares < types.WholeShares(50) {
		t.Errorf("position size = %s, want >= 50 shares", pos.YesShares)
	}

	// Entry economics must clear the margin: the combined average entry
	// cost plus fees stays below 1 - margin.
	sum := pos.YesAvgPrice.Float64() + pos.NoAvgPrice.Float64()
	if sum*(1+0.005) >= 0.99 {
		t.Errorf("entry cost %f violates profit invariant", sum)
	}

	if h.sink.count() != 2 {
		t.Errorf("recorded %d trades, want 2", h.sink.count())
	}

	// An attempt was made: the market cools down.
	if h.cooldown.CanTrade("m1", time.Now()) {
		t.Error("cooldown not recorded after execution")
	}
}

// Adverse movement between detection and the recheck aborts the trade.
func TestEngineSlippageAbort(t *testing.T) {
	h := newHarness(t, Config{
		MinProfitMargin:  0.01,
		MinProfitDollars: 1.0,
		FeePct:           0.005,
		MaxSlippage:      0.005,
		MinScore:         50,
	}, "polymarket")

	h.setBook(t, "polymarket", "yes-tok", nil, levels(0.40, 150))
	h.setBook(t, "polymarket", "no-tok", nil, levels(0.45, 150))

	slipped := h.hub.Subscribe(10, events.TypeSlippageExceeded)

	// Detection saw 0.40; the book moves before the recheck.
	h.setBook(t, "polymarket", "yes-tok", nil, levels(0.46, 150))

	h.engine.executeSized(singleVenueTarget(60), types.WholeShares(50),
		types.PriceFromFloat(0.40), types.PriceFromFloat(0.45))

	expectEvent(t, slipped, events.TypeSlippageExceeded)

	if h.positions.Count() != 0 {
		t.Error("position opened despite slippage")
	}
	if h.sink.count() != 0 {
		t.Error("orders placed despite slippage")
	}
	// The attempt still cools the market down.
	if h.cooldown.CanTrade("m1", time.Now()) {
		t.Error("cooldown not recorded on slippage abort")
	}
}

// When one FOK leg fills and the other is rejected, the filled leg is
// market-sold into bids and the loss is realized.
func TestEnginePartialFillUnwound(t *testing.T) {
	h := newHarness(t, Config{
		MinProfitMargin:  0.01,
		MinProfitDollars: 1.0,
		FeePct:           0.005,
		MaxSlippage:      0.005,
		MinScore:         50,
	}, "polymarket")

	h.setBook(t, "polymarket", "yes-tok", levels(0.39, 50), levels(0.40, 150))
	h.setBook(t, "polymarket", "no-tok", nil, levels(0.45, 150))

	unwound := h.hub.Subscribe(10, events.TypePartialFillUnwound)

	h.venues["polymarket"].FailNextOrder("no-tok")

	h.engine.executeSized(singleVenueTarget(60), types.WholeShares(50),
		types.PriceFromFloat(0.40), types.PriceFromFloat(0.45))

	e := expectEvent(t, unwound, events.TypePartialFillUnwound)
	if e.Amount >= 0 {
		t.Errorf("unwind event amount = %f, want a loss", e.Amount)
	}

	if h.positions.Count() != 0 {
		t.Error("position opened from a partial fill")
	}

	// Entry BUY and defensive SELL both recorded.
	if h.sink.count() != 2 {
		t.Errorf("recorded %d trades, want 2", h.sink.count())
	}

	// The unwind loss lands in the daily P&L.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.riskMgr.DailySnapshot().DailyPnL < 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if pnl := h.riskMgr.DailySnapshot().DailyPnL; pnl >= 0 {
		t.Errorf("daily pnl = %f, want negative after unwind", pnl)
	}
}

// A risk halt blocks new evaluations entirely.
func TestEngineSkipsWhileHalted(t *testing.T) {
	h := newHarness(t, Config{
		MinProfitMargin:  0.01,
		MinProfitDollars: 1.0,
		FeePct:           0.005,
		MaxSlippage:      0.005,
		MinScore:         50,
	}, "polymarket")

	h.setBook(t, "polymarket", "yes-tok", nil, levels(0.40, 150))
	h.setBook(t, "polymarket", "no-tok", nil, levels(0.45, 150))

	h.riskMgr.RecordRealized("elsewhere", -60)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !h.riskMgr.Halted() {
		time.Sleep(5 * time.Millisecond)
	}
	if !h.riskMgr.Halted() {
		t.Fatal("risk manager never halted")
	}

	detected := h.hub.Subscribe(10, events.TypeOpportunityDetected)

	h.engine.evaluate(singleVenueTarget(60))

	expectNoEvent(t, detected)
	if h.positions.Count() != 0 {
		t.Error("position opened while halted")
	}
}

// A held execution lock makes the evaluator skip the market silently.
func TestEngineSkipsHeldLock(t *testing.T) {
	h := newHarness(t, Config{
		MinProfitMargin:  0.01,
		MinProfitDollars: 1.0,
		FeePct:           0.005,
		MaxSlippage:      0.005,
		MinScore:         50,
	}, "polymarket")

	h.setBook(t, "polymarket", "yes-tok", nil, levels(0.40, 150))
	h.setBook(t, "polymarket", "no-tok", nil, levels(0.45, 150))

	tgt := singleVenueTarget(60)
	if !h.locks.TryAcquire(tgt.lockKey) {
		t.Fatal("could not pre-acquire lock")
	}

	detected := h.hub.Subscribe(10, events.TypeOpportunityDetected)
	h.engine.evaluate(tgt)
	expectNoEvent(t, detected)

	// Lock is still held by the test, not leaked by the engine.
	if !h.locks.Held(tgt.lockKey) {
		t.Error("engine released a lock it did not take")
	}
}

// Cooldown separates successive attempts on the same market.
func TestEngineCooldownBlocksSecondAttempt(t *testing.T) {
	h := newHarness(t, Config{
		MinProfitMargin:  0.01,
		MinProfitDollars: 1.0,
		FeePct:           0.005,
		MaxSlippage:      0.005,
		MinScore:         50,
	}, "polymarket")
	h.setAllocator(50)

	h.setBook(t, "polymarket", "yes-tok", nil, levels(0.40, 500))
	h.setBook(t, "polymarket", "no-tok", nil, levels(0.45, 500))

	executed := h.hub.Subscribe(10, events.TypeTradeExecuted)

	h.engine.evaluate(singleVenueTarget(60))
	expectEvent(t, executed, events.TypeTradeExecuted)

	// The fill consumed depth but the spread persists; cooldown must
	// still block a second attempt.
	h.waitBook(t, "polymarket", "yes-tok", 0)
	h.engine.evaluate(singleVenueTarget(60))
	expectNoEvent(t, executed)

	if h.sink.count() != 2 {
		t.Errorf("recorded %d trades, want 2 (single attempt)", h.sink.count())
	}
}

// Cross-venue pairs execute one leg per venue.
func TestEngineCrossVenueExecution(t *testing.T) {
	h := newHarness(t, Config{
		MinProfitMargin:  0.02,
		MinProfitDollars: 1.0,
		FeePct:           0.01,
		MaxSlippage:      0.005,
		MinScore:         50,
		CrossPlatform:    true,
	}, "polymarket", "kalshi")
	h.setAllocator(20)

	h.setBook(t, "polymarket", "a-yes", nil, levels(0.46, 100))
	h.setBook(t, "kalshi", "b-no", nil, levels(0.49, 100))

	executed := h.hub.Subscribe(10, events.TypeTradeExecuted)

	tgt := target{
		lockKey:     "kalshi:b1|polymarket:a1",
		marketID:    "kalshi:b1|polymarket:a1",
		slug:        "will-x-win|x-to-win",
		question:    "Will X win?",
		score:       60,
		yesExchange: "polymarket",
		noExchange:  "kalshi",
		yesTokenID:  "a-yes",
		noTokenID:   "b-no",
		yesTick:     types.PriceFromFloat(0.01),
		noTick:      types.PriceFromFloat(0.01),
	}

	h.engine.evaluate(tgt)
	expectEvent(t, executed, events.TypeTradeExecuted)

	pos, ok := h.positions.Get(tgt.marketID)
	if !ok {
		t.Fatal("no cross-venue position opened")
	}
	if pos.YesExchange != "polymarket" || pos.NoExchange != "kalshi" {
		t.Errorf("legs on wrong venues: yes=%s no=%s", pos.YesExchange, pos.NoExchange)
	}
	if pos.YesShares != pos.NoShares {
		t.Errorf("parity violated: yes=%s no=%s", pos.YesShares, pos.NoShares)
	}

	// One BUY per venue.
	h.sink.mu.Lock()
	venuesSeen := map[string]bool{}
	for _, tr := range h.sink.trades {
		venuesSeen[tr.Exchange] = true
	}
	h.sink.mu.Unlock()
	if !venuesSeen["polymarket"] || !venuesSeen["kalshi"] {
		t.Errorf("trades not split across venues: %v", venuesSeen)
	}
}
