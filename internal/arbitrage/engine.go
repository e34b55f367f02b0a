package arbitrage

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/capital"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/exchange"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/execution"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/impact"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/markets"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/orderbook"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/position"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/risk"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/storage"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/events"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

const (
	// maxBookAge is the freshness bound for detection: older books are
	// not evaluated.
	maxBookAge = 2 * time.Second
	// purgeHorizon is the staleness bound for cached opportunities.
	purgeHorizon = 10 * time.Second
)

// Config holds engine configuration.
type Config struct {
	MinProfitMargin  float64
	MinProfitDollars float64
	FeePct           float64
	MaxSlippage      float64
	MinScore         float64
	MaxPositions     int
	MaxDepth         int
	TopK             int
	Tick             time.Duration
	OrderTimeout     time.Duration
	CrossPlatform    bool
	Logger           *zap.Logger
}

// MarketSource supplies the engine's evaluation universe. Implemented by
// the markets registry.
type MarketSource interface {
	Top(k int) []markets.Scored
	Pairs() []*types.MarketPair
	Score(exchangeName, marketID string) float64
}

// Engine drives the detect, size, gate, allocate, recheck, execute cycle
// for every monitored market once per tick.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	books     map[string]*orderbook.Manager
	clients   map[string]exchange.Client
	registry  MarketSource
	allocator *capital.Allocator
	balances  *capital.BalanceTracker
	riskMgr   *risk.Manager
	positions *position.Monitor
	cooldown  *execution.Cooldown
	locks     *execution.LockTable
	sink      storage.TradeSink
	hub       *events.Hub
	cache     *OpportunityCache

	nowFn func() time.Time

	ctx  context.Context
	jobs chan target
	wg   sync.WaitGroup
}

// Deps bundles the engine's collaborators.
type Deps struct {
	Books     map[string]*orderbook.Manager
	Clients   map[string]exchange.Client
	Registry  MarketSource
	Allocator *capital.Allocator
	Balances  *capital.BalanceTracker
	Risk      *risk.Manager
	Positions *position.Monitor
	Cooldown  *execution.Cooldown
	Locks     *execution.LockTable
	Sink      storage.TradeSink
	Hub       *events.Hub
}

// target is one evaluation unit: a single-venue market or one orientation
// of a cross-venue pair. Cross orientations share the pair's lock key.
type target struct {
	lockKey  string
	marketID string
	slug     string
	question string
	score    float64

	yesExchange string
	noExchange  string
	yesTokenID  string
	noTokenID   string
	yesTick     types.Price
	noTick      types.Price
}

// New creates an engine.
func New(cfg Config, deps Deps) *Engine {
	return &Engine{
		cfg:       cfg,
		logger:    cfg.Logger,
		books:     deps.Books,
		clients:   deps.Clients,
		registry:  deps.Registry,
		allocator: deps.Allocator,
		balances:  deps.Balances,
		riskMgr:   deps.Risk,
		positions: deps.Positions,
		cooldown:  deps.Cooldown,
		locks:     deps.Locks,
		sink:      deps.Sink,
		hub:       deps.Hub,
		cache:     NewOpportunityCache(),
		nowFn:     time.Now,
		jobs:      make(chan target, 256),
	}
}

// Cache exposes the live opportunity set for the HTTP surface.
func (e *Engine) Cache() *OpportunityCache {
	return e.cache
}

// Start launches the detection loop and worker pool.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx = ctx

	workers := e.cfg.MaxPositions
	if n := runtime.GOMAXPROCS(0); n < workers {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	e.logger.Info("arbitrage-engine-starting",
		zap.Float64("min-profit-margin", e.cfg.MinProfitMargin),
		zap.Float64("min-profit-dollars", e.cfg.MinProfitDollars),
		zap.Float64("fee-pct", e.cfg.FeePct),
		zap.Int("workers", workers),
		zap.Bool("cross-platform", e.cfg.CrossPlatform))

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}

	e.wg.Add(1)
	go e.tickLoop()

	return nil
}

func (e *Engine) tickLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.Tick)
	defer ticker.Stop()

	purge := time.NewTicker(time.Second)
	defer purge.Stop()

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("arbitrage-engine-stopping")
			close(e.jobs)
			return
		case <-purge.C:
			e.purgeStale()
		case <-ticker.C:
			for _, t := range e.targets() {
				select {
				case e.jobs <- t:
				default:
					// Workers saturated; the market is retried next tick.
				}
			}
		}
	}
}

func (e *Engine) worker() {
	defer e.wg.Done()

	for t := range e.jobs {
		start := time.Now()
		e.evaluate(t)
		EvaluationDurationSeconds.Observe(time.Since(start).Seconds())
	}
}

// targets enumerates this tick's evaluation units: the top-K scored
// markets plus, when enabled, both orientations of every cross-venue pair.
func (e *Engine) targets() []target {
	var out []target

	for _, scored := range e.registry.Top(e.cfg.TopK) {
		mk := scored.Market
		out = append(out, target{
			lockKey:     mk.Exchange + ":" + mk.ID,
			marketID:    mk.ID,
			slug:        mk.Slug,
			question:    mk.Question,
			score:       scored.Score,
			yesExchange: mk.Exchange,
			noExchange:  mk.Exchange,
			yesTokenID:  mk.Yes.TokenID,
			noTokenID:   mk.No.TokenID,
			yesTick:     mk.TickSize,
			noTick:      mk.TickSize,
		})
	}

	if !e.cfg.CrossPlatform {
		return out
	}

	for _, pair := range e.registry.Pairs() {
		scoreA := e.registry.Score(pair.A.Exchange, pair.A.ID)
		scoreB := e.registry.Score(pair.B.Exchange, pair.B.ID)
		score := scoreA
		if scoreB < score {
			score = scoreB
		}

		// Both orientations: A-YES with B-NO, and B-YES with A-NO.
		out = append(out,
			target{
				lockKey:     pair.Key(),
				marketID:    pair.Key(),
				slug:        pair.A.Slug + "|" + pair.B.Slug,
				question:    pair.A.Question,
				score:       score,
				yesExchange: pair.A.Exchange,
				noExchange:  pair.B.Exchange,
				yesTokenID:  pair.A.Yes.TokenID,
				noTokenID:   pair.B.No.TokenID,
				yesTick:     pair.A.TickSize,
				noTick:      pair.B.TickSize,
			},
			target{
				lockKey:     pair.Key(),
				marketID:    pair.Key(),
				slug:        pair.B.Slug + "|" + pair.A.Slug,
				question:    pair.B.Question,
				score:       score,
				yesExchange: pair.B.Exchange,
				noExchange:  pair.A.Exchange,
				yesTokenID:  pair.B.Yes.TokenID,
				noTokenID:   pair.A.No.TokenID,
				yesTick:     pair.B.TickSize,
				noTick:      pair.A.TickSize,
			},
		)
	}

	return out
}

// evaluate runs the full critical section for one target under its
// execution lock. A held lock means a trade is already in flight there.
func (e *Engine) evaluate(t target) {
	if e.riskMgr.Halted() {
		SkipsTotal.WithLabelValues("risk_halted").Inc()
		return
	}

	if !e.locks.TryAcquire(t.lockKey) {
		execution.LockSkipsTotal.Inc()
		return
	}
	defer e.locks.Release(t.lockKey)

	e.evaluateLocked(t)
}

func (e *Engine) evaluateLocked(t target) {
	now := e.nowFn()

	// Detect: both books must exist, be fresh, and quote asks.
	yesAsks, ok := e.freshAsks(t.yesExchange, t.yesTokenID, now)
	if !ok {
		SkipsTotal.WithLabelValues("book_unusable").Inc()
		return
	}
	noAsks, ok := e.freshAsks(t.noExchange, t.noTokenID, now)
	if !ok {
		SkipsTotal.WithLabelValues("book_unusable").Inc()
		return
	}

	// Size search: the largest whole-share count that clears the margin
	// inequality on both legs' depth.
	shares := e.searchSize(t, yesAsks, noAsks)
	if shares <= 0 {
		return
	}

	yesRes := impact.EffectivePrice(yesAsks, shares)
	noRes := impact.EffectivePrice(noAsks, shares)

	opp := newOpportunity(
		t.marketID, t.slug, t.question,
		t.yesExchange, t.noExchange,
		t.yesTokenID, t.noTokenID,
		yesAsks, noAsks,
		shares, yesRes.EffPrice, noRes.EffPrice,
		e.cfg.FeePct, t.score,
	)

	if e.cache.Insert(opp) {
		OpportunitiesDetectedTotal.Inc()
		OpportunityROI.Observe(opp.ROI)

		e.hub.Publish(events.Event{
			Type:     events.TypeOpportunityDetected,
			Exchange: t.yesExchange,
			MarketID: t.marketID,
			Amount:   opp.NetProfit,
		})

		e.logger.Info("opportunity-detected",
			zap.String("opportunity-id", opp.ID),
			zap.String("slug", opp.Slug),
			zap.String("yes-eff", opp.YesEffPrice.String()),
			zap.String("no-eff", opp.NoEffPrice.String()),
			zap.String("shares", opp.Shares.String()),
			zap.Float64("net-profit", opp.NetProfit),
			zap.Float64("roi", opp.ROI))
	}

	// Quality gates.
	if !e.gates(t, now) {
		return
	}

	// Allocate capital and shrink to the allocator's sizing.
	shares = e.allocate(t, opp, yesAsks, noAsks, now)
	if shares <= 0 {
		return
	}

	// The final size must still clear the minimum dollar profit.
	yesRes = impact.EffectivePrice(yesAsks, shares)
	noRes = impact.EffectivePrice(noAsks, shares)
	if _, _, net, _ := entryEconomics(shares, yesRes.EffPrice, noRes.EffPrice, e.cfg.FeePct); net < e.cfg.MinProfitDollars {
		SkipsTotal.WithLabelValues("below_min_profit").Inc()
		e.hub.Publish(events.Event{
			Type:     events.TypeBelowMinProfit,
			MarketID: t.marketID,
			Amount:   net,
		})
		e.logger.Info("opportunity-below-min-profit",
			zap.String("slug", t.slug),
			zap.Float64("net-profit", net),
			zap.Float64("min-profit-dollars", e.cfg.MinProfitDollars))
		return
	}

	e.executeSized(t, shares, yesRes.EffPrice, noRes.EffPrice)
}

// freshAsks returns a token's ask levels when the book is usable for
// detection: tracked, not paused, updated within maxBookAge, non-empty.
func (e *Engine) freshAsks(exchangeName, tokenID string, now time.Time) ([]types.BookLevel, bool) {
	books, ok := e.books[exchangeName]
	if !ok {
		return nil, false
	}
	book, ok := books.Book(tokenID)
	if !ok || book.Paused() || book.Age(now) > maxBookAge {
		return nil, false
	}

	asks := book.Walk(types.AskSide, e.cfg.MaxDepth)
	if len(asks) == 0 {
		return nil, false
	}
	return asks, true
}

// searchSize binary-searches the largest whole-share count n such that
// eff_yes(n) + eff_no(n) plus fees does not exceed 1 - margin on both legs'
// available depth and within affordable balance.
func (e *Engine) searchSize(t target, yesAsks, noAsks []types.BookLevel) types.Size {
	maxShares := impact.Depth(yesAsks).Shares()
	if n := impact.Depth(noAsks).Shares(); n < maxShares {
		maxShares = n
	}

	// Bound by what the venue balances can pay for at top of book.
	bestSum := yesAsks[0].Price.Float64() + noAsks[0].Price.Float64()
	if bestSum > 0 {
		balance := e.balances.Available(t.yesExchange)
		if b := e.balances.Available(t.noExchange); t.noExchange != t.yesExchange && b < balance {
			balance = b
		}
		if affordable := int64(balance / bestSum); affordable < maxShares {
			maxShares = affordable
		}
	}

	if maxShares < 1 {
		return 0
	}

	ok := func(n int64) bool {
		size := types.WholeShares(n)
		yes := impact.EffectivePrice(yesAsks, size)
		no := impact.EffectivePrice(noAsks, size)
		if yes.DepthExhausted || no.DepthExhausted {
			return false
		}
		return e.marginOK(yes.EffPrice, no.EffPrice)
	}

	if !ok(1) {
		return 0
	}

	lo, hi := int64(1), maxShares
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

// marginOK checks eff_yes + eff_no + fees <= 1 - margin in fixed point.
// The per-share fee is TRADING_FEE_PERCENT of each leg's effective price.
func (e *Engine) marginOK(yesEff, noEff types.Price) bool {
	sum := int64(yesEff) + int64(noEff)
	fee := int64(e.cfg.FeePct * float64(sum))
	threshold := int64((1 - e.cfg.MinProfitMargin) * types.PriceScale)
	return sum+fee <= threshold
}

// gates applies the pre-trade policy checks.
func (e *Engine) gates(t target, now time.Time) bool {
	if !e.cooldown.CanTrade(t.marketID, now) {
		SkipsTotal.WithLabelValues("cooldown").Inc()
		return false
	}

	if t.score > 0 && t.score < e.cfg.MinScore {
		SkipsTotal.WithLabelValues("low_score").Inc()
		return false
	}

	if e.positions.Count() >= e.cfg.MaxPositions {
		SkipsTotal.WithLabelValues("max_positions").Inc()
		return false
	}

	if e.riskMgr.Halted() {
		SkipsTotal.WithLabelValues("risk_halted").Inc()
		return false
	}

	return true
}

// allocate sizes the trade and returns min(search size, allocated size).
func (e *Engine) allocate(t target, opp *Opportunity, yesAsks, noAsks []types.BookLevel, now time.Time) types.Size {
	topDepth := yesAsks[0].Size
	if noAsks[0].Size < topDepth {
		topDepth = noAsks[0].Size
	}

	depthFraction := 1.0
	if topDepth > 0 {
		depthFraction = opp.Shares.Float64() / topDepth.Float64()
	}

	balance := e.balances.Available(t.yesExchange)
	if b := e.balances.Available(t.noExchange); t.noExchange != t.yesExchange && b < balance {
		balance = b
	}

	alloc := e.allocator.Allocate(capital.Request{
		ROI:              opp.ROI,
		Score:            opp.Score,
		EffPrice:         opp.YesEffPrice + opp.NoEffPrice,
		TopDepthFraction: depthFraction,
	}, e.riskMgr.DailySnapshot().DailyPnL, balance, now)

	if alloc.Shares <= 0 {
		SkipsTotal.WithLabelValues("zero_allocation").Inc()
		return 0
	}

	capital.AllocationSizeUSD.Observe(alloc.Dollars)

	shares := types.WholeShares(alloc.Shares)
	if opp.Shares < shares {
		shares = opp.Shares
	}
	return shares
}

// executeSized performs the slippage recheck and drives both legs.
func (e *Engine) executeSized(t target, shares types.Size, yesEff, noEff types.Price) {
	now := e.nowFn()

	// Slippage recheck against the books as they stand now.
	freshYes, okYes := e.freshAsks(t.yesExchange, t.yesTokenID, now)
	freshNo, okNo := e.freshAsks(t.noExchange, t.noTokenID, now)
	if !okYes || !okNo {
		SkipsTotal.WithLabelValues("book_unusable").Inc()
		return
	}

	newYes := impact.EffectivePrice(freshYes, shares)
	newNo := impact.EffectivePrice(freshNo, shares)

	_, _, net, _ := entryEconomics(shares, newYes.EffPrice, newNo.EffPrice, e.cfg.FeePct)

	if newYes.DepthExhausted || newNo.DepthExhausted ||
		adverseMove(yesEff, newYes.EffPrice) > e.cfg.MaxSlippage ||
		adverseMove(noEff, newNo.EffPrice) > e.cfg.MaxSlippage ||
		!e.marginOK(newYes.EffPrice, newNo.EffPrice) ||
		net < e.cfg.MinProfitDollars {

		SlippageAbortsTotal.Inc()
		e.cooldown.Record(t.marketID, now)

		e.hub.Publish(events.Event{
			Type:     events.TypeSlippageExceeded,
			MarketID: t.marketID,
			Err:      types.ErrSlippageExceeded,
		})

		e.logger.Warn("slippage-exceeded",
			zap.String("slug", t.slug),
			zap.String("yes-eff-was", yesEff.String()),
			zap.String("yes-eff-now", newYes.EffPrice.String()),
			zap.String("no-eff-was", noEff.String()),
			zap.String("no-eff-now", newNo.EffPrice.String()))
		return
	}

	yesLeg := execution.Leg{
		Client:   e.clients[t.yesExchange],
		MarketID: t.marketID,
		TokenID:  t.yesTokenID,
		Outcome:  "YES",
		Price:    limitPrice(newYes.EffPrice, t.yesTick),
		Size:     shares,
	}
	noLeg := execution.Leg{
		Client:   e.clients[t.noExchange],
		MarketID: t.marketID,
		TokenID:  t.noTokenID,
		Outcome:  "NO",
		Price:    limitPrice(newNo.EffPrice, t.noTick),
		Size:     shares,
	}

	start := time.Now()
	yesOut, noOut := execution.PlaceBothLegs(e.ctx, yesLeg, noLeg, e.cfg.OrderTimeout)
	execution.PlacementDurationSeconds.Observe(time.Since(start).Seconds())

	// An attempt was made; the market cools down regardless of outcome.
	e.cooldown.Record(t.marketID, e.nowFn())

	e.reconcile(t, yesOut, noOut)
}

// reconcile settles the aftermath of the dual placement.
func (e *Engine) reconcile(t target, yes, no execution.LegResult) {
	yesFilled := yes.Err == nil && yes.Result.Filled()
	noFilled := no.Err == nil && no.Result.Filled()

	switch {
	case yesFilled && noFilled:
		e.settleFilled(t, yes, no)

	case yesFilled != noFilled:
		filled := yes
		if noFilled {
			filled = no
		}
		e.unwind(t, filled)

	default:
		execution.AttemptsTotal.WithLabelValues("rejected").Inc()
		e.hub.Publish(events.Event{
			Type:     events.TypeFillRejected,
			MarketID: t.marketID,
		})
		e.logger.Warn("fill-rejected-both-legs",
			zap.String("slug", t.slug),
			zap.String("yes-status", string(yes.Result.Status)),
			zap.String("no-status", string(no.Result.Status)))
	}
}

func (e *Engine) settleFilled(t target, yes, no execution.LegResult) {
	execution.AttemptsTotal.WithLabelValues("filled").Inc()

	e.recordTrade(t, yes)
	e.recordTrade(t, no)

	e.positions.Open(&position.Position{
		MarketID:    t.marketID,
		YesExchange: t.yesExchange,
		NoExchange:  t.noExchange,
		YesTokenID:  t.yesTokenID,
		NoTokenID:   t.noTokenID,
		YesShares:   yes.Result.Size,
		NoShares:    no.Result.Size,
		YesAvgPrice: yes.Result.Price,
		NoAvgPrice:  no.Result.Price,
		OpenedAt:    e.nowFn(),
	})

	locked := yes.Result.Size.Float64() *
		(1 - yes.Result.Price.Float64() - no.Result.Price.Float64())
	locked -= yes.Result.Fee + no.Result.Fee

	TradesExecutedTotal.Inc()
	LockedProfitUSD.Add(locked)

	e.hub.Publish(events.Event{
		Type:     events.TypeTradeExecuted,
		MarketID: t.marketID,
		Amount:   locked,
	})

	e.logger.Info("trade-executed",
		zap.String("slug", t.slug),
		zap.String("yes-fill", yes.Result.Price.String()),
		zap.String("no-fill", no.Result.Price.String()),
		zap.String("shares", yes.Result.Size.String()),
		zap.Float64("locked-profit", locked))
}

// unwind market-sells the filled leg after the other leg failed.
func (e *Engine) unwind(t target, filled execution.LegResult) {
	execution.AttemptsTotal.WithLabelValues("partial").Inc()
	execution.UnwindsTotal.Inc()

	e.recordTrade(t, filled)

	res, err := execution.UnwindLeg(e.ctx, filled.Leg, filled.Result.Size, e.cfg.OrderTimeout)

	entryCost := filled.Result.Price.Float64()*filled.Result.Size.Float64() + filled.Result.Fee

	var proceeds float64
	if err != nil {
		e.logger.Error("unwind-order-failed",
			zap.String("slug", t.slug),
			zap.String("token-id", filled.Leg.TokenID),
			zap.Error(err))
	} else if res.Filled() {
		proceeds = res.Price.Float64()*res.Size.Float64() - res.Fee
		e.recordTradeResult(t, filled.Leg, res, types.Sell)
	}

	loss := entryCost - proceeds
	execution.UnwindLossUSD.Add(loss)
	e.riskMgr.RecordRealized(t.marketID, -loss)

	e.hub.Publish(events.Event{
		Type:     events.TypePartialFillUnwound,
		MarketID: t.marketID,
		TokenID:  filled.Leg.TokenID,
		Amount:   -loss,
	})

	e.logger.Warn("partial-fill-unwound",
		zap.String("slug", t.slug),
		zap.String("outcome", filled.Leg.Outcome),
		zap.Float64("unwind-loss", loss))
}

func (e *Engine) recordTrade(t target, leg execution.LegResult) {
	e.recordTradeResult(t, leg.Leg, leg.Result, types.Buy)
}

func (e *Engine) recordTradeResult(t target, leg execution.Leg, res exchange.OrderResult, side types.OrderSide) {
	exchangeName := t.yesExchange
	if leg.Outcome == "NO" {
		exchangeName = t.noExchange
	}

	trade := &types.Trade{
		ID:           uuid.New().String(),
		Exchange:     exchangeName,
		VenueOrderID: res.VenueOrderID,
		MarketID:     t.marketID,
		TokenID:      leg.TokenID,
		Outcome:      leg.Outcome,
		Side:         side,
		Price:        res.Price,
		Size:         res.Size,
		Fee:          res.Fee,
		Timestamp:    e.nowFn(),
	}

	ctx, cancel := context.WithTimeout(e.ctx, 5*time.Second)
	defer cancel()

	err := e.sink.Record(ctx, trade)
	if err != nil {
		e.logger.Error("trade-record-failed",
			zap.String("market-id", t.marketID),
			zap.Error(err))
	}
}

// purgeStale evicts cached opportunities whose books have gone quiet.
func (e *Engine) purgeStale() {
	now := e.nowFn()
	e.cache.Purge(func(o *Opportunity) bool {
		yesBooks, ok := e.books[o.YesExchange]
		if !ok {
			return true
		}
		noBooks, ok := e.books[o.NoExchange]
		if !ok {
			return true
		}
		return yesBooks.Stale(o.YesTokenID, purgeHorizon, now) ||
			noBooks.Stale(o.NoTokenID, purgeHorizon, now)
	})
}

// Close waits for the loop and workers.
func (e *Engine) Close() error {
	e.logger.Info("closing-arbitrage-engine")
	e.wg.Wait()
	e.logger.Info("arbitrage-engine-closed")
	return nil
}

// adverseMove returns the relative upward move from old to cur; downward
// moves are favorable and return zero.
func adverseMove(old, cur types.Price) float64 {
	if old <= 0 || cur <= old {
		return 0
	}
	return float64(cur-old) / float64(old)
}

// limitPrice converts an effective price into a limit: the next tick above
// eff, or one full tick higher when eff already sits on a tick. The limit
// follows the average price, not the deepest consumed level, so a sweep
// whose deepest level lies above the limit is not covered by it.
func limitPrice(eff types.Price, tick types.Price) types.Price {
	if tick <= 0 {
		tick = types.Price(types.PriceScale / 100) // one cent default
	}
	limit := eff.RoundUpToTick(tick)
	if limit == eff {
		limit += tick
	}
	return limit
}
