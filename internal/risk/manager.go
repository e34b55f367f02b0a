// Package risk gates trading and signals position exits. All state
// transitions flow through a single-writer loop so that halt observations
// are always consistent with the trade sequence that produced them.
package risk

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/events"
	"go.uber.org/zap"
)

// ExitReason classifies why a position should be closed.
type ExitReason string

const (
	ExitNone       ExitReason = "none"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitManual     ExitReason = "manual"
)

// ExitSignal instructs the position monitor to close one position.
type ExitSignal struct {
	MarketID string
	Reason   ExitReason
}

// Tick is one mark-to-market observation for an open position.
type Tick struct {
	MarketID      string
	UnrealizedPnL float64 // USD
	CostBasis     float64 // USD spent opening the position
}

// Snapshot is a point-in-time view of the rolling risk state.
type Snapshot struct {
	DailyPnL        float64
	DailyTradeCount int
	DailyDate       string // UTC date, YYYY-MM-DD
	Halted          bool
}

type cmdKind int

const (
	cmdRealized cmdKind = iota
	cmdTick
	cmdManualExit
	cmdPositionClosed
)

type command struct {
	kind     cmdKind
	marketID string
	amount   float64
	tick     Tick
}

// Config holds risk manager configuration.
type Config struct {
	StopLoss     float64 // unrealized loss ratio triggering an exit
	TakeProfit   float64 // unrealized gain ratio triggering an exit
	MaxDailyLoss float64 // USD; daily_pnl at or below the negative halts entries
	Logger       *zap.Logger
	Hub          *events.Hub
}

// Manager owns the rolling risk state.
type Manager struct {
	cfg    Config
	logger *zap.Logger
	hub    *events.Hub

	halted atomic.Bool
	cmds   chan command
	exits  chan ExitSignal

	mu         sync.RWMutex
	dailyPnL   float64
	dailyCount int
	dailyDate  time.Time // UTC midnight of the current day
	highWater  map[string]float64
	signaled   map[string]ExitReason

	nowFn func() time.Time

	ctx context.Context
	wg  sync.WaitGroup
}

// New creates a risk manager.
func New(cfg Config) *Manager {
	return &Manager{
		cfg:       cfg,
		logger:    cfg.Logger,
		hub:       cfg.Hub,
		cmds:      make(chan command, 1000),
		exits:     make(chan ExitSignal, 100),
		highWater: make(map[string]float64),
		signaled:  make(map[string]ExitReason),
		nowFn:     time.Now,
	}
}

// Start starts the single-writer loop.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx
	m.logger.Info("risk-manager-starting",
		zap.Float64("stop-loss", m.cfg.StopLoss),
		zap.Float64("take-profit", m.cfg.TakeProfit),
		zap.Float64("max-daily-loss", m.cfg.MaxDailyLoss))

	m.mu.Lock()
	m.dailyDate = midnightUTC(m.nowFn())
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run()

	return nil
}

func (m *Manager) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.logger.Info("risk-manager-stopping")
			return
		case cmd := <-m.cmds:
			m.apply(cmd)
		case <-ticker.C:
			m.rolloverIfNeeded()
		}
	}
}

// RecordRealized adds realized P&L from an executed or unwound trade.
func (m *Manager) RecordRealized(marketID string, pnl float64) {
	m.enqueue(command{kind: cmdRealized, marketID: marketID, amount: pnl})
}

// PositionTick submits one mark-to-market observation.
func (m *Manager) PositionTick(t Tick) {
	m.enqueue(command{kind: cmdTick, marketID: t.MarketID, tick: t})
}

// RequestManualExit asks for a user-driven exit of one position.
func (m *Manager) RequestManualExit(marketID string) {
	m.enqueue(command{kind: cmdManualExit, marketID: marketID})
}

// PositionClosed clears per-position state after both legs are exited.
func (m *Manager) PositionClosed(marketID string) {
	m.enqueue(command{kind: cmdPositionClosed, marketID: marketID})
}

func (m *Manager) enqueue(cmd command) {
	select {
	case m.cmds <- cmd:
	default:
		m.logger.Warn("risk-command-queue-full", zap.String("market-id", cmd.marketID))
	}
}

func (m *Manager) apply(cmd command) {
	m.rolloverIfNeeded()

	switch cmd.kind {
	case cmdRealized:
		m.applyRealized(cmd.marketID, cmd.amount)
	case cmdTick:
		m.applyTick(cmd.tick)
	case cmdManualExit:
		m.emitExit(cmd.marketID, ExitManual)
	case cmdPositionClosed:
		m.mu.Lock()
		delete(m.highWater, cmd.marketID)
		delete(m.signaled, cmd.marketID)
		m.mu.Unlock()
	}
}

func (m *Manager) applyRealized(marketID string, pnl float64) {
	m.mu.Lock()
	m.dailyPnL += pnl
	m.dailyCount++
	daily := m.dailyPnL
	m.mu.Unlock()

	DailyPnLGauge.Set(daily)
	DailyTradeCount.Inc()

	if daily <= -m.cfg.MaxDailyLoss && !m.halted.Load() {
		m.halted.Store(true)
		HaltedGauge.Set(1)
		HaltsTotal.Inc()

		m.logger.Warn("risk-halted",
			zap.Float64("daily-pnl", daily),
			zap.Float64("max-daily-loss", m.cfg.MaxDailyLoss))

		m.hub.Publish(events.Event{
			Type:   events.TypeRiskHalted,
			Amount: daily,
			Detail: "daily loss limit reached",
		})
	}
}

func (m *Manager) applyTick(t Tick) {
	if t.CostBasis <= 0 {
		return
	}

	ratio := t.UnrealizedPnL / t.CostBasis

	m.mu.Lock()
	if ratio > m.highWater[t.MarketID] {
		m.highWater[t.MarketID] = ratio
	}
	already := m.signaled[t.MarketID]
	m.mu.Unlock()

	if already != "" {
		return
	}

	switch {
	case ratio <= -m.cfg.StopLoss:
		m.emitExit(t.MarketID, ExitStopLoss)
	case ratio >= m.cfg.TakeProfit:
		m.emitExit(t.MarketID, ExitTakeProfit)
	}
}

func (m *Manager) emitExit(marketID string, reason ExitReason) {
	m.mu.Lock()
	if m.signaled[marketID] != "" {
		m.mu.Unlock()
		return
	}
	m.signaled[marketID] = reason
	m.mu.Unlock()

	ExitSignalsTotal.WithLabelValues(string(reason)).Inc()

	m.logger.Info("exit-signal",
		zap.String("market-id", marketID),
		zap.String("reason", string(reason)))

	select {
	case m.exits <- ExitSignal{MarketID: marketID, Reason: reason}:
	default:
		m.logger.Error("exit-signal-channel-full", zap.String("market-id", marketID))
	}
}

// rolloverIfNeeded resets daily totals and clears a halt at UTC midnight.
func (m *Manager) rolloverIfNeeded() {
	now := m.nowFn()
	today := midnightUTC(now)

	m.mu.Lock()
	if !today.After(m.dailyDate) {
		m.mu.Unlock()
		return
	}

	m.dailyDate = today
	m.dailyPnL = 0
	m.dailyCount = 0
	m.mu.Unlock()

	if m.halted.Swap(false) {
		HaltedGauge.Set(0)
		m.logger.Info("risk-halt-cleared-on-rollover", zap.Time("date", today))
	}

	DailyPnLGauge.Set(0)
}

// Halted reports whether new entries are blocked. Lock-free for hot paths.
func (m *Manager) Halted() bool {
	return m.halted.Load()
}

// ExitSignals returns the channel the position monitor drains.
func (m *Manager) ExitSignals() <-chan ExitSignal {
	return m.exits
}

// DailySnapshot returns current rolling totals.
func (m *Manager) DailySnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		DailyPnL:        m.dailyPnL,
		DailyTradeCount: m.dailyCount,
		DailyDate:       m.dailyDate.Format("2006-01-02"),
		Halted:          m.halted.Load(),
	}
}

// Close waits for the writer loop to finish.
func (m *Manager) Close() error {
	m.logger.Info("closing-risk-manager")
	m.wg.Wait()
	m.logger.Info("risk-manager-closed")
	return nil
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
