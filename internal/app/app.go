// Package app wires the components together and owns their lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/arbitrage"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/capital"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/exchange"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/markets"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/orderbook"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/position"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/risk"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/storage"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/config"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/events"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/healthprobe"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	hub           *events.Hub
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	clients       map[string]exchange.Client
	books         map[string]*orderbook.Manager
	balances      *capital.BalanceTracker
	riskMgr       *risk.Manager
	positions     *position.Monitor
	registry      *markets.Registry
	engine        *arbitrage.Engine
	sink          storage.TradeSink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options holds injection points for live deployments. A fully custom
// venue adapter can be passed via Clients; for Polymarket it is enough to
// inject an OrderSubmitter (signing and authentication live outside the
// core) and the app builds the market-data adapter itself. Paper mode runs
// against in-memory sim venues.
type Options struct {
	Clients         map[string]exchange.Client
	OrderSubmitters map[string]exchange.OrderSubmitter
}
