package app

import (
	"context"
	"fmt"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/arbitrage"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/capital"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/exchange"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/execution"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/markets"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/matcher"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/orderbook"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/position"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/risk"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/scoring"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/storage"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/cache"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/config"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/events"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/healthprobe"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/httpserver"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/ratelimit"
	"go.uber.org/zap"
)

// New creates a fully wired application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	hub := events.NewHub()
	healthChecker := healthprobe.New()

	appCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	clients, err := setupClients(cfg, logger, opts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup clients: %w", err)
	}

	books := setupBooks(cfg, logger, hub, clients)
	balances := setupBalanceTracker(cfg, logger, clients)
	riskMgr := setupRiskManager(cfg, logger, hub)
	positions := setupPositionMonitor(cfg, logger, hub, books, clients, riskMgr)

	sink, err := setupSink(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup trade sink: %w", err)
	}

	registry := setupRegistry(cfg, logger, appCache, clients, books)
	engine := setupEngine(cfg, logger, hub, books, clients, registry, balances, riskMgr, positions, sink)

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Opportunities: engine.Cache(),
		Positions:     positions,
		Risk:          riskMgr,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		hub:           hub,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		clients:       clients,
		books:         books,
		balances:      balances,
		riskMgr:       riskMgr,
		positions:     positions,
		registry:      registry,
		engine:        engine,
		sink:          sink,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

// setupClients returns one client per enabled platform. Injected adapters
// take precedence. In live mode the Polymarket adapter is built here from
// the injected order submitter; other platforms need a full adapter. Paper
// mode runs every platform as an in-memory sim venue.
func setupClients(cfg *config.Config, logger *zap.Logger, opts *Options) (map[string]exchange.Client, error) {
	limiter := ratelimit.New(ratelimit.Config{
		Requests: cfg.RateLimitRequests,
		Window:   cfg.RateLimitWindow,
		Logger:   logger,
	})

	clients := make(map[string]exchange.Client, len(cfg.EnabledPlatforms))
	for _, name := range cfg.EnabledPlatforms {
		inner, ok := opts.Clients[name]
		if !ok {
			var err error
			inner, err = buildClient(cfg, logger, opts, name)
			if err != nil {
				return nil, err
			}
		}
		clients[name] = exchange.NewRateLimitedClient(inner, limiter)
	}

	return clients, nil
}

func buildClient(cfg *config.Config, logger *zap.Logger, opts *Options, name string) (exchange.Client, error) {
	if cfg.ExecutionMode == "live" {
		if name == "polymarket" && opts.OrderSubmitters[name] != nil {
			logger.Info("using-polymarket-adapter", zap.String("ws-url", cfg.FeedURLs[name]))
			return exchange.NewPolymarketClient(exchange.PolymarketConfig{
				GammaURL:              cfg.PolymarketGammaURL,
				CLOBURL:               cfg.PolymarketCLOBURL,
				WSURL:                 cfg.FeedURLs[name],
				Submitter:             opts.OrderSubmitters[name],
				HTTPTimeout:           cfg.SnapshotTimeout,
				ReconnectInitialDelay: cfg.ReconnectInitialDelay,
				ReconnectMaxDelay:     cfg.ReconnectMaxDelay,
				ReconnectBackoffMult:  cfg.ReconnectBackoffMult,
				FeedBufferSize:        cfg.FeedBufferSize,
				Logger:                logger,
			}), nil
		}
		return nil, fmt.Errorf("live mode requires a %s client or order submitter", name)
	}

	logger.Info("using-sim-venue",
		zap.String("exchange", name),
		zap.String("mode", cfg.ExecutionMode))
	return exchange.NewSimClient(exchange.SimConfig{
		Name:    name,
		FeePct:  cfg.TradingFeePct,
		Balance: cfg.FallbackBalance,
		Logger:  logger,
	}), nil
}

func setupBooks(cfg *config.Config, logger *zap.Logger, hub *events.Hub, clients map[string]exchange.Client) map[string]*orderbook.Manager {
	books := make(map[string]*orderbook.Manager, len(clients))
	for name, client := range clients {
		books[name] = orderbook.New(&orderbook.Config{
			Exchange:        name,
			Logger:          logger,
			Hub:             hub,
			Requester:       client,
			Snapshots:       client.Snapshots(),
			Deltas:          client.Deltas(),
			SnapshotTimeout: cfg.SnapshotTimeout,
		})
	}
	return books
}

func setupBalanceTracker(cfg *config.Config, logger *zap.Logger, clients map[string]exchange.Client) *capital.BalanceTracker {
	sources := make([]capital.BalanceSource, 0, len(clients))
	for _, client := range clients {
		sources = append(sources, client)
	}

	return capital.NewBalanceTracker(capital.BalanceTrackerConfig{
		Sources:  sources,
		Currency: "USDC",
		Interval: 30 * time.Second,
		Timeout:  cfg.BalanceTimeout,
		Fallback: cfg.FallbackBalance,
		Logger:   logger,
	})
}

func setupRiskManager(cfg *config.Config, logger *zap.Logger, hub *events.Hub) *risk.Manager {
	return risk.New(risk.Config{
		StopLoss:     cfg.StopLoss,
		TakeProfit:   cfg.TakeProfit,
		MaxDailyLoss: cfg.MaxDailyLoss,
		Logger:       logger,
		Hub:          hub,
	})
}

func setupPositionMonitor(
	cfg *config.Config,
	logger *zap.Logger,
	hub *events.Hub,
	books map[string]*orderbook.Manager,
	clients map[string]exchange.Client,
	riskMgr *risk.Manager,
) *position.Monitor {
	return position.NewMonitor(position.Config{
		Books:           books,
		Clients:         clients,
		Risk:            riskMgr,
		Hub:             hub,
		Logger:          logger,
		PollInterval:    time.Second,
		ExitRetryWindow: 30 * time.Second,
		OrderTimeout:    cfg.OrderTimeout,
	})
}

func setupSink(cfg *config.Config, logger *zap.Logger) (storage.TradeSink, error) {
	if cfg.StorageMode == "postgres" {
		sink, err := storage.NewPostgresSink(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres sink: %w", err)
		}
		return sink, nil
	}

	return storage.NewConsoleSink(logger), nil
}

func setupRegistry(
	cfg *config.Config,
	logger *zap.Logger,
	appCache cache.Cache,
	clients map[string]exchange.Client,
	books map[string]*orderbook.Manager,
) *markets.Registry {
	var crossMatcher *matcher.Matcher
	if cfg.CrossPlatformArb {
		crossMatcher = matcher.New(logger, appCache)
	}

	maxMarkets := cfg.MaxTokensMonitor / 2
	if maxMarkets < 1 {
		maxMarkets = 1
	}

	return markets.New(markets.Config{
		Clients:      clients,
		Books:        books,
		Scorer:       scoring.New(scoring.DefaultWeights()),
		Matcher:      crossMatcher,
		PollInterval: cfg.DiscoveryInterval,
		MinVolume:    cfg.MinMarketVolume,
		MinScore:     cfg.MinMarketQuality,
		MaxMarkets:   maxMarkets,
		Logger:       logger,
	})
}

func setupEngine(
	cfg *config.Config,
	logger *zap.Logger,
	hub *events.Hub,
	books map[string]*orderbook.Manager,
	clients map[string]exchange.Client,
	registry *markets.Registry,
	balances *capital.BalanceTracker,
	riskMgr *risk.Manager,
	positions *position.Monitor,
	sink storage.TradeSink,
) *arbitrage.Engine {
	maxMarkets := cfg.MaxTokensMonitor / 2
	if maxMarkets < 1 {
		maxMarkets = 1
	}

	return arbitrage.New(
		arbitrage.Config{
			MinProfitMargin:  cfg.MinProfitMargin,
			MinProfitDollars: cfg.MinProfitDollars,
			FeePct:           cfg.TradingFeePct,
			MaxSlippage:      cfg.MaxSlippage,
			MinScore:         cfg.MinMarketQuality,
			MaxPositions:     cfg.MaxConcurrentPositions,
			MaxDepth:         cfg.MaxOrderBookDepth,
			TopK:             maxMarkets,
			Tick:             cfg.EngineTick,
			OrderTimeout:     cfg.OrderTimeout,
			CrossPlatform:    cfg.CrossPlatformArb,
			Logger:           logger,
		},
		arbitrage.Deps{
			Books:     books,
			Clients:   clients,
			Registry:  registry,
			Allocator: capital.New(capital.Config{CapitalPerTrade: cfg.CapitalPerTrade, MaxDailyLoss: cfg.MaxDailyLoss}),
			Balances:  balances,
			Risk:      riskMgr,
			Positions: positions,
			Cooldown:  execution.NewCooldown(cfg.CooldownSeconds),
			Locks:     execution.NewLockTable(),
			Sink:      sink,
			Hub:       hub,
		},
	)
}
