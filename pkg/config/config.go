package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel      string
	HTTPPort      string
	ExecutionMode string // "paper" or "live"

	// Platforms
	EnabledPlatforms   []string
	CrossPlatformArb   bool
	FeedURLs           map[string]string // platform -> websocket URL
	PolymarketGammaURL string
	PolymarketCLOBURL  string
	DiscoveryInterval  time.Duration

	// Sizing and profitability
	CapitalPerTrade  float64
	MinProfitMargin  float64
	MinProfitDollars float64
	TradingFeePct    float64
	FallbackBalance  float64

	// Market selection
	MinMarketVolume   float64
	MaxTokensMonitor  int
	MinMarketQuality  float64
	MaxOrderBookDepth int

	// Execution policy
	CooldownSeconds        time.Duration
	MaxSlippage            float64
	MaxConcurrentPositions int
	OrderTimeout           time.Duration
	BalanceTimeout         time.Duration
	SnapshotTimeout        time.Duration
	EngineTick             time.Duration

	// Risk
	StopLoss     float64
	TakeProfit   float64
	MaxDailyLoss float64

	// Rate limiting
	RateLimitWindow   time.Duration
	RateLimitRequests int

	// Feed reconnect
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	FeedBufferSize        int

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort:      getEnvOrDefault("HTTP_PORT", "8080"),
		ExecutionMode: getEnvOrDefault("EXECUTION_MODE", "paper"),

		EnabledPlatforms:   splitList(getEnvOrDefault("ENABLED_PLATFORMS", "polymarket")),
		CrossPlatformArb:   getBoolOrDefault("CROSS_PLATFORM_ARBITRAGE", false),
		FeedURLs:           feedURLsFromEnv(),
		PolymarketGammaURL: getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketCLOBURL:  getEnvOrDefault("POLYMARKET_CLOB_API_URL", "https://clob.polymarket.com"),
		DiscoveryInterval:  getDurationOrDefault("DISCOVERY_POLL_INTERVAL", 30*time.Second),

		CapitalPerTrade:  getFloat64OrDefault("CAPITAL_PER_TRADE", 10.0),
		MinProfitMargin:  getFloat64OrDefault("MIN_PROFIT_MARGIN", 0.02),
		MinProfitDollars: getFloat64OrDefault("MIN_PROFIT_DOLLARS", 1.0),
		TradingFeePct:    getFloat64OrDefault("TRADING_FEE_PERCENT", 0.01),
		FallbackBalance:  getFloat64OrDefault("FALLBACK_BALANCE", 1000.0),

		MinMarketVolume:   getFloat64OrDefault("MIN_MARKET_VOLUME", 5000.0),
		MaxTokensMonitor:  getIntOrDefault("MAX_TOKENS_MONITOR", 20),
		MinMarketQuality:  getFloat64OrDefault("MIN_MARKET_QUALITY_SCORE", 50.0),
		MaxOrderBookDepth: getIntOrDefault("MAX_ORDER_BOOK_DEPTH", 20),

		CooldownSeconds:        getDurationOrDefault("COOLDOWN_SECONDS", 30*time.Second),
		MaxSlippage:            getFloat64OrDefault("MAX_SLIPPAGE", 0.005),
		MaxConcurrentPositions: getIntOrDefault("MAX_CONCURRENT_POSITIONS", 10),
		OrderTimeout:           getDurationOrDefault("ORDER_TIMEOUT", 3*time.Second),
		BalanceTimeout:         getDurationOrDefault("BALANCE_TIMEOUT", 5*time.Second),
		SnapshotTimeout:        getDurationOrDefault("SNAPSHOT_TIMEOUT", 10*time.Second),
		EngineTick:             getDurationOrDefault("ENGINE_TICK", 250*time.Millisecond),

		StopLoss:     getFloat64OrDefault("STOP_LOSS", 0.05),
		TakeProfit:   getFloat64OrDefault("TAKE_PROFIT", 0.10),
		MaxDailyLoss: getFloat64OrDefault("MAX_DAILY_LOSS", 50.0),

		RateLimitWindow:   getDurationOrDefault("RATE_LIMIT_WINDOW", 10*time.Second),
		RateLimitRequests: getIntOrDefault("RATE_LIMIT_REQUESTS", 100),

		ReconnectInitialDelay: getDurationOrDefault("FEED_RECONNECT_INITIAL_DELAY", 5*time.Second),
		ReconnectMaxDelay:     getDurationOrDefault("FEED_RECONNECT_MAX_DELAY", 60*time.Second),
		ReconnectBackoffMult:  getFloat64OrDefault("FEED_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		FeedBufferSize:        getIntOrDefault("FEED_MESSAGE_BUFFER_SIZE", 10000),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "arb"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "arb"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "arbitrage"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}

	if c.ExecutionMode != "paper" && c.ExecutionMode != "live" {
		return fmt.Errorf("EXECUTION_MODE must be 'paper' or 'live', got %q", c.ExecutionMode)
	}

	if len(c.EnabledPlatforms) == 0 {
		return errors.New("ENABLED_PLATFORMS cannot be empty")
	}

	if c.CrossPlatformArb && len(c.EnabledPlatforms) < 2 {
		return errors.New("CROSS_PLATFORM_ARBITRAGE requires at least two platforms")
	}

	if c.CapitalPerTrade <= 0 {
		return fmt.Errorf("CAPITAL_PER_TRADE must be positive, got %f", c.CapitalPerTrade)
	}

	if c.MinProfitMargin <= 0 || c.MinProfitMargin >= 1 {
		return fmt.Errorf("MIN_PROFIT_MARGIN must be in (0, 1), got %f", c.MinProfitMargin)
	}

	if c.TradingFeePct < 0 || c.TradingFeePct >= 1 {
		return fmt.Errorf("TRADING_FEE_PERCENT must be in [0, 1), got %f", c.TradingFeePct)
	}

	if c.MaxSlippage <= 0 {
		return fmt.Errorf("MAX_SLIPPAGE must be positive, got %f", c.MaxSlippage)
	}

	if c.MaxConcurrentPositions < 1 {
		return fmt.Errorf("MAX_CONCURRENT_POSITIONS must be at least 1, got %d", c.MaxConcurrentPositions)
	}

	if c.MaxOrderBookDepth < 1 {
		return fmt.Errorf("MAX_ORDER_BOOK_DEPTH must be at least 1, got %d", c.MaxOrderBookDepth)
	}

	if c.MaxTokensMonitor < 1 {
		return fmt.Errorf("MAX_TOKENS_MONITOR must be at least 1, got %d", c.MaxTokensMonitor)
	}

	if c.StopLoss <= 0 || c.TakeProfit <= 0 {
		return fmt.Errorf("STOP_LOSS and TAKE_PROFIT must be positive, got %f / %f", c.StopLoss, c.TakeProfit)
	}

	if c.MaxDailyLoss <= 0 {
		return fmt.Errorf("MAX_DAILY_LOSS must be positive, got %f", c.MaxDailyLoss)
	}

	if c.RateLimitRequests < 1 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit must admit at least 1 request per positive window, got %d per %s",
			c.RateLimitRequests, c.RateLimitWindow)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	return nil
}

func feedURLsFromEnv() map[string]string {
	return map[string]string{
		"polymarket": getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		"kalshi":     getEnvOrDefault("KALSHI_WS_URL", "wss://api.elections.kalshi.com/trade-api/ws/v2"),
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToLower(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Bare numbers are treated as seconds (COOLDOWN_SECONDS=30).
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}
