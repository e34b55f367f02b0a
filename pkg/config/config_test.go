package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error = %v", err)
	}

	if cfg.CapitalPerTrade != 10 {
		t.Errorf("CapitalPerTrade = %f, want 10", cfg.CapitalPerTrade)
	}
	if cfg.MinProfitMargin != 0.02 {
		t.Errorf("MinProfitMargin = %f, want 0.02", cfg.MinProfitMargin)
	}
	if cfg.MinProfitDollars != 1.0 {
		t.Errorf("MinProfitDollars = %f, want 1.0", cfg.MinProfitDollars)
	}
	if cfg.TradingFeePct != 0.01 {
		t.Errorf("TradingFeePct = %f, want 0.01", cfg.TradingFeePct)
	}
	if cfg.MinMarketVolume != 5000 {
		t.Errorf("MinMarketVolume = %f, want 5000", cfg.MinMarketVolume)
	}
	if cfg.MaxTokensMonitor != 20 {
		t.Errorf("MaxTokensMonitor = %d, want 20", cfg.MaxTokensMonitor)
	}
	if cfg.MaxConcurrentPositions != 10 {
		t.Errorf("MaxConcurrentPositions = %d, want 10", cfg.MaxConcurrentPositions)
	}
	if cfg.MaxOrderBookDepth != 20 {
		t.Errorf("MaxOrderBookDepth = %d, want 20", cfg.MaxOrderBookDepth)
	}
	if cfg.MinMarketQuality != 50 {
		t.Errorf("MinMarketQuality = %f, want 50", cfg.MinMarketQuality)
	}
	if cfg.CooldownSeconds != 30*time.Second {
		t.Errorf("CooldownSeconds = %s, want 30s", cfg.CooldownSeconds)
	}
	if cfg.MaxSlippage != 0.005 {
		t.Errorf("MaxSlippage = %f, want 0.005", cfg.MaxSlippage)
	}
	if cfg.StopLoss != 0.05 || cfg.TakeProfit != 0.10 || cfg.MaxDailyLoss != 50 {
		t.Errorf("risk defaults = %f/%f/%f", cfg.StopLoss, cfg.TakeProfit, cfg.MaxDailyLoss)
	}
	if cfg.FallbackBalance != 1000 {
		t.Errorf("FallbackBalance = %f, want 1000", cfg.FallbackBalance)
	}
	if len(cfg.EnabledPlatforms) != 1 || cfg.EnabledPlatforms[0] != "polymarket" {
		t.Errorf("EnabledPlatforms = %v", cfg.EnabledPlatforms)
	}
	if cfg.CrossPlatformArb {
		t.Error("CrossPlatformArb default should be false")
	}
	if cfg.ExecutionMode != "paper" {
		t.Errorf("ExecutionMode = %q, want paper", cfg.ExecutionMode)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAPITAL_PER_TRADE", "25")
	t.Setenv("COOLDOWN_SECONDS", "45")
	t.Setenv("ENABLED_PLATFORMS", "polymarket, kalshi")
	t.Setenv("CROSS_PLATFORM_ARBITRAGE", "true")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error = %v", err)
	}

	if cfg.CapitalPerTrade != 25 {
		t.Errorf("CapitalPerTrade = %f, want 25", cfg.CapitalPerTrade)
	}
	if cfg.CooldownSeconds != 45*time.Second {
		t.Errorf("CooldownSeconds = %s, want 45s", cfg.CooldownSeconds)
	}
	if len(cfg.EnabledPlatforms) != 2 || cfg.EnabledPlatforms[1] != "kalshi" {
		t.Errorf("EnabledPlatforms = %v", cfg.EnabledPlatforms)
	}
	if !cfg.CrossPlatformArb {
		t.Error("CrossPlatformArb not enabled")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad-mode", mutate: func(c *Config) { c.ExecutionMode = "yolo" }},
		{name: "no-platforms", mutate: func(c *Config) { c.EnabledPlatforms = nil }},
		{name: "cross-needs-two", mutate: func(c *Config) { c.CrossPlatformArb = true }},
		{name: "zero-capital", mutate: func(c *Config) { c.CapitalPerTrade = 0 }},
		{name: "margin-out-of-range", mutate: func(c *Config) { c.MinProfitMargin = 1.5 }},
		{name: "zero-slippage", mutate: func(c *Config) { c.MaxSlippage = 0 }},
		{name: "zero-positions", mutate: func(c *Config) { c.MaxConcurrentPositions = 0 }},
		{name: "bad-storage", mutate: func(c *Config) { c.StorageMode = "s3" }},
		{name: "negative-daily-loss", mutate: func(c *Config) { c.MaxDailyLoss = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("LoadFromEnv error = %v", err)
			}

			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted invalid config")
			}
		})
	}
}
