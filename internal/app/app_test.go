package app

import (
	"context"
	"testing"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/exchange"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/config"
	"go.uber.org/zap"
)

// Paper mode wires everything against sim venues with no network access.
func TestNewPaperMode(t *testing.T) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	application, err := New(cfg, zap.NewNop(), nil)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	if len(application.clients) != 1 {
		t.Errorf("clients = %d, want 1", len(application.clients))
	}
	if _, ok := application.clients["polymarket"]; !ok {
		t.Error("polymarket client missing")
	}
	if application.engine == nil || application.riskMgr == nil || application.positions == nil {
		t.Error("core components not wired")
	}

	err = application.Shutdown()
	if err != nil {
		t.Errorf("Shutdown error = %v", err)
	}
}

// Live mode refuses to start without injected venue adapters or an order
// submitter.
func TestNewLiveModeRequiresClients(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "live")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	_, err = New(cfg, zap.NewNop(), nil)
	if err == nil {
		t.Fatal("live mode without clients should fail")
	}
}

type stubSubmitter struct{}

func (stubSubmitter) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderResult, error) {
	return exchange.OrderResult{Status: exchange.StatusRejected}, nil
}

func (stubSubmitter) Balance(ctx context.Context, currency string) (float64, error) {
	return 0, nil
}

// With an injected order submitter, live mode builds the Polymarket
// adapter itself.
func TestNewLiveModeWithSubmitter(t *testing.T) {
	t.Setenv("EXECUTION_MODE", "live")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	application, err := New(cfg, zap.NewNop(), &Options{
		OrderSubmitters: map[string]exchange.OrderSubmitter{"polymarket": stubSubmitter{}},
	})
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	if _, ok := application.clients["polymarket"]; !ok {
		t.Error("polymarket client missing")
	}

	err = application.Shutdown()
	if err != nil {
		t.Errorf("Shutdown error = %v", err)
	}
}
