package markets

import (
	"context"
	"testing"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/exchange"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/orderbook"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/scoring"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/events"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

func testMarket(id string, volume float64, closeIn time.Duration) *types.Market {
	return &types.Market{
		ID:       id,
		Slug:     id,
		Question: "Will " + id + " happen?",
		Yes:      types.OutcomeToken{TokenID: id + "-yes", Outcome: "YES"},
		No:       types.OutcomeToken{TokenID: id + "-no", Outcome: "NO"},
		CloseAt:  time.Now().Add(closeIn),
		Volume:   volume,
		TickSize: types.PriceFromFloat(0.01),
	}
}

func newTestRegistry(t *testing.T) (*Registry, *exchange.SimClient, *orderbook.Manager) {
	t.Helper()

	logger := zap.NewNop()
	venue := exchange.NewSimClient(exchange.SimConfig{
		Name:    "polymarket",
		FeePct:  0.01,
		Balance: 1000,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	books := orderbook.New(&orderbook.Config{
		Exchange:  "polymarket",
		Logger:    logger,
		Hub:       events.NewHub(),
		Requester: venue,
		Snapshots: venue.Snapshots(),
		Deltas:    venue.Deltas(),
	})
	if err := books.Start(ctx); err != nil {
		t.Fatalf("start books: %v", err)
	}

	r := New(Config{
		Clients:      map[string]exchange.Client{"polymarket": venue},
		Books:        map[string]*orderbook.Manager{"polymarket": books},
		Scorer:       scoring.New(scoring.DefaultWeights()),
		PollInterval: time.Hour,
		MinVolume:    5000,
		MinScore:     50,
		MaxMarkets:   10,
		Logger:       logger,
	})

	return r, venue, books
}

func TestPollFiltersLowVolume(t *testing.T) {
	r, venue, _ := newTestRegistry(t)

	venue.SetMarkets([]*types.Market{
		testMarket("liquid", 100_000, 72*time.Hour),
		testMarket("thin", 100, 72*time.Hour),
	})

	err := r.poll(context.Background())
	if err != nil {
		t.Fatalf("poll error = %v", err)
	}

	if _, ok := r.Get("polymarket", "liquid"); !ok {
		t.Error("liquid market not tracked")
	}
	if _, ok := r.Get("polymarket", "thin"); ok {
		t.Error("thin market tracked despite volume floor")
	}
}

func TestPollDropsClosedMarkets(t *testing.T) {
	r, venue, _ := newTestRegistry(t)

	venue.SetMarkets([]*types.Market{
		testMarket("open", 100_000, 72*time.Hour),
		testMarket("closing", 100_000, -time.Hour),
	})

	err := r.poll(context.Background())
	if err != nil {
		t.Fatalf("poll error = %v", err)
	}

	if _, ok := r.Get("polymarket", "closing"); ok {
		t.Error("already-closed market tracked")
	}
}

func TestPollSubscribesBooks(t *testing.T) {
	r, venue, books := newTestRegistry(t)

	venue.SetBook("m1-yes", nil, []types.BookLevel{{Price: types.PriceFromFloat(0.48), Size: types.WholeShares(100)}})
	venue.SetBook("m1-no", nil, []types.BookLevel{{Price: types.PriceFromFloat(0.50), Size: types.WholeShares(100)}})
	venue.SetMarkets([]*types.Market{testMarket("m1", 100_000, 72*time.Hour)})

	err := r.poll(context.Background())
	if err != nil {
		t.Fatalf("poll error = %v", err)
	}

	// Subscription replays the current snapshots onto the feed; the book
	// manager ingests them asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if book, ok := books.Book("m1-yes"); ok && book.Seq() > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("subscribed book never arrived")
}

func TestTopOrdersByScore(t *testing.T) {
	r, venue, _ := newTestRegistry(t)

	// Same horizon; volume separates the scores.
	venue.SetMarkets([]*types.Market{
		testMarket("small", 10_000, 72*time.Hour),
		testMarket("large", 900_000, 72*time.Hour),
	})

	err := r.poll(context.Background())
	if err != nil {
		t.Fatalf("poll error = %v", err)
	}

	top := r.Top(2)
	if len(top) != 2 {
		t.Fatalf("Top returned %d markets", len(top))
	}
	if top[0].Market.ID != "large" {
		t.Errorf("top market = %s, want large", top[0].Market.ID)
	}

	if got := len(r.Top(1)); got != 1 {
		t.Errorf("Top(1) returned %d", got)
	}
}
