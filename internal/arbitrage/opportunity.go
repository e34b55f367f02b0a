package arbitrage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
)

// Opportunity is a sized, fee-adjusted entry the engine can execute: buy
// YES and NO together below one dollar. For cross-venue pairs the two legs
// target different exchanges and MarketID is the pair key.
type Opportunity struct {
	ID       string
	MarketID string
	Slug     string
	Question string

	YesExchange string
	NoExchange  string
	YesTokenID  string
	NoTokenID   string

	YesLevels []types.BookLevel // ask levels at detection, fill order
	NoLevels  []types.BookLevel

	Shares      types.Size
	YesEffPrice types.Price
	NoEffPrice  types.Price

	GrossCost float64 // USD paid for both legs
	Fees      float64 // USD, both legs
	NetProfit float64 // USD after fees
	ROI       float64 // NetProfit / GrossCost
	Score     float64 // market quality at detection

	ObservedAt time.Time
}

// entryEconomics derives the dollar economics of buying shares at the two
// effective prices with a per-leg fee of feePct times notional.
func entryEconomics(shares types.Size, yesEff, noEff types.Price, feePct float64) (grossCost, fees, netProfit, roi float64) {
	n := shares.Float64()
	sum := yesEff.Float64() + noEff.Float64()

	grossCost = sum * n
	fees = feePct * grossCost
	netProfit = n - grossCost - fees
	if grossCost > 0 {
		roi = netProfit / grossCost
	}
	return grossCost, fees, netProfit, roi
}

// newOpportunity assembles an opportunity from sweep results.
func newOpportunity(
	marketID, slug, question string,
	yesExchange, noExchange string,
	yesTokenID, noTokenID string,
	yesLevels, noLevels []types.BookLevel,
	shares types.Size,
	yesEff, noEff types.Price,
	feePct, score float64,
) *Opportunity {
	grossCost, fees, netProfit, roi := entryEconomics(shares, yesEff, noEff, feePct)

	return &Opportunity{
		ID:          uuid.New().String(),
		MarketID:    marketID,
		Slug:        slug,
		Question:    question,
		YesExchange: yesExchange,
		NoExchange:  noExchange,
		YesTokenID:  yesTokenID,
		NoTokenID:   noTokenID,
		YesLevels:   yesLevels,
		NoLevels:    noLevels,
		Shares:      shares,
		YesEffPrice: yesEff,
		NoEffPrice:  noEff,
		GrossCost:   grossCost,
		Fees:        fees,
		NetProfit:   netProfit,
		ROI:         roi,
		Score:       score,
		ObservedAt:  time.Now(),
	}
}

// String returns a compact human-readable representation.
func (o *Opportunity) String() string {
	return fmt.Sprintf(
		"Opportunity[%s] Market=%s YES=%s NO=%s Shares=%s Net=$%.4f ROI=%.4f",
		o.ID[:8], o.Slug, o.YesEffPrice, o.NoEffPrice, o.Shares, o.NetProfit, o.ROI,
	)
}
