package httpserver

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/arbitrage"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/position"
	"github.com/minculusofia-wq/arbitrage-polymarket/internal/risk"
	"go.uber.org/zap"
)

// OpportunitySource exposes the live opportunity set.
type OpportunitySource interface {
	TopK(k int) []*arbitrage.Opportunity
}

// PositionSource exposes open positions.
type PositionSource interface {
	All() []position.Position
}

// RiskSource exposes the rolling risk state.
type RiskSource interface {
	DailySnapshot() risk.Snapshot
}

// APIHandler serves the read-only JSON API.
type APIHandler struct {
	opportunities OpportunitySource
	positions     PositionSource
	risk          RiskSource
	logger        *zap.Logger
}

// NewAPIHandler creates the API handler. Sources may be nil; the matching
// endpoints then return 404.
func NewAPIHandler(o OpportunitySource, p PositionSource, r RiskSource, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		opportunities: o,
		positions:     p,
		risk:          r,
		logger:        logger,
	}
}

type opportunityView struct {
	ID          string  `json:"id"`
	MarketID    string  `json:"market_id"`
	Slug        string  `json:"slug"`
	YesExchange string  `json:"yes_exchange"`
	NoExchange  string  `json:"no_exchange"`
	YesEffPrice string  `json:"yes_eff_price"`
	NoEffPrice  string  `json:"no_eff_price"`
	Shares      string  `json:"shares"`
	NetProfit   float64 `json:"net_profit"`
	ROI         float64 `json:"roi"`
	Score       float64 `json:"score"`
	ObservedAt  string  `json:"observed_at"`
}

// HandleOpportunities returns the top-K live opportunities by ROI.
func (h *APIHandler) HandleOpportunities(w http.ResponseWriter, r *http.Request) {
	if h.opportunities == nil {
		http.NotFound(w, r)
		return
	}

	k := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			k = parsed
		}
	}

	opportunities := h.opportunities.TopK(k)
	views := make([]opportunityView, 0, len(opportunities))
	for _, o := range opportunities {
		views = append(views, opportunityView{
			ID:          o.ID,
			MarketID:    o.MarketID,
			Slug:        o.Slug,
			YesExchange: o.YesExchange,
			NoExchange:  o.NoExchange,
			YesEffPrice: o.YesEffPrice.String(),
			NoEffPrice:  o.NoEffPrice.String(),
			Shares:      o.Shares.String(),
			NetProfit:   o.NetProfit,
			ROI:         o.ROI,
			Score:       o.Score,
			ObservedAt:  o.ObservedAt.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}

	h.writeJSON(w, views)
}

type positionView struct {
	MarketID    string  `json:"market_id"`
	YesExchange string  `json:"yes_exchange"`
	NoExchange  string  `json:"no_exchange"`
	YesShares   string  `json:"yes_shares"`
	NoShares    string  `json:"no_shares"`
	YesAvgPrice string  `json:"yes_avg_price"`
	NoAvgPrice  string  `json:"no_avg_price"`
	CostBasis   float64 `json:"cost_basis"`
	OpenedAt    string  `json:"opened_at"`
}

// HandlePositions returns open positions.
func (h *APIHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	if h.positions == nil {
		http.NotFound(w, r)
		return
	}

	open := h.positions.All()
	views := make([]positionView, 0, len(open))
	for i := range open {
		p := &open[i]
		views = append(views, positionView{
			MarketID:    p.MarketID,
			YesExchange: p.YesExchange,
			NoExchange:  p.NoExchange,
			YesShares:   p.YesShares.String(),
			NoShares:    p.NoShares.String(),
			YesAvgPrice: p.YesAvgPrice.String(),
			NoAvgPrice:  p.NoAvgPrice.String(),
			CostBasis:   p.CostBasis(),
			OpenedAt:    p.OpenedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	h.writeJSON(w, views)
}

type riskView struct {
	DailyPnL        float64 `json:"daily_pnl"`
	DailyTradeCount int     `json:"daily_trade_count"`
	DailyDate       string  `json:"daily_date"`
	Halted          bool    `json:"halted"`
}

// HandleRisk returns the rolling risk state.
func (h *APIHandler) HandleRisk(w http.ResponseWriter, r *http.Request) {
	if h.risk == nil {
		http.NotFound(w, r)
		return
	}

	snap := h.risk.DailySnapshot()
	h.writeJSON(w, riskView{
		DailyPnL:        snap.DailyPnL,
		DailyTradeCount: snap.DailyTradeCount,
		DailyDate:       snap.DailyDate,
		Halted:          snap.Halted,
	})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		h.logger.Error("encode-response-failed", zap.Error(err))
	}
}
