package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/websocket"
	"go.uber.org/zap"
)

// OrderSubmitter executes authenticated venue calls: signed order
// placement and balance reads. Key derivation and signing live outside the
// core; live trading injects an implementation through app.Options.
type OrderSubmitter interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
	Balance(ctx context.Context, currency string) (float64, error)
}

// PolymarketConfig holds the live Polymarket adapter configuration.
type PolymarketConfig struct {
	GammaURL  string // market discovery REST base
	CLOBURL   string // order book REST base
	WSURL     string // market data WebSocket
	Submitter OrderSubmitter

	HTTPTimeout           time.Duration
	MarketLimit           int
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	FeedBufferSize        int
	Logger                *zap.Logger
}

// PolymarketClient is the live Polymarket venue adapter. Market discovery
// and book snapshots go over REST; streaming books ride a websocket.Feed
// with the CLOB frame decoder; authenticated calls delegate to the
// injected OrderSubmitter.
type PolymarketClient struct {
	cfg        PolymarketConfig
	httpClient *http.Client
	logger     *zap.Logger

	feed     *websocket.Feed
	feedOnce sync.Once
	feedErr  error

	snapshotChan chan types.BookSnapshot

	wg sync.WaitGroup
}

// NewPolymarketClient creates the adapter.
func NewPolymarketClient(cfg PolymarketConfig) *PolymarketClient {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.MarketLimit <= 0 {
		cfg.MarketLimit = 500
	}
	if cfg.FeedBufferSize <= 0 {
		cfg.FeedBufferSize = 10000
	}

	c := &PolymarketClient{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: cfg.HTTPTimeout},
		logger:       cfg.Logger,
		snapshotChan: make(chan types.BookSnapshot, cfg.FeedBufferSize),
	}

	c.feed = websocket.NewFeed(websocket.FeedConfig{
		URL:                   cfg.WSURL,
		Decode:                decodePolymarketFrame,
		SubscribePayload:      polymarketSubscribePayload,
		DialTimeout:           cfg.HTTPTimeout,
		ReconnectInitialDelay: cfg.ReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.ReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.ReconnectBackoffMult,
		BufferSize:            cfg.FeedBufferSize,
		Logger:                cfg.Logger,
	})

	return c
}

// Name returns the venue identifier.
func (c *PolymarketClient) Name() string {
	return "polymarket"
}

// gammaMarket is the Gamma API market shape. Outcomes and token IDs arrive
// as JSON-encoded string arrays inside strings.
type gammaMarket struct {
	ID           string  `json:"id"`
	Question     string  `json:"question"`
	Slug         string  `json:"slug"`
	Active       bool    `json:"active"`
	Closed       bool    `json:"closed"`
	EndDate      string  `json:"endDate"`
	Outcomes     string  `json:"outcomes"`
	ClobTokenIDs string  `json:"clobTokenIds"`
	VolumeNum    float64 `json:"volumeNum"`
	TickSize     float64 `json:"orderPriceMinTickSize"`
	MinOrderSize float64 `json:"orderMinSize"`
}

// ListMarkets fetches active binary markets from the Gamma API.
func (c *PolymarketClient) ListMarkets(ctx context.Context) ([]*types.Market, error) {
	endpoint := fmt.Sprintf("%s/markets?active=true&closed=false&limit=%d",
		c.cfg.GammaURL, c.cfg.MarketLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build markets request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch markets: status %d", resp.StatusCode)
	}

	var raw []gammaMarket
	err = json.NewDecoder(resp.Body).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}

	markets := make([]*types.Market, 0, len(raw))
	for i := range raw {
		mk, ok := c.convertMarket(&raw[i])
		if ok {
			markets = append(markets, mk)
		}
	}

	return markets, nil
}

// convertMarket projects a Gamma market onto the unified model. Markets
// without exactly two outcomes are skipped.
func (c *PolymarketClient) convertMarket(g *gammaMarket) (*types.Market, bool) {
	if !g.Active || g.Closed {
		return nil, false
	}

	var outcomes, tokenIDs []string
	if json.Unmarshal([]byte(g.Outcomes), &outcomes) != nil ||
		json.Unmarshal([]byte(g.ClobTokenIDs), &tokenIDs) != nil {
		return nil, false
	}
	if len(outcomes) != 2 || len(tokenIDs) != 2 {
		return nil, false
	}

	closeAt, err := time.Parse(time.RFC3339, g.EndDate)
	if err != nil {
		return nil, false
	}

	yes, no := 0, 1
	if outcomes[0] == "No" || outcomes[0] == "NO" {
		yes, no = 1, 0
	}

	return &types.Market{
		Exchange:     c.Name(),
		ID:           g.ID,
		Slug:         g.Slug,
		Question:     g.Question,
		Yes:          types.OutcomeToken{TokenID: tokenIDs[yes], Outcome: "YES"},
		No:           types.OutcomeToken{TokenID: tokenIDs[no], Outcome: "NO"},
		CloseAt:      closeAt,
		Volume:       g.VolumeNum,
		TickSize:     types.PriceFromFloat(g.TickSize),
		MinOrderSize: types.SizeFromFloat(g.MinOrderSize),
	}, true
}

// SubscribeBook starts the feed on first use, then subscribes the tokens.
func (c *PolymarketClient) SubscribeBook(ctx context.Context, tokenIDs []string) error {
	c.feedOnce.Do(func() {
		c.feedErr = c.feed.Start()
		if c.feedErr != nil {
			return
		}

		// Merge streamed snapshots with REST recovery snapshots onto one
		// channel; deltas pass through untouched.
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for snap := range c.feed.Snapshots() {
				select {
				case c.snapshotChan <- snap:
				default:
					c.logger.Warn("snapshot-channel-full",
						zap.String("token-id", snap.TokenID))
				}
			}
		}()
	})
	if c.feedErr != nil {
		return fmt.Errorf("start book feed: %w", c.feedErr)
	}

	return c.feed.Subscribe(tokenIDs)
}

// clobBook is the CLOB /book REST shape.
type clobBook struct {
	AssetID   string    `json:"asset_id"`
	Timestamp string    `json:"timestamp"`
	Bids      []pmLevel `json:"bids"`
	Asks      []pmLevel `json:"asks"`
}

// RequestSnapshot fetches a fresh book over REST and republishes it onto
// the snapshot channel, recovering from crossed books and sequence gaps.
func (c *PolymarketClient) RequestSnapshot(ctx context.Context, tokenID string) error {
	endpoint := fmt.Sprintf("%s/book?token_id=%s", c.cfg.CLOBURL, url.QueryEscape(tokenID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build book request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch book: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch book: status %d", resp.StatusCode)
	}

	var book clobBook
	err = json.NewDecoder(resp.Body).Decode(&book)
	if err != nil {
		return fmt.Errorf("decode book: %w", err)
	}

	snap := types.BookSnapshot{
		Exchange: c.Name(),
		TokenID:  tokenID,
		Seq:      frameSeq(book.Timestamp, 0),
		Bids:     parseLevels(book.Bids),
		Asks:     parseLevels(book.Asks),
		At:       time.Now(),
	}

	select {
	case c.snapshotChan <- snap:
	default:
		return fmt.Errorf("snapshot channel full for token %s", tokenID)
	}

	return nil
}

// PlaceOrder delegates to the injected submitter.
func (c *PolymarketClient) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if c.cfg.Submitter == nil {
		return OrderResult{}, fmt.Errorf("order submitter not configured")
	}
	return c.cfg.Submitter.PlaceOrder(ctx, req)
}

// GetBalance delegates to the injected submitter; the balance tracker
// falls back to the configured balance when this errors.
func (c *PolymarketClient) GetBalance(ctx context.Context, currency string) (float64, error) {
	if c.cfg.Submitter == nil {
		return 0, fmt.Errorf("order submitter not configured")
	}
	return c.cfg.Submitter.Balance(ctx, currency)
}

// Snapshots returns the merged snapshot channel.
func (c *PolymarketClient) Snapshots() <-chan types.BookSnapshot {
	return c.snapshotChan
}

// Deltas returns the streamed delta channel.
func (c *PolymarketClient) Deltas() <-chan types.BookDelta {
	return c.feed.Deltas()
}

// Close stops the feed and its pipe goroutine.
func (c *PolymarketClient) Close() error {
	var err error
	c.feedOnce.Do(func() {}) // feed never started: nothing to stop
	if c.feedErr == nil {
		err = c.feed.Close()
	}
	c.wg.Wait()
	close(c.snapshotChan)
	return err
}

// pmLevel is one CLOB price level on the wire.
type pmLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// pmMessage is one CLOB market-channel message.
type pmMessage struct {
	EventType    string          `json:"event_type"`
	AssetID      string          `json:"asset_id"`
	Timestamp    string          `json:"timestamp"`
	Bids         []pmLevel       `json:"bids"`
	Asks         []pmLevel       `json:"asks"`
	PriceChanges []pmPriceChange `json:"price_changes"`
}

// pmPriceChange is one level update inside a price_change message.
type pmPriceChange struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Side    string `json:"side"`
}

// polymarketSubscribePayload builds the market-channel subscription.
func polymarketSubscribePayload(tokenIDs []string) interface{} {
	return map[string]interface{}{
		"assets_ids": tokenIDs,
		"type":       "market",
	}
}

// decodePolymarketFrame translates CLOB frames: the venue sends arrays of
// messages; "book" carries full snapshots, "price_change" carries level
// updates. Other event types are not book data.
func decodePolymarketFrame(frame []byte) ([]types.BookSnapshot, []types.BookDelta, error) {
	var messages []pmMessage
	if err := json.Unmarshal(frame, &messages); err != nil {
		var single pmMessage
		if err2 := json.Unmarshal(frame, &single); err2 != nil {
			return nil, nil, err
		}
		messages = []pmMessage{single}
	}

	var snapshots []types.BookSnapshot
	var deltas []types.BookDelta

	for i := range messages {
		msg := &messages[i]

		switch msg.EventType {
		case "book":
			snapshots = append(snapshots, types.BookSnapshot{
				Exchange: "polymarket",
				TokenID:  msg.AssetID,
				Seq:      frameSeq(msg.Timestamp, 0),
				Bids:     parseLevels(msg.Bids),
				Asks:     parseLevels(msg.Asks),
				At:       time.Now(),
			})

		case "price_change":
			for j, change := range msg.PriceChanges {
				price, errP := types.ParsePrice(change.Price)
				size, errS := types.ParseSize(change.Size)
				if errP != nil || errS != nil {
					continue
				}

				side := types.AskSide
				if change.Side == "BUY" {
					side = types.BidSide
				}

				deltas = append(deltas, types.BookDelta{
					Exchange: "polymarket",
					TokenID:  change.AssetID,
					Seq:      frameSeq(msg.Timestamp, j),
					Side:     side,
					Price:    price,
					NewSize:  size,
					At:       time.Now(),
				})
			}
		}
	}

	return snapshots, deltas, nil
}

// frameSeq derives a sequence number from the venue's millisecond
// timestamp. The offset keeps multiple changes inside one frame ordered.
func frameSeq(timestamp string, offset int) uint64 {
	ms, err := strconv.ParseUint(timestamp, 10, 64)
	if err != nil {
		return 0
	}
	return ms*1000 + uint64(offset)
}

func parseLevels(raw []pmLevel) []types.BookLevel {
	levels := make([]types.BookLevel, 0, len(raw))
	for _, lvl := range raw {
		price, errP := types.ParsePrice(lvl.Price)
		size, errS := types.ParseSize(lvl.Size)
		if errP != nil || errS != nil {
			continue
		}
		levels = append(levels, types.BookLevel{Price: price, Size: size})
	}
	return levels
}
