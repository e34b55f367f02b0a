package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// wireLevel mirrors a typical venue book frame.
type wireLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type wireBook struct {
	Event   string      `json:"event"`
	TokenID string      `json:"token_id"`
	Seq     uint64      `json:"seq"`
	Bids    []wireLevel `json:"bids"`
	Asks    []wireLevel `json:"asks"`
}

func decodeWire(frame []byte) ([]types.BookSnapshot, []types.BookDelta, error) {
	var msg wireBook
	err := json.Unmarshal(frame, &msg)
	if err != nil || msg.Event != "book" {
		if err == nil {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	snap := types.BookSnapshot{TokenID: msg.TokenID, Seq: msg.Seq, At: time.Now()}
	for _, lvl := range msg.Bids {
		price, _ := types.ParsePrice(lvl.Price)
		size, _ := types.ParseSize(lvl.Size)
		snap.Bids = append(snap.Bids, types.BookLevel{Price: price, Size: size})
	}
	for _, lvl := range msg.Asks {
		price, _ := types.ParsePrice(lvl.Price)
		size, _ := types.ParseSize(lvl.Size)
		snap.Asks = append(snap.Asks, types.BookLevel{Price: price, Size: size})
	}

	return []types.BookSnapshot{snap}, nil, nil
}

// bookServer upgrades connections and answers every subscription with one
// book frame per requested token.
func bookServer(t *testing.T) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var sub struct {
				AssetIDs []string `json:"assets_ids"`
			}
			if err := conn.ReadJSON(&sub); err != nil {
				return
			}

			for _, id := range sub.AssetIDs {
				frame := wireBook{
					Event:   "book",
					TokenID: id,
					Seq:     1,
					Bids:    []wireLevel{{Price: "0.47", Size: "100"}},
					Asks:    []wireLevel{{Price: "0.48", Size: "100"}},
				}
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			}
		}
	}))
}

func TestFeedSubscribeAndDecode(t *testing.T) {
	server := bookServer(t)
	defer server.Close()

	feed := NewFeed(FeedConfig{
		URL:    "ws" + strings.TrimPrefix(server.URL, "http"),
		Decode: decodeWire,
		SubscribePayload: func(tokenIDs []string) interface{} {
			return map[string]interface{}{"assets_ids": tokenIDs, "type": "market"}
		},
		DialTimeout:           2 * time.Second,
		ReconnectInitialDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:     100 * time.Millisecond,
		ReconnectBackoffMult:  2.0,
		BufferSize:            16,
		Logger:                zap.NewNop(),
	})

	err := feed.Start()
	if err != nil {
		t.Fatalf("Start error = %v", err)
	}
	defer feed.Close()

	err = feed.Subscribe([]string{"tok-1", "tok-2"})
	if err != nil {
		t.Fatalf("Subscribe error = %v", err)
	}

	seen := make(map[string]bool)
	timeout := time.After(3 * time.Second)
	for len(seen) < 2 {
		select {
		case snap := <-feed.Snapshots():
			seen[snap.TokenID] = true
			if len(snap.Asks) != 1 || snap.Asks[0].Price != types.PriceFromFloat(0.48) {
				t.Errorf("decoded asks = %v", snap.Asks)
			}
		case <-timeout:
			t.Fatalf("snapshots seen = %v, want both tokens", seen)
		}
	}

	// Resubscribing the same tokens is a no-op.
	err = feed.Subscribe([]string{"tok-1"})
	if err != nil {
		t.Fatalf("repeat Subscribe error = %v", err)
	}
}
