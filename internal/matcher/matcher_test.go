package matcher

import (
	"reflect"
	"testing"
	"time"

	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{
			name:  "strips-stopwords-and-punctuation",
			title: "Will X win?",
			want:  []string{"win", "x"},
		},
		{
			name:  "infinitive-form",
			title: "X to win",
			want:  []string{"win", "x"},
		},
		{
			name:  "dedupes-tokens",
			title: "win win win",
			want:  []string{"win"},
		},
		{
			name:  "keeps-numbers",
			title: "Will BTC close above 100000 on Dec 31?",
			want:  []string{"100000", "31", "above", "btc", "close", "dec"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.title)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{name: "identical", a: []string{"a", "b"}, b: []string{"a", "b"}, want: 1.0},
		{name: "disjoint", a: []string{"a"}, b: []string{"b"}, want: 0.0},
		{name: "partial", a: []string{"a", "b", "c"}, b: []string{"b", "c", "d"}, want: 0.5},
		{name: "empty", a: nil, b: []string{"a"}, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Jaccard(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Jaccard = %f, want %f", got, tt.want)
			}
		})
	}
}

func market(exchangeName, id, question string, closeAt time.Time) *types.Market {
	return &types.Market{
		Exchange: exchangeName,
		ID:       id,
		Slug:     id,
		Question: question,
		CloseAt:  closeAt,
	}
}

func TestMatcherFormsPairAcrossVenues(t *testing.T) {
	m := New(zap.NewNop(), nil)
	close := time.Now().Add(48 * time.Hour)

	pairs := m.AddMarket(market("polymarket", "m1", "Will X win?", close))
	if len(pairs) != 0 {
		t.Fatalf("single market formed %d pairs", len(pairs))
	}

	pairs = m.AddMarket(market("kalshi", "k1", "X to win", close.Add(6*time.Hour)))
	if len(pairs) != 1 {
		t.Fatalf("formed %d pairs, want 1", len(pairs))
	}
	if pairs[0].Similarity < 0.80 {
		t.Errorf("similarity = %f, want >= 0.80", pairs[0].Similarity)
	}
}

func TestMatcherRejectsDistantCloseTimes(t *testing.T) {
	m := New(zap.NewNop(), nil)
	close := time.Now().Add(48 * time.Hour)

	m.AddMarket(market("polymarket", "m1", "Will X win?", close))
	pairs := m.AddMarket(market("kalshi", "k1", "X to win", close.Add(30*time.Hour)))
	if len(pairs) != 0 {
		t.Errorf("markets closing 30h apart paired")
	}
}

func TestMatcherRejectsDissimilarTitles(t *testing.T) {
	m := New(zap.NewNop(), nil)
	close := time.Now().Add(48 * time.Hour)

	m.AddMarket(market("polymarket", "m1", "Will X win the election?", close))
	pairs := m.AddMarket(market("kalshi", "k1", "Will it rain in London tomorrow?", close))
	if len(pairs) != 0 {
		t.Errorf("dissimilar titles paired")
	}
}

func TestMatcherIgnoresSameVenue(t *testing.T) {
	m := New(zap.NewNop(), nil)
	close := time.Now().Add(48 * time.Hour)

	m.AddMarket(market("polymarket", "m1", "Will X win?", close))
	pairs := m.AddMarket(market("polymarket", "m2", "Will X win?", close))
	if len(pairs) != 0 {
		t.Errorf("same-venue markets paired")
	}
}

func TestMatcherRemoveMarketDropsPairs(t *testing.T) {
	m := New(zap.NewNop(), nil)
	close := time.Now().Add(48 * time.Hour)

	m.AddMarket(market("polymarket", "m1", "Will X win?", close))
	m.AddMarket(market("kalshi", "k1", "X to win", close))
	if len(m.Pairs()) != 1 {
		t.Fatalf("pairs = %d, want 1", len(m.Pairs()))
	}

	m.RemoveMarket("polymarket", "m1")
	if len(m.Pairs()) != 0 {
		t.Errorf("pairs = %d after removal, want 0", len(m.Pairs()))
	}
}
