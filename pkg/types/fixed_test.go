package types

import (
	"testing"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Price
		wantErr bool
	}{
		{name: "whole-dollar", input: "1", want: 1_000_000},
		{name: "cents", input: "0.48", want: 480_000},
		{name: "six-decimals", input: "0.123456", want: 123_456},
		{name: "truncates-beyond-six", input: "0.1234567", want: 123_456},
		{name: "zero", input: "0", want: 0},
		{name: "garbage", input: "not-a-price", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrice(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	got, err := ParseSize("100.5")
	if err != nil {
		t.Fatalf("ParseSize error = %v", err)
	}
	if got != 1_005_000 {
		t.Errorf("ParseSize(100.5) = %d, want 1005000", got)
	}
}

func TestPriceRoundUpToTick(t *testing.T) {
	cent := Price(10_000) // 0.01

	tests := []struct {
		name string
		p    Price
		want Price
	}{
		{name: "already-on-tick", p: 480_000, want: 480_000},
		{name: "between-ticks", p: 481_500, want: 490_000},
		{name: "just-above-tick", p: 480_001, want: 490_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.p.RoundUpToTick(cent)
			if got != tt.want {
				t.Errorf("RoundUpToTick(%d) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestSizeShares(t *testing.T) {
	s := SizeFromFloat(20.75)
	if s.Shares() != 20 {
		t.Errorf("Shares() = %d, want 20", s.Shares())
	}
	if s.Truncate() != WholeShares(20) {
		t.Errorf("Truncate() = %d, want %d", s.Truncate(), WholeShares(20))
	}
}

func TestCost(t *testing.T) {
	// 0.48 * 100 shares = 48 dollars = 48_000_000 micro-dollars.
	got := Cost(480_000, WholeShares(100))
	if got != 48_000_000 {
		t.Errorf("Cost = %d, want 48000000", got)
	}
}
