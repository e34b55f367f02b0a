package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Prices carry 6 decimal places and sizes 4. All order book and impact
// arithmetic runs on these integer representations; decimal is used only at
// the exchange boundary for parsing and tick rounding.
const (
	PriceScale = 1_000_000
	SizeScale  = 10_000
)

// Price is a share price in micro-units (1.0 == 1_000_000).
type Price int64

// Size is a share quantity in ten-thousandths (1 share == 10_000).
type Size int64

// ParsePrice parses an exchange price string into fixed-point micro-units.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return PriceFromDecimal(d), nil
}

// ParseSize parses an exchange size string into fixed-point units.
func ParseSize(s string) (Size, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", s, err)
	}
	return SizeFromDecimal(d), nil
}

// PriceFromDecimal truncates d to 6 decimal places.
func PriceFromDecimal(d decimal.Decimal) Price {
	return Price(d.Shift(6).IntPart())
}

// SizeFromDecimal truncates d to 4 decimal places.
func SizeFromDecimal(d decimal.Decimal) Size {
	return Size(d.Shift(4).IntPart())
}

// PriceFromFloat converts a float dollar price to fixed point.
func PriceFromFloat(f float64) Price {
	return PriceFromDecimal(decimal.NewFromFloat(f))
}

// SizeFromFloat converts a float share count to fixed point.
func SizeFromFloat(f float64) Size {
	return SizeFromDecimal(decimal.NewFromFloat(f))
}

// WholeShares returns n whole shares as a Size.
func WholeShares(n int64) Size {
	return Size(n * SizeScale)
}

// Decimal returns the price as a decimal dollar amount.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -6)
}

// Float64 returns the price as a float dollar amount.
func (p Price) Float64() float64 {
	return float64(p) / PriceScale
}

// RoundUpToTick rounds the price up to the next multiple of tick.
// Used when converting an effective price into an aggressive limit price.
func (p Price) RoundUpToTick(tick Price) Price {
	if tick <= 0 {
		return p
	}
	rem := p % tick
	if rem == 0 {
		return p
	}
	return p - rem + tick
}

func (p Price) String() string {
	return p.Decimal().StringFixed(6)
}

// Decimal returns the size as a decimal share count.
func (s Size) Decimal() decimal.Decimal {
	return decimal.New(int64(s), -4)
}

// Float64 returns the size as a float share count.
func (s Size) Float64() float64 {
	return float64(s) / SizeScale
}

// Shares returns the number of whole shares, truncating fractions.
func (s Size) Shares() int64 {
	return int64(s) / SizeScale
}

// Truncate drops any fractional share component.
func (s Size) Truncate() Size {
	return Size(s.Shares() * SizeScale)
}

func (s Size) String() string {
	return s.Decimal().StringFixed(4)
}

// Cost returns price*size in micro-dollars.
func Cost(p Price, s Size) int64 {
	return int64(p) * int64(s) / SizeScale
}
