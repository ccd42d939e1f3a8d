package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var maxSpend = decimal.NewFromInt(MaxSpendAmount)

// Bounds checked before any decimal comparison. Comparing rescales both sides
// to a common exponent, so "1e2000000000" would otherwise allocate a huge integer.
const (
	maxAmountLength   = 32
	maxAmountExponent = 12
)

// ParseAmount parses user input into a spend amount. Digit-group commas and
// surrounding blanks are ignored; fractions, negatives and non-numbers fail
// with ErrInvalidAmount.
func ParseAmount(raw string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}

	if len(s) > maxAmountLength {
		return 0, fmt.Errorf("%w: maximum amount is %d", ErrInvalidAmount, MaxSpendAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}

	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, raw)
	}

	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %q is not a whole amount", ErrInvalidAmount, raw)
	}

	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, raw)
	}

	if d.GreaterThan(maxSpend) {
		return 0, fmt.Errorf("%w: maximum amount is %d", ErrInvalidAmount, MaxSpendAmount)
	}

	return d.IntPart(), nil
}

// ParsePrice is ParseAmount for line-item prices: anything unparsable counts as 0.
func ParsePrice(raw string) int64 {
	v, err := ParseAmount(raw)
	if err != nil {
		return 0
	}
	return v
}
