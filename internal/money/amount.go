// Package money provides fixed-point currency amounts counted in minor units.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorDigits is the number of decimal places carried by an Amount.
const MinorDigits = 2

// ErrInvalidAmount is returned when a string cannot be read as an Amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a signed currency value in minor units (cents).
type Amount int64

// Zero is the zero Amount.
const Zero Amount = 0

// MaxAmount is the largest value a single expense or transfer may carry
// (one billion in major units). Keeping entries this small leaves room for
// tens of millions of them before a running int64 balance could overflow.
const MaxAmount Amount = 1_000_000_000_00

// Parse reads a decimal string such as "10", "10.5" or "-3.33".
// More than MinorDigits fractional digits is an error, never rounded.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is Parse for constants and tests. It panics on bad input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal converts a decimal value with at most MinorDigits places.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	minor := d.Shift(MinorDigits)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d, MinorDigits)
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, d)
	}
	return Amount(minor.IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -MinorDigits)
}

// String formats the amount with exactly MinorDigits places, e.g. "3.34".
func (a Amount) String() string {
	return a.Decimal().StringFixed(MinorDigits)
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// MarshalJSON encodes the amount as a decimal string to avoid float rounding.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts both "10.00" and 10.00.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
