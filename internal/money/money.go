// Package money implements an exact decimal money value represented as whole
// currency units plus a signed nano fraction (1e-9 units). Arithmetic never
// goes through floating point, so repeated sums of prices cannot drift.
package money

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const (
	// NanosMod is the number of nano units in one whole unit.
	NanosMod = 1_000_000_000

	nanosMin = -999_999_999
	nanosMax = 999_999_999
)

// Arithmetic contract violations. These indicate a bug in the caller, not a
// runtime condition worth retrying.
var (
	ErrInvalidMoney        = errors.New("invalid money value")
	ErrMismatchingCurrency = errors.New("mismatching currency codes")
	ErrInvalidMultiplier   = errors.New("multiplier must be positive")
)

// Money is an amount of Units + Nanos/1e9 in the currency identified by
// CurrencyCode (ISO 4217). The zero value is "0 of no currency". Values are
// immutable; operations return new values.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	Units        int64  `json:"units"`
	Nanos        int32  `json:"nanos"`
}

// New returns a Money value without validating it. Use IsValid to check.
func New(units int64, nanos int32, currencyCode string) Money {
	return Money{CurrencyCode: currencyCode, Units: units, Nanos: nanos}
}

// IsValid reports whether the value satisfies the representation invariants:
// nanos within ±(1e9−1) and units/nanos not of opposing signs.
func (m Money) IsValid() bool {
	return m.signMatches() && m.Nanos >= nanosMin && m.Nanos <= nanosMax
}

func (m Money) signMatches() bool {
	return m.Nanos == 0 || m.Units == 0 || (m.Nanos < 0) == (m.Units < 0)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Units == 0 && m.Nanos == 0
}

// IsPositive reports whether the value is valid and greater than zero.
func (m Money) IsPositive() bool {
	return m.IsValid() && (m.Units > 0 || (m.Units == 0 && m.Nanos > 0))
}

// IsNegative reports whether the value is valid and less than zero.
func (m Money) IsNegative() bool {
	return m.IsValid() && (m.Units < 0 || (m.Units == 0 && m.Nanos < 0))
}

// SameCurrency reports whether a and b both carry the same non-empty
// currency code.
func SameCurrency(a, b Money) bool {
	return a.CurrencyCode != "" && a.CurrencyCode == b.CurrencyCode
}

// Equals reports structural equality, currency code included.
func (m Money) Equals(o Money) bool {
	return m == o
}

// Negate returns the same amount with the sign flipped.
func (m Money) Negate() Money {
	return Money{
		CurrencyCode: m.CurrencyCode,
		Units:        -m.Units,
		Nanos:        -m.Nanos,
	}
}

// Sum adds two money values of the same currency.
//
// After the raw component-wise add, the result is normalized in one of two
// ways: when units and nanos agree in sign (or either is zero) the nanos
// overflow is carried into units; when they disagree, one unit is borrowed
// toward zero to restore the sign invariant. The borrow case cannot push
// nanos out of range because both operands were valid.
func Sum(a, b Money) (Money, error) {
	if !a.IsValid() || !b.IsValid() {
		return Money{}, errors.Wrap(ErrInvalidMoney, "sum")
	}
	if !SameCurrency(a, b) {
		return Money{}, errors.Wrapf(ErrMismatchingCurrency, "sum %q and %q", a.CurrencyCode, b.CurrencyCode)
	}

	units := a.Units + b.Units
	nanos := int64(a.Nanos) + int64(b.Nanos)

	if (units >= 0 && nanos >= 0) || (units <= 0 && nanos <= 0) {
		// Same sign: carry nanos overflow into units.
		units += nanos / NanosMod
		nanos %= NanosMod
	} else {
		// Opposing signs: borrow one unit toward zero.
		if units > 0 {
			units--
			nanos += NanosMod
		} else {
			units++
			nanos -= NanosMod
		}
	}

	return Money{
		CurrencyCode: a.CurrencyCode,
		Units:        units,
		Nanos:        int32(nanos),
	}, nil
}

// Multiply returns m added to itself n times. n must be positive.
//
// For a valid operand every partial sum keeps the sign of m, so the repeated
// Sum definition only ever hits the carry branch of normalization; computing
// the carry once over n*nanos yields the identical result in O(1).
func Multiply(m Money, n int) (Money, error) {
	if !m.IsValid() {
		return Money{}, errors.Wrap(ErrInvalidMoney, "multiply")
	}
	if n <= 0 {
		return Money{}, errors.Wrapf(ErrInvalidMultiplier, "multiply by %d", n)
	}

	nanos := int64(m.Nanos) * int64(n)
	return Money{
		CurrencyCode: m.CurrencyCode,
		Units:        m.Units*int64(n) + nanos/NanosMod,
		Nanos:        int32(nanos % NanosMod),
	}, nil
}

// FromDecimal converts a decimal amount into Money, rounding the fraction to
// nanos half away from zero.
func FromDecimal(d decimal.Decimal, currencyCode string) Money {
	units := d.Truncate(0)
	nanos := d.Sub(units).Mul(decimal.New(NanosMod, 0)).Round(0)

	u := units.IntPart()
	n := nanos.IntPart()

	// Rounding can produce a full unit worth of nanos.
	if n >= NanosMod {
		u++
		n -= NanosMod
	} else if n <= -NanosMod {
		u--
		n += NanosMod
	}

	return Money{CurrencyCode: currencyCode, Units: u, Nanos: int32(n)}
}

// Decimal returns the amount as an exact decimal, dropping the currency.
func (m Money) Decimal() decimal.Decimal {
	units := decimal.New(m.Units, 0)
	nanos := decimal.New(int64(m.Nanos), -9)
	return units.Add(nanos)
}

// Format renders the amount for logs and messages, e.g. "12.34 USD".
func (m Money) Format() string {
	if m.CurrencyCode == "" {
		return m.Decimal().StringFixed(2)
	}
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(2), m.CurrencyCode)
}
