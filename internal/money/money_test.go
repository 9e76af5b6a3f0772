package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(units int64, nanos int32) Money {
	return New(units, nanos, "USD")
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		m     Money
		valid bool
	}{
		{"zero", usd(0, 0), true},
		{"positive", usd(10, 500_000_000), true},
		{"negative", usd(-10, -500_000_000), true},
		{"units only", usd(3, 0), true},
		{"nanos only", usd(0, 990_000_000), true},
		{"sign conflict pos units", usd(1, -1), false},
		{"sign conflict neg units", usd(-1, 1), false},
		{"nanos too large", usd(0, 1_000_000_000), false},
		{"nanos too small", usd(0, -1_000_000_000), false},
		{"nanos at max", usd(1, 999_999_999), true},
		{"nanos at min", usd(-1, -999_999_999), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.m.IsValid())
		})
	}
}

func TestSigns(t *testing.T) {
	assert.True(t, usd(0, 0).IsZero())
	assert.False(t, usd(0, 1).IsZero())

	assert.True(t, usd(2, 0).IsPositive())
	assert.True(t, usd(0, 1).IsPositive())
	assert.False(t, usd(0, 0).IsPositive())
	assert.False(t, usd(-2, 0).IsPositive())
	assert.False(t, usd(1, -1).IsPositive(), "invalid value is never positive")

	assert.True(t, usd(-2, 0).IsNegative())
	assert.True(t, usd(0, -1).IsNegative())
	assert.False(t, usd(0, 0).IsNegative())
	assert.False(t, usd(-1, 1).IsNegative(), "invalid value is never negative")
}

func TestSameCurrency(t *testing.T) {
	assert.True(t, SameCurrency(usd(1, 0), usd(2, 0)))
	assert.False(t, SameCurrency(usd(1, 0), New(1, 0, "EUR")))
	assert.False(t, SameCurrency(New(1, 0, ""), New(1, 0, "")))
}

func TestSum_Carry(t *testing.T) {
	got, err := Sum(usd(0, 900_000_000), usd(0, 200_000_000))
	require.NoError(t, err)
	assert.Equal(t, usd(1, 100_000_000), got)
}

func TestSum_Borrow(t *testing.T) {
	// Operands with a sign-conflicted representation are rejected before
	// normalization gets a chance to run.
	_, err := Sum(usd(1, -900_000_000), usd(-2, 800_000_000))
	require.ErrorIs(t, err, ErrInvalidMoney)

	// The borrow rule is reached through valid operands whose raw
	// component-wise sum has conflicting signs.
	got, err := Sum(usd(2, 100_000_000), usd(-1, -200_000_000))
	require.NoError(t, err)
	assert.Equal(t, usd(0, 900_000_000), got)
	require.True(t, got.IsValid())

	got, err = Sum(usd(-2, -100_000_000), usd(1, 200_000_000))
	require.NoError(t, err)
	assert.Equal(t, usd(0, -900_000_000), got)
	require.True(t, got.IsValid())
}

func TestSum_ZeroUnitsOperands(t *testing.T) {
	// A zero component counts as sign-consistent, so sums with zero units
	// or zero nanos normalize to valid values too.
	cases := []struct {
		a, b, want Money
	}{
		{usd(0, 300_000_000), usd(0, 200_000_000), usd(0, 500_000_000)},
		{usd(0, -1), usd(0, -1), usd(0, -2)},
		{usd(0, -1), usd(0, 999_999_999), usd(0, 999_999_998)},
		{usd(0, -900_000_000), usd(0, -200_000_000), usd(-1, -100_000_000)},
		{usd(3, 0), usd(0, -500_000_000), usd(2, 500_000_000)},
	}
	for _, tc := range cases {
		got, err := Sum(tc.a, tc.b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "sum(%v,%v)", tc.a, tc.b)
		assert.True(t, got.IsValid(), "sum(%v,%v) = %v is invalid", tc.a, tc.b, got)
	}
}

func TestSum_InvalidOperand(t *testing.T) {
	_, err := Sum(usd(1, -1), usd(1, 0))
	assert.ErrorIs(t, err, ErrInvalidMoney)

	_, err = Sum(usd(1, 0), usd(-1, 1))
	assert.ErrorIs(t, err, ErrInvalidMoney)
}

func TestSum_CurrencyMismatch(t *testing.T) {
	_, err := Sum(usd(1, 0), New(1, 0, "EUR"))
	assert.ErrorIs(t, err, ErrMismatchingCurrency)

	_, err = Sum(New(1, 0, ""), New(1, 0, ""))
	assert.ErrorIs(t, err, ErrMismatchingCurrency)
}

func TestSum_Commutative(t *testing.T) {
	values := []Money{
		usd(0, 0),
		usd(0, 999_999_999),
		usd(5, 250_000_000),
		usd(-3, -750_000_000),
		usd(123, 0),
		usd(0, -1),
	}
	for _, a := range values {
		for _, b := range values {
			ab, err1 := Sum(a, b)
			ba, err2 := Sum(b, a)
			require.NoError(t, err1)
			require.NoError(t, err2)
			assert.True(t, ab.Equals(ba), "sum(%v,%v) != sum(%v,%v)", a, b, b, a)
			assert.True(t, ab.IsValid(), "sum(%v,%v) = %v is invalid", a, b, ab)
		}
	}
}

func TestSum_NegateIsZero(t *testing.T) {
	values := []Money{
		usd(0, 0),
		usd(7, 125_000_000),
		usd(-7, -125_000_000),
		usd(0, 999_999_999),
	}
	for _, a := range values {
		got, err := Sum(a, a.Negate())
		require.NoError(t, err)
		assert.True(t, got.IsZero(), "sum(%v, -%v) = %v", a, a, got)
	}
}

func TestMultiply_EqualsRepeatedSum(t *testing.T) {
	values := []Money{
		usd(10, 500_000_000),
		usd(0, 333_333_333),
		usd(-2, -999_999_999),
		usd(1, 0),
	}
	for _, m := range values {
		acc := m
		for n := 1; n <= 25; n++ {
			got, err := Multiply(m, n)
			require.NoError(t, err)
			assert.Equal(t, acc, got, "multiply(%v, %d)", m, n)
			assert.True(t, got.IsValid())

			var sumErr error
			acc, sumErr = Sum(acc, m)
			require.NoError(t, sumErr)
		}
	}
}

func TestMultiply_InvalidArgs(t *testing.T) {
	_, err := Multiply(usd(1, 0), 0)
	assert.ErrorIs(t, err, ErrInvalidMultiplier)

	_, err = Multiply(usd(1, 0), -3)
	assert.ErrorIs(t, err, ErrInvalidMultiplier)

	_, err = Multiply(usd(1, -1), 2)
	assert.ErrorIs(t, err, ErrInvalidMoney)
}

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want Money
	}{
		{"10.50", usd(10, 500_000_000)},
		{"3.33", usd(3, 330_000_000)},
		{"8.99", usd(8, 990_000_000)},
		{"-4.25", usd(-4, -250_000_000)},
		{"0", usd(0, 0)},
		{"0.000000001", usd(0, 1)},
		{"2.9999999999", usd(3, 0)}, // rounds up into a carried unit
	}
	for _, tt := range tests {
		got := FromDecimal(decimal.RequireFromString(tt.in), "USD")
		assert.Equal(t, tt.want, got, "FromDecimal(%s)", tt.in)
		assert.True(t, got.IsValid())
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	m := usd(12, 340_000_000)
	assert.True(t, decimal.RequireFromString("12.34").Equal(m.Decimal()))
	assert.Equal(t, m, FromDecimal(m.Decimal(), "USD"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "12.34 USD", usd(12, 340_000_000).Format())
	assert.Equal(t, "-0.50 EUR", New(0, -500_000_000, "EUR").Format())
	assert.Equal(t, "1.00", New(1, 0, "").Format())
}
