package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{999.995, "$1,000.00"},
		{43250.5, "$43,250.50"},
		{1, "$1.00"},
		{0.5, "$0.5000"},
		{0.0000123, "$0.000012"},
		{0.12345678, "$0.123457"},
		{0, "$0.0000"},
		{-5, "-$5.0000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Price(tc.in), "Price(%v)", tc.in)
	}
}

func TestMarketCap(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1_500_000_000, "$1.50B"},
		{999, "$999"},
		{2_345_678_901_234, "$2.35T"},
		{12_340_000, "$12.34M"},
		{123_456.7, "$123,457"},
		{0, "$0"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MarketCap(tc.in), "MarketCap(%v)", tc.in)
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "-3.46%", Percentage(-3.456))
	assert.Equal(t, "+0.00%", Percentage(0))
	assert.Equal(t, "+12.35%", Percentage(12.345))
	assert.Equal(t, "-0.00%", Percentage(-0.001))
}

func TestCurrencyAndQuantity(t *testing.T) {
	assert.Equal(t, "$1.50M", Currency(1_500_000))
	assert.Equal(t, "$1,500.00", Currency(1500))
	assert.Equal(t, "$99.90", Currency(99.9))
	assert.Equal(t, "0.025000", Quantity(0.025))
	assert.Equal(t, "10.0000", Quantity(10))
	assert.Equal(t, "+50.0%", SignedPercent1(50))
	assert.Equal(t, "-12.3%", SignedPercent1(-12.34))
}

func TestRoundsTiesAwayFromZero(t *testing.T) {
	assert.Equal(t, "+0.13%", Percentage(0.125))
	assert.Equal(t, "-0.13%", Percentage(-0.125))
	assert.Equal(t, "$1.01", Price(1.005))
	assert.Equal(t, "$2.50", Currency(2.495))
}

func TestNonFiniteInput(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equal(t, NotAvailable, Price(v))
		assert.Equal(t, NotAvailable, MarketCap(v))
		assert.Equal(t, NotAvailable, Percentage(v))
		assert.Equal(t, NotAvailable, Currency(v))
		assert.Equal(t, NotAvailable, Quantity(v))
		assert.Equal(t, NotAvailable, SignedPercent1(v))
	}
}

func TestGain(t *testing.T) {
	assert.True(t, Gain(100, 100))
	assert.True(t, Gain(100, 150))
	assert.False(t, Gain(100, 99.99))
}
