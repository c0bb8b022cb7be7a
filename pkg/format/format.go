// Package format renders market numbers as display strings.
//
// Rounding is done on the shortest decimal representation of the float,
// half away from zero, so 999.995 renders as 1,000.00 rather than 999.99.
// This differs from banker's rounding and from rounding the exact binary
// value (as JavaScript's toFixed does) on ties: 0.125 renders as 0.13 where
// half-to-even gives 0.12, and 1.005 renders as 1.01 where toFixed gives 1.00.
// Every function is total: NaN and ±Inf render as NotAvailable.
package format

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// NotAvailable is rendered for non-finite input.
const NotAvailable = "N/A"

const (
	trillion = 1e12
	billion  = 1e9
	million  = 1e6
)

// Price renders a unit price: two decimals at or above 1, four to six decimals
// below 1 so small-denomination assets keep their precision.
func Price(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	if v >= 1 {
		return currency(v, 2, 2)
	}
	return currency(v, 4, 6)
}

// MarketCap renders large values with a T/B/M suffix and two decimals, and
// smaller values as a grouped whole number.
func MarketCap(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	switch {
	case v >= trillion:
		return "$" + fixed(v/trillion, 2) + "T"
	case v >= billion:
		return "$" + fixed(v/billion, 2) + "B"
	case v >= million:
		return "$" + fixed(v/million, 2) + "M"
	}
	return currency(v, 0, 0)
}

// Percentage renders a signed percentage with two decimals. Zero gets a "+".
func Percentage(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return signed(v, 2) + "%"
}

// SignedPercent1 renders a signed percentage with one decimal.
func SignedPercent1(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return signed(v, 1) + "%"
}

// Currency renders an investment value: millions get an M suffix, thousands
// are grouped, everything carries two decimals.
func Currency(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	if v >= million {
		return "$" + fixed(v/million, 2) + "M"
	}
	return currency(v, 2, 2)
}

// Quantity renders a unit holding: six decimals below one unit, four otherwise.
func Quantity(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	if math.Abs(v) < 1 {
		return fixed(v, 6)
	}
	return fixed(v, 4)
}

// Gain reports the single direction flag for a move from initial to current.
func Gain(initial, current float64) bool {
	return current-initial >= 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// fixed rounds v to exactly places decimals. A negative value that rounds to
// zero keeps its minus sign.
func fixed(v float64, places int32) string {
	s := decimal.NewFromFloat(v).StringFixed(places)
	if v < 0 && !strings.HasPrefix(s, "-") {
		s = "-" + s
	}
	return s
}

// signed prefixes non-negative values with "+".
func signed(v float64, places int32) string {
	s := fixed(v, places)
	if v >= 0 {
		return "+" + s
	}
	return s
}

// currency renders "$" plus a grouped number with between minPlaces and
// maxPlaces decimals. Negative values render as "-$...".
func currency(v float64, minPlaces, maxPlaces int32) string {
	neg := v < 0
	s := fixed(math.Abs(v), maxPlaces)
	if maxPlaces > minPlaces {
		s = trimZeros(s, minPlaces)
	}
	s = group(s)
	if neg {
		return "-$" + s
	}
	return "$" + s
}

// trimZeros drops trailing fractional zeros but keeps at least minPlaces.
func trimZeros(s string, minPlaces int32) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}
	keep := dot + 1 + int(minPlaces)
	end := len(s)
	for end > keep && s[end-1] == '0' {
		end--
	}
	if minPlaces == 0 && end == dot+1 {
		end = dot
	}
	return s[:end]
}

// group inserts thousands separators into the integer part of s.
func group(s string) string {
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot:]
	}
	n, err := decimal.NewFromString(intPart)
	if err != nil || !n.IsInteger() {
		return s
	}
	if n.LessThan(decimal.NewFromInt(math.MaxInt64)) {
		return humanize.Comma(n.IntPart()) + frac
	}
	return humanize.BigComma(n.BigInt()) + frac
}
