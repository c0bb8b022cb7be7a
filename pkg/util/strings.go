package util

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a user-entered money amount. Surrounding spaces, a leading
// "$" and thousands separators are tolerated. Anything unparseable, non-finite
// or not positive yields 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	v := d.InexactFloat64()
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}
