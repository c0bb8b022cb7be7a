package util

import (
	"math"
	"time"
)

// FromUnixMillis converts a millisecond epoch timestamp as sent in JSON arrays
// (a float, possibly fractional) into a UTC time.
func FromUnixMillis(ms float64) time.Time {
	whole, frac := math.Modf(ms)
	return time.UnixMilli(int64(whole)).Add(time.Duration(frac * float64(time.Millisecond))).UTC()
}
