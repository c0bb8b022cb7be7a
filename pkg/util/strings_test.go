package util

import "testing"

func TestParseAmount(t *testing.T) {
	cases := map[string]float64{
		"1000":      1000,
		" 2500.50 ": 2500.5,
		"$10,000":   10000,
		"":          0,
		"abc":       0,
		"-5":        0,
		"0":         0,
		"1e3":       1000,
	}
	for in, want := range cases {
		if got := ParseAmount(in); got != want {
			t.Fatalf("ParseAmount(%q) = %v, want %v", in, got, want)
		}
	}
}
