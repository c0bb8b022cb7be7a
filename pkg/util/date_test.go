package util

import (
	"testing"
	"time"
)

func TestFromUnixMillis(t *testing.T) {
	want := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := FromUnixMillis(float64(want.UnixMilli()))
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", got.Location())
	}
}

func TestFromUnixMillisFraction(t *testing.T) {
	got := FromUnixMillis(1500.5)
	if got.UnixNano() != 1_500_500_000 {
		t.Fatalf("unexpected nanos %d", got.UnixNano())
	}
}
