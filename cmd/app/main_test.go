package main

import (
	"testing"
	"time"
)

func TestUntilMidnight(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	if got := untilMidnight(now); got != 30*time.Minute {
		t.Fatalf("expected 30m, got %v", got)
	}
}
