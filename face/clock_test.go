package face

import (
	"errors"
	"testing"
	"time"
)

func TestManualClockAdvance(t *testing.T) {
	start := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)
	if !clock.Now().Equal(start) {
		t.Fatalf("expected clock to start at %s, got %s", start, clock.Now())
	}
	if err := clock.Advance(90 * time.Second); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if got := clock.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Fatalf("expected %s, got %s", start.Add(90*time.Second), got)
	}
}

func TestManualClockRejectsNegativeAdvance(t *testing.T) {
	clock := NewManualClock(time.Now())
	before := clock.Now()
	if err := clock.Advance(-time.Second); !errors.Is(err, ErrTimeRegression) {
		t.Fatalf("expected ErrTimeRegression, got %v", err)
	}
	if !clock.Now().Equal(before) {
		t.Fatalf("rejected advance must not move the clock")
	}
}

func TestManualClockSet(t *testing.T) {
	start := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)
	target := start.Add(time.Hour)
	if err := clock.Set(target); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := clock.Set(start); !errors.Is(err, ErrTimeRegression) {
		t.Fatalf("expected backwards set to fail, got %v", err)
	}
	if !clock.Now().Equal(target) {
		t.Fatalf("expected %s, got %s", target, clock.Now())
	}
}
