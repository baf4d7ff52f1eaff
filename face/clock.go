// Package face implements the always-on display core: an injectable clock,
// the Active/Ambient mode controller that owns the observable display state,
// the event loop that serializes external signals, and the tick scheduler
// that drives the high-frequency refresh cadence.
package face

import (
	"errors"
	"sync"
	"time"
)

// ErrTimeRegression is returned when a time advance would move the timeline
// backwards.
var ErrTimeRegression = errors.New("face: time must not move backwards")

// Clock supplies the current instant. The controller never reads wall-clock
// time directly so a deterministic source can be injected for tests and
// simulated drives.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// ManualClock is a Clock advanced explicitly by its owner.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock fixed at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d. A negative d is rejected.
func (c *ManualClock) Advance(d time.Duration) error {
	if d < 0 {
		return ErrTimeRegression
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

// Set moves the clock to the given instant, which must not precede the
// current one.
func (c *ManualClock) Set(to time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if to.Before(c.now) {
		return ErrTimeRegression
	}
	c.now = to
	return nil
}
