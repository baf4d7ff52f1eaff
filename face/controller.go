package face

import (
	"fmt"
	"sync"
	"time"
)

// State is the observable snapshot recomputed after every accepted redraw.
// Snapshots are values; callers can retain them without copying concerns.
type State struct {
	// Elapsed is the whole-second elapsed time since controller start,
	// zero-padded HH:MM:SS.
	Elapsed string
	// Instant is the absolute time of the last accepted redraw.
	Instant time.Time
	// Mode is the current display mode.
	Mode Mode
	// Draws is the cumulative redraw count since start. Construction counts
	// as the first draw, so it starts at 1 and only ever grows.
	Draws uint64
}

// Counters aggregates accepted and ignored event totals for status output.
type Counters struct {
	Draws          uint64
	TickDraws      uint64
	AmbientDraws   uint64
	Wakes          uint64
	Sleeps         uint64
	TicksIgnored   uint64
	AmbientIgnored uint64
}

// DrawHook observes every accepted redraw. Hooks run on the goroutine that
// delivered the event, after the controller state is updated.
type DrawHook func(State, RefreshEvent)

// Controller owns the current display mode and instant, admits refresh
// events per mode, and maintains the draw counter.
//
// All operations are synchronous and run to completion before the next event
// is admitted. Deliver events from a single goroutine (or through Loop,
// which serializes them FIFO); the internal mutex only guards concurrent
// snapshot readers such as the admin surface.
type Controller struct {
	clock Clock

	mu      sync.Mutex
	start   time.Time
	current time.Time
	mode    Mode
	counts  Counters
	hook    DrawHook
}

// NewController builds a controller in Active mode at the clock's current
// instant. The initial render counts as draw number one.
func NewController(clock Clock) *Controller {
	if clock == nil {
		clock = SystemClock()
	}
	now := clock.Now()
	return &Controller{
		clock:   clock,
		start:   now,
		current: now,
		mode:    ModeActive,
		counts:  Counters{Draws: 1},
	}
}

// SetDrawHook registers fn to observe accepted redraws. The initial
// construction draw predates any hook; read Snapshot for it.
func (c *Controller) SetDrawHook(fn DrawHook) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Snapshot returns the current observable state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// CounterSnapshot returns the accepted/ignored event totals.
func (c *Controller) CounterSnapshot() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts
}

// Mode returns the current display mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Started returns the instant the controller was constructed at.
func (c *Controller) Started() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start
}

// Wake transitions to Active. The switch itself redraws exactly once, at the
// clock's current instant; calling Wake while already Active changes nothing
// and draws nothing.
func (c *Controller) Wake() State {
	c.mu.Lock()
	if c.mode == ModeActive {
		st := c.stateLocked()
		c.mu.Unlock()
		return st
	}
	c.mode = ModeActive
	c.counts.Wakes++
	st, ev := c.redrawLocked(c.clockNowLocked(), OriginTransition)
	hook := c.hook
	c.mu.Unlock()
	if hook != nil {
		hook(st, ev)
	}
	return st
}

// Sleep transitions to Ambient. Like Wake it is idempotent and the switch
// redraws exactly once; afterwards redraws happen only via AmbientUpdate.
func (c *Controller) Sleep() State {
	c.mu.Lock()
	if c.mode == ModeAmbient {
		st := c.stateLocked()
		c.mu.Unlock()
		return st
	}
	c.mode = ModeAmbient
	c.counts.Sleeps++
	st, ev := c.redrawLocked(c.clockNowLocked(), OriginTransition)
	hook := c.hook
	c.mu.Unlock()
	if hook != nil {
		hook(st, ev)
	}
	return st
}

// Tick advances the instant and redraws while Active. Delivered while
// Ambient it is a silent no-op: no draw, no instant change, no error. An
// instant before the current one is a precondition violation.
func (c *Controller) Tick(at time.Time) (State, error) {
	return c.refresh(at, OriginTick)
}

// AmbientUpdate advances the instant and redraws while Ambient. Delivered
// while Active it is a silent no-op, since the active cadence already
// redraws on every tick.
func (c *Controller) AmbientUpdate(at time.Time) (State, error) {
	return c.refresh(at, OriginAmbient)
}

// Apply dispatches an event to the matching operation. Loop and journal
// replay both funnel through here.
func (c *Controller) Apply(ev Event) (State, error) {
	switch ev.Kind {
	case EventWake:
		return c.Wake(), nil
	case EventSleep:
		return c.Sleep(), nil
	case EventTick:
		return c.Tick(ev.At)
	case EventAmbientUpdate:
		return c.AmbientUpdate(ev.At)
	default:
		return c.Snapshot(), fmt.Errorf("face: unknown event kind %d", int(ev.Kind))
	}
}

func (c *Controller) refresh(at time.Time, origin Origin) (State, error) {
	c.mu.Lock()
	accepted := (origin == OriginTick && c.mode == ModeActive) ||
		(origin == OriginAmbient && c.mode == ModeAmbient)
	if !accepted {
		if origin == OriginTick {
			c.counts.TicksIgnored++
		} else {
			c.counts.AmbientIgnored++
		}
		st := c.stateLocked()
		c.mu.Unlock()
		return st, nil
	}
	if at.Before(c.current) {
		st := c.stateLocked()
		current := c.current
		c.mu.Unlock()
		return st, fmt.Errorf("%w: %s precedes %s",
			ErrTimeRegression, at.Format(time.RFC3339Nano), current.Format(time.RFC3339Nano))
	}
	st, ev := c.redrawLocked(at, origin)
	hook := c.hook
	c.mu.Unlock()
	if hook != nil {
		hook(st, ev)
	}
	return st, nil
}

// redrawLocked commits one accepted refresh: advance the instant, bump the
// counter, rebuild the snapshot.
func (c *Controller) redrawLocked(at time.Time, origin Origin) (State, RefreshEvent) {
	c.current = at
	c.counts.Draws++
	switch origin {
	case OriginAmbient:
		c.counts.AmbientDraws++
	case OriginTick:
		c.counts.TickDraws++
	}
	st := c.stateLocked()
	return st, RefreshEvent{Seq: st.Draws, At: at, Origin: origin, Mode: c.mode}
}

// clockNowLocked reads the clock for a transition redraw. The instant never
// moves backwards even if the injected clock does.
func (c *Controller) clockNowLocked() time.Time {
	now := c.clock.Now()
	if now.Before(c.current) {
		return c.current
	}
	return now
}

func (c *Controller) stateLocked() State {
	return State{
		Elapsed: FormatElapsed(c.start, c.current),
		Instant: c.current,
		Mode:    c.mode,
		Draws:   c.counts.Draws,
	}
}

// FormatElapsed renders the whole seconds between start and at as
// zero-padded HH:MM:SS. Hours keep growing past 99 rather than wrapping.
func FormatElapsed(start, at time.Time) string {
	secs := int64(at.Sub(start) / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}
