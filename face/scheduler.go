package face

import "time"

// TickScheduler posts one Tick per interval while the controller is Active.
// It never self-schedules ambient refreshes: ambient cadence is externally
// driven (control command or broadcast), so while Ambient the scheduler
// simply suppresses its own ticks.
type TickScheduler struct {
	clock    Clock
	loop     *Loop
	interval time.Duration
	quit     chan struct{}
	done     chan struct{}
}

// NewTickScheduler builds a scheduler for the loop's controller. Returns nil
// when the loop is missing so callers can wire it unconditionally.
func NewTickScheduler(clock Clock, loop *Loop, interval time.Duration) *TickScheduler {
	if loop == nil {
		return nil
	}
	if clock == nil {
		clock = SystemClock()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &TickScheduler{
		clock:    clock,
		loop:     loop,
		interval: interval,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the tick loop. Nil receivers are safe.
func (s *TickScheduler) Start() {
	if s == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		defer close(s.done)
		for {
			select {
			case <-ticker.C:
				s.maybeTick()
			case <-s.quit:
				return
			}
		}
	}()
}

// Stop ends the tick loop.
func (s *TickScheduler) Stop() {
	if s == nil {
		return
	}
	close(s.quit)
	<-s.done
}

// maybeTick posts a tick only while Active. The mode check is advisory (the
// controller would ignore an out-of-mode tick anyway); it keeps the ignored
// counters clean during long ambient dwells.
func (s *TickScheduler) maybeTick() {
	if s.loop.Controller().Mode() != ModeActive {
		return
	}
	s.loop.Post(Event{Kind: EventTick, At: s.clock.Now()})
}
