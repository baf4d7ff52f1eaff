package face

import (
	"errors"
	"testing"
	"time"
)

var testStart = time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)

func newTestController() (*ManualClock, *Controller) {
	clock := NewManualClock(testStart)
	return clock, NewController(clock)
}

func expectState(t *testing.T, st State, elapsed string, mode Mode, draws uint64) {
	t.Helper()
	if st.Elapsed != elapsed {
		t.Fatalf("expected elapsed %q, got %q", elapsed, st.Elapsed)
	}
	if st.Mode != mode {
		t.Fatalf("expected mode %s, got %s", mode, st.Mode)
	}
	if st.Draws != draws {
		t.Fatalf("expected %d draws, got %d", draws, st.Draws)
	}
}

func TestInitialState(t *testing.T) {
	_, ctrl := newTestController()
	st := ctrl.Snapshot()
	expectState(t, st, "00:00:00", ModeActive, 1)
	if !st.Instant.Equal(testStart) {
		t.Fatalf("expected initial instant %s, got %s", testStart, st.Instant)
	}
}

func TestActiveTickSequence(t *testing.T) {
	clock, ctrl := newTestController()
	var st State
	for i := 0; i < 5; i++ {
		if err := clock.Advance(time.Second); err != nil {
			t.Fatalf("advance failed: %v", err)
		}
		var err error
		st, err = ctrl.Tick(clock.Now())
		if err != nil {
			t.Fatalf("tick %d failed: %v", i+1, err)
		}
	}
	expectState(t, st, "00:00:05", ModeActive, 6)
}

// Walks the full active → ambient → active sequence: five one-second ticks,
// sleep, a low-frequency ambient update after a 5.5s dwell, then wake two
// seconds later. Draw counts and elapsed strings at each step are the
// contract.
func TestActiveAmbientRoundTrip(t *testing.T) {
	clock, ctrl := newTestController()
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		if _, err := ctrl.Tick(clock.Now()); err != nil {
			t.Fatalf("tick failed: %v", err)
		}
	}
	expectState(t, ctrl.Snapshot(), "00:00:05", ModeActive, 6)

	// The transition itself redraws exactly once; the display is otherwise
	// unchanged.
	st := ctrl.Sleep()
	expectState(t, st, "00:00:05", ModeAmbient, 7)

	// 5.5s of virtual time passes, then the ambient broadcast fires with its
	// own instant at the 10s mark.
	clock.Advance(5500 * time.Millisecond)
	st, err := ctrl.AmbientUpdate(testStart.Add(10 * time.Second))
	if err != nil {
		t.Fatalf("ambient update failed: %v", err)
	}
	expectState(t, st, "00:00:10", ModeAmbient, 8)

	// Wake redraws at the clock's instant: 12.5s elapsed shows as 12 whole
	// seconds.
	clock.Advance(2 * time.Second)
	st = ctrl.Wake()
	expectState(t, st, "00:00:12", ModeActive, 9)
}

func TestTickIgnoredWhileAmbient(t *testing.T) {
	clock, ctrl := newTestController()
	ctrl.Sleep()
	before := ctrl.Snapshot()

	clock.Advance(3 * time.Second)
	st, err := ctrl.Tick(clock.Now())
	if err != nil {
		t.Fatalf("out-of-mode tick must be a silent no-op, got error: %v", err)
	}
	if st.Draws != before.Draws {
		t.Fatalf("tick while ambient changed draw count: %d -> %d", before.Draws, st.Draws)
	}
	if !st.Instant.Equal(before.Instant) {
		t.Fatalf("tick while ambient moved the instant: %s -> %s", before.Instant, st.Instant)
	}
	if got := ctrl.CounterSnapshot().TicksIgnored; got != 1 {
		t.Fatalf("expected 1 ignored tick, got %d", got)
	}
}

func TestAmbientUpdateIgnoredWhileActive(t *testing.T) {
	clock, ctrl := newTestController()
	before := ctrl.Snapshot()

	clock.Advance(time.Minute)
	st, err := ctrl.AmbientUpdate(clock.Now())
	if err != nil {
		t.Fatalf("out-of-mode ambient update must be a silent no-op, got error: %v", err)
	}
	if st.Draws != before.Draws || !st.Instant.Equal(before.Instant) {
		t.Fatalf("ambient update while active changed state: %+v -> %+v", before, st)
	}
	if got := ctrl.CounterSnapshot().AmbientIgnored; got != 1 {
		t.Fatalf("expected 1 ignored ambient update, got %d", got)
	}
}

func TestTransitionsIdempotent(t *testing.T) {
	_, ctrl := newTestController()

	first := ctrl.Wake()
	if first.Draws != 1 {
		t.Fatalf("wake while active must not draw, got %d draws", first.Draws)
	}

	asleep := ctrl.Sleep()
	if asleep.Draws != 2 {
		t.Fatalf("expected sleep transition to draw once, got %d draws", asleep.Draws)
	}
	again := ctrl.Sleep()
	if again.Draws != 2 {
		t.Fatalf("repeated sleep must not draw, got %d draws", again.Draws)
	}

	awake := ctrl.Wake()
	if awake.Draws != 3 {
		t.Fatalf("expected wake transition to draw once, got %d draws", awake.Draws)
	}
	if ctrl.Wake().Draws != 3 {
		t.Fatalf("repeated wake must not draw")
	}
}

func TestTickTimeRegressionRejected(t *testing.T) {
	clock, ctrl := newTestController()
	clock.Advance(10 * time.Second)
	if _, err := ctrl.Tick(clock.Now()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	_, err := ctrl.Tick(testStart.Add(5 * time.Second))
	if !errors.Is(err, ErrTimeRegression) {
		t.Fatalf("expected ErrTimeRegression, got %v", err)
	}
	// The rejected event must leave the state untouched.
	expectState(t, ctrl.Snapshot(), "00:00:10", ModeActive, 2)
}

func TestDrawHookSeesEveryAcceptedRedraw(t *testing.T) {
	clock, ctrl := newTestController()

	var events []RefreshEvent
	ctrl.SetDrawHook(func(_ State, ev RefreshEvent) {
		events = append(events, ev)
	})

	clock.Advance(time.Second)
	ctrl.Tick(clock.Now())
	ctrl.Sleep()
	clock.Advance(time.Minute)
	ctrl.AmbientUpdate(clock.Now())
	ctrl.Sleep() // idempotent, must not reach the hook

	if len(events) != 3 {
		t.Fatalf("expected 3 hook invocations, got %d", len(events))
	}
	wantOrigins := []Origin{OriginTick, OriginTransition, OriginAmbient}
	for i, ev := range events {
		if ev.Origin != wantOrigins[i] {
			t.Fatalf("event %d: expected origin %s, got %s", i, wantOrigins[i], ev.Origin)
		}
		if ev.Seq != uint64(i)+2 {
			t.Fatalf("event %d: expected seq %d, got %d", i, i+2, ev.Seq)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{5, "00:00:05"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3661, "01:01:01"},
		{100000, "27:46:40"},
	}
	for _, tc := range cases {
		at := testStart.Add(time.Duration(tc.seconds) * time.Second)
		if got := FormatElapsed(testStart, at); got != tc.want {
			t.Fatalf("FormatElapsed(%ds): expected %q, got %q", tc.seconds, tc.want, got)
		}
	}
	// Sub-second progress truncates to whole seconds.
	if got := FormatElapsed(testStart, testStart.Add(12500*time.Millisecond)); got != "00:00:12" {
		t.Fatalf("expected sub-second truncation to 00:00:12, got %q", got)
	}
}
