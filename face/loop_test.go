package face

import (
	"testing"
	"time"
)

func TestLoopAppliesEventsInOrder(t *testing.T) {
	clock := NewManualClock(testStart)
	ctrl := NewController(clock)
	loop := NewLoop(ctrl, 16, nil)
	loop.Start()

	for i := 1; i <= 5; i++ {
		if !loop.Post(Event{Kind: EventTick, At: testStart.Add(time.Duration(i) * time.Second)}) {
			t.Fatalf("post %d refused", i)
		}
	}
	loop.Post(Event{Kind: EventSleep})
	loop.Post(Event{Kind: EventAmbientUpdate, At: testStart.Add(10 * time.Second)})
	loop.Stop()

	expectState(t, ctrl.Snapshot(), "00:00:10", ModeAmbient, 8)
}

func TestLoopRefusesPostAfterStop(t *testing.T) {
	ctrl := NewController(NewManualClock(testStart))
	loop := NewLoop(ctrl, 4, nil)
	loop.Start()
	loop.Stop()
	if loop.Post(Event{Kind: EventTick, At: testStart}) {
		t.Fatalf("expected post after stop to be refused")
	}
}

func TestLoopDrainsQueueOnStop(t *testing.T) {
	ctrl := NewController(NewManualClock(testStart))
	loop := NewLoop(ctrl, 64, nil)
	loop.Start()
	for i := 1; i <= 20; i++ {
		loop.Post(Event{Kind: EventTick, At: testStart.Add(time.Duration(i) * time.Second)})
	}
	loop.Stop()
	if got := ctrl.Snapshot().Draws; got != 21 {
		t.Fatalf("expected all queued ticks applied before stop, got %d draws", got)
	}
}

func TestNilLoopIsSafe(t *testing.T) {
	var loop *Loop
	loop.Start()
	if loop.Post(Event{Kind: EventWake}) {
		t.Fatalf("nil loop must refuse posts")
	}
	loop.Stop()
}
