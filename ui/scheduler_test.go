package ui

import (
	"sync"
	"testing"
	"time"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches [][]func()
}

func (r *flushRecorder) flush(batch []func()) {
	r.mu.Lock()
	r.batches = append(r.batches, batch)
	r.mu.Unlock()
	for _, fn := range batch {
		fn()
	}
}

func (r *flushRecorder) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestDrawSchedulerCoalescesLatestPerID(t *testing.T) {
	rec := &flushRecorder{}
	d := newDrawScheduler(rec.flush, 60, 50*time.Millisecond, NewMetrics())

	var seq []string
	d.Schedule("face", func() { seq = append(seq, "face1") })
	d.Schedule("face", func() { seq = append(seq, "face2") })
	d.Schedule("log", func() { seq = append(seq, "log1") })

	d.flush()

	if len(seq) != 2 {
		t.Fatalf("expected 2 callbacks, got %d (%v)", len(seq), seq)
	}
	for _, got := range seq {
		if got == "face1" {
			t.Fatalf("superseded update must not run: %v", seq)
		}
	}

	d.flush()
	if rec.batchCount() != 1 {
		t.Fatalf("empty flush must not produce a batch, got %d", rec.batchCount())
	}
}

func TestDrawSchedulerAmbientFlushesImmediately(t *testing.T) {
	rec := &flushRecorder{}
	d := newDrawScheduler(rec.flush, 60, 50*time.Millisecond, NewMetrics())
	d.SetAmbient(true)

	ran := false
	d.Schedule("face", func() { ran = true })

	if !ran {
		t.Fatalf("ambient schedule must flush without waiting for a frame")
	}
}

func TestDrawSchedulerFlushesPendingOnStop(t *testing.T) {
	rec := &flushRecorder{}
	d := newDrawScheduler(rec.flush, 60, 50*time.Millisecond, NewMetrics())

	d.Start()
	done := make(chan struct{})
	d.Schedule("face", func() { close(done) })
	d.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected pending callback to flush on stop")
	}
}

func TestDrawSchedulerRecordsMetrics(t *testing.T) {
	rec := &flushRecorder{}
	m := NewMetrics()
	d := newDrawScheduler(rec.flush, 60, 50*time.Millisecond, m)

	d.Schedule("face", func() {})
	d.Schedule("face", func() {})
	d.flush()

	if m.FramesCoalesced() != 1 {
		t.Fatalf("expected 1 coalesced frame, got %d", m.FramesCoalesced())
	}
	if m.FramesDrawn() != 1 {
		t.Fatalf("expected 1 drawn frame, got %d", m.FramesDrawn())
	}
	if snap := m.RenderSnapshot(); snap.N != 1 {
		t.Fatalf("expected 1 latency sample, got %d", snap.N)
	}
}
