package journal

import (
	"errors"
	"testing"
	"time"

	"watchface/face"
)

func sampleEvents() []face.RefreshEvent {
	base := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	return []face.RefreshEvent{
		{Seq: 2, At: base.Add(1 * time.Second), Origin: face.OriginTick, Mode: face.ModeActive},
		{Seq: 3, At: base.Add(2 * time.Second), Origin: face.OriginTick, Mode: face.ModeActive},
		{Seq: 4, At: base.Add(2 * time.Second), Origin: face.OriginTransition, Mode: face.ModeAmbient},
		{Seq: 5, At: base.Add(62 * time.Second), Origin: face.OriginAmbient, Mode: face.ModeAmbient},
	}
}

func TestAppendAndReplayAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	events := sampleEvents()
	for _, ev := range events {
		if err := j.Append(ev); err != nil {
			t.Fatalf("append seq %d: %v", ev.Seq, err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	j, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()

	var got []face.RefreshEvent
	if err := j.Replay(func(ev face.RefreshEvent) error {
		got = append(got, ev)
		return nil
	}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(got))
	}
	for i, want := range events {
		if got[i].Seq != want.Seq || got[i].Origin != want.Origin || got[i].Mode != want.Mode {
			t.Fatalf("event %d mismatch: want %+v, got %+v", i, want, got[i])
		}
		if !got[i].At.Equal(want.At) {
			t.Fatalf("event %d instant mismatch: want %s, got %s", i, want.At, got[i].At)
		}
	}

	last, err := j.LastSeq()
	if err != nil {
		t.Fatalf("last seq: %v", err)
	}
	if last != 5 {
		t.Fatalf("expected last seq 5, got %d", last)
	}
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	j, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer j.Close()
	for _, ev := range sampleEvents() {
		if err := j.Append(ev); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	stop := errors.New("stop")
	seen := 0
	err = j.Replay(func(face.RefreshEvent) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if seen != 2 {
		t.Fatalf("expected replay to stop after 2 events, got %d", seen)
	}
}

func TestAppendAfterClose(t *testing.T) {
	j, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := j.Append(sampleEvents()[0]); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("double close must be a no-op, got %v", err)
	}
}
