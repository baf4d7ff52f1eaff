package recorder

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	r, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	defer r.Close()

	started := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	want := Session{
		StartedAt:    started,
		EndedAt:      started.Add(90 * time.Second),
		Draws:        9,
		TickDraws:    5,
		AmbientDraws: 1,
		Wakes:        1,
		Sleeps:       1,
		FinalMode:    "Active",
	}
	if err := r.RecordSession(want); err != nil {
		t.Fatalf("record: %v", err)
	}

	sessions, err := r.Sessions()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	got := sessions[0]
	if got.Draws != want.Draws || got.TickDraws != want.TickDraws ||
		got.AmbientDraws != want.AmbientDraws || got.FinalMode != want.FinalMode {
		t.Fatalf("session mismatch: want %+v, got %+v", want, got)
	}
	if !got.StartedAt.Equal(want.StartedAt) || !got.EndedAt.Equal(want.EndedAt) {
		t.Fatalf("timestamp mismatch: want %s..%s, got %s..%s",
			want.StartedAt, want.EndedAt, got.StartedAt, got.EndedAt)
	}
}

func TestRecorderSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	r, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	if err := r.RecordSession(Session{StartedAt: now, EndedAt: now, Draws: 1, FinalMode: "Ambient"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err = NewRecorder(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r.Close()
	sessions, err := r.Sessions()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected persisted session after reopen, got %d", len(sessions))
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	if err := r.RecordSession(Session{}); err != nil {
		t.Fatalf("nil recorder must no-op, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("nil close must no-op, got %v", err)
	}
}
