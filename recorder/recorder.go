// Package recorder persists per-session display statistics to SQLite for
// offline analysis of draw activity across runs.
package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Session summarizes one controller lifetime, from construction to teardown.
type Session struct {
	StartedAt    time.Time
	EndedAt      time.Time
	Draws        uint64
	TickDraws    uint64
	AmbientDraws uint64
	Wakes        uint64
	Sleeps       uint64
	FinalMode    string
}

// Recorder persists display sessions into SQLite.
type Recorder struct {
	db *sql.DB
}

// NewRecorder opens (or creates) the SQLite database at path and ensures the
// schema exists.
func NewRecorder(path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("recorder: ensure dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Recorder{db: db}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS display_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at INTEGER,
    ended_at INTEGER,
    draws INTEGER,
    tick_draws INTEGER,
    ambient_draws INTEGER,
    wakes INTEGER,
    sleeps INTEGER,
    final_mode TEXT
);`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// RecordSession inserts one completed session row.
func (r *Recorder) RecordSession(s Session) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.Exec(`
INSERT INTO display_sessions (
    started_at, ended_at, draws, tick_draws, ambient_draws, wakes, sleeps, final_mode
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.StartedAt.UTC().Unix(),
		s.EndedAt.UTC().Unix(),
		s.Draws,
		s.TickDraws,
		s.AmbientDraws,
		s.Wakes,
		s.Sleeps,
		s.FinalMode,
	)
	if err != nil {
		return fmt.Errorf("recorder: insert session: %w", err)
	}
	return nil
}

// Sessions returns all recorded sessions, oldest first.
func (r *Recorder) Sessions() ([]Session, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	rows, err := r.db.Query(`
SELECT started_at, ended_at, draws, tick_draws, ambient_draws, wakes, sleeps, final_mode
FROM display_sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("recorder: query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var started, ended int64
		if err := rows.Scan(&started, &ended, &s.Draws, &s.TickDraws,
			&s.AmbientDraws, &s.Wakes, &s.Sleeps, &s.FinalMode); err != nil {
			return nil, fmt.Errorf("recorder: scan session: %w", err)
		}
		s.StartedAt = time.Unix(started, 0).UTC()
		s.EndedAt = time.Unix(ended, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
