// Package journal persists accepted refresh events in a Pebble key/value
// store so a display session can be audited or replayed after restart.
package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"watchface/face"
)

const (
	entryPrefix  = "e|"
	entryVersion = 1
	entrySize    = 19
)

var (
	// ErrClosed is returned for operations on a closed journal.
	ErrClosed = errors.New("journal: closed")

	errInvalidEntry = errors.New("journal: invalid entry encoding")
)

const (
	defaultCacheSizeBytes    = int64(4 << 20)
	defaultMemTableSizeBytes = uint64(4 << 20)
)

// Journal is an append-only log of refresh events keyed by draw sequence.
// Writes are rare (once per redraw, roughly once per second while active),
// so appends are synchronous; durability is settled on Close.
type Journal struct {
	db *pebble.DB

	mu     sync.Mutex
	closed bool
}

// Open opens (or creates) the journal at dir.
func Open(dir string) (*Journal, error) {
	cache := pebble.NewCache(defaultCacheSizeBytes)
	defer cache.Unref()
	opts := &pebble.Options{
		Cache:        cache,
		MemTableSize: defaultMemTableSizeBytes,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", dir, err)
	}
	return &Journal{db: db}, nil
}

// Append records one accepted refresh event. The draw sequence is the key,
// so replay reproduces the exact counter progression.
func (j *Journal) Append(ev face.RefreshEvent) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	return j.db.Set(entryKey(ev.Seq), encodeEntry(ev), pebble.NoSync)
}

// Replay invokes fn for every journaled event in draw-sequence order. It
// stops early when fn returns an error.
func (j *Journal) Replay(fn func(face.RefreshEvent) error) error {
	if j == nil || fn == nil {
		return nil
	}
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return ErrClosed
	}
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(entryPrefix),
		UpperBound: []byte(entryPrefix + "~"),
	})
	j.mu.Unlock()
	if err != nil {
		return fmt.Errorf("journal: iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		ev, err := decodeEntry(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return iter.Error()
}

// LastSeq returns the highest journaled draw sequence, or zero when empty.
func (j *Journal) LastSeq() (uint64, error) {
	var last uint64
	err := j.Replay(func(ev face.RefreshEvent) error {
		last = ev.Seq
		return nil
	})
	return last, err
}

// Close flushes and closes the store.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if err := j.db.Flush(); err != nil {
		_ = j.db.Close()
		return fmt.Errorf("journal: flush: %w", err)
	}
	return j.db.Close()
}

func entryKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", entryPrefix, seq))
}

// encodeEntry packs an event as version(1) origin(1) mode(1) at-millis(8)
// seq(8), little endian.
func encodeEntry(ev face.RefreshEvent) []byte {
	buf := make([]byte, entrySize)
	buf[0] = entryVersion
	buf[1] = byte(ev.Origin)
	buf[2] = byte(ev.Mode)
	binary.LittleEndian.PutUint64(buf[3:11], uint64(ev.At.UnixMilli()))
	binary.LittleEndian.PutUint64(buf[11:19], ev.Seq)
	return buf
}

func decodeEntry(key, value []byte) (face.RefreshEvent, error) {
	if len(value) != entrySize || value[0] != entryVersion {
		return face.RefreshEvent{}, fmt.Errorf("%w: key %q", errInvalidEntry, key)
	}
	millis := int64(binary.LittleEndian.Uint64(value[3:11]))
	return face.RefreshEvent{
		Seq:    binary.LittleEndian.Uint64(value[11:19]),
		At:     time.UnixMilli(millis).UTC(),
		Origin: face.Origin(value[1]),
		Mode:   face.Mode(value[2]),
	}, nil
}
