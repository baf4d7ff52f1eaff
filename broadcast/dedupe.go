package broadcast

import (
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

// payloadDedupe suppresses repeated broadcast payloads inside a time window.
// Brokers redeliver on reconnect and bridges can double-publish; a repeated
// update would inflate the draw counter, so identical payloads seen within
// the window are dropped. Keyed by the xxh3 hash of the raw payload.
type payloadDedupe struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[uint64]time.Time
}

func newPayloadDedupe(window time.Duration) *payloadDedupe {
	if window <= 0 {
		window = 30 * time.Second
	}
	return &payloadDedupe{
		window: window,
		seen:   make(map[uint64]time.Time),
	}
}

// Seen reports whether payload duplicates one observed within the window,
// recording it either way. Expired entries are pruned inline; the map stays
// small at ambient rates.
func (d *payloadDedupe) Seen(payload []byte, now time.Time) bool {
	if d == nil {
		return false
	}
	key := xxh3.Hash(payload)

	d.mu.Lock()
	defer d.mu.Unlock()
	for k, at := range d.seen {
		if now.Sub(at) >= d.window {
			delete(d.seen, k)
		}
	}
	if at, ok := d.seen[key]; ok && now.Sub(at) < d.window {
		return true
	}
	d.seen[key] = now
	return false
}
