package ui

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// renderRing keeps a bounded ring of render durations for percentile
// estimates.
type renderRing struct {
	mu      sync.Mutex
	samples []time.Duration
	count   int
	idx     int
}

func newRenderRing(size int) *renderRing {
	if size <= 0 {
		size = 256
	}
	return &renderRing{samples: make([]time.Duration, size)}
}

func (r *renderRing) observe(d time.Duration) {
	r.mu.Lock()
	r.samples[r.idx] = d
	r.idx = (r.idx + 1) % len(r.samples)
	if r.count < len(r.samples) {
		r.count++
	}
	r.mu.Unlock()
}

// LatencySnapshot summarizes recent render latency.
type LatencySnapshot struct {
	P50 time.Duration
	P99 time.Duration
	N   int
}

func (r *renderRing) snapshot() LatencySnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return LatencySnapshot{}
	}
	values := make([]time.Duration, r.count)
	copy(values, r.samples[:r.count])
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return LatencySnapshot{
		P50: values[r.count/2],
		P99: values[int(float64(r.count-1)*0.99)],
		N:   r.count,
	}
}

// Metrics tracks dashboard render latency and frame accounting.
type Metrics struct {
	render          *renderRing
	framesCoalesced atomic.Uint64
	framesDrawn     atomic.Uint64
}

// NewMetrics builds an empty metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{render: newRenderRing(512)}
}

// ObserveRender records the latency of one flushed frame.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.render.observe(d)
	m.framesDrawn.Add(1)
}

// FrameCoalesced records a scheduled update that was superseded before the
// frame flushed.
func (m *Metrics) FrameCoalesced() {
	if m == nil {
		return
	}
	m.framesCoalesced.Add(1)
}

// RenderSnapshot returns the current latency percentiles.
func (m *Metrics) RenderSnapshot() LatencySnapshot {
	if m == nil {
		return LatencySnapshot{}
	}
	return m.render.snapshot()
}

// FramesDrawn returns the number of flushed frames.
func (m *Metrics) FramesDrawn() uint64 {
	if m == nil {
		return 0
	}
	return m.framesDrawn.Load()
}

// FramesCoalesced returns the number of superseded updates.
func (m *Metrics) FramesCoalesced() uint64 {
	if m == nil {
		return 0
	}
	return m.framesCoalesced.Load()
}
