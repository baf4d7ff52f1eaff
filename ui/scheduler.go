package ui

import (
	"sync"
	"time"
)

// drawScheduler coalesces dashboard updates and caps the draw rate while the
// display is active. In ambient mode redraws are rare and latency matters
// more than rate, so scheduled updates flush immediately instead of waiting
// for the next frame.
type drawScheduler struct {
	flushFn      func([]func())
	frameTime    time.Duration
	drainTimeout time.Duration
	metrics      *Metrics

	mu      sync.Mutex
	pending map[string]func()
	ambient bool

	quit chan struct{}
	done chan struct{}
}

func newDrawScheduler(flushFn func([]func()), targetFPS int, drainTimeout time.Duration, metrics *Metrics) *drawScheduler {
	if targetFPS <= 0 {
		targetFPS = 30
	}
	if drainTimeout <= 0 {
		drainTimeout = 100 * time.Millisecond
	}
	return &drawScheduler{
		flushFn:      flushFn,
		frameTime:    time.Second / time.Duration(targetFPS),
		drainTimeout: drainTimeout,
		metrics:      metrics,
		pending:      make(map[string]func()),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (d *drawScheduler) Start() {
	go d.run()
}

func (d *drawScheduler) Stop() {
	close(d.quit)
	select {
	case <-d.done:
	case <-time.After(d.drainTimeout):
	}
}

// Schedule queues fn under id, superseding any update already queued for the
// same id. While ambient the frame flushes at once.
func (d *drawScheduler) Schedule(id string, fn func()) {
	if d == nil {
		return
	}
	d.mu.Lock()
	if _, exists := d.pending[id]; exists {
		d.metrics.FrameCoalesced()
	}
	d.pending[id] = fn
	ambient := d.ambient
	d.mu.Unlock()

	if ambient {
		d.flush()
	}
}

// SetAmbient switches between rate-capped and immediate flushing. Entering
// ambient flushes whatever is pending so the last active frame lands.
func (d *drawScheduler) SetAmbient(ambient bool) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.ambient = ambient
	d.mu.Unlock()
	if ambient {
		d.flush()
	}
}

func (d *drawScheduler) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.frameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.flush()
		case <-d.quit:
			d.flush()
			return
		}
	}
}

func (d *drawScheduler) flush() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	batch := make([]func(), 0, len(d.pending))
	for _, fn := range d.pending {
		batch = append(batch, fn)
	}
	for key := range d.pending {
		delete(d.pending, key)
	}
	d.mu.Unlock()

	start := time.Now()
	d.flushFn(batch)
	d.metrics.ObserveRender(time.Since(start))
}
