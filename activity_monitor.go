package main

import (
	"log"
	"sync"
	"time"
)

// activityMonitor tracks the recent redraw rate to classify the display as
// "busy" (active ticking) or "quiet" (mostly ambient). It keeps 1-minute
// buckets over a sliding window and logs state transitions, which makes long
// ambient dwells and scheduler stalls visible in the log.
type activityMonitor struct {
	busyThresholdPerMin  float64
	quietThresholdPerMin float64
	quietWindowsNeeded   int
	evalPeriod           time.Duration
	logger               *log.Logger

	mu          sync.Mutex
	buckets     []bucket
	state       string
	quietStreak int
	lastEval    time.Time
	stopCh      chan struct{}
}

type bucket struct {
	start time.Time
	count int
}

// Purpose: Build an activityMonitor for redraw rate classification.
// Key aspects: Returns nil when the window is zero; seeds a default logger.
// Upstream: main wiring.
// Downstream: log.Default and the sliding window buckets.
func newActivityMonitor(windowMinutes int, logger *log.Logger) *activityMonitor {
	if windowMinutes <= 0 {
		return nil
	}
	if logger == nil {
		logger = log.Default()
	}
	return &activityMonitor{
		// Active mode draws about once per second; well below that means the
		// display is dwelling in ambient.
		busyThresholdPerMin:  30,
		quietThresholdPerMin: 5,
		quietWindowsNeeded:   2,
		evalPeriod:           30 * time.Second,
		logger:               logger,
		state:                "quiet",
		buckets:              make([]bucket, windowMinutes),
		stopCh:               make(chan struct{}),
	}
}

// Purpose: Start periodic evaluation of the redraw rate.
// Key aspects: Spawns a ticker goroutine; nil receivers are safe no-ops.
// Upstream: main wiring.
// Downstream: time.NewTicker and m.evaluate inside the goroutine.
func (m *activityMonitor) Start() {
	if m == nil {
		return
	}
	ticker := time.NewTicker(m.evalPeriod)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.evaluate(time.Now().UTC())
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Purpose: Stop the activityMonitor background ticker.
// Key aspects: Closing stopCh is the only shutdown signal.
// Upstream: main shutdown.
// Downstream: None (channel close only).
func (m *activityMonitor) Stop() {
	if m == nil {
		return
	}
	close(m.stopCh)
}

// Purpose: Record one accepted redraw for rate tracking.
// Key aspects: Minimal lock, rotates stale buckets, bumps the current minute.
// Upstream: The controller draw hook.
// Downstream: m.rotateBuckets and m.bucketIndex.
func (m *activityMonitor) Increment(now time.Time) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotateBuckets(now)
	idx := m.bucketIndex(now)
	// When we land in a reused bucket, refresh its start to the current minute
	// so the window math stays accurate as time advances.
	if m.buckets[idx].start.IsZero() || now.Sub(m.buckets[idx].start) >= time.Minute {
		m.buckets[idx].start = now.Truncate(time.Minute)
		m.buckets[idx].count = 0
	}
	m.buckets[idx].count++
}

// Purpose: Map a timestamp to the corresponding bucket index.
// Key aspects: Uses epoch minutes modulo bucket length.
// Upstream: Increment.
// Downstream: None.
func (m *activityMonitor) bucketIndex(t time.Time) int {
	return int(t.Unix()/60) % len(m.buckets)
}

// Purpose: Drop stale buckets outside the sliding window.
// Key aspects: Resets bucket start/count when outside window span.
// Upstream: Increment and evaluate.
// Downstream: None.
func (m *activityMonitor) rotateBuckets(now time.Time) {
	for i := range m.buckets {
		if now.Sub(m.buckets[i].start) >= time.Duration(len(m.buckets))*time.Minute {
			m.buckets[i].start = now.Truncate(time.Minute)
			m.buckets[i].count = 0
		}
	}
}

// Purpose: Update busy/quiet state based on the recent redraw rate.
// Key aspects: Computes windowed rate and logs state transitions.
// Upstream: Start's ticker goroutine and tests.
// Downstream: m.rotateBuckets and logger.Printf.
func (m *activityMonitor) evaluate(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotateBuckets(now)

	var total int
	for _, b := range m.buckets {
		if now.Sub(b.start) < time.Duration(len(m.buckets))*time.Minute {
			total += b.count
		}
	}
	rate := float64(total) / float64(len(m.buckets))

	switch m.state {
	case "quiet":
		if rate > m.busyThresholdPerMin {
			m.state = "busy"
			m.quietStreak = 0
			m.logger.Printf("Activity: busy (%.1f draws/min)", rate)
		}
	case "busy":
		if rate < m.quietThresholdPerMin {
			m.quietStreak++
			if m.quietStreak >= m.quietWindowsNeeded {
				m.state = "quiet"
				m.quietStreak = 0
				m.logger.Printf("Activity: quiet (%.1f draws/min)", rate)
			}
		} else {
			m.quietStreak = 0
		}
	}
	m.lastEval = now
}

// State returns the current busy/quiet classification.
func (m *activityMonitor) State() string {
	if m == nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
