package slo

import (
	"math"
	"slices"
	"sync"
	"time"
)

// DefaultWindow is the number of recent requests a Tracker keeps.
const DefaultWindow = 500

type sample struct {
	seconds float64
	failed  bool
}

// Tracker keeps a fixed-size window of recent requests and publishes indicators to the SLO gauges.
type Tracker struct {
	mu      sync.Mutex
	samples []sample
	next    int
	full    bool
}

// Snapshot is the indicator state of a Tracker window.
type Snapshot struct {
	Requests     int
	Availability float64
	ErrorRate    float64
	LatencyP95   float64
	LatencyP99   float64
}

// NewTracker returns a Tracker holding the last window requests. A window <= 0 uses DefaultWindow.
func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{samples: make([]sample, window)}
}

// Observe records one request and refreshes the gauges.
// failed should be true for server errors only; client errors do not count against availability.
func (t *Tracker) Observe(duration time.Duration, failed bool) {
	t.mu.Lock()
	t.samples[t.next] = sample{seconds: duration.Seconds(), failed: failed}
	t.next = (t.next + 1) % len(t.samples)
	if t.next == 0 {
		t.full = true
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()

	UpdateAvailability(snap.Availability)
	UpdateErrorRate(snap.ErrorRate)
	UpdateLatencyP95(snap.LatencyP95)
	UpdateLatencyP99(snap.LatencyP99)
}

// Snapshot returns the current indicators.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	n := t.next
	if t.full {
		n = len(t.samples)
	}
	if n == 0 {
		return Snapshot{Availability: 1}
	}

	latencies := make([]float64, 0, n)
	failures := 0
	for _, s := range t.samples[:n] {
		latencies = append(latencies, s.seconds)
		if s.failed {
			failures++
		}
	}
	slices.Sort(latencies)

	errorRate := float64(failures) / float64(n)
	return Snapshot{
		Requests:     n,
		Availability: 1 - errorRate,
		ErrorRate:    errorRate,
		LatencyP95:   percentile(latencies, 0.95),
		LatencyP99:   percentile(latencies, 0.99),
	}
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []float64, p float64) float64 {
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}
