package fetch

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	durationMs int64
	failed     bool
}

// StatsSnapshot aggregates the fetches still inside the window.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// Stats keeps fetch latencies for a rolling window. It is safe for
// concurrent use.
type Stats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []sample
}

// NewStats keeps samples for window, one hour when window is not positive.
func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{window: window}
}

// Record adds one fetch. Negative durations count as zero.
func (s *Stats) Record(durationMs int64, failed bool) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)
	s.samples = append(s.samples, sample{at: now, durationMs: max(durationMs, 0), failed: failed})
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()
	s.mu.Lock()
	s.evictLocked(now)
	durations := make([]int64, len(s.samples))
	var snap StatsSnapshot
	var total int64
	for i, sm := range s.samples {
		durations[i] = sm.durationMs
		total += sm.durationMs
		if sm.failed {
			snap.Failures++
		}
	}
	s.mu.Unlock()

	if len(durations) == 0 {
		return snap
	}
	slices.Sort(durations)
	snap.Count = len(durations)
	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(total) / float64(len(durations))
	snap.P50Ms = interpolate(durations, 0.50)
	snap.P95Ms = interpolate(durations, 0.95)
	snap.P99Ms = interpolate(durations, 0.99)
	return snap
}

// evictLocked drops samples older than the window. Samples are appended
// in time order so the expired ones form a prefix.
func (s *Stats) evictLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.samples) && s.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.samples = slices.Delete(s.samples, 0, i)
	}
}

// interpolate returns the q-quantile (0..1) of sorted by linear
// interpolation between the closest ranks.
func interpolate(sorted []int64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return float64(sorted[len(sorted)-1])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
