package jwtauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	MetricTokenIssuedAccess MetricID = iota
	MetricTokenIssuedRefresh
	MetricTokenIssueFailure
	MetricVerifySuccess
	MetricVerifyFailure
	MetricVerifyExpired
	MetricVerifySignatureInvalid
	MetricVerifyMalformed
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshWrongType
	// MetricReplayDetected counts refresh tokens presented after they were consumed.
	MetricReplayDetected
	MetricStorageUnavailable
	MetricRefreshRateLimited
	// MetricVerifyLatency is the only histogram-backed ID.
	MetricVerifyLatency
	metricIDCount
)

// verifyLatencyBounds are the inclusive upper bounds of the first seven latency buckets;
// anything slower lands in the eighth.
var verifyLatencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const histBucketCount = len(verifyLatencyBounds) + 1

// paddedCounter keeps hot counters on separate cache lines.
type paddedCounter struct {
	atomic.Uint64
	_ [56]byte
}

// Metrics holds lock-free counters. A nil or disabled *Metrics ignores every call.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	verifyLatency [histBucketCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters. Histogram buckets are
// non-cumulative with upper bounds 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, +Inf.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics never fails; a config with Enabled false yields a Metrics that records
// nothing and snapshots as empty.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d in the histogram for id. Only MetricVerifyLatency has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricVerifyLatency {
		return
	}

	m.verifyLatency[bucketIndex(d)].Add(1)
}

// Value returns the current counter for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot reads each counter atomically but not the set as a whole, so concurrent
// updates may be partially reflected.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = m.counters[id].Load()
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range m.verifyLatency {
			buckets[i] = m.verifyLatency[i].Load()
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range verifyLatencyBounds {
		if d <= bound {
			return i
		}
	}
	return histBucketCount - 1
}
