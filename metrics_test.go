package jwtauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/jwtauth/storage"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricVerifySuccess)

	if got := m.Value(MetricVerifySuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRefreshSuccess); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}
	for _, d := range observations {
		m.Observe(MetricVerifyLatency, d)
	}
	m.Observe(MetricVerifySuccess, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricVerifyLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestServiceMetricsFollowOperations(t *testing.T) {
	clock := newTestClock(time.Now())
	svc := newTestService(t, func(b *Builder) {
		b.WithMetricsEnabled(true).
			WithLatencyHistograms(true).
			WithClock(clock.Now).
			WithStorage(storage.NewMemoryStore())
	})
	ctx := context.Background()

	access, err := svc.CreateAccessToken(ctx, nil)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	refresh, err := svc.CreateRefreshToken(ctx, nil)
	if err != nil {
		t.Fatalf("create refresh: %v", err)
	}

	if _, err := svc.ExecuteRefreshToken(ctx, refresh); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	_, _ = svc.ExecuteRefreshToken(ctx, refresh)
	_, _ = svc.ExecuteRefreshToken(ctx, access)
	_, _ = svc.VerifyToken(ctx, "garbage")

	clock.Advance(2 * time.Hour)
	_, _ = svc.VerifyToken(ctx, access)

	snap := svc.MetricsSnapshot()
	want := map[MetricID]uint64{
		// two created directly plus one pair from the successful refresh
		MetricTokenIssuedAccess:  2,
		MetricTokenIssuedRefresh: 2,
		MetricRefreshSuccess:     1,
		MetricReplayDetected:     1,
		MetricRefreshWrongType:   1,
		MetricRefreshFailure:     2,
		MetricVerifyMalformed:    1,
		MetricVerifyExpired:      1,
		MetricVerifySuccess:      3,
		MetricVerifyFailure:      2,
	}
	for id, v := range want {
		if snap.Counters[id] != v {
			t.Fatalf("metric %d: expected %d, got %d", id, v, snap.Counters[id])
		}
	}

	var samples uint64
	for _, n := range snap.Histograms[MetricVerifyLatency] {
		samples += n
	}
	if samples != 5 {
		t.Fatalf("expected 5 verify latency samples, got %d", samples)
	}
}
