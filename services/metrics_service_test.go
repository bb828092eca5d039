package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func lowMemory() MemoryUsage { return MemoryUsage{HeapUsed: 10, HeapTotal: 100, Sys: 200} }

func newTestAggregator(opts ...MetricsOption) *MetricsAggregator {
	return NewMetricsAggregator(testLogger(), append([]MetricsOption{WithMemoryReader(lowMemory)}, opts...)...)
}

func record(m *MetricsAggregator, elapsed time.Duration, status int) {
	m.RecordRequestStart("GET", "/api/cardapio")
	m.RecordRequestFinish("/api/cardapio", elapsed, status)
}

func TestRunningMeanIsArithmeticMean(t *testing.T) {
	m := newTestAggregator()
	durations := []time.Duration{100, 250, 40, 1700, 910}

	var sum float64
	for i, d := range durations {
		record(m, d*time.Millisecond, 200)
		sum += float64(d)
		assert.InDelta(t, sum/float64(i+1), m.Snapshot().Performance.AvgResponseTimeMs, 1e-9)
	}
}

func TestRequestCounters(t *testing.T) {
	m := newTestAggregator()

	m.RecordRequestStart("GET", "/api/cardapio")
	m.RecordRequestStart("POST", "/api/admin/pratos")
	m.RecordRequestStart("GET", "/api/cardapio")
	m.RecordRequestFinish("/api/cardapio", 20*time.Millisecond, 200)
	m.RecordRequestFinish("/api/admin/pratos", 1500*time.Millisecond, 201)
	m.RecordRequestFinish("/api/cardapio", 1000*time.Millisecond, 200)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Requests.Total)
	assert.Equal(t, map[string]int64{"GET": 2, "POST": 1}, snap.Requests.ByMethod)
	assert.Equal(t, map[int]int64{200: 2, 201: 1}, snap.Requests.ByStatus)
	assert.Equal(t, map[string]int64{"/api/cardapio": 2, "/api/admin/pratos": 1}, snap.Requests.ByEndpoint)
	// exactly 1000ms is not slow
	assert.Equal(t, int64(1), snap.Performance.SlowRequests)
	assert.Equal(t, int64(2), snap.Performance.FastRequests)
}

func TestRecordError_PrunesOlderThanRetention(t *testing.T) {
	clock := newFakeClock()
	m := newTestAggregator(WithClock(clock.Now))
	rc := RequestContext{URL: "/api/admin/pratos", Method: "POST", ClientIP: "10.0.0.1"}

	m.RecordError("DatabaseError", "connection refused", rc)
	clock.Advance(23 * time.Hour)
	m.RecordError("ValidationError", "bad input", rc)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Errors.Total)
	require.Len(t, snap.Errors.Recent, 2)

	clock.Advance(2 * time.Hour)
	m.RecordError("PanicError", "boom", rc)

	snap = m.Snapshot()
	assert.Equal(t, int64(3), snap.Errors.Total)
	assert.Equal(t, map[string]int64{"DatabaseError": 1, "ValidationError": 1, "PanicError": 1}, snap.Errors.ByType)
	require.Len(t, snap.Errors.Recent, 2)
	for _, rec := range snap.Errors.Recent {
		assert.True(t, rec.Timestamp.After(clock.Now().Add(-ErrorRetention)))
	}
	assert.Equal(t, "ValidationError", snap.Errors.Recent[0].Type)
	assert.Equal(t, "10.0.0.1", snap.Errors.Recent[1].IP)
}

func TestDatabaseMetricsHaveOwnMean(t *testing.T) {
	m := newTestAggregator()

	record(m, 1000*time.Millisecond, 200)
	m.RecordDatabaseOperation(10 * time.Millisecond)
	m.RecordDatabaseOperation(30 * time.Millisecond)
	m.RecordDatabaseOperation(600 * time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Database.Queries)
	assert.InDelta(t, 640.0/3, snap.Database.AvgQueryTimeMs, 1e-9)
	assert.Equal(t, int64(1), snap.Database.SlowQueries)
	assert.InDelta(t, 1000.0, snap.Performance.AvgResponseTimeMs, 1e-9)
}

func TestSecurityCounters(t *testing.T) {
	m := newTestAggregator()

	m.RecordSuspiciousRequest()
	m.RecordRateLimitHit()
	m.RecordRateLimitHit()
	m.BlockIP("10.0.0.2")
	m.BlockIP("10.0.0.1")
	m.BlockIP("10.0.0.2")

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Security.SuspiciousRequests)
	assert.Equal(t, int64(2), snap.Security.RateLimitHits)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, snap.Security.BlockedIPs)
}

func TestSnapshotIsDetached(t *testing.T) {
	m := newTestAggregator()
	record(m, 10*time.Millisecond, 200)
	m.RecordError("DatabaseError", "x", RequestContext{})

	snap := m.Snapshot()
	snap.Requests.ByMethod["GET"] = 99
	snap.Errors.ByType["DatabaseError"] = 99
	snap.Errors.Recent[0].Message = "changed"

	again := m.Snapshot()
	assert.Equal(t, int64(1), again.Requests.ByMethod["GET"])
	assert.Equal(t, int64(1), again.Errors.ByType["DatabaseError"])
	assert.Equal(t, "x", again.Errors.Recent[0].Message)
}

func TestReset(t *testing.T) {
	m := newTestAggregator()
	record(m, 3000*time.Millisecond, 500)
	m.RecordError("DatabaseError", "x", RequestContext{})
	m.RecordDatabaseOperation(time.Second)
	m.RecordSuspiciousRequest()
	m.BlockIP("1.2.3.4")

	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.Requests.Total)
	assert.Empty(t, snap.Requests.ByStatus)
	assert.Zero(t, snap.Performance.AvgResponseTimeMs)
	assert.Zero(t, snap.Performance.SlowRequests)
	assert.Zero(t, snap.Errors.Total)
	assert.Empty(t, snap.Errors.Recent)
	assert.Zero(t, snap.Database.Queries)
	assert.Zero(t, snap.Security.SuspiciousRequests)
	assert.Empty(t, snap.Security.BlockedIPs)

	record(m, 50*time.Millisecond, 200)
	assert.InDelta(t, 50.0, m.Snapshot().Performance.AvgResponseTimeMs, 1e-9)
}

func TestHealthVerdict(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		m := newTestAggregator()
		for i := 0; i < 20; i++ {
			record(m, 100*time.Millisecond, 200)
		}
		// exactly 5% is not above the threshold
		m.RecordError("DatabaseError", "x", RequestContext{})

		report := m.HealthVerdict()
		assert.Equal(t, StatusOK, report.Status)
		assert.Empty(t, report.Issues)
		assert.Equal(t, int64(20), report.Summary.Requests)
		assert.Equal(t, int64(100), report.Summary.AvgResponseTimeMs)
		assert.Equal(t, 0.05, report.Summary.ErrorRate)
		assert.Equal(t, int64(10), report.Summary.MemoryUsagePercent)
	})

	t.Run("no requests", func(t *testing.T) {
		report := newTestAggregator().HealthVerdict()
		assert.Equal(t, StatusOK, report.Status)
		assert.Zero(t, report.Summary.ErrorRate)
	})

	t.Run("slow", func(t *testing.T) {
		m := newTestAggregator()
		record(m, 2500*time.Millisecond, 200)

		report := m.HealthVerdict()
		assert.Equal(t, StatusWarning, report.Status)
		assert.Equal(t, []string{"High average response time: 2500ms"}, report.Issues)
	})

	t.Run("errors", func(t *testing.T) {
		m := newTestAggregator()
		for i := 0; i < 10; i++ {
			record(m, 10*time.Millisecond, 200)
		}
		m.RecordError("DatabaseError", "x", RequestContext{})

		report := m.HealthVerdict()
		assert.Equal(t, StatusWarning, report.Status)
		assert.Equal(t, []string{"High error rate: 10.00%"}, report.Issues)
		assert.Equal(t, 0.1, report.Summary.ErrorRate)
	})

	t.Run("memory", func(t *testing.T) {
		m := NewMetricsAggregator(testLogger(), WithMemoryReader(func() MemoryUsage {
			return MemoryUsage{HeapUsed: 95, HeapTotal: 100}
		}))

		report := m.HealthVerdict()
		assert.Equal(t, StatusWarning, report.Status)
		assert.Equal(t, []string{"High memory usage: 95%"}, report.Issues)
		assert.Equal(t, int64(95), report.Summary.MemoryUsagePercent)
	})

	t.Run("missing memory reading", func(t *testing.T) {
		m := NewMetricsAggregator(testLogger(), WithMemoryReader(func() MemoryUsage { return MemoryUsage{} }))
		report := m.HealthVerdict()
		assert.Equal(t, StatusOK, report.Status)
		assert.Zero(t, report.Summary.MemoryUsagePercent)
	})

	t.Run("all three", func(t *testing.T) {
		m := NewMetricsAggregator(testLogger(), WithMemoryReader(func() MemoryUsage {
			return MemoryUsage{HeapUsed: 99, HeapTotal: 100}
		}))
		record(m, 5*time.Second, 500)
		m.RecordError("PanicError", "x", RequestContext{})

		report := m.HealthVerdict()
		assert.Equal(t, StatusWarning, report.Status)
		assert.Len(t, report.Issues, 3)
	})
}

func TestConcurrentRecording(t *testing.T) {
	m := newTestAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				record(m, 100*time.Millisecond, 200)
				m.RecordDatabaseOperation(time.Millisecond)
				_ = m.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(1000), snap.Requests.Total)
	assert.Equal(t, int64(1000), snap.Requests.ByStatus[200])
	assert.Equal(t, int64(1000), snap.Database.Queries)
	assert.InDelta(t, 100.0, snap.Performance.AvgResponseTimeMs, 1e-6)
}

func TestSnapshotSystem(t *testing.T) {
	clock := newFakeClock()
	m := newTestAggregator(WithClock(clock.Now))
	clock.Advance(90 * time.Second)

	snap := m.Snapshot()
	assert.InDelta(t, 90.0, snap.System.UptimeSeconds, 1e-9)
	assert.Equal(t, lowMemory(), snap.System.Memory)
	assert.Positive(t, snap.System.Goroutines)
	assert.GreaterOrEqual(t, snap.System.CPU.UserSeconds, 0.0)
	assert.Equal(t, clock.Now(), snap.GeneratedAt)
}

func TestSlowQueryIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := NewMetricsAggregator(zap.New(core), WithMemoryReader(lowMemory))

	m.RecordDatabaseOperation(20 * time.Millisecond)
	assert.Zero(t, logs.Len())

	m.RecordDatabaseOperation(750 * time.Millisecond)
	entries := logs.FilterMessage("slow query").All()
	require.Len(t, entries, 1)
	assert.Equal(t, 750.0, entries[0].ContextMap()["duration_ms"])
	assert.Equal(t, int64(1), m.Snapshot().Database.SlowQueries)
}

func TestStreamFinishStaysOutOfResponseTime(t *testing.T) {
	m := newTestAggregator()
	record(m, 10*time.Millisecond, 200)
	record(m, 30*time.Millisecond, 200)

	m.RecordRequestStart("GET", "/api/cardapio/ws")
	m.RecordStreamFinish(200)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.Requests.Total)
	assert.Equal(t, int64(3), snap.Requests.ByStatus[200])
	assert.InDelta(t, 20.0, snap.Performance.AvgResponseTimeMs, 1e-9)
	assert.Zero(t, snap.Performance.SlowRequests)
	assert.Equal(t, StatusOK, m.HealthVerdict().Status)
}
