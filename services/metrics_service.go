package services

import (
	"fmt"
	"math"
	"runtime"
	"runtime/metrics"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	SlowRequestThreshold = 1000 * time.Millisecond
	SlowQueryThreshold   = 500 * time.Millisecond
	ErrorRetention       = 24 * time.Hour

	StatusOK      = "OK"
	StatusWarning = "WARNING"
	StatusError   = "ERROR"

	maxAvgResponseMs = 2000.0
	maxErrorRate     = 0.05
	maxHeapRatio     = 0.9
)

// RequestContext describes the request an error happened in.
type RequestContext struct {
	URL      string
	Method   string
	ClientIP string
}

type ErrorRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	IP        string    `json:"ip"`
}

type MemoryUsage struct {
	HeapUsed  uint64 `json:"heap_used"`
	HeapTotal uint64 `json:"heap_total"`
	Sys       uint64 `json:"sys"`
}

type CPUUsage struct {
	UserSeconds float64 `json:"user_seconds"`
	GCSeconds   float64 `json:"gc_seconds"`
}

type RequestMetrics struct {
	Total      int64            `json:"total"`
	ByMethod   map[string]int64 `json:"by_method"`
	ByStatus   map[int]int64    `json:"by_status"`
	ByEndpoint map[string]int64 `json:"by_endpoint"`
}

type PerformanceMetrics struct {
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	SlowRequests      int64   `json:"slow_requests"`
	FastRequests      int64   `json:"fast_requests"`
}

type ErrorMetrics struct {
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"by_type"`
	Recent []ErrorRecord    `json:"recent"`
}

type DatabaseMetrics struct {
	Queries        int64   `json:"queries"`
	AvgQueryTimeMs float64 `json:"avg_query_time_ms"`
	SlowQueries    int64   `json:"slow_queries"`
}

type SecurityMetrics struct {
	SuspiciousRequests int64    `json:"suspicious_requests"`
	BlockedIPs         []string `json:"blocked_ips"`
	RateLimitHits      int64    `json:"rate_limit_hits"`
}

type SystemMetrics struct {
	UptimeSeconds float64     `json:"uptime_seconds"`
	Memory        MemoryUsage `json:"memory"`
	CPU           CPUUsage    `json:"cpu"`
	Goroutines    int         `json:"goroutines"`
}

// MetricsSnapshot is a detached copy of the aggregator state.
type MetricsSnapshot struct {
	Requests    RequestMetrics     `json:"requests"`
	Performance PerformanceMetrics `json:"performance"`
	Errors      ErrorMetrics       `json:"errors"`
	Database    DatabaseMetrics    `json:"database"`
	Security    SecurityMetrics    `json:"security"`
	System      SystemMetrics      `json:"system"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type HealthSummary struct {
	Requests           int64   `json:"requests"`
	AvgResponseTimeMs  int64   `json:"avg_response_time_ms"`
	ErrorRate          float64 `json:"error_rate"`
	MemoryUsagePercent int64   `json:"memory_usage_percent"`
	DatabaseQueries    int64   `json:"database_queries"`
}

type HealthReport struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Issues    []string      `json:"issues,omitempty"`
	Summary   HealthSummary `json:"summary"`
}

// runningMean is a cumulative mean over every sample it has seen.
type runningMean struct {
	count int64
	avg   float64
}

func (m *runningMean) add(x float64) {
	m.count++
	m.avg = (m.avg*float64(m.count-1) + x) / float64(m.count)
}

// MetricsAggregator holds process-lifetime request, error, database and
// security counters. All methods are safe for concurrent use and never fail.
type MetricsAggregator struct {
	mu sync.RWMutex

	logger    *zap.Logger
	now       func() time.Time
	readMem   func() MemoryUsage
	readCPU   func() CPUUsage
	startedAt time.Time

	requests     RequestMetrics
	responseTime runningMean
	slowRequests int64
	fastRequests int64

	errorTotal  int64
	errorByType map[string]int64
	errorLog    []ErrorRecord

	dbTime      runningMean
	slowQueries int64

	suspicious    int64
	blockedIPs    map[string]struct{}
	rateLimitHits int64
}

type MetricsOption func(*MetricsAggregator)

func WithClock(now func() time.Time) MetricsOption {
	return func(m *MetricsAggregator) { m.now = now }
}

func WithMemoryReader(read func() MemoryUsage) MetricsOption {
	return func(m *MetricsAggregator) { m.readMem = read }
}

func NewMetricsAggregator(logger *zap.Logger, opts ...MetricsOption) *MetricsAggregator {
	m := &MetricsAggregator{
		logger:  logger,
		now:     time.Now,
		readMem: readMemoryUsage,
		readCPU: readCPUUsage,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.startedAt = m.now()
	m.clear()
	return m
}

// clear zeroes every counter; callers hold mu.
func (m *MetricsAggregator) clear() {
	m.requests = RequestMetrics{
		ByMethod:   make(map[string]int64),
		ByStatus:   make(map[int]int64),
		ByEndpoint: make(map[string]int64),
	}
	m.responseTime = runningMean{}
	m.slowRequests, m.fastRequests = 0, 0
	m.errorTotal = 0
	m.errorByType = make(map[string]int64)
	m.errorLog = nil
	m.dbTime = runningMean{}
	m.slowQueries = 0
	m.suspicious = 0
	m.blockedIPs = make(map[string]struct{})
	m.rateLimitHits = 0
}

// RecordRequestStart counts a request before its handler runs. endpoint is the
// matched route pattern, or the raw path when nothing matched.
func (m *MetricsAggregator) RecordRequestStart(method, endpoint string) {
	m.mu.Lock()
	m.requests.Total++
	m.requests.ByMethod[method]++
	m.requests.ByEndpoint[endpoint]++
	m.mu.Unlock()
}

// RecordRequestFinish records the status and latency of a completed request.
func (m *MetricsAggregator) RecordRequestFinish(endpoint string, elapsed time.Duration, status int) {
	ms := durationMs(elapsed)
	slow := elapsed > SlowRequestThreshold

	m.mu.Lock()
	m.requests.ByStatus[status]++
	m.responseTime.add(ms)
	if slow {
		m.slowRequests++
	} else {
		m.fastRequests++
	}
	m.mu.Unlock()

	if slow && m.logger != nil {
		m.logger.Warn("slow request",
			zap.String("endpoint", endpoint),
			zap.Float64("elapsed_ms", ms),
			zap.Int("status", status),
		)
	}
}

// RecordStreamFinish records the status of a long-lived connection such as a
// websocket. Its lifetime is not a response time and stays out of the means.
func (m *MetricsAggregator) RecordStreamFinish(status int) {
	m.mu.Lock()
	m.requests.ByStatus[status]++
	m.mu.Unlock()
}

// RecordError counts an error and keeps a record of it for 24 hours.
func (m *MetricsAggregator) RecordError(kind, message string, rc RequestContext) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.errorTotal++
	m.errorByType[kind]++
	m.errorLog = append(m.errorLog, ErrorRecord{
		Timestamp: now,
		Type:      kind,
		Message:   message,
		URL:       rc.URL,
		Method:    rc.Method,
		IP:        rc.ClientIP,
	})

	cutoff := now.Add(-ErrorRetention)
	kept := m.errorLog[:0]
	for _, rec := range m.errorLog {
		if rec.Timestamp.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	m.errorLog = kept
}

func (m *MetricsAggregator) RecordDatabaseOperation(duration time.Duration) {
	ms := durationMs(duration)
	slow := duration > SlowQueryThreshold

	m.mu.Lock()
	m.dbTime.add(ms)
	if slow {
		m.slowQueries++
	}
	m.mu.Unlock()

	if slow && m.logger != nil {
		m.logger.Warn("slow query", zap.Float64("duration_ms", ms))
	}
}

func (m *MetricsAggregator) RecordSuspiciousRequest() {
	m.mu.Lock()
	m.suspicious++
	m.mu.Unlock()
}

func (m *MetricsAggregator) RecordRateLimitHit() {
	m.mu.Lock()
	m.rateLimitHits++
	m.mu.Unlock()
}

func (m *MetricsAggregator) BlockIP(ip string) {
	m.mu.Lock()
	m.blockedIPs[ip] = struct{}{}
	m.mu.Unlock()
}

// Reset zeroes all counters in one critical section.
func (m *MetricsAggregator) Reset() {
	m.mu.Lock()
	m.clear()
	m.mu.Unlock()
}

func (m *MetricsAggregator) Snapshot() MetricsSnapshot {
	now := m.now()
	mem := m.readMem()
	cpu := m.readCPU()

	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		Requests: RequestMetrics{
			Total:      m.requests.Total,
			ByMethod:   copyCounts(m.requests.ByMethod),
			ByStatus:   copyCounts(m.requests.ByStatus),
			ByEndpoint: copyCounts(m.requests.ByEndpoint),
		},
		Performance: PerformanceMetrics{
			AvgResponseTimeMs: m.responseTime.avg,
			SlowRequests:      m.slowRequests,
			FastRequests:      m.fastRequests,
		},
		Errors: ErrorMetrics{
			Total:  m.errorTotal,
			ByType: copyCounts(m.errorByType),
			Recent: append([]ErrorRecord{}, m.errorLog...),
		},
		Database: DatabaseMetrics{
			Queries:        m.dbTime.count,
			AvgQueryTimeMs: m.dbTime.avg,
			SlowQueries:    m.slowQueries,
		},
		Security: SecurityMetrics{
			SuspiciousRequests: m.suspicious,
			BlockedIPs:         make([]string, 0, len(m.blockedIPs)),
			RateLimitHits:      m.rateLimitHits,
		},
		System: SystemMetrics{
			UptimeSeconds: now.Sub(m.startedAt).Seconds(),
			Memory:        mem,
			CPU:           cpu,
			Goroutines:    runtime.NumGoroutine(),
		},
		GeneratedAt: now,
	}
	for ip := range m.blockedIPs {
		snap.Security.BlockedIPs = append(snap.Security.BlockedIPs, ip)
	}
	sort.Strings(snap.Security.BlockedIPs)
	return snap
}

// HealthVerdict is WARNING when average latency, error rate or heap usage
// crosses its threshold, OK otherwise.
func (m *MetricsAggregator) HealthVerdict() HealthReport {
	snap := m.Snapshot()

	requests := snap.Requests.Total
	errorRate := float64(snap.Errors.Total) / float64(max(requests, 1))
	var heapRatio float64
	if snap.System.Memory.HeapTotal > 0 {
		heapRatio = float64(snap.System.Memory.HeapUsed) / float64(snap.System.Memory.HeapTotal)
	}
	avg := snap.Performance.AvgResponseTimeMs

	report := HealthReport{
		Status:    StatusOK,
		Timestamp: snap.GeneratedAt,
		Summary: HealthSummary{
			Requests:           requests,
			AvgResponseTimeMs:  int64(math.Round(avg)),
			ErrorRate:          math.Round(errorRate*100) / 100,
			MemoryUsagePercent: int64(math.Round(heapRatio * 100)),
			DatabaseQueries:    snap.Database.Queries,
		},
	}

	if avg > maxAvgResponseMs {
		report.Issues = append(report.Issues, fmt.Sprintf("High average response time: %.0fms", avg))
	}
	if errorRate > maxErrorRate {
		report.Issues = append(report.Issues, fmt.Sprintf("High error rate: %.2f%%", errorRate*100))
	}
	if heapRatio > maxHeapRatio {
		report.Issues = append(report.Issues, fmt.Sprintf("High memory usage: %.0f%%", heapRatio*100))
	}
	if len(report.Issues) > 0 {
		report.Status = StatusWarning
	}
	return report
}

func copyCounts[K comparable](src map[K]int64) map[K]int64 {
	dst := make(map[K]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func readMemoryUsage() MemoryUsage {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return MemoryUsage{HeapUsed: ms.HeapAlloc, HeapTotal: ms.HeapSys, Sys: ms.Sys}
}

var cpuSamples = []metrics.Sample{
	{Name: "/cpu/classes/user:cpu-seconds"},
	{Name: "/cpu/classes/gc/total:cpu-seconds"},
}

func readCPUUsage() CPUUsage {
	samples := make([]metrics.Sample, len(cpuSamples))
	copy(samples, cpuSamples)
	metrics.Read(samples)

	value := func(s metrics.Sample) float64 {
		if s.Value.Kind() != metrics.KindFloat64 {
			return 0
		}
		return s.Value.Float64()
	}
	return CPUUsage{UserSeconds: value(samples[0]), GCSeconds: value(samples[1])}
}
