package metrics

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Metric names recorded by the service
const (
	PickListsGenerated   = "picklists_generated"
	PicksCreated         = "picks_created"
	GenerationDuration   = "picklist_generation"
	GenerationEmpty      = "picklist_generation_empty"
	AvailableProducts    = "available_products"
	TokensIssued         = "tokens_issued"
	TokensAccepted       = "tokens_accepted"
	TokensRejected       = "tokens_rejected"
	EventsPublished      = "events_published"
	EventPublishFailures = "event_publish_failures"
	DocumentsIndexed     = "documents_indexed"
)

// DBQueryType labels a database operation for timing
type DBQueryType string

const (
	DBQueryTypeSelect DBQueryType = "select"
	DBQueryTypeInsert DBQueryType = "insert"
	DBQueryTypeUpdate DBQueryType = "update"
	DBQueryTypeDelete DBQueryType = "delete"
)

// TimerMetric captures timing information
type TimerMetric struct {
	Count         int64   `json:"count"`
	TotalTimeMs   int64   `json:"total_time_ms"`
	AverageTimeMs float64 `json:"average_time_ms"`
	MinTimeMs     int64   `json:"min_time_ms"`
	MaxTimeMs     int64   `json:"max_time_ms"`
}

// ErrorRateMetric captures error rates
type ErrorRateMetric struct {
	Total     int64   `json:"total"`
	Errors    int64   `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

type timer struct {
	count       int64
	totalTimeMs int64
	minTimeMs   int64
	maxTimeMs   int64
}

type errorRate struct {
	total  int64
	errors int64
}

// Metrics is the in-process metrics collector served on /metrics
type Metrics struct {
	mu           sync.RWMutex
	counters     map[string]*int64
	gauges       map[string]*int64
	timers       map[string]*timer
	errorRates   map[string]*errorRate
	healthChecks map[string]*int64
	startTime    time.Time
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		counters:     make(map[string]*int64),
		gauges:       make(map[string]*int64),
		timers:       make(map[string]*timer),
		errorRates:   make(map[string]*errorRate),
		healthChecks: make(map[string]*int64),
		startTime:    time.Now(),
	}
}

// slot returns the entry for name, creating it on first use
func slot[V any](m *Metrics, store map[string]*V, name string, init func() *V) *V {
	m.mu.RLock()
	v, ok := store[name]
	m.mu.RUnlock()
	if ok {
		return v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok = store[name]; !ok {
		v = init()
		store[name] = v
	}
	return v
}

func newInt64() *int64 { return new(int64) }

// IncrementCounter increments a counter by 1
func (m *Metrics) IncrementCounter(name string) {
	m.IncrementCounterBy(name, 1)
}

// IncrementCounterBy increments a counter by the specified value
func (m *Metrics) IncrementCounterBy(name string, value int64) {
	atomic.AddInt64(slot(m, m.counters, name, newInt64), value)
}

// SetGauge sets a gauge to a specific value
func (m *Metrics) SetGauge(name string, value int64) {
	atomic.StoreInt64(slot(m, m.gauges, name, newInt64), value)
}

// RecordTimer records a timing measurement in milliseconds
func (m *Metrics) RecordTimer(name string, durationMs int64) {
	t := slot(m, m.timers, name, func() *timer { return &timer{minTimeMs: math.MaxInt64} })

	atomic.AddInt64(&t.count, 1)
	atomic.AddInt64(&t.totalTimeMs, durationMs)

	for {
		cur := atomic.LoadInt64(&t.minTimeMs)
		if durationMs >= cur || atomic.CompareAndSwapInt64(&t.minTimeMs, cur, durationMs) {
			break
		}
	}
	for {
		cur := atomic.LoadInt64(&t.maxTimeMs)
		if durationMs <= cur || atomic.CompareAndSwapInt64(&t.maxTimeMs, cur, durationMs) {
			break
		}
	}
}

// RecordDuration records d under the named timer
func (m *Metrics) RecordDuration(name string, d time.Duration) {
	m.RecordTimer(name, d.Milliseconds())
}

// RecordSuccess records a successful operation for error rate tracking
func (m *Metrics) RecordSuccess(name string) {
	m.recordErrorRate(name, false)
}

// RecordError records an error for error rate tracking
func (m *Metrics) RecordError(name string) {
	m.recordErrorRate(name, true)
}

// RecordOutcome records duration and success or failure of an operation
func (m *Metrics) RecordOutcome(name string, start time.Time, err error) {
	m.RecordDuration(name, time.Since(start))
	if err != nil {
		m.RecordError(name)
		return
	}
	m.RecordSuccess(name)
}

func (m *Metrics) recordErrorRate(name string, isError bool) {
	er := slot(m, m.errorRates, name, func() *errorRate { return &errorRate{} })
	atomic.AddInt64(&er.total, 1)
	if isError {
		atomic.AddInt64(&er.errors, 1)
	}
}

// RecordDatabaseQuery records a database operation by type
func (m *Metrics) RecordDatabaseQuery(queryType DBQueryType, success bool, d time.Duration) {
	name := "db_" + string(queryType)
	m.RecordDuration(name, d)
	m.recordErrorRate(name, !success)
}

// SetHealth sets the health status of a component
func (m *Metrics) SetHealth(component string, isHealthy bool) {
	var value int64
	if isHealthy {
		value = 1
	}
	atomic.StoreInt64(slot(m, m.healthChecks, component, newInt64), value)
}

// GetCounters returns all counters
func (m *Metrics) GetCounters() map[string]int64 {
	return snapshot(m, m.counters)
}

// GetGauges returns all gauges
func (m *Metrics) GetGauges() map[string]int64 {
	return snapshot(m, m.gauges)
}

func snapshot(m *Metrics, store map[string]*int64) map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int64, len(store))
	for name, v := range store {
		out[name] = atomic.LoadInt64(v)
	}
	return out
}

// GetTimers returns all timers
func (m *Metrics) GetTimers() map[string]TimerMetric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]TimerMetric, len(m.timers))
	for name, t := range m.timers {
		count := atomic.LoadInt64(&t.count)
		total := atomic.LoadInt64(&t.totalTimeMs)

		var average float64
		if count > 0 {
			average = float64(total) / float64(count)
		}

		out[name] = TimerMetric{
			Count:         count,
			TotalTimeMs:   total,
			AverageTimeMs: average,
			MinTimeMs:     atomic.LoadInt64(&t.minTimeMs),
			MaxTimeMs:     atomic.LoadInt64(&t.maxTimeMs),
		}
	}
	return out
}

// GetErrorRates returns all error rates as percentages
func (m *Metrics) GetErrorRates() map[string]ErrorRateMetric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]ErrorRateMetric, len(m.errorRates))
	for name, er := range m.errorRates {
		total := atomic.LoadInt64(&er.total)
		errs := atomic.LoadInt64(&er.errors)

		var rate float64
		if total > 0 {
			rate = float64(errs) / float64(total) * 100.0
		}
		out[name] = ErrorRateMetric{Total: total, Errors: errs, ErrorRate: rate}
	}
	return out
}

// GetHealthChecks returns all health checks
func (m *Metrics) GetHealthChecks() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]bool, len(m.healthChecks))
	for name, h := range m.healthChecks {
		out[name] = atomic.LoadInt64(h) > 0
	}
	return out
}

// GetUptimeSeconds returns the service uptime in seconds
func (m *Metrics) GetUptimeSeconds() int64 {
	return int64(time.Since(m.startTime).Seconds())
}

// GetAllMetrics returns all metrics in a structured format
func (m *Metrics) GetAllMetrics() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds": m.GetUptimeSeconds(),
		"counters":       m.GetCounters(),
		"gauges":         m.GetGauges(),
		"timers":         m.GetTimers(),
		"error_rates":    m.GetErrorRates(),
		"health_checks":  m.GetHealthChecks(),
	}
}
