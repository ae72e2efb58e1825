package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes per-operation totals through expvar.
type ExpvarMetricsRecorder struct {
	name    string
	mu      sync.Mutex
	totalMS map[string]float64
	counts  map[string]map[string]int64
	hits    int64
	misses  int64
}

// ExpvarMetricsSnapshot is the JSON document served under the expvar name.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	CacheHits   int64                       `json:"cache_hits"`
	CacheMisses int64                       `json:"cache_misses"`
}

// NewExpvarMetricsRecorder publishes a recorder under name, generating a
// unique one when empty. expvar names are process-global.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("rentapp_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:    name,
		totalMS: make(map[string]float64),
		counts:  make(map[string]map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot copies the current totals.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64, len(r.totalMS)),
		Results:     make(map[string]map[string]int64, len(r.counts)),
		CacheHits:   r.hits,
		CacheMisses: r.misses,
	}
	for op, ms := range r.totalMS {
		snap.DurationsMS[op] = ms
	}
	for op, byStatus := range r.counts {
		cp := make(map[string]int64, len(byStatus))
		for status, n := range byStatus {
			cp[status] = n
		}
		snap.Results[op] = cp
	}
	return snap
}

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totalMS[operation] += float64(duration) / float64(time.Millisecond)
	if r.counts[operation] == nil {
		r.counts[operation] = make(map[string]int64, 2)
	}
	r.counts[operation][statusLabel(success)]++
}

// ObserveCache implements CacheRecorder.
func (r *ExpvarMetricsRecorder) ObserveCache(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// PrometheusMetricsRecorder exports operation counters, latency histograms
// and memo hit counters to a prometheus registry.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	cache      *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the rentapp collectors with reg.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	rec := &PrometheusMetricsRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentapp",
			Name:      "operations_total",
			Help:      "Repository and list operations by outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rentapp",
			Name:      "operation_duration_seconds",
			Help:      "Repository and list operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentapp",
			Name:      "cache_lookups_total",
			Help:      "Merged listing memo lookups by result.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{rec.operations, rec.durations, rec.cache} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return rec, nil
}

// Observe implements MetricsRecorder.
func (p *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	p.operations.WithLabelValues(operation, statusLabel(success)).Inc()
	p.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveCache implements CacheRecorder.
func (p *PrometheusMetricsRecorder) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cache.WithLabelValues(result).Inc()
}

// JSONTraceEntry is one finished span.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// JSONTraceTracer writes finished spans as JSON lines and keeps them for
// inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer returns a tracer writing to w. A nil writer only retains spans.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of the finished spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

type jsonSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonSpan) End(err error) {
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     statusLabel(err == nil),
		DurationMS: float64(time.Since(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.entries = append(s.tracer.entries, entry)
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(entry)
	}
}
