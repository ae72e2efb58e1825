package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentapp/pkg/domain"
)

type metricsCall struct {
	op      string
	success bool
}

type captureMetrics struct {
	calls []metricsCall
	hits  []bool
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetrics) ObserveCache(hit bool) { c.hits = append(c.hits, hit) }

func TestOperationsAreInstrumented(t *testing.T) {
	ctx := context.Background()
	metrics := &captureMetrics{}
	tracer := NewJSONTracer(nil)
	svc := newTestService(t, newFakeClock(), WithMetrics(metrics), WithTracer(tracer))

	_, err := svc.Properties().GetAll(ctx)
	require.NoError(t, err)
	_, err = svc.Properties().GetAll(ctx)
	require.NoError(t, err)
	_, err = svc.Bookmarks().Add(ctx, "s1", "u1")
	require.NoError(t, err)
	_, err = svc.Properties().Create(ctx, submission(func(p *domain.SubmittedProperty) { p.Status = "sold" }))
	require.Error(t, err)

	assert.Equal(t, []bool{false, true}, metrics.hits)
	assert.Contains(t, metrics.calls, metricsCall{op: "properties.get_all", success: true})
	assert.Contains(t, metrics.calls, metricsCall{op: "bookmarks.add", success: true})
	assert.Contains(t, metrics.calls, metricsCall{op: "properties.create", success: false})

	entries := tracer.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "properties.create", entries[2].Operation)
	assert.Equal(t, "error", entries[2].Status)
	assert.NotEmpty(t, entries[2].Error)
}

func TestExpvarMetricsRecorderPublishesSnapshot(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	assert.True(t, strings.HasPrefix(rec.Name(), "rentapp_metrics_"))
	rec.Observe(context.Background(), "bookmarks.add", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "bookmarks.add", false, time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)
	rec.ObserveCache(true)
	rec.ObserveCache(false)
	rec.ObserveCache(false)

	snap := rec.Snapshot()
	assert.Equal(t, 3.0, snap.DurationsMS["bookmarks.add"])
	assert.Equal(t, int64(1), snap.Results["bookmarks.add"]["success"])
	assert.Equal(t, int64(1), snap.Results["bookmarks.add"]["error"])
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(2), snap.CacheMisses)

	published := expvar.Get(rec.Name())
	require.NotNil(t, published)
	var decoded ExpvarMetricsSnapshot
	require.NoError(t, json.Unmarshal([]byte(published.String()), &decoded))
	assert.Equal(t, snap.Results, decoded.Results)
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	require.NoError(t, err)

	rec.Observe(context.Background(), "closed.add", true, 3*time.Millisecond)
	rec.Observe(context.Background(), "closed.add", false, time.Millisecond)
	rec.ObserveCache(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.operations.WithLabelValues("closed.add", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.operations.WithLabelValues("closed.add", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.cache.WithLabelValues("hit")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.durations))

	_, err = NewPrometheusMetricsRecorder(reg)
	assert.Error(t, err, "collectors register once per registry")
}

func TestJSONTracerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "pipeline.clear_all")
	span.End(errors.New("boom"))
	_, span = tracer.Start(context.Background(), "followup.add")
	span.End(nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var first JSONTraceEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "pipeline.clear_all", first.Operation)
	assert.Equal(t, "boom", first.Error)
	assert.Equal(t, "success", tracer.Entries()[1].Status)
}
