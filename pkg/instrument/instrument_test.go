package instrument

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/reactor/pkg/reactive"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	require.NotNil(t, m.Counter, "expected counter metric to have Counter field")
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	require.NotNil(t, m.Gauge, "expected gauge metric to have Gauge field")
	return m.GetGauge().GetValue()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newObject(t *testing.T, rt *reactive.Runtime) *reactive.Administration {
	t.Helper()
	adm, err := reactive.Extend(reactive.NewObject(), []reactive.Declaration{
		reactive.Observable("n", 0),
	}, reactive.WithRuntime(rt), reactive.WithName("counter"))
	require.NoError(t, err)
	return adm
}

func TestMetricsRecordsChangesAndTransactions(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()), WithNamespace("test"))
	rt := reactive.NewRuntime(reactive.WithSpy(m))
	adm := newObject(t, rt)

	adm.Intercept(func(c *reactive.Change) *reactive.Change {
		if c.NewValue == -1 {
			return nil
		}
		return c
	})

	rt.Transaction(func() {
		require.NoError(t, adm.Write("n", 1))
		require.NoError(t, adm.Write("n", -1))
		rt.Transaction(func() {
			assert.Equal(t, float64(2), metricGaugeValue(t, m.batchDepth))
		})
	})
	adm.Remove("n")

	assert.Equal(t, float64(1), metricCounterValue(t, m.changesTotal.WithLabelValues("add")))
	assert.Equal(t, float64(1), metricCounterValue(t, m.changesTotal.WithLabelValues("update")))
	assert.Equal(t, float64(1), metricCounterValue(t, m.changesTotal.WithLabelValues("remove")))
	assert.Equal(t, float64(1), metricCounterValue(t, m.vetoesTotal.WithLabelValues("update")))
	// Extend and the explicit transaction; nested ones are not counted.
	assert.Equal(t, float64(2), metricCounterValue(t, m.transactions))
	assert.Equal(t, float64(0), metricGaugeValue(t, m.batchDepth))
}

func TestMetricsRecordsReactions(t *testing.T) {
	m := NewMetrics(WithRegistry(prometheus.NewRegistry()))
	rt := reactive.NewRuntime(reactive.WithSpy(m), reactive.WithLogger(discardLogger()))
	adm := newObject(t, rt)

	stop := reactive.Autorun(rt, func() {
		v, _ := adm.Read("n")
		if v == 2 {
			panic("two")
		}
	})
	defer stop()

	require.NoError(t, adm.Write("n", 1))
	require.NoError(t, adm.Write("n", 2))

	snap := m.Snapshot()
	assert.Equal(t, float64(3), snap.ReactionRuns)
	assert.Equal(t, float64(1), snap.ReactionErrors)
	assert.Equal(t, map[string]float64{"add": 1, "update": 2}, snap.Changes)
	assert.Empty(t, snap.Vetoes)
}

func TestMetricsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(WithRegistry(reg))
	assert.Panics(t, func() {
		NewMetrics(WithRegistry(reg))
	})
	assert.NotPanics(t, func() {
		NewMetrics(WithRegistry(reg), WithSubsystem("second"))
	})
}

// recordingTracer captures started spans.
type recordingTracer struct {
	embedded.Tracer
	spans []*recordingSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	span := &recordingSpan{name: name, attrs: cfg.Attributes(), parent: trace.SpanFromContext(ctx)}
	r.spans = append(r.spans, span)
	return trace.ContextWithSpan(ctx, span), span
}

type recordingSpan struct {
	noop.Span
	name   string
	attrs  []attribute.KeyValue
	events []string
	parent trace.Span
	ended  bool
	status codes.Code
	err    error
}

func (s *recordingSpan) End(...trace.SpanEndOption) { s.ended = true }

func (s *recordingSpan) AddEvent(name string, _ ...trace.EventOption) {
	s.events = append(s.events, name)
}

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) { s.err = err }

func (s *recordingSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.attrs = append(s.attrs, kv...)
}

func TestTracingTransactionSpan(t *testing.T) {
	tracer := &recordingTracer{}
	tr := NewTracing(WithTracer(tracer))
	rt := reactive.NewRuntime(reactive.WithSpy(tr))
	adm := newObject(t, rt)
	tracer.spans = nil

	rt.TxNamed("bump", func() {
		_ = adm.Write("n", 1)
		rt.Transaction(func() {
			_ = adm.Write("n", 2)
		})
	})

	require.Len(t, tracer.spans, 1)
	span := tracer.spans[0]
	assert.Equal(t, "reactor.transaction bump", span.name)
	assert.Equal(t, []string{"change", "nested transaction", "change"}, span.events)
	assert.True(t, span.ended)
	assert.Equal(t, codes.Ok, span.status)
	assert.Equal(t, 0, tr.Open())
}

func TestTracingReactionSpans(t *testing.T) {
	tracer := &recordingTracer{}
	tr := NewTracing(WithTracer(tracer))
	rt := reactive.NewRuntime(reactive.WithSpy(tr), reactive.WithLogger(discardLogger()))
	adm := newObject(t, rt)
	tracer.spans = nil

	r := reactive.NewReaction(rt, "watch", func() {
		v, _ := adm.Read("n")
		if v == 1 {
			panic("one")
		}
	})
	r.Run()
	require.NoError(t, adm.Write("n", 1))

	// Reactions triggered by a write outside a transaction run before the
	// change is reported.
	require.Len(t, tracer.spans, 3)
	assert.Equal(t, "reactor.reaction watch", tracer.spans[0].name)
	assert.Equal(t, "change", tracer.spans[2].name)
	failed := tracer.spans[1]
	assert.Equal(t, "reactor.reaction watch", failed.name)
	assert.Equal(t, codes.Error, failed.status)
	assert.Error(t, failed.err)
	for _, s := range tracer.spans {
		assert.True(t, s.ended, "span %s not ended", s.name)
	}
}

func TestTracingIncludeValues(t *testing.T) {
	tracer := &recordingTracer{}
	tr := NewTracing(WithTracer(tracer), WithIncludeValues(true))

	tr.SpyEvent(reactive.Event{
		Kind:   reactive.EventChange,
		Object: "o",
		Change: &reactive.Change{Type: reactive.ChangeUpdate, Name: "k", OldValue: 1, NewValue: 2},
	})

	require.Len(t, tracer.spans, 1)
	attrs := attribute.NewSet(tracer.spans[0].attrs...)
	v, ok := attrs.Value("reactor.new_value")
	require.True(t, ok)
	assert.Equal(t, "2", v.AsString())
	v, _ = attrs.Value("reactor.key")
	assert.Equal(t, "k", v.AsString())
}

func TestTracingEndWithoutStart(t *testing.T) {
	tr := NewTracing(WithTracer(&recordingTracer{}))
	assert.NotPanics(t, func() {
		tr.SpyEvent(reactive.Event{Kind: reactive.EventReactionEnd, Err: errors.New("x")})
		tr.SpyEvent(reactive.Event{Kind: reactive.EventTransactionEnd})
	})
}
