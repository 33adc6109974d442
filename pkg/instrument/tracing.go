package instrument

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// Default tracer name for reactor runtimes.
const defaultTracerName = "reactor"

// TracingConfig configures the OpenTelemetry spy.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "reactor").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer

	// IncludeValues records old and new values on change events.
	// Values may contain sensitive information - disabled by default.
	IncludeValues bool

	// Context is the parent context for root spans (default: Background).
	Context context.Context
}

// TracingOption configures the OpenTelemetry spy.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer explicitly.
func WithTracer(tracer trace.Tracer) TracingOption {
	return func(c *TracingConfig) {
		c.Tracer = tracer
	}
}

// WithIncludeValues enables recording values on change events.
func WithIncludeValues(include bool) TracingOption {
	return func(c *TracingConfig) {
		c.IncludeValues = include
	}
}

// WithParentContext sets the context root spans are started from.
func WithParentContext(ctx context.Context) TracingOption {
	return func(c *TracingConfig) {
		c.Context = ctx
	}
}

func defaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
}

// Tracing is a reactive.Spy that turns runtime activity into OpenTelemetry
// spans: one span per outermost transaction and one per reaction run. Changes
// and vetoes are recorded as span events on the innermost open span, or as
// short spans of their own outside any transaction.
//
// Like the runtime it observes, Tracing is not safe for concurrent use.
type Tracing struct {
	config TracingConfig
	tracer trace.Tracer

	// stack holds the open spans, innermost last.
	stack []openSpan
}

type openSpan struct {
	ctx  context.Context
	span trace.Span
}

// NewTracing creates a tracing spy. The tracer uses the global OpenTelemetry
// tracer provider unless WithTracer is given.
func NewTracing(opts ...TracingOption) *Tracing {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Context == nil {
		config.Context = context.Background()
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(config.TracerName)
	}
	return &Tracing{config: config, tracer: tracer}
}

// SpyEvent implements reactive.Spy.
func (t *Tracing) SpyEvent(ev reactive.Event) {
	switch ev.Kind {
	case reactive.EventTransactionStart:
		if ev.Depth == 1 {
			t.start(spanName("transaction", ev.Name), attribute.String("reactor.kind", "transaction"))
			return
		}
		if top := t.top(); top != nil {
			top.span.AddEvent("nested transaction", trace.WithAttributes(
				attribute.String("reactor.transaction", ev.Name),
				attribute.Int("reactor.depth", ev.Depth),
			))
		}

	case reactive.EventTransactionEnd:
		if ev.Depth == 0 {
			t.end(nil)
		}

	case reactive.EventReactionStart:
		t.start(spanName("reaction", ev.Name),
			attribute.String("reactor.kind", "reaction"),
			attribute.String("reactor.reaction", ev.Name),
		)

	case reactive.EventReactionEnd:
		if top := t.top(); top != nil {
			top.span.SetAttributes(attribute.Float64("reactor.duration_ms", float64(ev.Duration.Microseconds())/1000))
		}
		t.end(ev.Err)

	case reactive.EventChange, reactive.EventVeto:
		t.recordChange(ev)
	}
}

func (t *Tracing) recordChange(ev reactive.Event) {
	name := ev.Kind.String()
	attrs := []attribute.KeyValue{attribute.String("reactor.object", ev.Object)}
	if c := ev.Change; c != nil {
		attrs = append(attrs,
			attribute.String("reactor.change", c.Type.String()),
			attribute.String("reactor.key", reactive.StringifyKey(c.Name)),
		)
		if t.config.IncludeValues && ev.Kind == reactive.EventChange {
			attrs = append(attrs,
				attribute.String("reactor.old_value", fmt.Sprint(c.OldValue)),
				attribute.String("reactor.new_value", fmt.Sprint(c.NewValue)),
			)
		}
	}

	if top := t.top(); top != nil {
		top.span.AddEvent(name, trace.WithAttributes(attrs...))
		return
	}
	_, span := t.tracer.Start(t.config.Context, name, trace.WithAttributes(attrs...))
	span.End()
}

func (t *Tracing) start(name string, attrs ...attribute.KeyValue) {
	parent := t.config.Context
	if top := t.top(); top != nil {
		parent = top.ctx
	}
	ctx, span := t.tracer.Start(parent, name, trace.WithAttributes(attrs...))
	t.stack = append(t.stack, openSpan{ctx: ctx, span: span})
}

func (t *Tracing) end(err error) {
	top := t.top()
	if top == nil {
		return
	}
	t.stack = t.stack[:len(t.stack)-1]
	if err != nil {
		top.span.RecordError(err)
		top.span.SetStatus(codes.Error, err.Error())
	} else {
		top.span.SetStatus(codes.Ok, "")
	}
	top.span.End()
}

func (t *Tracing) top() *openSpan {
	if len(t.stack) == 0 {
		return nil
	}
	return &t.stack[len(t.stack)-1]
}

// Open returns the number of spans currently open.
func (t *Tracing) Open() int {
	return len(t.stack)
}

func spanName(kind, name string) string {
	if name == "" {
		return "reactor." + kind
	}
	return "reactor." + kind + " " + name
}

var _ reactive.Spy = (*Tracing)(nil)
