package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "weft"

// TracerConfig configures a Tracer.
type TracerConfig struct {
	// TracerName is the instrumentation name (default: "weft").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider
}

// TracerOption configures a Tracer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(p trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = p
	}
}

// Tracer starts spans around reloads.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer resolves a tracer from the configured provider.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}
	return &Tracer{tracer: config.Provider.Tracer(config.TracerName)}
}

// ReloadSpan is an in-flight reload span.
type ReloadSpan struct {
	span      trace.Span
	mutations int
}

// StartReload starts a span for a reload of component.
func (t *Tracer) StartReload(ctx context.Context, component string, depth int) (context.Context, *ReloadSpan) {
	if t == nil {
		return ctx, nil
	}
	ctx, span := t.tracer.Start(ctx, "weft.reload",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("weft.component", component),
			attribute.Int("weft.reload_depth", depth),
		),
	)
	return ctx, &ReloadSpan{span: span}
}

// AddMutations adds n to the mutation count recorded on End.
func (s *ReloadSpan) AddMutations(n int) {
	if s == nil {
		return
	}
	s.mutations += n
}

// Event records a named span event.
func (s *ReloadSpan) Event(name string, attrs ...attribute.KeyValue) {
	if s == nil {
		return
	}
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// End records the result and ends the span.
func (s *ReloadSpan) End(err error) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.Int("weft.mutation_count", s.mutations))
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// Span returns the underlying span, or nil.
func (s *ReloadSpan) Span() trace.Span {
	if s == nil {
		return nil
	}
	return s.span
}
