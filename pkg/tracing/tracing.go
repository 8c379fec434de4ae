package tracing

import (
	"context"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/Toasterson/bastel-project-webhookinator"

// New returns nil when tracing is disabled. A nil *Tracer is usable and
// starts no spans.
func New(cfg *modules.TracingConfig) (*Tracer, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	tp, err := setupOTEL(cfg)
	if err != nil {
		return nil, err
	}

	return NewTracer(tp, tp.Shutdown), nil
}

type Tracer struct {
	trace.Tracer
	shutdown func(ctx context.Context) error
}

func NewTracer(tracerProvider trace.TracerProvider, shutdown func(ctx context.Context) error) *Tracer {
	return &Tracer{
		Tracer:   tracerProvider.Tracer(instrumentationName),
		shutdown: shutdown,
	}
}

// Start starts a span. On a nil Tracer it returns ctx and a span that
// records nothing.
func (t *Tracer) Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t == nil {
		return ctx, noop.Span{}
	}

	return t.Tracer.Start(ctx, spanName, opts...)
}

// Enabled reports whether spans are recorded.
func (t *Tracer) Enabled() bool {
	return t != nil
}

// Stop flushes pending spans.
func (t *Tracer) Stop() error {
	if t == nil || t.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return t.shutdown(ctx)
}

// RecordError marks span as failed. kind is recorded as the error.kind
// attribute when not empty.
func RecordError(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if kind != "" {
		span.SetAttributes(attribute.String("error.kind", kind))
	}
}
