package instrumentations

import (
	"fmt"
	"net/http"

	"github.com/Toasterson/bastel-project-webhookinator/pkg/tracing"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedMux opens a span per matched route, named after the route or
// its method and path template.
type InstrumentedMux struct {
	tracer *tracing.Tracer
}

func NewInstrumentedMux(tracer *tracing.Tracer) *InstrumentedMux {
	return &InstrumentedMux{tracer: tracer}
}

func (m *InstrumentedMux) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := mux.CurrentRoute(r)
		if route == nil || !m.tracer.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		tpl, _ := route.GetPathTemplate()
		name := route.GetName()
		if name == "" {
			name = fmt.Sprintf("%s %s", r.Method, tpl)
		}
		ctx, span := m.tracer.Start(r.Context(), name,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attribute.String("http.route", tpl)),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
