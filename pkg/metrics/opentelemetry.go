package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config"
	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	prefix              = "whinator."
	instrumentationName = "github.com/Toasterson/bastel-project-webhookinator"
)

func newHTTPExporter(endpoint string) (metric.Exporter, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(endpoint),
	}
	return otlpmetrichttp.New(context.Background(), opts...)
}

func newGRPCExporter(endpoint string) (metric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	}
	return otlpmetricgrpc.New(context.Background(), opts...)
}

func newReader(cfg modules.Opentelemetry, interval time.Duration) (metric.Reader, error) {
	var err error
	var exporter metric.Exporter
	switch cfg.Protocol {
	case modules.OtlpProtocolHTTP:
		exporter, err = newHTTPExporter(cfg.EndpointFor(modules.SignalMetrics))
	case modules.OtlpProtocolGRPC:
		exporter, err = newGRPCExporter(cfg.EndpointFor(modules.SignalMetrics))
	default:
		err = fmt.Errorf("unsupported protocol: %s", cfg.Protocol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to setup exporter: %w", err)
	}
	return metric.NewPeriodicReader(exporter, metric.WithInterval(interval)), nil
}

type provider struct {
	meterProvider *metric.MeterProvider
}

func (p *provider) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.meterProvider.Shutdown(ctx)
}

func setupOpentelemetry(attributes map[string]string, reader metric.Reader, metrics *Metrics) (*provider, error) {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for name, value := range attributes {
		attrs = append(attrs, attribute.String(name, value))
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String("whinator")),
		resource.WithAttributes(semconv.ServiceVersionKey.String(config.VERSION)),
		resource.WithFromEnv(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(instrumentationName)

	// proxy metrics
	metrics.RequestCounter = NewCounter(meter, prefix+"request.total", "Webhook requests received")
	metrics.RequestDurationHistogram = NewHistogram(meter, prefix+"request.duration", "Webhook request latency", "s")

	// runtime metrics
	metrics.RuntimeGoroutine = NewGauge(meter, prefix+"runtime.num_goroutine", "")
	metrics.RuntimeAlloc = NewGauge(meter, prefix+"runtime.alloc_bytes", "")
	metrics.RuntimeSys = NewGauge(meter, prefix+"runtime.sys_bytes", "")
	metrics.RuntimeMallocs = NewGauge(meter, prefix+"runtime.mallocs", "")
	metrics.RuntimeFrees = NewGauge(meter, prefix+"runtime.frees", "")
	metrics.RuntimeHeapObjects = NewGauge(meter, prefix+"runtime.heap_objects", "")
	metrics.RuntimePauseTotalNs = NewGauge(meter, prefix+"runtime.pause_total_ns", "")
	metrics.RuntimeGC = NewGauge(meter, prefix+"runtime.num_gc", "")

	// evaluation metrics
	metrics.EvaluationCounter = NewCounter(meter, prefix+"evaluation.total", "Script evaluations")
	metrics.EvaluationFailedCounter = NewCounter(meter, prefix+"evaluation.failed", "Failed script evaluations by kind")
	metrics.EvaluationDurationHistogram = NewHistogram(meter, prefix+"evaluation.duration", "Script evaluation latency", "s")
	metrics.EvaluationQueuedGauge = NewGauge(meter, prefix+"evaluation.queued", "Evaluations waiting for a worker")

	// script metrics
	metrics.ScriptReloadCounter = NewCounter(meter, prefix+"script.reload", "Script file reloads by result")

	return &provider{meterProvider: meterProvider}, nil
}
