package tracing

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"

	"github.com/Toasterson/bastel-project-webhookinator/config"
	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/encoding/gzip"
)

// Stdout is where the stdout protocol writes spans.
var Stdout io.Writer = os.Stdout

func setupOTEL(cfg *modules.TracingConfig) (*sdktrace.TracerProvider, error) {
	exporter, err := newExporter(cfg.Opentelemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to setup exporter: %w", err)
	}

	attr := []attribute.KeyValue{
		semconv.ServiceNameKey.String("whinator"),
		semconv.ServiceVersionKey.String(config.VERSION),
	}

	for k, v := range cfg.Attributes {
		attr = append(attr, attribute.String(k, v))
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(attr...),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	return tracerProvider, nil
}

func newExporter(c modules.Opentelemetry) (sdktrace.SpanExporter, error) {
	switch c.Protocol {
	case modules.OtlpProtocolHTTP:
		return setupHTTPExporter(c.EndpointFor(modules.SignalTraces))
	case modules.OtlpProtocolGRPC:
		return setupGRPCExporter(c.EndpointFor(modules.SignalTraces))
	case modules.OtlpProtocolStdout:
		return stdouttrace.New(stdouttrace.WithWriter(Stdout))
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", c.Protocol)
	}
}

func setupHTTPExporter(collector string) (*otlptrace.Exporter, error) {
	endpoint, err := url.Parse(collector)
	if err != nil {
		return nil, fmt.Errorf("invalid collector endpoint %q: %w", collector, err)
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint.Host),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}

	if endpoint.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	if endpoint.Path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(endpoint.Path))
	}

	return otlptrace.New(context.Background(), otlptracehttp.NewClient(opts...))
}

func setupGRPCExporter(collector string) (*otlptrace.Exporter, error) {
	host, port, err := net.SplitHostPort(collector)
	if err != nil {
		return nil, fmt.Errorf("invalid collector endpoint %q: %w", collector, err)
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(net.JoinHostPort(host, port)),
		otlptracegrpc.WithCompressor(gzip.Name),
		otlptracegrpc.WithInsecure(),
	}

	return otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
}
