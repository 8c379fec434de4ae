package modules

import (
	"fmt"
	"slices"
)

type OtlpProtocol string

const (
	OtlpProtocolGRPC   OtlpProtocol = "grpc"
	OtlpProtocolHTTP   OtlpProtocol = "http/protobuf"
	OtlpProtocolStdout OtlpProtocol = "stdout"
)

// Signal is the kind of telemetry an exporter ships.
type Signal string

const (
	SignalTraces  Signal = "traces"
	SignalMetrics Signal = "metrics"
)

// Opentelemetry selects the OTLP exporter used for one signal. An empty
// Endpoint means the local collector on the protocol's standard port.
type Opentelemetry struct {
	Protocol OtlpProtocol `yaml:"protocol" json:"protocol" envconfig:"PROTOCOL" default:"http/protobuf"`
	Endpoint string       `yaml:"endpoint" json:"endpoint" envconfig:"ENDPOINT"`
}

// EndpointFor returns the configured endpoint or the collector default for
// signal. HTTP endpoints are URLs, gRPC endpoints are host:port.
func (cfg Opentelemetry) EndpointFor(signal Signal) string {
	if cfg.Endpoint != "" {
		return cfg.Endpoint
	}
	switch cfg.Protocol {
	case OtlpProtocolGRPC:
		return "127.0.0.1:4317"
	case OtlpProtocolHTTP:
		return fmt.Sprintf("http://127.0.0.1:4318/v1/%s", signal)
	default:
		return ""
	}
}

func (cfg Opentelemetry) validate(supported ...OtlpProtocol) error {
	if !slices.Contains(supported, cfg.Protocol) {
		return fmt.Errorf("invalid protocol: %s", cfg.Protocol)
	}
	return nil
}
