package modules

import (
	"fmt"

	"github.com/Toasterson/bastel-project-webhookinator/config/types"
)

type Export string

const (
	ExportOpenTelemetry Export = "opentelemetry"
)

// MetricsConfig enables request and evaluation metrics. Metrics are off
// unless at least one export is listed.
type MetricsConfig struct {
	BaseConfig
	Attributes    types.Map     `yaml:"attributes" json:"attributes" envconfig:"ATTRIBUTES"`
	Exports       []Export      `yaml:"exports" json:"exports" envconfig:"EXPORTS"`
	PushInterval  uint32        `yaml:"push_interval" json:"push_interval" envconfig:"PUSH_INTERVAL" default:"10"`
	Opentelemetry Opentelemetry `yaml:"opentelemetry" json:"opentelemetry" envconfig:"OPENTELEMETRY"`
}

func (cfg MetricsConfig) Validate() error {
	for _, export := range cfg.Exports {
		if export != ExportOpenTelemetry {
			return fmt.Errorf("invalid export: %s", export)
		}
	}
	if cfg.PushInterval < 1 || cfg.PushInterval > 60 {
		return fmt.Errorf("interval must be in the range [1, 60]")
	}
	return cfg.Opentelemetry.validate(OtlpProtocolGRPC, OtlpProtocolHTTP)
}

func (cfg MetricsConfig) Enabled() bool {
	return len(cfg.Exports) > 0
}
