package modules

import (
	"errors"

	"github.com/Toasterson/bastel-project-webhookinator/config/types"
)

// TracingConfig enables OpenTelemetry spans for the webhook and status
// servers. Attributes are added to the exported resource.
type TracingConfig struct {
	BaseConfig
	Enabled       bool          `yaml:"enabled" json:"enabled" envconfig:"ENABLED"`
	Attributes    types.Map     `yaml:"attributes" json:"attributes" envconfig:"ATTRIBUTES"`
	Opentelemetry Opentelemetry `yaml:"opentelemetry" json:"opentelemetry" envconfig:"OPENTELEMETRY"`
	SamplingRate  float64       `yaml:"sampling_rate" json:"sampling_rate" envconfig:"SAMPLING_RATE" default:"1.0"`
}

func (cfg TracingConfig) Validate() error {
	if cfg.SamplingRate < 0 || cfg.SamplingRate > 1 {
		return errors.New("sampling_rate must be in the range [0, 1]")
	}
	return cfg.Opentelemetry.validate(OtlpProtocolGRPC, OtlpProtocolHTTP, OtlpProtocolStdout)
}
