package config

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"github.com/Toasterson/bastel-project-webhookinator/config/types"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/Toasterson/bastel-project-webhookinator/utils"
	"github.com/creasty/defaults"
)

var (
	VERSION = "dev"
	COMMIT  = "unknown"
)

var _ types.Config = &Config{}

// Config Configuration
type Config struct {
	modules.BaseConfig
	Listen    string                  `yaml:"listen" json:"listen" envconfig:"LISTEN" default:"0.0.0.0:3000" validate:"required"`
	Log       modules.LogConfig       `yaml:"log" json:"log" envconfig:"LOG"`
	AccessLog modules.AccessLogConfig `yaml:"access_log" json:"access_log" envconfig:"ACCESS_LOG"`
	Script    modules.ScriptConfig    `yaml:"script" json:"script" envconfig:"SCRIPT"`
	Worker    modules.WorkerConfig    `yaml:"worker" json:"worker" envconfig:"WORKER"`
	Status    modules.StatusConfig    `yaml:"status" json:"status" envconfig:"STATUS"`
	Metrics   modules.MetricsConfig   `yaml:"metrics" json:"metrics" envconfig:"METRICS"`
	Tracing   modules.TracingConfig   `yaml:"tracing" json:"tracing" envconfig:"TRACING"`
}

func (cfg Config) String() string {
	bytes, err := json.Marshal(cfg)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

// Validate reports an invalid listen address as a bind_address error and
// anything else as a configuration error.
func (cfg Config) Validate() error {
	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		return errs.New(errs.KindBindAddress, fmt.Errorf("invalid listen '%s': %s", cfg.Listen, err))
	}

	if err := utils.Validate(cfg); err != nil {
		return errs.New(errs.KindConfiguration, err)
	}

	for _, module := range []types.Config{
		cfg.Log,
		cfg.AccessLog,
		cfg.Script,
		cfg.Worker,
		cfg.Status,
		cfg.Metrics,
		cfg.Tracing,
	} {
		if err := module.Validate(); err != nil {
			return errs.New(errs.KindConfiguration, err)
		}
	}

	return nil
}

func New() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}
