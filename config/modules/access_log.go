package modules

import (
	"fmt"
	"slices"
)

type AccessLogConfig struct {
	BaseConfig
	Enabled bool      `yaml:"enabled" json:"enabled" envconfig:"ENABLED" default:"true"`
	Format  LogFormat `yaml:"format" json:"format" envconfig:"FORMAT" default:"text"`
	Colored bool      `yaml:"colored" json:"colored" envconfig:"COLORED" default:"true"`
	File    string    `yaml:"file" json:"file" envconfig:"FILE" default:"/dev/stdout"`
}

func (cfg AccessLogConfig) Validate() error {
	if !slices.Contains([]LogFormat{LogFormatText, LogFormatJson}, cfg.Format) {
		return fmt.Errorf("invalid format: %s", cfg.Format)
	}
	return nil
}
