package modules

import (
	"errors"
	"path/filepath"
	"time"
)

const DefaultScriptSource = "body.pull_request.url;"

// ScriptConfig selects the JavaScript evaluated for every webhook. When File
// is set it takes precedence over Source.
type ScriptConfig struct {
	BaseConfig
	Source           string `yaml:"source" json:"source" envconfig:"SOURCE" default:"body.pull_request.url;"`
	File             string `yaml:"file" json:"file" envconfig:"FILE"`
	Watch            bool   `yaml:"watch" json:"watch" envconfig:"WATCH"`
	Timeout          int64  `yaml:"timeout" json:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	MaxCallStackSize int    `yaml:"max_call_stack_size" json:"max_call_stack_size" envconfig:"MAX_CALL_STACK_SIZE" validate:"gte=0"`
}

func (cfg ScriptConfig) Validate() error {
	if cfg.Watch && cfg.File == "" {
		return errors.New("script.watch requires script.file")
	}
	return nil
}

// Name is the name scripts are reported under in stack traces.
func (cfg ScriptConfig) Name() string {
	if cfg.File != "" {
		return filepath.Base(cfg.File)
	}
	return "handler"
}

// TimeoutDuration converts Timeout from milliseconds. Zero means no limit.
func (cfg ScriptConfig) TimeoutDuration() time.Duration {
	return time.Duration(cfg.Timeout) * time.Millisecond
}
