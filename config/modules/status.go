package modules

import (
	"fmt"
	"net"
	"time"
)

// StatusListenOff disables the status server.
const StatusListenOff = "off"

// StatusConfig configures the operational HTTP server serving runtime
// information, health checks and, optionally, pprof.
type StatusConfig struct {
	BaseConfig
	Listen         string `yaml:"listen" json:"listen" envconfig:"LISTEN" default:"127.0.0.1:3001"`
	DebugEndpoints bool   `yaml:"debug_endpoints" json:"debug_endpoints" envconfig:"DEBUG_ENDPOINTS" default:"true"`
	// HealthTimeout bounds a health check run, in milliseconds.
	HealthTimeout int64 `yaml:"health_timeout" json:"health_timeout" envconfig:"HEALTH_TIMEOUT" default:"5000" validate:"gte=0"`
}

func (cfg StatusConfig) Validate() error {
	if !cfg.IsEnabled() {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		return fmt.Errorf("invalid listen '%s': %s", cfg.Listen, err)
	}
	return nil
}

func (cfg StatusConfig) IsEnabled() bool {
	switch cfg.Listen {
	case "", StatusListenOff:
		return false
	default:
		return true
	}
}

// HealthTimeoutDuration falls back to five seconds when unset.
func (cfg StatusConfig) HealthTimeoutDuration() time.Duration {
	if cfg.HealthTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(cfg.HealthTimeout) * time.Millisecond
}
