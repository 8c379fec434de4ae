package modules

import (
	"github.com/Toasterson/bastel-project-webhookinator/utils"
)

type Pool struct {
	Size        uint32 `yaml:"size" json:"size" envconfig:"SIZE" default:"1000"`
	Concurrency uint32 `yaml:"concurrency" json:"concurrency" envconfig:"CONCURRENCY"`
}

// WorkerConfig sizes the goroutine pool evaluations run on. Size is the number
// of evaluations that may wait for a free goroutine.
type WorkerConfig struct {
	BaseConfig
	Pool Pool `yaml:"pool" json:"pool" envconfig:"POOL"`
}

func (cfg WorkerConfig) Concurrency() int {
	return utils.Concurrency(cfg.Pool.Concurrency)
}
