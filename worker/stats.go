package worker

import (
	"sync"
	"sync/atomic"

	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/pool"
)

type stats struct {
	total  atomic.Int64
	failed atomic.Int64

	mux    sync.Mutex
	byKind map[errs.Kind]int64
}

func (s *stats) fail(kind errs.Kind) {
	s.failed.Add(1)
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.byKind == nil {
		s.byKind = make(map[errs.Kind]int64)
	}
	s.byKind[kind]++
}

func (s *stats) snapshot(p pool.Stats) Stats {
	s.mux.Lock()
	failures := make(map[errs.Kind]int64, len(s.byKind))
	for k, v := range s.byKind {
		failures[k] = v
	}
	s.mux.Unlock()

	return Stats{
		Evaluations: s.total.Load(),
		Failed:      s.failed.Load(),
		Failures:    failures,
		Pool:        p,
	}
}

// Stats counts evaluations since the worker was created.
type Stats struct {
	Evaluations int64               `json:"evaluations"`
	Failed      int64               `json:"failed"`
	Failures    map[errs.Kind]int64 `json:"failures"`
	Pool        pool.Stats          `json:"pool"`
}
