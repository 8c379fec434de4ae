package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrPoolTerminated = errors.New("pool is terminated")
)

// Pool runs tasks on a fixed number of goroutines. Tasks that were accepted
// before Shutdown still run; Shutdown returns once they have finished.
type Pool struct {
	mux    sync.RWMutex
	closed bool

	workers int
	running atomic.Int64

	tasks chan Task
	wait  sync.WaitGroup
}

func NewPool(size int, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	pool := &Pool{
		workers: workers,
		tasks:   make(chan Task, size),
	}

	pool.wait.Add(workers)

	for i := 0; i < workers; i++ {
		go pool.consume()
	}

	return pool
}

func (p *Pool) SubmitFn(ctx context.Context, fn func()) error {
	if fn == nil {
		return errors.New("fn is nil")
	}

	return p.Submit(ctx, TaskFunc(fn))
}

// Submit queues task. It blocks while the queue is full until ctx is done.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if task == nil {
		return errors.New("task is nil")
	}

	p.mux.RLock()
	defer p.mux.RUnlock()

	if p.closed {
		return ErrPoolTerminated
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) consume() {
	defer p.wait.Done()
	for t := range p.tasks {
		p.running.Add(1)
		t.Execute()
		p.running.Add(-1)
	}
}

// Stats is a point-in-time snapshot of the pool.
type Stats struct {
	Workers  int  `json:"workers"`
	Running  int  `json:"running"`
	Queued   int  `json:"queued"`
	Capacity int  `json:"capacity"`
	Closed   bool `json:"closed"`
}

func (p *Pool) Stats() Stats {
	p.mux.RLock()
	closed := p.closed
	p.mux.RUnlock()
	return Stats{
		Workers:  p.workers,
		Running:  int(p.running.Load()),
		Queued:   len(p.tasks),
		Capacity: cap(p.tasks),
		Closed:   closed,
	}
}

func (p *Pool) Shutdown() {
	p.mux.Lock()
	if p.closed {
		p.mux.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mux.Unlock()

	p.wait.Wait()
}
