package pool

import "github.com/Toasterson/bastel-project-webhookinator/pkg/safe"

// Task is a unit of work run on a pool goroutine.
type Task interface {
	Execute()
}

// TaskFunc adapts a function to Task. A panic is logged and does not take
// the pool goroutine down.
type TaskFunc func()

func (fn TaskFunc) Execute() {
	defer safe.Recover("pool")
	fn()
}
