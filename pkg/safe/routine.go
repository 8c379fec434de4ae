package safe

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// Go runs fn in a new goroutine. A panic in fn is logged instead of crashing
// the process.
func Go(name string, fn func()) {
	go func() {
		defer Recover(name)
		fn()
	}()
}

// Recover logs a panic in the calling goroutine. It must be deferred.
func Recover(name string) {
	if err := recover(); err != nil {
		zap.S().Errorw("goroutine panic", "goroutine", name, "panic", err, "stack", string(debug.Stack()))
	}
}
