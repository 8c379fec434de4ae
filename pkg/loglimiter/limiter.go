package loglimiter

import (
	"sync"
	"time"
)

// Limiter lets one log line per key through per window and counts the lines
// it held back.
type Limiter struct {
	mux    sync.Mutex
	window time.Duration
	logs   map[string]*entry
}

type entry struct {
	last       time.Time
	suppressed int
}

func NewLimiter(window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		logs:   make(map[string]*entry),
	}
}

// Allow reports whether a line for key may be logged now and, if so, how many
// were suppressed since the previous one.
func (l *Limiter) Allow(key string) (bool, int) {
	l.mux.Lock()
	defer l.mux.Unlock()

	now := time.Now()
	e, ok := l.logs[key]
	if !ok {
		l.logs[key] = &entry{last: now}
		return true, 0
	}
	if now.Sub(e.last) > l.window {
		suppressed := e.suppressed
		e.last = now
		e.suppressed = 0
		return true, suppressed
	}

	e.suppressed++
	return false, 0
}
