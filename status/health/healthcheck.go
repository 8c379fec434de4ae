package health

import (
	"errors"
	"time"
)

type Status string

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

var ErrTimeout = errors.New("check timed out")

// Indicator is a named check reported by the health endpoint.
type Indicator struct {
	Name  string
	Check func() error
}

// Run runs every indicator and reports each outcome. An indicator taking
// longer than timeout is reported down.
func Run(indicators []*Indicator, timeout time.Duration) map[string]error {
	results := make(map[string]error, len(indicators))
	for _, indicator := range indicators {
		done := make(chan error, 1)
		go func() { done <- indicator.Check() }()
		select {
		case err := <-done:
			results[indicator.Name] = err
		case <-time.After(timeout):
			results[indicator.Name] = ErrTimeout
		}
	}
	return results
}
