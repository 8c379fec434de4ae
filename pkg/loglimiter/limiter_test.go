package loglimiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	limiter := NewLimiter(time.Millisecond * 50)

	ok, suppressed := limiter.Allow("key")
	assert.True(t, ok)
	assert.Equal(t, 0, suppressed)

	for i := 0; i < 3; i++ {
		ok, _ = limiter.Allow("key")
		assert.False(t, ok)
	}

	ok, _ = limiter.Allow("other")
	assert.True(t, ok)

	time.Sleep(time.Millisecond * 60)
	ok, suppressed = limiter.Allow("key")
	assert.True(t, ok)
	assert.Equal(t, 3, suppressed)
}

func TestWindow(t *testing.T) {
	limiter := NewLimiter(time.Millisecond * 100)

	n := 0
	ticker := time.NewTicker(time.Millisecond * 10)
	defer ticker.Stop()
	timeout := time.NewTimer(time.Millisecond * 1001)
	defer timeout.Stop()
	for {
		select {
		case <-ticker.C:
			if ok, _ := limiter.Allow("key"); ok {
				n++
			}
		case <-timeout.C:
			assert.InDelta(t, 10, n, 1)
			return
		}
	}
}
