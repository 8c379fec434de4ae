package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	pool := NewPool(0, 1)
	ctx := context.Background()

	err := pool.SubmitFn(ctx, nil)
	assert.Equal(t, "fn is nil", err.Error())

	err = pool.Submit(ctx, nil)
	assert.Equal(t, "task is nil", err.Error())

	// panic should be recovered
	done := make(chan struct{})
	err = pool.SubmitFn(ctx, func() {
		defer close(done)
		panic("foo")
	})
	assert.NoError(t, err)
	<-done

	err = pool.SubmitFn(ctx, func() {})
	assert.NoError(t, err)

	pool.Shutdown()
	pool.Shutdown() // no panic
}

func TestSubmit(t *testing.T) {
	pool := NewPool(5, 1)
	defer pool.Shutdown()
	wait := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wait.Add(1)
		err := pool.SubmitFn(context.Background(), func() {
			wait.Done()
		})
		assert.NoError(t, err)
	}
	wait.Wait()
}

func TestSubmitWithDeadline(t *testing.T) {
	pool := NewPool(1, 1)
	release := make(chan struct{})
	defer pool.Shutdown()
	defer close(release)

	block := func() { <-release }
	err := pool.SubmitFn(context.Background(), block)
	assert.NoError(t, err)
	err = pool.SubmitFn(context.Background(), block)
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = pool.SubmitFn(ctx, func() {})
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestShutdown(t *testing.T) {
	pool := NewPool(1, 1)
	pool.Shutdown()
	err := pool.SubmitFn(context.Background(), func() {})
	assert.Equal(t, ErrPoolTerminated, err)
	assert.True(t, pool.Stats().Closed)
}

func TestGracefulShutdown(t *testing.T) {
	var counter atomic.Int64

	pool := NewPool(100, 10)

	for i := 0; i < 100; i++ {
		err := pool.SubmitFn(context.Background(), func() {
			time.Sleep(10 * time.Millisecond)
			counter.Add(1)
		})
		assert.NoError(t, err)
	}

	pool.Shutdown()
	assert.EqualValues(t, 100, counter.Load()) // queued tasks are drained, not dropped
}

func TestStats(t *testing.T) {
	pool := NewPool(4, 2)
	defer pool.Shutdown()

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	for i := 0; i < 3; i++ {
		err := pool.SubmitFn(context.Background(), func() {
			started <- struct{}{}
			<-release
		})
		assert.NoError(t, err)
	}
	<-started
	<-started

	stats := pool.Stats()
	assert.Equal(t, 2, stats.Workers)
	assert.Equal(t, 2, stats.Running)
	assert.Equal(t, 1, stats.Queued)
	assert.Equal(t, 4, stats.Capacity)
	assert.False(t, stats.Closed)
	close(release)
}
