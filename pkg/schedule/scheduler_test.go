package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestScheduler(t *testing.T) {
	s := NewScheduler(zap.NewNop().Sugar())
	var counter atomic.Int64
	task := &Task{
		Name:         "counter",
		InitialDelay: 10 * time.Millisecond,
		Interval:     20 * time.Millisecond,
		Do:           func() { counter.Add(1) },
	}
	assert.NoError(t, s.AddTask(task))
	assert.Equal(t, ErrTaskAdded, s.AddTask(&Task{Name: "counter", Interval: time.Second, Do: func() {}}))
	assert.Same(t, task, s.GetTask("counter"))

	s.Start()
	assert.Eventually(t, func() bool { return counter.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	s.RemoveTask("counter")
	assert.Nil(t, s.GetTask("counter"))
	s.Stop()
}

func TestSchedulerRecoversPanics(t *testing.T) {
	s := NewScheduler(zap.NewNop().Sugar())
	var counter atomic.Int64
	err := s.AddTask(&Task{
		Name:     "panics",
		Interval: 10 * time.Millisecond,
		Do: func() {
			counter.Add(1)
			panic("boom")
		},
	})
	assert.NoError(t, err)

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return counter.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestSchedulerInvalidInterval(t *testing.T) {
	s := NewScheduler(zap.NewNop().Sugar())
	assert.Equal(t, ErrInvalidInterval, s.AddTask(&Task{Name: "zero", Do: func() {}}))
}

func TestIntervalSchedule(t *testing.T) {
	now := time.Now()
	s := &IntervalSchedule{InitialDelay: time.Second, Interval: time.Minute}
	assert.Equal(t, now.Add(time.Second), s.Next(now))
	assert.Equal(t, now.Add(time.Minute), s.Next(now))
}
