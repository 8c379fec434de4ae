package schedule

import (
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task runs Do every Interval after an initial InitialDelay.
type Task struct {
	id cron.EntryID

	Name         string
	InitialDelay time.Duration
	Interval     time.Duration
	Do           func()
}

type Scheduler interface {
	AddTask(task *Task) error
	RemoveTask(name string)
	GetTask(name string) *Task
	Start()
	Stop()
}

var (
	ErrTaskAdded       = errors.New("task already added")
	ErrInvalidInterval = errors.New("interval must be positive")
)

var _ Scheduler = &DefaultScheduler{}

type IntervalSchedule struct {
	once         sync.Once
	InitialDelay time.Duration
	Interval     time.Duration
}

func (s *IntervalSchedule) Next(t time.Time) time.Time {
	interval := s.Interval
	s.once.Do(func() {
		interval = s.InitialDelay
	})
	return t.Add(interval)
}

type DefaultScheduler struct {
	cron  *cron.Cron
	tasks map[string]*Task
	mux   sync.RWMutex
}

// NewScheduler returns a scheduler whose jobs recover from panics and report
// through log. Runs of a task that is still executing are skipped.
func NewScheduler(log *zap.SugaredLogger) *DefaultScheduler {
	logger := &cronLogger{log: log}
	return &DefaultScheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		tasks: make(map[string]*Task),
	}
}

func (s *DefaultScheduler) AddTask(task *Task) error {
	if task.Interval <= 0 {
		return ErrInvalidInterval
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, exists := s.tasks[task.Name]; exists {
		return ErrTaskAdded
	}

	schedule := &IntervalSchedule{
		InitialDelay: task.InitialDelay,
		Interval:     task.Interval,
	}
	task.id = s.cron.Schedule(schedule, cron.FuncJob(task.Do))
	s.tasks[task.Name] = task
	return nil
}

func (s *DefaultScheduler) RemoveTask(name string) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if task, ok := s.tasks[name]; ok {
		s.cron.Remove(task.id)
		delete(s.tasks, name)
	}
}

func (s *DefaultScheduler) GetTask(name string) *Task {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.tasks[name]
}

func (s *DefaultScheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to complete.
func (s *DefaultScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
