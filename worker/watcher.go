package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/pkg/loglimiter"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/safe"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/script"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	debounceDelay  = 200 * time.Millisecond
	errorLogWindow = time.Minute
)

// SourceWatcher reloads a script file when it changes. A file that cannot be
// read or does not compile is logged and the previous source stays in use.
type SourceWatcher struct {
	file   string
	name   string
	worker *Worker
	log    *zap.SugaredLogger
	limit  *loglimiter.Limiter

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wait    sync.WaitGroup

	// reloaded receives the result of every reload attempt when set.
	reloaded chan error
}

func NewSourceWatcher(file string, name string, worker *Worker) *SourceWatcher {
	return &SourceWatcher{
		file:   file,
		name:   name,
		worker: worker,
		log:    zap.S().Named("worker"),
		limit:  loglimiter.NewLimiter(errorLogWindow),
	}
}

// Start watches the file's directory, so that editors replacing the file by
// rename are noticed too.
func (s *SourceWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.file)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch script directory: %w", err)
	}
	s.watcher = watcher

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wait.Add(1)
	safe.Go("script-watcher", func() { s.run(ctx) })

	s.log.Infow("watching script file", "file", s.file)
	return nil
}

func (s *SourceWatcher) run(ctx context.Context) {
	defer s.wait.Done()
	defer func() { _ = s.watcher.Close() }()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	target := filepath.Clean(s.file)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				defer safe.Recover("script-reload")
				err := s.Reload()
				if s.reloaded != nil {
					s.reloaded <- err
				}
			})

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if ok, suppressed := s.limit.Allow(err.Error()); ok {
				s.log.Warnw("file watcher error", "error", err, "suppressed", suppressed)
			}
		}
	}
}

// Reload reads and compiles the file and installs it on success.
func (s *SourceWatcher) Reload() error {
	b, err := os.ReadFile(s.file)
	if err != nil {
		s.worker.metrics.ScriptReloadCounter.With("result", "failure").Add(1)
		s.log.Errorw("failed to reload script, keeping previous version", "file", s.file, "error", err)
		return err
	}

	source := script.NewSource(s.name, string(b))
	if err := source.Compile(); err != nil {
		s.worker.metrics.ScriptReloadCounter.With("result", "failure").Add(1)
		s.log.Errorw("failed to reload script, keeping previous version", "file", s.file, "error", err)
		return err
	}

	s.worker.SetSource(source)
	s.worker.metrics.ScriptReloadCounter.With("result", "success").Add(1)
	s.log.Infow("reloaded script", "file", s.file)
	return nil
}

func (s *SourceWatcher) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wait.Wait()
}
