package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/metrics"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/pool"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/script"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrStarted = errors.New("already started")
	ErrStopped = errors.New("already stopped")
)

// ErrAborted is reported when an evaluation ends without producing an
// outcome.
var ErrAborted = errors.New("evaluation aborted")

type Options struct {
	Metrics *metrics.Metrics
	Tracer  *tracing.Tracer
}

// evaluator is the part of script.Host the worker depends on.
type evaluator interface {
	Evaluate(ctx context.Context, payload any, source script.Source) (any, error)
}

// Worker evaluates the configured script on a bounded pool of goroutines.
// Each evaluation runs start to finish on a single pool goroutine; the
// caller waits for its outcome.
type Worker struct {
	mux     sync.Mutex
	started bool
	log     *zap.SugaredLogger

	pool    *pool.Pool
	host    evaluator
	source  atomic.Pointer[script.Source]
	watcher *SourceWatcher

	metrics *metrics.Metrics
	tracer  *tracing.Tracer
	stats   stats
}

// NewWorker loads the script source. A script file that cannot be read is a
// configuration error; syntax errors surface per evaluation.
func NewWorker(cfg modules.WorkerConfig, scriptCfg modules.ScriptConfig, opts Options) (*Worker, error) {
	source, err := loadSource(scriptCfg)
	if err != nil {
		return nil, err
	}

	m := opts.Metrics
	if m == nil {
		m, _ = metrics.New(modules.MetricsConfig{})
	}

	w := &Worker{
		log:  zap.S().Named("worker"),
		pool: pool.NewPool(int(cfg.Pool.Size), cfg.Concurrency()),
		host: script.NewHost(script.Options{
			Timeout:          scriptCfg.TimeoutDuration(),
			MaxCallStackSize: scriptCfg.MaxCallStackSize,
		}),
		metrics: m,
		tracer:  opts.Tracer,
	}
	w.source.Store(&source)

	if scriptCfg.Watch {
		w.watcher = NewSourceWatcher(scriptCfg.File, scriptCfg.Name(), w)
	}

	return w, nil
}

func loadSource(cfg modules.ScriptConfig) (script.Source, error) {
	if cfg.File == "" {
		return script.NewSource(cfg.Name(), cfg.Source), nil
	}
	b, err := os.ReadFile(cfg.File)
	if err != nil {
		return script.Source{}, errs.New(errs.KindConfiguration, fmt.Errorf("failed to read script file: %w", err))
	}
	return script.NewSource(cfg.Name(), string(b)), nil
}

// Source returns the source evaluations currently use.
func (w *Worker) Source() script.Source {
	return *w.source.Load()
}

// SetSource replaces the source. Evaluations already submitted keep the
// source they started with.
func (w *Worker) SetSource(source script.Source) {
	w.source.Store(&source)
}

type outcome struct {
	value any
	err   error
}

// Evaluate runs the current source against payload.
func (w *Worker) Evaluate(ctx context.Context, payload any) (any, error) {
	ctx, span := w.tracer.Start(ctx, "worker.evaluate", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	source := w.Source()
	span.SetAttributes(attribute.String("script.name", source.Name))

	start := time.Now()
	value, err := w.evaluate(ctx, payload, source)
	elapsed := time.Since(start)

	w.record(elapsed, err)
	if err != nil {
		tracing.RecordError(span, err, string(errs.KindOf(err)))
		return nil, err
	}

	w.log.Infow("Result of JavaScript evaluation", "result", value, "duration", elapsed)
	return value, nil
}

func (w *Worker) evaluate(ctx context.Context, payload any, source script.Source) (any, error) {
	done := make(chan outcome, 1)
	err := w.pool.SubmitFn(ctx, func() {
		o := outcome{err: errs.New(errs.KindRuntime, ErrAborted)}
		defer func() { done <- o }()
		o.value, o.err = w.host.Evaluate(ctx, payload, source)
	})
	w.metrics.EvaluationQueuedGauge.Set(float64(w.pool.Stats().Queued))
	if err != nil {
		if errors.Is(err, pool.ErrPoolTerminated) {
			return nil, errs.New(errs.KindTransport, errs.ErrUnavailable)
		}
		return nil, errs.New(errs.KindRuntime, err)
	}

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		return nil, errs.New(errs.KindRuntime, ctx.Err())
	}
}

func (w *Worker) record(elapsed time.Duration, err error) {
	w.metrics.EvaluationCounter.Add(1)
	w.metrics.EvaluationDurationHistogram.Observe(elapsed.Seconds())
	w.stats.total.Add(1)
	if err != nil {
		kind := errs.KindOf(err)
		w.metrics.EvaluationFailedCounter.With("kind", string(kind)).Add(1)
		w.stats.fail(kind)
	}
}

// Start starts the source watcher when one is configured.
func (w *Worker) Start() error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.started {
		return ErrStarted
	}

	if w.watcher != nil {
		if err := w.watcher.Start(); err != nil {
			return errs.New(errs.KindConfiguration, err)
		}
	}

	w.started = true
	w.log.Infow("started", "concurrency", w.pool.Stats().Workers, "script", w.Source().Name)
	return nil
}

// Stop stops accepting evaluations and waits for queued ones to finish.
func (w *Worker) Stop() error {
	w.mux.Lock()
	defer w.mux.Unlock()

	if !w.started {
		return ErrStopped
	}

	if w.watcher != nil {
		w.watcher.Stop()
	}
	w.pool.Shutdown()

	w.started = false
	w.log.Info("stopped")
	return nil
}

func (w *Worker) Stats() Stats {
	return w.stats.snapshot(w.pool.Stats())
}
