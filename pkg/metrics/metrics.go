package metrics

import (
	"runtime"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/schedule"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"go.uber.org/zap"
)

// Metrics holds every instrument the service records. When no export is
// configured the instruments discard their observations, so callers never
// need to check whether metrics are enabled.
type Metrics struct {
	scheduler *schedule.DefaultScheduler
	provider  *provider

	Enabled  bool
	Interval time.Duration

	// runtime metrics

	RuntimeGoroutine    metrics.Gauge
	RuntimeAlloc        metrics.Gauge
	RuntimeSys          metrics.Gauge
	RuntimeMallocs      metrics.Gauge
	RuntimeFrees        metrics.Gauge
	RuntimeHeapObjects  metrics.Gauge
	RuntimePauseTotalNs metrics.Gauge
	RuntimeGC           metrics.Gauge

	// proxy metrics

	RequestCounter           metrics.Counter
	RequestDurationHistogram metrics.Histogram

	// evaluation metrics

	EvaluationCounter           metrics.Counter
	EvaluationFailedCounter     metrics.Counter
	EvaluationDurationHistogram metrics.Histogram
	EvaluationQueuedGauge       metrics.Gauge

	// script metrics

	ScriptReloadCounter metrics.Counter
}

func New(cfg modules.MetricsConfig) (*Metrics, error) {
	m := &Metrics{
		Enabled: cfg.Enabled(),
	}
	m.discard()

	if !m.Enabled {
		return m, nil
	}

	m.Interval = time.Second * time.Duration(cfg.PushInterval)
	reader, err := newReader(cfg.Opentelemetry, m.Interval)
	if err != nil {
		return nil, err
	}
	p, err := setupOpentelemetry(cfg.Attributes, reader, m)
	if err != nil {
		return nil, err
	}
	m.provider = p

	m.scheduler = schedule.NewScheduler(zap.S().Named("metrics"))
	err = m.scheduler.AddTask(&schedule.Task{
		Name:     "metrics.runtime",
		Interval: m.Interval,
		Do:       m.collectRuntimeStats,
	})
	if err != nil {
		return nil, err
	}
	m.scheduler.Start()

	zap.S().Infof("enabled metric exports: %v", cfg.Exports)
	return m, nil
}

func (m *Metrics) discard() {
	for _, g := range []*metrics.Gauge{
		&m.RuntimeGoroutine, &m.RuntimeAlloc, &m.RuntimeSys, &m.RuntimeMallocs,
		&m.RuntimeFrees, &m.RuntimeHeapObjects, &m.RuntimePauseTotalNs, &m.RuntimeGC,
		&m.EvaluationQueuedGauge,
	} {
		*g = discard.NewGauge()
	}
	for _, c := range []*metrics.Counter{
		&m.RequestCounter, &m.EvaluationCounter, &m.EvaluationFailedCounter, &m.ScriptReloadCounter,
	} {
		*c = discard.NewCounter()
	}
	m.RequestDurationHistogram = discard.NewHistogram()
	m.EvaluationDurationHistogram = discard.NewHistogram()
}

func (m *Metrics) Stop() error {
	if !m.Enabled {
		return nil
	}
	m.scheduler.Stop()
	return m.provider.shutdown()
}

func (m *Metrics) collectRuntimeStats() {
	m.RuntimeGoroutine.Set(float64(runtime.NumGoroutine()))

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.RuntimeAlloc.Set(float64(stats.Alloc))
	m.RuntimeSys.Set(float64(stats.Sys))
	m.RuntimeMallocs.Set(float64(stats.Mallocs))
	m.RuntimeFrees.Set(float64(stats.Frees))
	m.RuntimeHeapObjects.Set(float64(stats.HeapObjects))
	m.RuntimePauseTotalNs.Set(float64(stats.PauseTotalNs))
	m.RuntimeGC.Set(float64(stats.NumGC))
}
