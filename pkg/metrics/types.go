package metrics

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/go-kit/kit/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LabelValues is a flat list of alternating label names and values, the
// convention go-kit's With methods use.
type LabelValues []string

func (lvs LabelValues) With(labelValues ...string) LabelValues {
	if len(labelValues)%2 != 0 {
		labelValues = append(labelValues, "unknown")
	}
	return append(lvs[:len(lvs):len(lvs)], labelValues...)
}

func (lvs LabelValues) ToLabels() []attribute.KeyValue {
	labels := make([]attribute.KeyValue, len(lvs)/2)
	for i := 0; i < len(labels); i++ {
		labels[i] = attribute.String(lvs[2*i], lvs[2*i+1])
	}
	return labels
}

type Counter struct {
	lvs LabelValues
	c   metric.Float64Counter
}

func NewCounter(meter metric.Meter, name string, desc string) *Counter {
	c, _ := meter.Float64Counter(
		name,
		metric.WithDescription(desc),
		metric.WithUnit("1"),
	)
	return &Counter{
		c: c,
	}
}

func (c *Counter) With(labelValues ...string) metrics.Counter {
	return &Counter{
		lvs: c.lvs.With(labelValues...),
		c:   c.c,
	}
}

func (c *Counter) Add(delta float64) {
	c.c.Add(context.Background(), delta, metric.WithAttributes(c.lvs.ToLabels()...))
}

// Gauge records the last value set. Add is relative to the last value set
// through this Gauge.
type Gauge struct {
	lvs   LabelValues
	g     metric.Float64Gauge
	value *atomic.Uint64
}

func NewGauge(meter metric.Meter, name string, desc string) *Gauge {
	g, _ := meter.Float64Gauge(
		name,
		metric.WithDescription(desc),
		metric.WithUnit("1"),
	)
	return &Gauge{
		g:     g,
		value: new(atomic.Uint64),
	}
}

func (g *Gauge) With(labelValues ...string) metrics.Gauge {
	return &Gauge{
		lvs:   g.lvs.With(labelValues...),
		g:     g.g,
		value: new(atomic.Uint64),
	}
}

func (g *Gauge) Set(value float64) {
	g.value.Store(math.Float64bits(value))
	g.record(value)
}

func (g *Gauge) Add(delta float64) {
	for {
		old := g.value.Load()
		value := math.Float64frombits(old) + delta
		if g.value.CompareAndSwap(old, math.Float64bits(value)) {
			g.record(value)
			return
		}
	}
}

func (g *Gauge) record(value float64) {
	g.g.Record(context.Background(), value, metric.WithAttributes(g.lvs.ToLabels()...))
}

type Histogram struct {
	lvs LabelValues
	h   metric.Float64Histogram
}

func NewHistogram(meter metric.Meter, name string, desc string, unit string) *Histogram {
	h, _ := meter.Float64Histogram(
		name,
		metric.WithDescription(desc),
		metric.WithUnit(unit),
		metric.WithExplicitBucketBoundaries(.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10),
	)
	return &Histogram{
		h: h,
	}
}

func (h *Histogram) With(labelValues ...string) metrics.Histogram {
	return &Histogram{
		lvs: h.lvs.With(labelValues...),
		h:   h.h,
	}
}

func (h *Histogram) Observe(value float64) {
	h.h.Record(context.Background(), value, metric.WithAttributes(h.lvs.ToLabels()...))
}
