package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/metrics"
	kitmetrics "github.com/go-kit/kit/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	labels [][]string
	total  float64
}

func (c *counter) With(labelValues ...string) kitmetrics.Counter {
	c.labels = append(c.labels, labelValues)
	return c
}

func (c *counter) Add(delta float64) {
	c.total += delta
}

type histogram struct {
	observations []float64
}

func (h *histogram) With(labelValues ...string) kitmetrics.Histogram {
	return h
}

func (h *histogram) Observe(value float64) {
	h.observations = append(h.observations, value)
}

func TestMetricsMiddleware(t *testing.T) {
	m, err := metrics.New(modules.MetricsConfig{})
	require.NoError(t, err)
	requests := &counter{}
	duration := &histogram{}
	m.RequestCounter = requests
	m.RequestDurationHistogram = duration

	handler := NewMetricsMiddleware(m).Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/fail", nil))

	assert.Equal(t, float64(2), requests.total)
	assert.Equal(t, [][]string{{"status", "200"}, {"status", "500"}}, requests.labels)
	assert.Len(t, duration.observations, 2)
}
