package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/Toasterson/bastel-project-webhookinator/status/health"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndex(t *testing.T) {
	s := NewStatus(modules.StatusConfig{}, Options{
		NodeID: "node-1",
		Stats:  func() any { return map[string]int{"evaluations": 3} },
	})
	w := get(s.api.Handler(), "/")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "dev", resp["version"])
	assert.Equal(t, "node-1", resp["node_id"])
	assert.Contains(t, resp, "uptime")
	assert.Contains(t, resp["runtime"], "goroutines")
	assert.Contains(t, resp["memory"], "alloc")
	assert.Regexp(t, `^\d+\.\d{2} MiB$`, resp["memory"].(map[string]any)["heap_alloc"])
	assert.Equal(t, map[string]any{"evaluations": float64(3)}, resp["worker"])
}

func TestHealth(t *testing.T) {
	up := &health.Indicator{Name: "worker", Check: func() error { return nil }}
	down := &health.Indicator{Name: "evaluation", Check: func() error { return errors.New("unavailable") }}

	s := NewStatus(modules.StatusConfig{}, Options{Indicators: []*health.Indicator{up}})
	w := get(s.api.Handler(), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "UP", "components": {"worker": {"status": "UP"}}}`, w.Body.String())

	s = NewStatus(modules.StatusConfig{}, Options{Indicators: []*health.Indicator{up, down}})
	w = get(s.api.Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{
		"status": "DOWN",
		"components": {
			"worker": {"status": "UP"},
			"evaluation": {"status": "DOWN", "error": "unavailable"}
		}
	}`, w.Body.String())
}

func TestHealthTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	results := health.Run([]*health.Indicator{
		{Name: "slow", Check: func() error { <-block; return nil }},
	}, 10*time.Millisecond)
	assert.Equal(t, health.ErrTimeout, results["slow"])
}

func TestDebugEndpoints(t *testing.T) {
	s := NewStatus(modules.StatusConfig{DebugEndpoints: true}, Options{})
	assert.Equal(t, http.StatusOK, get(s.api.Handler(), "/debug/pprof/").Code)

	s = NewStatus(modules.StatusConfig{DebugEndpoints: false}, Options{})
	assert.Equal(t, http.StatusNotFound, get(s.api.Handler(), "/debug/pprof/").Code)
}

func TestStartStop(t *testing.T) {
	s := NewStatus(modules.StatusConfig{Listen: "127.0.0.1:0"}, Options{})
	require.NoError(t, s.Start())

	resp, err := resty.New().R().Get("http://" + s.Addr().String() + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	assert.NoError(t, s.Stop(context.Background()))
}

func TestStartInvalidAddress(t *testing.T) {
	s := NewStatus(modules.StatusConfig{Listen: "127.0.0.1:-1"}, Options{})
	err := s.Start()
	assert.Equal(t, errs.KindBindAddress, errs.KindOf(err))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestBytesToMiB(t *testing.T) {
	b, err := BytesToMiB(3 * 1024 * 1024 / 2).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.50 MiB", string(b))
}
