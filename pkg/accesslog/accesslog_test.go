package accesslog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(logger AccessLogger) {
	handler := NewMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Something went wrong: boom"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"opened"}`))
	req.RemoteAddr = "192.0.2.1:51234"
	req.Header.Set("User-Agent", "GitHub-Hookshot/abc")
	req.Header.Set("X-GitHub-Event", "pull_request")
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestJsonLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New("proxy", buf, Options{Format: "json"})
	require.NoError(t, err)
	serve(logger)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "proxy", line["name"])
	assert.Equal(t, "192.0.2.1", line["client_ip"])
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", line["request_id"])

	request := line["request"].(map[string]any)
	assert.Equal(t, "POST", request["method"])
	assert.Equal(t, "/", request["path"])
	assert.Equal(t, float64(19), request["size"])
	assert.Equal(t, "pull_request", request["event"])

	response := line["response"].(map[string]any)
	assert.Equal(t, float64(500), response["status"])
	assert.Equal(t, float64(len("Something went wrong: boom")), response["size"])
}

func TestTextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New("proxy", buf, Options{Format: "text"})
	require.NoError(t, err)
	serve(logger)

	assert.Regexp(t, `\[proxy\] 192\.0\.2\.1 6ba7b810-9dad-11d1-80b4-00c04fd430c8 "POST / HTTP/1\.1" 500 26 \d+ms pull_request "GitHub-Hookshot/abc"`, buf.String())
}

func TestNewAccessLogger(t *testing.T) {
	_, err := NewAccessLogger("proxy", Options{})
	assert.EqualError(t, err, "accesslog file is required")

	_, err = NewAccessLogger("proxy", Options{File: "/dev/stdout", Format: "xml"})
	assert.EqualError(t, err, "invalid format: xml")

	logger, err := NewAccessLogger("proxy", Options{File: t.TempDir() + "/access.log", Format: "json"})
	assert.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestEventName(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, "", eventName(h))
	h.Set("X-Gitlab-Event", "Merge Request Hook")
	assert.Equal(t, "Merge Request Hook", eventName(h))
}
