package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Server"), "whinator/")
	assert.JSONEq(t, `{"status": "DOWN"}`, w.Body.String())

	w = httptest.NewRecorder()
	JSON(w, http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestJSONUnsupported(t *testing.T) {
	assert.Panics(t, func() {
		JSON(httptest.NewRecorder(), http.StatusOK, make(chan int))
	})
}

func TestText(t *testing.T) {
	w := httptest.NewRecorder()
	Text(w, http.StatusInternalServerError, "Something went wrong: boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Something went wrong: boom", w.Body.String())
}

func TestEmpty(t *testing.T) {
	w := httptest.NewRecorder()
	Empty(w, http.StatusOK)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("Content-Length"))
	assert.Empty(t, w.Body.Bytes())
}
