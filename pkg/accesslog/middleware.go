package accesslog

import (
	"net/http"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/constants"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/http/middlewares"
)

// NewMiddleware logs every request once the wrapped handler has returned.
// The request id comes from the request context when the RequestID
// middleware ran before, and from the response header otherwise.
func NewMiddleware(logger AccessLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := NewEntry(r)
			start := time.Now()

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			entry.Latency = time.Since(start)
			entry.RequestID = middlewares.RequestIDFromContext(r.Context())
			if entry.RequestID == "" {
				entry.RequestID = rec.Header().Get(constants.HeaderRequestID)
			}
			entry.Response.Status = rec.status
			entry.Response.Size = rec.size

			logger.Log(r.Context(), entry)
		})
	}
}

// recorder captures the status code and body size written by a handler.
type recorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *recorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *recorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *recorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
