package accesslog

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/utils"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Entry is one served request.
type Entry struct {
	RequestID string
	Latency   time.Duration
	ClientIP  string
	Request   Request
	Response  Response
}

type Request struct {
	Method    string
	Path      string
	Proto     string
	Size      int64
	UserAgent string
	Event     string
}

type Response struct {
	Status int
	Size   int
}

func NewEntry(r *http.Request) *Entry {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return &Entry{
		ClientIP: host,
		Request: Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Proto:     r.Proto,
			Size:      r.ContentLength,
			UserAgent: r.UserAgent(),
			Event:     eventName(r.Header),
		},
	}
}

// eventName extracts the event type senders such as GitHub and GitLab put in
// a header.
func eventName(h http.Header) string {
	for _, name := range []string{"X-GitHub-Event", "X-Gitlab-Event", "X-Gitea-Event", "X-Event-Key"} {
		if v := h.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func (m *Entry) MarshalZerologObject(e *zerolog.Event) {
	e.Str("client_ip", m.ClientIP)
	e.Str("request_id", m.RequestID)
	e.Dict("request", zerolog.Dict().
		Str("method", m.Request.Method).
		Str("path", m.Request.Path).
		Str("proto", m.Request.Proto).
		Int64("size", m.Request.Size).
		Str("event", m.Request.Event).
		Str("user_agent", m.Request.UserAgent),
	)
	e.Dict("response",
		zerolog.Dict().
			Int("status", m.Response.Status).
			Int("size", m.Response.Size),
	)
	e.Int64("latency", m.Latency.Milliseconds())

	sc := trace.SpanContextFromContext(e.GetCtx())
	if sc.IsValid() {
		e.Str("trace_id", sc.TraceID().String())
	}
}

func (m *Entry) String() string {
	return fmt.Sprintf(`%s %s "%s %s %s" %d %d %dms %s "%s"`,
		m.ClientIP,
		utils.DefaultIfZero(m.RequestID, "-"),
		m.Request.Method,
		m.Request.Path,
		m.Request.Proto,
		m.Response.Status,
		m.Response.Size,
		m.Latency.Milliseconds(),
		utils.DefaultIfZero(m.Request.Event, "-"),
		utils.DefaultIfZero(m.Request.UserAgent, "-"),
	)
}
