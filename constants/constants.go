package constants

import (
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config"
)

const (
	HeaderRequestID = "X-Request-ID"

	// ErrorMessagePrefix precedes the error message in the body of a failed
	// webhook response.
	ErrorMessagePrefix = "Something went wrong: "
)

// Server timeouts. Evaluation has no mandatory deadline, so the write
// timeout on the webhook listener is left unset.
const (
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 10 * time.Second
)

type Header struct {
	Name  string
	Value string
}

var (
	DefaultResponseHeaders = []Header{
		{Name: "Server", Value: "whinator/" + config.VERSION},
	}
)
