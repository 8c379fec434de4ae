package middlewares

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Toasterson/bastel-project-webhookinator/pkg/http/response"
	"go.uber.org/zap"
)

// PanicHandler writes the response for a request whose handler panicked.
type PanicHandler func(w http.ResponseWriter, r *http.Request, err error)

// Recover logs a handler panic with its stack and hands it to onPanic, or
// answers with a JSON 500 when onPanic is nil. http.ErrAbortHandler is
// re-raised so the server can drop the connection.
func Recover(onPanic PanicHandler) func(http.Handler) http.Handler {
	if onPanic == nil {
		onPanic = internalError
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				e := recover()
				if e == nil {
					return
				}
				if e == http.ErrAbortHandler {
					panic(e)
				}

				err, ok := e.(error)
				if !ok {
					err = errors.New(fmt.Sprint(e))
				}
				zap.S().Errorw("panic recovered",
					"error", err,
					"request_id", RequestIDFromContext(r.Context()),
					"stack", string(debug.Stack()),
				)
				onPanic(w, r, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func internalError(w http.ResponseWriter, _ *http.Request, _ error) {
	response.JSON(w, http.StatusInternalServerError, response.ErrorResponse{Message: "internal error"})
}
