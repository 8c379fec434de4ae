package middlewares

import (
	"context"
	"net/http"

	"github.com/Toasterson/bastel-project-webhookinator/constants"
	"github.com/Toasterson/bastel-project-webhookinator/utils"
)

type requestIDKey struct{}

// RequestID propagates a valid inbound X-Request-ID or assigns a new one. The
// id is set on the response and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(constants.HeaderRequestID)
		if !utils.IsValidUUID(id) {
			id = utils.UUID()
		}

		w.Header().Set(constants.HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the id assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
