package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/smartapplicant/internal/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request an ID, echoes it in the response and
// attaches a logger carrying it to the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := logging.Logger.With().Str("request_id", id).Logger()
		ctx := logging.WithContext(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
