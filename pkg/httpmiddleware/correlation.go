package httpmiddleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/lewisedginton/health_companion/pkg/logger"
)

// CorrelationID middleware ensures every request has a unique correlation ID.
// Client-provided values are discarded; the generated ID is written to the
// request header, the request context and the response header.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := uuid.New().String()

			r.Header.Set(logger.CorrelationIDHeader, correlationID)
			w.Header().Set(logger.CorrelationIDHeader, correlationID)

			ctx := logger.WithCorrelationIDContext(r.Context(), correlationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
