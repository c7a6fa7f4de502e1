package httpmiddleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/lewisedginton/health_companion/pkg/ratelimiter"
)

// RateLimit rejects requests with 429 once the client's bucket is empty.
// Clients are keyed by RemoteAddr. Enable RealIP ahead of it only when a
// trusted proxy sets the forwarding headers, otherwise clients pick their own key.
func RateLimit(limiter *ratelimiter.KeyedLimiter, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r.RemoteAddr)
			if !limiter.Allow(key, time.Now()) {
				if log != nil {
					log.Warn("Rate limit exceeded",
						logger.ClientIPField(key),
						logger.HTTPPathField(r.URL.Path))
				}
				w.Header().Set("Retry-After", strconv.Itoa(1))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
