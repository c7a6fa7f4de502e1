package httpmiddleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/lewisedginton/health_companion/pkg/logger"
)

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	Logger              logger.Logger
	EnableStackTrace    bool   // Whether to log full stack traces
	ResponseMessage     string // Body returned to clients
	ResponseContentType string
}

// DefaultRecoveryConfig returns a sensible default configuration
func DefaultRecoveryConfig(log logger.Logger) RecoveryConfig {
	return RecoveryConfig{
		Logger:              log,
		EnableStackTrace:    true,
		ResponseMessage:     `{"error":"Internal server error","code":"INTERNAL_ERROR"}`,
		ResponseContentType: "application/json",
	}
}

// Recovery returns a middleware that recovers from panics, logs them and answers 500
func Recovery(config RecoveryConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logPanic(r, rec, config)

				w.Header().Set("Content-Type", config.ResponseContentType)
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusInternalServerError)
				if config.ResponseMessage != "" {
					_, _ = w.Write([]byte(config.ResponseMessage))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func logPanic(r *http.Request, rec interface{}, config RecoveryConfig) {
	if config.Logger == nil {
		return
	}
	fields := []logger.LogField{
		logger.StringField("panic_error", fmt.Sprintf("%v", rec)),
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.ClientIPField(getClientIP(r)),
		logger.StringField("user_agent", r.UserAgent()),
		logger.CorrelationIDField(r.Header.Get(logger.CorrelationIDHeader)),
	}
	if config.EnableStackTrace {
		fields = append(fields, logger.StringField("stack_trace", string(debug.Stack())))
	}
	config.Logger.Error("HTTP request panic recovered", fields...)
}

// getClientIP extracts the real client IP from common proxy headers
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
