// Package httpmiddleware assembles the chi middleware stack used by the HTTP server.
package httpmiddleware

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lewisedginton/health_companion/pkg/logger"
	"github.com/unrolled/secure"
)

// Config holds configuration for HTTP middleware application.
// Use DefaultConfig() for sensible defaults, then customize as needed.
type Config struct {
	Logger      logger.Logger   // Required for logging middleware
	StripPrefix string          // Path prefix to strip (e.g., "/skill")
	CORS        *CORSConfig     // CORS configuration
	Security    *secure.Options // Security headers configuration
	Timeout     time.Duration   // Request timeout duration

	EnableCorrelationID bool // Add correlation ID to requests
	EnableLogging       bool // Log HTTP requests (requires Logger)
	EnableRecovery      bool // Recover from panics
	EnableCORS          bool // Enable CORS headers
	EnableSecurity      bool // Add security headers
	EnableCompression   bool // Compress responses
	EnableHeartbeat     bool // Add /ping endpoint
	EnableRealIP        bool // Trust X-Forwarded-For / X-Real-IP (only behind a trusted proxy)
	EnableTimeout       bool // Add request timeouts
	EnableStripPrefix   bool // Strip path prefix (requires StripPrefix)
}

// DefaultConfig returns a production-ready middleware configuration.
// Logging is disabled by default - set Logger and EnableLogging=true to enable.
func DefaultConfig() Config {
	corsConfig := DefaultCORSConfig()
	return Config{
		CORS:    &corsConfig,
		Timeout: 60 * time.Second,

		EnableCorrelationID: true,
		EnableRecovery:      true,
		EnableCORS:          true,
		EnableSecurity:      true,
		EnableCompression:   true,
		EnableHeartbeat:     true,
		EnableTimeout:       true,
	}
}

// ApplyToRouter applies the configured middleware to a Chi router.
// First applied is the outermost layer:
//
//  1. CorrelationID
//  2. Security
//  3. RealIP
//  4. Logging
//  5. Recovery
//  6. StripPrefix
//  7. CORS
//  8. Timeout
//  9. Compression
//  10. Heartbeat (/ping)
func ApplyToRouter(router chi.Router, config Config) {
	if config.EnableCorrelationID {
		router.Use(CorrelationID())
	}

	if config.EnableSecurity {
		router.Use(Security(config.Security))
	}

	if config.EnableRealIP {
		router.Use(middleware.RealIP)
	}

	if config.EnableLogging && config.Logger != nil {
		router.Use(NewHTTPLogger(config.Logger).Middleware)
	}

	if config.EnableRecovery {
		if config.Logger != nil {
			router.Use(Recovery(DefaultRecoveryConfig(config.Logger)))
		} else {
			router.Use(middleware.Recoverer)
		}
	}

	if config.EnableStripPrefix && config.StripPrefix != "" {
		router.Use(StripPrefix(config.StripPrefix))
	}

	if config.EnableCORS && config.CORS != nil {
		router.Use(CORS(*config.CORS))
	}

	if config.EnableTimeout && config.Timeout > 0 {
		router.Use(middleware.Timeout(config.Timeout))
	}

	if config.EnableCompression {
		router.Use(middleware.Compress(5))
	}

	if config.EnableHeartbeat {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// WithLogger applies DefaultConfig() with the provided logger and logging enabled.
func WithLogger(router chi.Router, log logger.Logger) {
	config := DefaultConfig()
	config.Logger = log
	config.EnableLogging = true
	ApplyToRouter(router, config)
}
