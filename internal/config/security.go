package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins" default:"https://*"`
	MaxRequestSize     int64    `env:"MAX_REQUEST_SIZE" yaml:"max_request_size" default:"10485760"` // 10MiB
	RateLimitEnabled   bool     `env:"RATE_LIMIT_ENABLED" yaml:"rate_limit_enabled" default:"false"`
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" yaml:"rate_limit_rps" default:"20"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" yaml:"rate_limit_burst" default:"40"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" yaml:"trust_proxy_headers" default:"false"`
}

func (s SecurityConfig) Validate() error {
	var result error
	if s.MaxRequestSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_request_size must be greater than 0"))
	}
	if s.RateLimitEnabled && (s.RateLimitRPS <= 0 || s.RateLimitBurst <= 0) {
		result = multierror.Append(result, fmt.Errorf("rate_limit_rps and rate_limit_burst must be greater than 0 when rate limiting is enabled"))
	}
	return result
}
