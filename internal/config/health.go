package config

import (
	"fmt"
	"time"
)

// HealthConfig holds health check configuration
type HealthConfig struct {
	Timeout          time.Duration `env:"HEALTH_TIMEOUT" yaml:"timeout" default:"5s"`
	FailureThreshold int           `env:"HEALTH_FAILURE_THRESHOLD" yaml:"failure_threshold" default:"3"`
	// CheckCompletionAPI adds completion API reachability to readiness.
	CheckCompletionAPI bool `env:"HEALTH_CHECK_COMPLETION_API" yaml:"check_completion_api" default:"false"`
}

func (h HealthConfig) Validate() error {
	if h.FailureThreshold <= 0 {
		return fmt.Errorf("health failure_threshold must be greater than 0")
	}
	return nil
}
