package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Supported completion providers.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// CompletionConfig controls the advice requests sent to the completion API.
type CompletionConfig struct {
	Provider    string        `env:"COMPLETION_PROVIDER" yaml:"provider" default:"openai"`
	MaxTokens   int           `env:"COMPLETION_MAX_TOKENS" yaml:"max_tokens" default:"200"`
	Temperature float64       `env:"COMPLETION_TEMPERATURE" yaml:"temperature" default:"0.7"`
	Timeout     time.Duration `env:"COMPLETION_TIMEOUT" yaml:"timeout" default:"7s"`

	// Circuit breaker
	BreakerMinRequests  int           `env:"COMPLETION_BREAKER_MIN_REQUESTS" yaml:"breaker_min_requests" default:"5"`
	BreakerFailureRatio float64       `env:"COMPLETION_BREAKER_FAILURE_RATIO" yaml:"breaker_failure_ratio" default:"0.6"`
	BreakerInterval     time.Duration `env:"COMPLETION_BREAKER_INTERVAL" yaml:"breaker_interval" default:"60s"`
	BreakerOpenTimeout  time.Duration `env:"COMPLETION_BREAKER_OPEN_TIMEOUT" yaml:"breaker_open_timeout" default:"30s"`
}

func (c CompletionConfig) Validate() error {
	var result error
	if c.Provider != ProviderOpenAI && c.Provider != ProviderClaude {
		result = multierror.Append(result, fmt.Errorf("completion provider must be %q or %q, got %q", ProviderOpenAI, ProviderClaude, c.Provider))
	}
	if c.MaxTokens <= 0 {
		result = multierror.Append(result, fmt.Errorf("completion max_tokens must be greater than 0"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		result = multierror.Append(result, fmt.Errorf("completion temperature must be within [0, 2], got %v", c.Temperature))
	}
	if c.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("completion timeout cannot be negative"))
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		result = multierror.Append(result, fmt.Errorf("breaker failure ratio must be within (0, 1], got %v", c.BreakerFailureRatio))
	}
	return result
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	APIKey     string        `env:"OPENAI_API_KEY" yaml:"api_key"`
	Model      string        `env:"OPENAI_MODEL" yaml:"model" default:"gpt-3.5-turbo"`
	APIBaseURL string        `env:"OPENAI_API_URL" yaml:"api_base_url" default:"https://api.openai.com/v1"`
	MaxRetries int           `env:"OPENAI_MAX_RETRIES" yaml:"max_retries" default:"1"`
	Timeout    time.Duration `env:"OPENAI_TIMEOUT" yaml:"timeout" default:"30s"`
}

// AnthropicConfig holds Anthropic-specific configuration
type AnthropicConfig struct {
	APIKey     string        `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model      string        `env:"CLAUDE_MODEL" yaml:"model" default:"claude-3-5-haiku-latest"`
	APIBaseURL string        `env:"ANTHROPIC_API_URL" yaml:"api_base_url" default:"https://api.anthropic.com"`
	MaxRetries int           `env:"ANTHROPIC_MAX_RETRIES" yaml:"max_retries" default:"1"`
	Timeout    time.Duration `env:"ANTHROPIC_TIMEOUT" yaml:"timeout" default:"30s"`
}
