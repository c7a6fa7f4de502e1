// Package config defines the application configuration of the skill backend.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	pkgconfig "github.com/lewisedginton/health_companion/pkg/config"
	"github.com/lewisedginton/health_companion/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"health-companion"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	pkgconfig.CommonConfig `yaml:",inline"`
	HTTP                   pkgconfig.HTTPServerConfig `yaml:"http"`
	Metrics                pkgconfig.MetricsConfig    `yaml:"metrics"`

	Completion CompletionConfig `yaml:"completion"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Skill      SkillConfig      `yaml:"skill"`
	Security   SecurityConfig   `yaml:"security"`
	Health     HealthConfig     `yaml:"health"`
}

// Validate validates the configuration and returns an error if invalid
func (c AppConfig) Validate() error {
	var result error
	for _, v := range []pkgconfig.Validator{
		c.CommonConfig, c.HTTP, c.Metrics,
		c.Completion, c.Skill, c.Security, c.Health,
	} {
		if err := v.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	switch c.Completion.Provider {
	case ProviderOpenAI:
		if c.OpenAI.Model == "" {
			result = multierror.Append(result, fmt.Errorf("openai model must be set"))
		}
	case ProviderClaude:
		if c.Anthropic.Model == "" {
			result = multierror.Append(result, fmt.Errorf("claude model must be set"))
		}
	}
	return result
}

// LoggerConfig builds the logger configuration.
func (c AppConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:   logger.ParseLevel(c.LogLevel),
		Format:  c.LogFormat,
		Service: c.ServiceName,
	}
}

// IsProduction returns true if running in production environment
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// LogConfig logs the current configuration (without sensitive data)
func (c AppConfig) LogConfig(log logger.Logger) {
	model := c.OpenAI.Model
	keySet := c.OpenAI.APIKey != ""
	if c.Completion.Provider == ProviderClaude {
		model = c.Anthropic.Model
		keySet = c.Anthropic.APIKey != ""
	}

	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.HTTP.Port),
		logger.StringField("log_level", c.LogLevel),
		logger.StringField("completion_provider", c.Completion.Provider),
		logger.StringField("completion_model", model),
		logger.BoolField("completion_api_key_set", keySet),
		logger.DurationField("completion_timeout", c.Completion.Timeout),
		logger.BoolField("verify_signature", c.Skill.VerifySignature),
		logger.BoolField("verify_timestamp", c.Skill.VerifyTimestamp),
		logger.IntField("allowed_skill_ids", len(c.Skill.ApplicationIDs)),
		logger.BoolField("rate_limit_enabled", c.Security.RateLimitEnabled),
		logger.BoolField("metrics_exposed", c.Metrics.ExposeMetrics),
	)
}
