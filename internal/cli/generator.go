package cli

import (
	"fmt"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lewisedginton/health_companion/internal/completion"
	appconfig "github.com/lewisedginton/health_companion/internal/config"
	"github.com/lewisedginton/health_companion/internal/models/anthropic"
	"github.com/lewisedginton/health_companion/internal/models/openai"
	"github.com/lewisedginton/health_companion/pkg/health"
	openaiopt "github.com/openai/openai-go/option"
)

// NewGenerator builds the configured completion provider together with its
// reachability check.
func NewGenerator(cfg *appconfig.AppConfig) (completion.Generator, health.Check, error) {
	switch cfg.Completion.Provider {
	case appconfig.ProviderClaude:
		m, err := anthropic.NewClaudeModel(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.APIBaseURL,
			anthropicopt.WithMaxRetries(cfg.Anthropic.MaxRetries),
			anthropicopt.WithRequestTimeout(cfg.Anthropic.Timeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Claude model: %w", err)
		}
		return m, m.ReachabilityCheck(), nil
	case appconfig.ProviderOpenAI, "":
		m, err := openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.APIBaseURL,
			openaiopt.WithMaxRetries(cfg.OpenAI.MaxRetries),
			openaiopt.WithRequestTimeout(cfg.OpenAI.Timeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OpenAI model: %w", err)
		}
		return m, m.ReachabilityCheck(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported completion provider %q", cfg.Completion.Provider)
	}
}
