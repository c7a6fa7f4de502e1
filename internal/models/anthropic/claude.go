// Package anthropic implements the completion Generator on the Anthropic
// messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/lewisedginton/health_companion/internal/completion"
	"github.com/lewisedginton/health_companion/pkg/health"
	"github.com/lewisedginton/health_companion/pkg/health/checkers"
)

// ProviderName labels this generator in logs and metrics.
const ProviderName = "claude"

const (
	defaultBaseURL = "https://api.anthropic.com/"
	defaultModel   = "claude-3-5-haiku-latest"
	apiVersion     = "2023-06-01"
)

// ClaudeModel is a completion.Generator backed by a Claude model.
type ClaudeModel struct {
	client    anthropic.Client
	modelName string
	baseURL   string
	apiKey    string
}

// NewClaudeModel creates a new Claude model instance
func NewClaudeModel(apiKey, modelName, baseURL string, opts ...option.RequestOption) (*ClaudeModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if modelName == "" {
		modelName = defaultModel
	}

	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/") + "/"
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)}

	return &ClaudeModel{
		client:    anthropic.NewClient(append(reqOpts, opts...)...),
		modelName: modelName,
		baseURL:   baseURL,
		apiKey:    apiKey,
	}, nil
}

func (c *ClaudeModel) Name() string {
	return ProviderName
}

// ModelName returns the configured model id.
func (c *ClaudeModel) ModelName() string {
	return c.modelName
}

// Complete sends the prompt as a single user turn and joins the text blocks of the reply.
func (c *ClaudeModel) Complete(ctx context.Context, p completion.Prompt) (string, error) {
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.modelName),
		MaxTokens:   int64(p.MaxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(p.User))},
		Temperature: anthropic.Float(p.Temperature),
	}
	if p.System != "" {
		req.System = []anthropic.TextBlockParam{{Text: p.System}}
	}

	resp, err := c.client.Messages.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", completion.ErrEmptyCompletion
	}
	return sb.String(), nil
}

// ReachabilityCheck probes the models endpoint.
func (c *ClaudeModel) ReachabilityCheck() health.Check {
	return checkers.NewHTTPChecker("anthropic-api", c.baseURL+"v1/models",
		checkers.WithHeader("x-api-key", c.apiKey),
		checkers.WithHeader("anthropic-version", apiVersion))
}
