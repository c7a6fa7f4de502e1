// Package openai implements the completion Generator on the OpenAI chat
// completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/lewisedginton/health_companion/internal/completion"
	"github.com/lewisedginton/health_companion/pkg/health"
	"github.com/lewisedginton/health_companion/pkg/health/checkers"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ProviderName labels this generator in logs and metrics.
const ProviderName = "openai"

const defaultBaseURL = "https://api.openai.com/v1/"

// Model is a completion.Generator backed by a chat completion model.
type Model struct {
	client    openai.Client
	modelName string
	baseURL   string
	apiKey    string
}

// New creates a new OpenAI model instance. An empty baseURL selects the
// public endpoint.
func New(apiKey, modelName, baseURL string, opts ...option.RequestOption) (*Model, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}

	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/") + "/"
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(baseURL)}

	return &Model{
		client:    openai.NewClient(append(reqOpts, opts...)...),
		modelName: modelName,
		baseURL:   baseURL,
		apiKey:    apiKey,
	}, nil
}

func (m *Model) Name() string {
	return ProviderName
}

// ModelName returns the configured model id.
func (m *Model) ModelName() string {
	return m.modelName
}

// Complete sends a system + user message pair and returns the first choice.
func (m *Model) Complete(ctx context.Context, p completion.Prompt) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if p.System != "" {
		messages = append(messages, openai.SystemMessage(p.System))
	}
	messages = append(messages, openai.UserMessage(p.User))

	params := openai.ChatCompletionNewParams{
		Model:       m.modelName,
		Messages:    messages,
		Temperature: openai.Float(p.Temperature),
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(p.MaxTokens))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", completion.ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// ReachabilityCheck probes the models endpoint.
func (m *Model) ReachabilityCheck() health.Check {
	return checkers.NewHTTPChecker("openai-api", m.baseURL+"models",
		checkers.WithHeader("Authorization", "Bearer "+m.apiKey))
}
