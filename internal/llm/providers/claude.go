package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	llmtypes "codementor/internal/llm/types"
	"codementor/internal/logging/types"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider implements the provider contract using Anthropic's Claude
type ClaudeProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float32
	logger      types.Logger
}

// NewClaudeProvider creates a new Claude provider. The SDK's own retries are
// disabled; the client's retry policy owns that.
func NewClaudeProvider(model string, maxTokens int, temperature float32, baseURL string, logger types.Logger) *ClaudeProvider {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	if model == "" || strings.HasPrefix(model, "gemini") {
		model = string(anthropic.ModelClaude3_7SonnetLatest)
	}

	return &ClaudeProvider{
		client:      anthropic.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger.WithField("component", "claude"),
	}
}

// Name returns the provider name
func (cp *ClaudeProvider) Name() string {
	return "claude"
}

// Generate sends prompt as a single user message
func (cp *ClaudeProvider) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	response, err := cp.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(cp.model),
		MaxTokens:   int64(cp.maxTokens),
		Temperature: anthropic.Float(float64(cp.temperature)),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	}, option.WithAPIKey(apiKey))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			cp.logger.Warn("Claude API error", map[string]interface{}{
				"status": apiErr.StatusCode,
			})
			return "", &llmtypes.APIError{Status: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return "", fmt.Errorf("failed to call Claude API: %w", err)
	}

	var parts []string
	for _, block := range response.Content {
		if block.Type == "text" {
			parts = append(parts, block.AsText().Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "No text generated by Claude.", nil
	}
	return text, nil
}
