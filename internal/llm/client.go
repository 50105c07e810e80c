package llm

import (
	"context"
	"fmt"
	"time"

	"codementor/internal/logging/types"
	"codementor/pkg/utils"
)

// Client completes prompts through a provider under a retry policy
type Client struct {
	provider Provider
	keys     KeySource
	policy   RetryPolicy
	timeout  time.Duration
	logger   types.Logger
}

// NewClient creates a client. A zero timeout leaves deadlines to ctx.
func NewClient(provider Provider, keys KeySource, policy RetryPolicy, timeout time.Duration, logger types.Logger) *Client {
	return &Client{
		provider: provider,
		keys:     keys,
		policy:   policy,
		timeout:  timeout,
		logger:   logger.WithField("provider", provider.Name()),
	}
}

// Complete returns the cleaned completion for prompt. It fails with
// ErrNoAPIKey, *APIError or *RetriesExhaustedError.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	key, err := c.keys.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return "", ErrNoAPIKey
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	c.logger.Debug("Sending completion request", map[string]interface{}{
		"prompt_length": len(prompt),
	})

	text, err := c.policy.Do(ctx, c.logger, func(ctx context.Context) (string, error) {
		return c.provider.Generate(ctx, key, prompt)
	})
	if err != nil {
		c.logger.Error("Completion failed", map[string]interface{}{
			"error":    err.Error(),
			"duration": utils.FormatDuration(time.Since(start)),
		})
		return "", err
	}

	c.logger.Info("Completion received", map[string]interface{}{
		"response_length": len(text),
		"duration":        utils.FormatDuration(time.Since(start)),
	})
	return CleanResponse(text), nil
}

// Provider returns the provider name
func (c *Client) Provider() string {
	return c.provider.Name()
}

// StaticKey is a KeySource with a fixed key
type StaticKey string

// APIKey returns k
func (k StaticKey) APIKey(context.Context) (string, error) {
	return string(k), nil
}

// FallbackKeys returns the first non-empty key among sources
type FallbackKeys []KeySource

// APIKey asks each source in order
func (f FallbackKeys) APIKey(ctx context.Context) (string, error) {
	for _, src := range f {
		if src == nil {
			continue
		}
		key, err := src.APIKey(ctx)
		if err != nil {
			return "", err
		}
		if key != "" {
			return key, nil
		}
	}
	return "", nil
}
