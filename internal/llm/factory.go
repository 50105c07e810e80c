package llm

import (
	"fmt"
	"net/http"
	"strings"

	"codementor/internal/config"
	"codementor/internal/llm/providers"
	"codementor/internal/logging/types"
)

// LLMFactory creates LLM provider instances
type LLMFactory struct {
	config *config.Config
	logger types.Logger
}

// NewLLMFactory creates a new LLM factory instance
func NewLLMFactory(cfg *config.Config, logger types.Logger) *LLMFactory {
	return &LLMFactory{
		config: cfg,
		logger: logger,
	}
}

// CreateProvider creates an LLM provider based on the configuration
func (f *LLMFactory) CreateProvider() (Provider, error) {
	cfg := f.config.LLM
	switch cfg.Provider {
	case "gemini", "":
		return providers.NewGeminiProvider(cfg.BaseURL, cfg.Model, &http.Client{}, f.logger), nil
	case "claude":
		return providers.NewClaudeProvider(cfg.Model, cfg.MaxTokens, cfg.Temperature, claudeBaseURL(cfg.BaseURL), f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: %s)",
			cfg.Provider, strings.Join(f.GetSupportedProviders(), ", "))
	}
}

// GetSupportedProviders returns a list of supported LLM providers
func (f *LLMFactory) GetSupportedProviders() []string {
	return []string{"gemini", "claude"}
}

// RetryPolicy builds the retry policy from configuration
func (f *LLMFactory) RetryPolicy() RetryPolicy {
	policy := DefaultRetryPolicy()
	if f.config.LLM.MaxAttempts > 0 {
		policy.MaxAttempts = f.config.LLM.MaxAttempts
	}
	if f.config.LLM.RetryDelay > 0 {
		policy.Backoff = LinearBackoff(f.config.LLM.RetryDelay)
	}
	return policy
}

// the default base URL points at Gemini; Claude uses the SDK default then
func claudeBaseURL(configured string) string {
	if configured == config.DefaultGeminiBaseURL {
		return ""
	}
	return configured
}
