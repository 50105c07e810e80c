package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"codementor/internal/config"
	"codementor/internal/logging/types"
)

// Manager manages the LLM provider and its client
type Manager struct {
	config  *config.Config
	factory *LLMFactory
	keys    KeySource
	client  *Client
	logger  types.Logger
	mu      sync.RWMutex
}

// NewManager creates a new LLM manager instance. keys is consulted on every
// call; the configured key is used when it yields nothing.
func NewManager(cfg *config.Config, keys KeySource, logger types.Logger) *Manager {
	logger = logger.WithField("component", "llm_manager")
	return &Manager{
		config:  cfg,
		factory: NewLLMFactory(cfg, logger),
		keys:    FallbackKeys{keys, StaticKey(cfg.LLM.APIKey)},
		logger:  logger,
	}
}

// Start creates the provider and client
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Starting LLM manager", map[string]interface{}{"provider": m.config.LLM.Provider})

	provider, err := m.factory.CreateProvider()
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	m.client = NewClient(provider, m.keys, m.factory.RetryPolicy(), m.config.LLM.Timeout, m.logger)

	if m.config.LLM.APIKey == "" {
		// keys may still arrive per session
		m.logger.Warn("No LLM API key configured, requests need a session key (SET_API_KEY)")
	}
	m.logger.Info("LLM manager started successfully", map[string]interface{}{
		"provider": provider.Name(),
		"model":    m.config.LLM.Model,
	})
	return nil
}

// Stop shuts down the LLM manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping LLM manager")
	m.client = nil
	return nil
}

// Complete forwards to the client
func (m *Manager) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()

	if client == nil {
		return "", errors.New("LLM manager not started")
	}
	return client.Complete(ctx, prompt)
}

// IsHealthy reports whether the manager can accept requests
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client != nil
}

// GetProviderName returns the name of the current LLM provider
func (m *Manager) GetProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.client != nil {
		return m.client.Provider()
	}
	return "none"
}

// SupportedProviders lists the provider names the configuration accepts
func (m *Manager) SupportedProviders() []string {
	return m.factory.GetSupportedProviders()
}

// CheckHealth verifies the manager is started and a credential resolves.
// No upstream call is made.
func (m *Manager) CheckHealth(ctx context.Context) error {
	if !m.IsHealthy() {
		return errors.New("LLM provider not available")
	}
	key, err := m.keys.APIKey(ctx)
	if err != nil {
		return err
	}
	if key == "" {
		return ErrNoAPIKey
	}
	return nil
}
