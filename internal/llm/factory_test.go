package llm

import (
	"testing"

	"codementor/internal/config"
	"codementor/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_Providers(t *testing.T) {
	cfg := config.Default()
	f := NewLLMFactory(cfg, logging.Nop())
	assert.Equal(t, []string{"gemini", "claude"}, f.GetSupportedProviders())

	provider, err := f.CreateProvider()
	require.NoError(t, err)
	assert.NotNil(t, provider)

	cfg.LLM.Provider = "palm"
	_, err = f.CreateProvider()
	assert.EqualError(t, err, "unsupported LLM provider: palm (supported: gemini, claude)")

	m := NewManager(cfg, nil, logging.Nop())
	assert.Equal(t, []string{"gemini", "claude"}, m.SupportedProviders())
}
