package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	llmtypes "codementor/internal/llm/types"
	"codementor/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-7-sonnet-latest",
			"content": [{"type": "text", "text": "Think about complements."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 4}
		}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider("", 256, 0.2, srv.URL, logging.Nop())
	text, err := p.Generate(context.Background(), "sk-test", "hint please")
	require.NoError(t, err)
	assert.Equal(t, "Think about complements.", text)
	assert.Equal(t, "claude", p.Name())
}

func TestClaudeProvider_StatusBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider("claude-3-7-sonnet-latest", 256, 0.2, srv.URL, logging.Nop())
	_, err := p.Generate(context.Background(), "sk-test", "hint please")

	var apiErr *llmtypes.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 529, apiErr.Status)
}

func TestGeminiProvider_ErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewGeminiProvider(srv.URL+"/", "gemini-2.5-flash", nil, logging.Nop()).Generate(context.Background(), "k", "p")

	var apiErr *llmtypes.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Gemini API failed", apiErr.Message)
}
