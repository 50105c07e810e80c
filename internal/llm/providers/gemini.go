package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	llmtypes "codementor/internal/llm/types"
	"codementor/internal/logging/types"

	"github.com/tidwall/gjson"
)

// NoTextSentinel is returned when a successful response carries no candidate text
const NoTextSentinel = "No text generated by Gemini."

const maxResponseBytes = 4 << 20

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

// GeminiProvider calls the generateContent endpoint of the Gemini API
type GeminiProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     types.Logger
}

// NewGeminiProvider creates a Gemini provider. httpClient may be nil.
func NewGeminiProvider(baseURL, model string, httpClient *http.Client, logger types.Logger) *GeminiProvider {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &GeminiProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: httpClient,
		logger:     logger.WithField("component", "gemini"),
	}
}

// Name returns the provider name
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// Generate performs one generateContent call
func (g *GeminiProvider) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := gjson.GetBytes(data, "error.message").String()
		if message == "" {
			message = "Gemini API failed"
		}
		g.logger.Warn("Gemini API error", map[string]interface{}{
			"status":  resp.StatusCode,
			"message": message,
		})
		return "", &llmtypes.APIError{Status: resp.StatusCode, Message: message}
	}

	text := gjson.GetBytes(data, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return NoTextSentinel, nil
	}
	return text, nil
}
