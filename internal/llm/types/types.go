package types

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoAPIKey means no credential is configured for the provider
var ErrNoAPIKey = errors.New("no API key configured")

// Provider turns a prompt into completion text with a single upstream call.
// A non-2xx upstream response must be reported as *APIError.
type Provider interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
	Name() string
}

// KeySource yields the credential at call time. An empty key means none is
// configured.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// APIError is an upstream rejection carrying the upstream message
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// RetriesExhaustedError is returned when every attempt hit a retryable failure
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// ParseError means a completion was not the JSON the caller asked for
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "response is not valid JSON: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
