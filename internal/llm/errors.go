package llm

import (
	"errors"

	"codementor/pkg/models"
)

// ErrorCode maps a completion failure to the short code shown to the UI
func ErrorCode(err error) string {
	var (
		apiErr       *APIError
		exhaustedErr *RetriesExhaustedError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoAPIKey):
		return models.CodeNoAPIKey
	case errors.As(err, &exhaustedErr):
		return models.CodeRetriesExhausted
	case errors.As(err, &apiErr):
		return models.CodeAPIError
	default:
		return models.CodeInternal
	}
}

// UserMessage is the short text paired with ErrorCode
func UserMessage(err error) string {
	var apiErr *APIError
	switch ErrorCode(err) {
	case models.CodeNoAPIKey:
		return "No API key configured. Add your key in settings."
	case models.CodeRetriesExhausted:
		return "The AI service is busy. Please try again in a moment."
	case models.CodeAPIError:
		if errors.As(err, &apiErr) {
			return apiErr.Message
		}
	}
	return "Something went wrong. Please try again."
}
