package llm

import "codementor/internal/llm/types"

type Provider = types.Provider
type KeySource = types.KeySource
type APIError = types.APIError
type RetriesExhaustedError = types.RetriesExhaustedError
type ParseError = types.ParseError

var ErrNoAPIKey = types.ErrNoAPIKey
