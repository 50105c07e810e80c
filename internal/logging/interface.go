package logging

import "codementor/internal/logging/types"

// Aliases so callers outside the adapters only import this package
type (
	LogLevel      = types.LogLevel
	LogEntry      = types.LogEntry
	LogAdapter    = types.LogAdapter
	Logger        = types.Logger
	AdapterConfig = types.AdapterConfig
)

const (
	DebugLevel = types.DebugLevel
	InfoLevel  = types.InfoLevel
	WarnLevel  = types.WarnLevel
	ErrorLevel = types.ErrorLevel
	FatalLevel = types.FatalLevel
)
