package adapters

import (
	"fmt"

	"codementor/internal/logging/types"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapAdapter forwards entries to a zap logger
type ZapAdapter struct {
	name   string
	logger *zap.Logger
}

// ZapConfig represents configuration for the zap adapter
type ZapConfig struct {
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

// NewZapAdapter builds a zap logger from config. Level filtering happens in
// the MultiLogger, so the zap core is opened at debug.
func NewZapAdapter(name string, config ZapConfig) (*ZapAdapter, error) {
	zc := zap.NewProductionConfig()
	if config.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	zc.DisableStacktrace = true
	if len(config.OutputPaths) > 0 {
		zc.OutputPaths = config.OutputPaths
	}

	logger, err := zc.Build(zap.AddCallerSkip(3))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return NewZapAdapterFromLogger(name, logger), nil
}

// NewZapAdapterFromLogger wraps an existing zap logger
func NewZapAdapterFromLogger(name string, logger *zap.Logger) *ZapAdapter {
	return &ZapAdapter{name: name, logger: logger}
}

// Write writes a log entry through zap
func (a *ZapAdapter) Write(entry *types.LogEntry) error {
	fields := make([]zap.Field, 0, len(entry.Fields))
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			fields = append(fields, zap.NamedError(k, err))
			continue
		}
		fields = append(fields, zap.Any(k, v))
	}

	if ce := a.logger.Check(zapLevel(entry.Level), entry.Message); ce != nil {
		ce.Time = entry.Timestamp
		ce.Write(fields...)
	}
	return nil
}

// Close flushes buffered output. Sync on a terminal returns EINVAL on some
// platforms, which is not a failure worth reporting.
func (a *ZapAdapter) Close() error {
	_ = a.logger.Sync()
	return nil
}

func (a *ZapAdapter) Health() error {
	return nil
}

func (a *ZapAdapter) Name() string {
	return a.name
}

// zapLevel maps fatal to error; MultiLogger owns process exit
func zapLevel(level types.LogLevel) zapcore.Level {
	switch level {
	case types.DebugLevel:
		return zapcore.DebugLevel
	case types.WarnLevel:
		return zapcore.WarnLevel
	case types.ErrorLevel, types.FatalLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
