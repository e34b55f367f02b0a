package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process-wide zap logger. The level comes from
// LOG_LEVEL (debug, info, warn, error) and defaults to info; output is
// production JSON with ISO-8601 timestamps.
func NewLogger() (*zap.Logger, error) {
	level, err := logLevelFromEnv()
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Encoding = "json"
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}

func logLevelFromEnv() (zapcore.Level, error) {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return zapcore.InfoLevel, nil
	}

	var level zapcore.Level
	err := level.UnmarshalText([]byte(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", raw, err)
	}

	return level, nil
}
