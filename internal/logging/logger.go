// Package logging builds the shared zap logger from configuration.
// Logs go to stderr so command output on stdout stays scriptable; an
// optional file sink can be added through config.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mergelytics/internal/config"
)

// New constructs a zap logger per the logging config. verbose forces
// debug level regardless of the configured level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}

	switch cfg.Format {
	case "", "console":
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		zcfg.Encoding = "json"
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	var level zapcore.Level
	switch cfg.Level {
	case "", "info":
		level = zapcore.InfoLevel
	case "debug":
		level = zapcore.DebugLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level: %s", cfg.Level)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.File != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.File)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
