package logging

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"mergelytics/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	logger, err := New(config.LoggingConfig{}, false)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Sync()

	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be disabled by default")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be enabled by default")
	}
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "error"}, true)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Sync()

	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose should force debug level")
	}
}

func TestNew_Levels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			logger, err := New(config.LoggingConfig{Level: name}, false)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer logger.Sync()
			if !logger.Core().Enabled(want) {
				t.Errorf("level %s should be enabled", want)
			}
		})
	}
}

func TestNew_RejectsUnknowns(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}, false); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(config.LoggingConfig{Format: "xml"}, false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mergelytics.log")
	logger, err := New(config.LoggingConfig{Format: "json", File: path}, false)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("sink check")
	logger.Sync()
}
