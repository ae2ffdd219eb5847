package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Property: every entry written by the JSON logger is a single structured object
func TestProperty_LogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("log entries are JSON with level, timestamp and message", prop.ForAll(
		func(message string, level string) bool {
			var buf bytes.Buffer
			logger := NewJSON(&buf, zapcore.DebugLevel)

			switch level {
			case "debug":
				logger.Debug(message)
			case "warn":
				logger.Warn(message)
			case "error":
				logger.Error(message)
			default:
				logger.Info(message)
			}
			_ = logger.Sync()

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}

			for _, key := range []string{"level", "timestamp", "message", "caller"} {
				if _, ok := entry[key]; !ok {
					return false
				}
			}
			return entry["message"] == message
		},
		gen.AlphaString(),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t)
}

// Property: structured fields attached to an entry survive encoding
func TestProperty_FieldsArePreserved(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("sale fields are emitted verbatim", prop.ForAll(
		func(customer string, lines int) bool {
			var buf bytes.Buffer
			logger := NewJSON(&buf, zapcore.InfoLevel)
			logger.Info("Sale checked out", zap.String("customer", customer), zap.Int("lines", lines))

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}
			return entry["customer"] == customer && entry["lines"] == float64(lines)
		},
		gen.AlphaString(),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf, zapcore.WarnLevel)

	logger.Info("dropped")
	logger.Warn("kept")
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info entry should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn entry missing: %s", out)
	}
}

func TestNew(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		logger, err := New(env)
		if err != nil {
			t.Fatalf("New(%q) returned error: %v", env, err)
		}
		if logger == nil {
			t.Fatalf("New(%q) returned nil logger", env)
		}
	}
}
