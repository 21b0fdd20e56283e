package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zapcore.Level
	}{
		{"Debug level", "debug", zapcore.DebugLevel},
		{"Info level", "info", zapcore.InfoLevel},
		{"Warn level", "warn", zapcore.WarnLevel},
		{"Warning alias", "WARNING", zapcore.WarnLevel},
		{"Error level", "error", zapcore.ErrorLevel},
		{"Default level", "invalid", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level))
		})
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText("info", &buf)
	require.NotNil(t, logger)

	logger.Info("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		logFunc  func(string, ...any)
		logMsg   string
		expected bool
	}{
		{"Debug when debug level", "debug", Debug, "debug message", true},
		{"Info when debug level", "debug", Info, "info message", true},
		{"Debug when info level", "info", Debug, "debug message", false},
		{"Info when info level", "info", Info, "info message", true},
		{"Warn when info level", "info", Warn, "warn message", true},
		{"Error when info level", "info", Error, "error message", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDefault(New(tt.logLevel, &buf))

			tt.logFunc(tt.logMsg)
			output := buf.String()

			if tt.expected {
				assert.Contains(t, output, tt.logMsg)
			} else {
				assert.NotContains(t, output, tt.logMsg)
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New("info", &buf))

	Info("test message", "key", "value", "number", 42)

	var logEntry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "test message", logEntry["msg"])
	assert.Equal(t, "value", logEntry["key"])
	assert.Equal(t, float64(42), logEntry["number"])
	assert.Equal(t, "INFO", logEntry["level"])
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New("info", &buf))

	With("run_id", "123", "phase", "global").Info("trial finished")

	output := buf.String()
	assert.Contains(t, output, `"run_id":"123"`)
	assert.Contains(t, output, `"phase":"global"`)
}

func TestNewWithFileWritesBothSinks(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "autotune.log")

	logger := NewWithFile("debug", "console", &buf, FileOptions{Path: path})
	logger.Sugar().Debugw("improvement", "score", 1.5)
	require.NoError(t, logger.Sync())

	assert.Contains(t, buf.String(), "improvement")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "improvement", entry["msg"])
	assert.Equal(t, 1.5, entry["score"])
}
