package logger

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Default is the default logger instance
	Default *zap.SugaredLogger
)

func init() {
	// Initialize with info level by default
	Default = NewText("info", os.Stderr).Sugar()
}

// FileOptions configures the rotating log file written next to the console output.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New creates a new structured JSON logger with the specified level and output
func New(level string, output io.Writer) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(output), ParseLevel(level))
	return zap.New(core)
}

// NewText creates a new console-formatted logger (useful for interactive runs)
func NewText(level string, output io.Writer) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(output), ParseLevel(level))
	return zap.New(core)
}

// NewWithFile creates a logger writing to output in the given format ("json"
// or "console") and, when file.Path is set, also to a rotated JSON log file.
func NewWithFile(level, format string, output io.Writer, file FileOptions) *zap.Logger {
	lvl := ParseLevel(level)

	var consoleEncoder zapcore.Encoder
	if format == "json" {
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig())
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig())
	}
	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, zapcore.AddSync(output), lvl)}

	if file.Path != "" {
		maxSize := file.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    maxSize,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
			Compress:   file.Compress,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), writer, lvl))
	}

	return zap.New(zapcore.NewTee(cores...))
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// SetDefault sets the default logger
func SetDefault(logger *zap.Logger) {
	Default = logger.Sugar()
	zap.ReplaceGlobals(logger)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Default.Debugw(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Default.Infow(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Default.Warnw(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Default.Errorw(msg, args...)
}

// With returns a logger with additional attributes
func With(args ...any) *zap.SugaredLogger {
	return Default.With(args...)
}

// Sync flushes buffered entries. Errors from syncing a terminal are ignored.
func Sync() {
	_ = Default.Sync()
}
