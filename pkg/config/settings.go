package config

import (
	"fmt"
	"time"
)

// Settings are the tool-level knobs of a tuning run. They are populated by the
// CLI from flags, AUTOTUNE_* environment variables and an optional settings
// file, then handed to the engine as plain values.
type Settings struct {
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	LogFile         string        `mapstructure:"log_file"`
	ReportDir       string        `mapstructure:"report_dir"`
	ReportFormats   []string      `mapstructure:"report_formats"`
	Trials          int           `mapstructure:"trials"`
	Seed            int64         `mapstructure:"seed"`
	Sampler         string        `mapstructure:"sampler"`
	Convergence     string        `mapstructure:"convergence"`
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
	Markers         []string      `mapstructure:"markers"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
}

// DefaultMarkers are the output phrases that introduce the score line.
var DefaultMarkers = []string{"Valor de saída:", "Output value:"}

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() Settings {
	return Settings{
		LogLevel:        "info",
		LogFormat:       "console",
		ReportDir:       ".",
		ReportFormats:   []string{"text"},
		Trials:          50,
		Sampler:         "tpe",
		MonitorInterval: 500 * time.Millisecond,
		Markers:         append([]string(nil), DefaultMarkers...),
	}
}

// Validate checks settings values.
func (s Settings) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[s.LogLevel] {
		return Errorf("log_level", "must be debug, info, warn, or error, got %q", s.LogLevel)
	}
	if s.LogFormat != "json" && s.LogFormat != "console" {
		return Errorf("log_format", "must be json or console, got %q", s.LogFormat)
	}
	if s.Trials < 0 {
		return Errorf("trials", "cannot be negative, got %d", s.Trials)
	}
	if s.MonitorInterval < 0 {
		return Errorf("monitor_interval", "cannot be negative, got %s", s.MonitorInterval)
	}
	if s.Sampler != "tpe" && s.Sampler != "random" {
		return Errorf("sampler", "must be tpe or random, got %q", s.Sampler)
	}
	switch s.Convergence {
	case "", "none", "no_improvement", "plateau", "variance", "combined":
	default:
		return Errorf("convergence", "unknown strategy %q", s.Convergence)
	}
	for _, f := range s.ReportFormats {
		if f != "text" && f != "json" {
			return Errorf("report_formats", "unknown report format %q", f)
		}
	}
	for i, m := range s.Markers {
		if m == "" {
			return Errorf(fmt.Sprintf("markers[%d]", i), "cannot be empty")
		}
	}
	return nil
}
