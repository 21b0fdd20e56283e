package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/GoSim-25-26J-441/autotune-core/pkg/config"
	"github.com/GoSim-25-26J-441/autotune-core/pkg/logger"
)

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	in           io.Reader
	out          io.Writer
	settingsFile string
	settings     config.Settings
	// trialsSet is true when trials came from the settings file, the
	// environment or a flag rather than the default.
	trialsSet bool
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	app := &cli{in: in, out: out, settings: config.DefaultSettings()}
	defaults := config.DefaultSettings()

	root := &cobra.Command{
		Use:   "autotune",
		Short: "Tune the parameters of a black-box program",
		Long: `autotune runs an external program with candidate parameter values,
reads the number it prints and searches for the values that maximize or
minimize it: a global sampling phase followed by a local pattern search.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.loadSettings(cmd)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetVersionTemplate(`{{printf "autotune %s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&app.settingsFile, "settings", "", "settings file (default is ./autotune.yaml)")
	flags.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.String("log-format", defaults.LogFormat, "log format (console, json)")
	flags.String("log-file", "", "also write JSON logs to this rotated file")
	flags.String("report-dir", defaults.ReportDir, "directory for report files")
	flags.StringSlice("report-formats", defaults.ReportFormats, "report formats to write (text, json)")
	flags.String("metrics-addr", "", "serve /healthz, /v1/status and /metrics on this address")
	flags.String("grpc-addr", "", "serve the gRPC health service on this address")

	root.AddCommand(
		newRunCmd(app),
		newPatternCmd(app),
		newExploreCmd(app),
		newInitCmd(app),
		newVersionCmd(),
	)
	return root
}

// settingsKeys are the viper keys decoded into config.Settings.
var settingsKeys = []string{
	"log_level", "log_format", "log_file", "report_dir", "report_formats",
	"trials", "seed", "sampler", "convergence", "monitor_interval", "markers",
	"metrics_addr", "grpc_addr",
}

// loadSettings resolves settings from defaults, the settings file,
// AUTOTUNE_* variables and flags, in increasing precedence, then installs
// the logger they describe.
func (c *cli) loadSettings(cmd *cobra.Command) error {
	v := viper.New()
	defaults := config.DefaultSettings()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("log_file", defaults.LogFile)
	v.SetDefault("report_dir", defaults.ReportDir)
	v.SetDefault("report_formats", defaults.ReportFormats)
	v.SetDefault("trials", defaults.Trials)
	v.SetDefault("seed", defaults.Seed)
	v.SetDefault("sampler", defaults.Sampler)
	v.SetDefault("convergence", defaults.Convergence)
	v.SetDefault("monitor_interval", defaults.MonitorInterval)
	v.SetDefault("markers", defaults.Markers)
	v.SetDefault("metrics_addr", defaults.MetricsAddr)
	v.SetDefault("grpc_addr", defaults.GRPCAddr)

	if c.settingsFile != "" {
		v.SetConfigFile(c.settingsFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("autotune")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("AUTOTUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading settings file: %w", err)
		}
	}

	known := make(map[string]bool, len(settingsKeys))
	for _, k := range settingsKeys {
		known[k] = true
	}
	var bindErr error
	bind := func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if known[key] && bindErr == nil {
			bindErr = v.BindPFlag(key, f)
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.InheritedFlags().VisitAll(bind)
	if bindErr != nil {
		return bindErr
	}

	var s config.Settings
	if err := v.Unmarshal(&s); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	c.settings = s
	c.trialsSet = explicit(v, cmd, "trials")

	logger.SetDefault(logger.NewWithFile(s.LogLevel, s.LogFormat, cmd.ErrOrStderr(), logger.FileOptions{
		Path:       s.LogFile,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}))
	logger.Debug("settings loaded", "file", v.ConfigFileUsed(), "sampler", s.Sampler, "trials", s.Trials)
	return nil
}

// explicit reports whether key was given in the settings file, as an
// AUTOTUNE_* variable or as a flag.
func explicit(v *viper.Viper, cmd *cobra.Command, key string) bool {
	if v.InConfig(key) {
		return true
	}
	if _, ok := os.LookupEnv("AUTOTUNE_" + strings.ToUpper(key)); ok {
		return true
	}
	f := cmd.Flags().Lookup(strings.ReplaceAll(key, "_", "-"))
	return f != nil && f.Changed
}
