// Command mds-gateway forwards Memfault diagnostic chunks from an MDS device
// to the cloud.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mds-bridge/mds-go/pkg/config"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by all commands.
type globalFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "mds-gateway",
		Short: "Memfault Diagnostic Service gateway",
		Long: `mds-gateway reads diagnostic chunks from a device implementing the
Memfault Diagnostic Service and uploads them to the device's data URI.

Devices are reached over a serial link (length-prefixed reports), a
WebSocket bridge, or an in-process simulated device.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: text, json")

	rootCmd.AddCommand(
		runCmd(&flags),
		monitorCmd(&flags),
		simulateCmd(&flags),
		configCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration file (or the defaults) and applies the
// global flag overrides.
func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configFile != "" {
		var err error
		if cfg, err = config.Load(flags.configFile); err != nil {
			return config.Config{}, err
		}
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
	return cfg, nil
}

// newLogger builds the operational logger writing to stderr.
func newLogger(cfg config.Logging) (*slog.Logger, error) {
	return newLoggerTo(cfg, os.Stderr)
}

func newLoggerTo(cfg config.Logging, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
