package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/clicktrail/internal/config"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger is configured in PersistentPreRunE from --log-level and the config.
var logger = log.New(io.Discard)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "clicktrail",
	Short:         "Record browser interactions as annotated screenshots and export them as a report",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		project, err := config.LoadProject()
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)

		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
			Level:           level,
			ReportTimestamp: true,
			Prefix:          "clicktrail",
		})
		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
}
