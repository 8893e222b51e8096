package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/dataminer/internal/config"
	"github.com/jward/dataminer/internal/logging"
)

var (
	flagConfig   string
	flagFormat   string
	flagLogLevel string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "dataminer",
	Short:         "Mine character records and localized text from decoded game tables",
	Long:          "Dataminer reads decoded cfg.bin table dumps, derives character records with their stats, and writes them with their localized names to SQLite databases.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultConfigFile, "settings file path")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override logging.level from the settings file")

	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(initConfigCmd)
}

// loadConfig reads the settings file and installs the configured logger.
// Logs go to errOut so stdout stays reserved for results.
func loadConfig(errOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Logging.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	return cfg, logging.Setup(errOut, level, cfg.Logging.Format), nil
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a settings file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Write(flagConfig, config.Default()); err != nil {
			return outputError(cmd, "init-config", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", flagConfig)
		return nil
	},
}
