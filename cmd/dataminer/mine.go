package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/dataminer"
)

var flagFresh bool

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Extract characters and resolve their text",
	Long:  "Locates the required table dumps under the extraction folder, derives every character entity, and writes the character and per-locale text databases to the output folder.",
	Args:  cobra.NoArgs,
	RunE:  runMine,
}

func init() {
	mineCmd.Flags().BoolVar(&flagFresh, "fresh", false, "remove the output folder before mining")
}

func runMine(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return outputError(cmd, "mine", err)
	}

	m := dataminer.New(cfg, dataminer.WithLogger(logger), dataminer.WithFresh(flagFresh))
	sum, err := m.Run(cmd.Context())
	if err != nil {
		return outputError(cmd, "mine", err)
	}

	if err := outputResult(cmd, CLIResult{Command: "mine", Results: sum}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Mined in %s\n", sum.Duration.Round(time.Millisecond))
	fmt.Fprintf(cmd.ErrOrStderr(), "Output: %s\n", cfg.Datamining.OutputFolder)
	return nil
}
