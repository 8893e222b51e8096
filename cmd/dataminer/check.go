package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/dataminer"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run consistency checks over mined output",
	Long:  "Runs the embedded Risor check scripts against the character and text databases written by a previous mine run.",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return outputError(cmd, "check", err)
	}

	results, err := dataminer.New(cfg, dataminer.WithLogger(logger)).Check(cmd.Context())
	if results == nil && err != nil {
		return outputError(cmd, "check", err)
	}

	// Failed checks are still printed before the error is returned.
	res := CLIResult{Command: "check", Results: results}
	if err != nil {
		res.Error = err.Error()
		errorHandled = true
	}
	if outErr := outputResult(cmd, res); outErr != nil {
		return outErr
	}
	return err
}
