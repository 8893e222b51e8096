package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jward/dataminer"
	"github.com/jward/dataminer/internal/character"
)

// CLIResult is the top-level JSON envelope for every command.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results,omitempty"`
	Error   string `json:"error,omitempty"`
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	if slices.Contains(validFormats, format) {
		return nil
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}

// outputResult writes result to the command's stdout in the selected format.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	w := cmd.OutOrStdout()
	if flagFormat == "text" {
		if err := outputResultText(w, result); err != nil {
			return err
		}
		if result.Error != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", result.Error)
		}
		return nil
	}
	return writeJSON(w, result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	_ = writeJSON(cmd.OutOrStdout(), CLIResult{Command: command, Error: err.Error()})
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case *dataminer.Summary:
		formatSummaryText(w, v)
	case []dataminer.CheckResult:
		formatChecksText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// formatSummaryText formats a mining run summary as readable text.
func formatSummaryText(w io.Writer, sum *dataminer.Summary) {
	fmt.Fprintf(w, "Run: %s\n", sum.RunID)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BUCKET\tENTITIES")
	for _, b := range character.Buckets {
		fmt.Fprintf(tw, "%s\t%d\n", b, sum.Entities[b.String()])
	}
	tw.Flush()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Rejected candidates: %d\n", sum.Rejected)
	fmt.Fprintf(w, "Ignored base rows: %d\n", sum.Ignored)
	fmt.Fprintf(w, "Name requests: %d\n", sum.Requests)
	fmt.Fprintln(w)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCALE\tMISSING NAMES")
	for _, l := range slices.Sorted(maps.Keys(sum.Missing)) {
		fmt.Fprintf(tw, "%s\t%d\n", l, sum.Missing[l])
	}
	tw.Flush()
	fmt.Fprintf(w, "Total missing names: %d\n", sum.TotalMissing)
}

// formatChecksText formats check results, one block per check with its
// findings in key order.
func formatChecksText(w io.Writer, results []dataminer.CheckResult) {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		status := "ok"
		if r.Err != "" {
			status = "FAILED: " + r.Err
		}
		fmt.Fprintf(w, "%s (%s)\n", r.Name, status)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, k := range slices.Sorted(maps.Keys(r.Findings)) {
			fmt.Fprintf(tw, "  %s\t%v\n", k, r.Findings[k])
		}
		tw.Flush()
	}
}
