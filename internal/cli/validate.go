package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rtmpl/internal/report"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Summary report.Summary `json:"summary"`
	Issues  []report.Entry `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <collection-file>",
		Short: "Check that every template resolves cleanly",
		Long: `Resolve a template collection and fail if any entry is not clean.

An entry is clean when every reference was substituted: no unknown
field names, no recursive impasse and no max-depth cutoff.

Exit codes:
  0 - Every entry resolved cleanly
  1 - At least one entry has issues
  2 - Command error (unreadable collection, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	rep, err := resolveFile(opts, formatter, path)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Valid:   !rep.HasIssues(),
		Summary: rep.Summary(),
	}
	for _, e := range rep.Entries {
		if !e.Clean() {
			result.Issues = append(result.Issues, e)
		}
	}

	if result.Valid {
		return outputValidateSuccess(formatter, result)
	}
	return outputValidationIssues(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d entries resolved cleanly\n", result.Summary.Total)
	return nil
}

// outputValidationIssues outputs every entry that did not resolve cleanly.
func outputValidationIssues(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    "E_UNRESOLVED",
				Message: fmt.Sprintf("%d entries did not resolve cleanly", len(result.Issues)),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range result.Issues {
		fmt.Fprintf(formatter.Writer, "%s\n", e.Key)
		if len(e.Unreplaced) > 0 {
			fmt.Fprintf(formatter.Writer, "  unreplaced: %s\n", strings.Join(e.Unreplaced, ", "))
		}
		if len(e.Impasse) > 0 {
			fmt.Fprintf(formatter.Writer, "  impasse: %s\n", strings.Join(e.Impasse, ", "))
		}
		if e.ReachedMaxRecursion {
			fmt.Fprintln(formatter.Writer, "  reached max recursion")
		}
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintln(formatter.Writer, result.Summary)

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues)))
}
