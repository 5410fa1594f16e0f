package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rtmpl/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// HistoryList is the JSON payload of "history" without a run id.
type HistoryList struct {
	Runs []store.RunSummary `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show archived resolution runs",
		Long: `List the runs archived by "rtmpl resolve --db", or show one run.

Without a run id, prints one line per run in the order they were written.
With a run id, prints that run's resolved entries.

Examples:
  rtmpl history --db ./runs.db
  rtmpl history --db ./runs.db 01928f3a-7c4e-7b1a-9d2e-3f4a5b6c7d8e
  rtmpl history --db ./runs.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to the config file's database)")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dbPath := opts.databasePath(opts.Database)
	if dbPath == "" {
		return commandError(formatter, ErrCodeNoDatabase, "no database: pass --db or set database in the config file")
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return commandError(formatter, ErrCodeStoreFailed, err.Error())
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.logger().Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) == 1 {
		return showRun(ctx, st, formatter, args[0])
	}
	return listRuns(ctx, st, formatter)
}

func listRuns(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeStoreFailed, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(HistoryList{Runs: runs})
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs archived.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tENTRIES\tISSUES\tMAX DEPTH\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n", r.Seq, r.ID, r.Entries, r.Issues, r.MaxDepth, r.Source)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, st *store.Store, formatter *OutputFormatter, id string) error {
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return commandError(formatter, ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", id))
	}
	if err != nil {
		return commandError(formatter, ErrCodeStoreFailed, err.Error())
	}

	if formatter.Format == "json" {
		return formatter.Success(ResolveResult{
			Source:  run.Source,
			RunID:   run.ID,
			Summary: run.Report.Summary(),
			Report:  run.Report,
		})
	}

	fmt.Fprintf(formatter.Writer, "run %s (seq %d)\n", run.ID, run.Seq)
	fmt.Fprintf(formatter.Writer, "source: %s\n", run.Source)
	fmt.Fprintf(formatter.Writer, "max depth: %d\n", run.Report.MaxDepth)
	fmt.Fprintf(formatter.Writer, "report hash: %s\n\n", run.ReportHash)
	if err := run.Report.WriteText(formatter.Writer); err != nil {
		return err
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintln(formatter.Writer, run.Report.Summary())
	return nil
}
