package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rtmpl/internal/collection"
	"github.com/roach88/rtmpl/internal/report"
	"github.com/roach88/rtmpl/internal/store"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Keys     []string
	Database string
}

// ResolveResult is the JSON payload of the resolve command.
type ResolveResult struct {
	Source  string         `json:"source"`
	RunID   string         `json:"run_id,omitempty"`
	Summary report.Summary `json:"summary"`
	Report  *report.Report `json:"report"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <collection-file>",
		Short: "Resolve a template collection",
		Long: `Resolve every entry of a template collection and print the result.

The collection is a .yaml, .yml, .json, .jsonc or .cue file mapping keys
to template text. Entries are resolved in declaration order.

With --db (or a database in the config file) the run is archived and can
be inspected later with "rtmpl history".

Examples:
  rtmpl resolve ./greetings.yaml
  rtmpl resolve ./greetings.yaml --key welcome --key farewell
  rtmpl resolve ./greetings.cue --max-depth 3 --format json
  rtmpl resolve ./greetings.yaml --db ./runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Keys, "key", nil, "only print these keys (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "archive the run in this SQLite database")

	return cmd
}

func runResolve(opts *ResolveOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	rep, err := resolveFile(opts.RootOptions, formatter, path)
	if err != nil {
		return err
	}

	var runID string
	if db := opts.databasePath(opts.Database); db != "" {
		runID, err = archiveRun(cmd.Context(), opts.RootOptions, db, path, rep)
		if err != nil {
			return commandError(formatter, ErrCodeStoreFailed, err.Error())
		}
		formatter.VerboseLog("Archived run %s in %s", runID, db)
	}

	shown := rep
	if len(opts.Keys) > 0 {
		shown, err = rep.Filter(opts.Keys)
		if err != nil {
			return commandError(formatter, ErrCodeUnknownKey, err.Error())
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(ResolveResult{
			Source:  path,
			RunID:   runID,
			Summary: shown.Summary(),
			Report:  shown,
		})
	}

	if err := shown.WriteText(formatter.Writer); err != nil {
		return err
	}
	formatter.VerboseLog("%s", rep.Summary())
	if runID != "" {
		fmt.Fprintf(formatter.Writer, "\nrun %s\n", runID)
	}
	return nil
}

// resolveFile loads and resolves the collection at path. Load failures are
// printed and returned as command errors.
func resolveFile(opts *RootOptions, formatter *OutputFormatter, path string) (*report.Report, error) {
	c, err := collection.Load(path)
	if err != nil {
		return nil, commandError(formatter, collection.ErrorCode(err), err.Error())
	}
	formatter.VerboseLog("Loaded %d entries from %s", c.Len(), path)

	resolver, err := opts.newResolver()
	if err != nil {
		return nil, err
	}

	rep, err := report.Build(c, resolver.ResolveCollection(c), resolver.MaxDepth())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build report", err)
	}
	return rep, nil
}

// archiveRun writes rep to the database at dbPath and returns the run id.
func archiveRun(ctx context.Context, opts *RootOptions, dbPath, source string, rep *report.Report) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			opts.logger().Error("error closing database", "error", closeErr)
		}
	}()

	id := opts.idGenerator().Generate()
	if _, err := st.WriteRun(ctx, store.Run{ID: id, Source: source, Report: rep}); err != nil {
		return "", err
	}
	return id, nil
}
