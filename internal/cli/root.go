package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rtmpl/internal/config"
	"github.com/roach88/rtmpl/internal/store"
	"github.com/roach88/rtmpl/internal/template"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	MaxDepth   int
	ConfigPath string

	// Database is the run archive from the config file. Commands with a
	// --db flag prefer the flag.
	Database string

	// Logger receives resolver diagnostics. Nil discards them.
	Logger *slog.Logger

	// IDGenerator allows overriding run ids (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator store.RunIDGenerator
}

// NewRootCommand creates the root command for the rtmpl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rtmpl",
		Short: "rtmpl - recursive template resolver",
		Long: `Resolve collections of templates that reference each other by name.

A template refers to a sibling entry with {{name}} or {{name:modifier}}.
References are substituted recursively, cycles stop at an impasse, and
chains deeper than --max-depth are cut off. Every entry reports which
references could not be satisfied.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.configure(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().IntVar(&opts.MaxDepth, "max-depth", template.DefaultMaxDepth, "maximum recursion depth")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $"+config.EnvConfigPath+")")

	// Add subcommands
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// configure merges the config file and explicitly set flags, then installs
// the logger.
func (o *RootOptions) configure(cmd *cobra.Command) error {
	path := o.ConfigPath
	if path == "" {
		path = config.PathFromEnv()
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = o.MaxDepth
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid options", err)
	}

	o.Format = cfg.Format
	o.MaxDepth = cfg.MaxDepth
	o.Database = cfg.Database

	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))

	return nil
}

// logger returns the configured logger or a discarding one.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// newResolver builds a resolver from the global options.
func (o *RootOptions) newResolver() (*template.Resolver, error) {
	r, err := template.New(
		template.WithMaxDepth(o.MaxDepth),
		template.WithLogger(o.logger()),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid options", err)
	}
	return r, nil
}

// idGenerator returns the run id generator.
func (o *RootOptions) idGenerator() store.RunIDGenerator {
	if o.IDGenerator == nil {
		return store.UUIDv7Generator{}
	}
	return o.IDGenerator
}

// formatter creates an output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// databasePath returns flagValue if set, otherwise the configured database.
func (o *RootOptions) databasePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return o.Database
}

// commandError prints an error in the configured format and returns the
// matching command-level ExitError.
func commandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
