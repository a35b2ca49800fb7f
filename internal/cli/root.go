package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ruleflow/internal/config"
)

// RootOptions holds global flags for all commands, and the settings
// resolved from them and the environment before any command runs.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	DB          string
	ClassName   string
	MaxVersions int
	Strict      bool

	Config config.Config
	Logger *slog.Logger
}

// NewRootCommand creates the root command for the ruleflow CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ruleflow",
		Short: "Edit, version and generate ruleflow configurations",
		Long: `ruleflow edits rule-engine configurations: ordered packages of rules
stored per application and runtime. Every edit is an action recorded in an
action log, so changes can be undone, redone and replayed, and the result
compiled to Python source.

Settings come from RULEFLOW_* environment variables; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging on stderr)")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.DB, "db", "", "path to SQLite database (overrides RULEFLOW_DB)")
	flags.StringVar(&opts.ClassName, "class-name", "", "engine class name for new documents (overrides RULEFLOW_CLASS_NAME)")
	flags.IntVar(&opts.MaxVersions, "max-versions", 0, "undo history bound (overrides RULEFLOW_MAX_VERSIONS)")
	flags.BoolVar(&opts.Strict, "strict", false, "panic on unknown actions (overrides RULEFLOW_STRICT)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewUndoCommand(opts))
	cmd.AddCommand(NewRedoCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve validates the format flag, loads the environment configuration,
// applies flag overrides and installs the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid environment configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DB = o.DB
	}
	if flags.Changed("class-name") {
		cfg.ClassName = o.ClassName
	}
	if flags.Changed("max-versions") {
		cfg.MaxVersions = o.MaxVersions
	}
	if flags.Changed("strict") {
		cfg.Strict = o.Strict
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid settings", err)
	}

	o.Config = cfg
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
	return nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
