// Package cli implements the cypherbuild command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherbuild/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Config is set by the root command before a subcommand runs. Commands
	// constructed directly fall back to defaults.
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cypherbuild CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "cypherbuild",
		Short: "cypherbuild - Cypher query construction",
		Long: `Build parameterized Cypher queries from YAML or CUE definitions.

Variables and parameters are named automatically and numbered
deterministically, so the same definition always yields the same text.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default .cypherbuild.yaml)")

	// Add subcommands
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// load reads the config and lets explicitly set flags override it.
func (o *RootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{ConfigFile: o.ConfigFile})
	if err != nil {
		return reportError(cmd, WrapExitError(ExitCommandError, "failed to load config", err))
	}
	o.Config = cfg

	if !cmd.Flags().Changed("format") {
		o.Format = cfg.Format
	}
	if !cmd.Flags().Changed("verbose") {
		o.Verbose = cfg.Verbose
	}

	if !isValidFormat(o.Format) {
		return reportError(cmd, NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats)))
	}
	return nil
}

// config returns the loaded config, or defaults when the root command did
// not run.
func (o *RootOptions) config() *config.Config {
	if o.Config != nil {
		return o.Config
	}
	return &config.Config{
		Format:        "text",
		Store:         config.DefaultStore,
		WatchDebounce: config.DefaultWatchDebounce,
	}
}

// logger returns a debug logger on w in verbose mode and a discarding
// logger otherwise.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	if !o.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
