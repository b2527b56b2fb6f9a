package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherbuild/cypher"
	"github.com/roach88/cypherbuild/internal/canon"
	"github.com/roach88/cypherbuild/internal/querydef"
	"github.com/roach88/cypherbuild/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Prefix string
	Save   bool
	DB     string
	Output string
}

// BuildOutput is the JSON payload of a successful build.
type BuildOutput struct {
	Name        string         `json:"name"`
	Cypher      string         `json:"cypher"`
	Params      map[string]any `json:"params"`
	ParamKeys   []string       `json:"param_keys"`
	Fingerprint string         `json:"fingerprint"`
	BuildID     string         `json:"build_id,omitempty"`
	Saved       bool           `json:"saved"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Build Cypher text from a query definition",
		Long: `Build Cypher text and its parameter table from a YAML or CUE
query definition.

The prefix is taken from --prefix, then the definition, then the config.
With --save the build is recorded in the build store; saving the same
text and parameters twice keeps the first record.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "prefix for auto-assigned names")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "record the build in the build store")
	cmd.Flags().StringVar(&opts.DB, "db", "", "build store path (default from config)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the Cypher text to a file")

	return cmd
}

func runBuild(opts *BuildOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger(cmd.ErrOrStderr())
	cfg := opts.config()

	def, result, err := buildFile(path, opts.Prefix, cfg.Prefix, logger)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		return formatter.Fail(ExitFailure, errorCode(err, ErrCodeBuildFailed), err.Error(), nil)
	}

	fingerprint, err := result.Fingerprint()
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeBuildFailed, err.Error(), nil)
	}
	out := BuildOutput{
		Name:        def.Name,
		Cypher:      result.Cypher,
		Params:      result.Params,
		ParamKeys:   result.ParamKeys(),
		Fingerprint: fingerprint,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(result.Cypher+"\n"), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if opts.Save {
		dbPath := opts.DB
		if dbPath == "" {
			dbPath = cfg.Store
		}
		saved, created, err := saveBuild(cmd, dbPath, def.Name, result)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
		}
		out.BuildID = saved.ID
		out.Saved = created
		formatter.VerboseLog("Stored build %s in %s (new: %t)", saved.ID, dbPath, created)
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	return outputBuildText(formatter, out)
}

// buildFile loads and builds one definition. flagPrefix wins over the
// definition's own prefix, which wins over configPrefix.
func buildFile(path, flagPrefix, configPrefix string, logger *slog.Logger) (*querydef.Definition, *cypher.Result, error) {
	def, err := querydef.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	buildOpts := []cypher.BuildOption{cypher.WithLogger(logger)}
	switch {
	case flagPrefix != "":
		buildOpts = append(buildOpts, cypher.WithPrefix(flagPrefix))
	case def.Prefix == "" && configPrefix != "":
		buildOpts = append(buildOpts, cypher.WithPrefix(configPrefix))
	}

	result, err := querydef.Build(def, buildOpts...)
	if err != nil {
		return def, nil, err
	}
	return def, result, nil
}

func saveBuild(cmd *cobra.Command, dbPath, name string, result *cypher.Result) (store.Build, bool, error) {
	if err := ensureDir(dbPath); err != nil {
		return store.Build{}, false, err
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return store.Build{}, false, err
	}
	defer s.Close()
	return s.SaveBuild(cmd.Context(), name, result)
}

func outputBuildText(formatter *OutputFormatter, out BuildOutput) error {
	w := formatter.Writer
	fmt.Fprintln(w, out.Cypher)

	params, err := canon.Marshal(out.Params)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeBuildFailed, err.Error(), nil)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "params: %s\n", params)
	if len(out.ParamKeys) > 0 {
		fmt.Fprintf(w, "order:  %s\n", strings.Join(out.ParamKeys, ", "))
	}
	fmt.Fprintf(w, "fingerprint: %s\n", out.Fingerprint)
	if out.BuildID != "" {
		state := "existing"
		if out.Saved {
			state = "new"
		}
		fmt.Fprintf(w, "%s saved as %s (%s)\n", passMark, out.BuildID, state)
	}
	return nil
}
