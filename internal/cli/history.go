package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherbuild/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Name  string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved builds",
		Long: `List builds recorded with "build --save", newest first.

Examples:
  cypherbuild history
  cypherbuild history --name movies-by-year --limit 5
  cypherbuild history --db ./builds.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "build store path (default from config)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "only builds with this definition name")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of builds (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("--limit must not be negative, got %d", opts.Limit), nil)
	}

	dbPath := opts.DB
	if dbPath == "" {
		dbPath = opts.config().Store
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("build store not found: %s", dbPath), nil)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	defer s.Close()

	builds, err := s.List(cmd.Context(), opts.Name, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
	}
	formatter.VerboseLog("Read %d build(s) from %s", len(builds), dbPath)

	if formatter.Format == "json" {
		return formatter.Success(builds)
	}

	w := formatter.Writer
	if len(builds) == 0 {
		fmt.Fprintln(w, "No builds found.")
		return nil
	}
	for _, b := range builds {
		fmt.Fprintf(w, "#%d %s %s\n", b.Seq, b.Name, shortFingerprint(b.Fingerprint))
		fmt.Fprintf(w, "  id: %s\n", b.ID)
		if opts.Verbose {
			fmt.Fprintf(w, "  %s\n", strings.ReplaceAll(b.Cypher, "\n", "\n  "))
		}
	}
	return nil
}

// ensureDir creates the parent directory of a file path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
