package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cypherbuild/internal/watch"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Prefix   string
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Rebuild definitions when they change",
		Long: `Build each definition once, then rebuild it whenever the file is
saved. Build failures are reported and watching continues. Stop with
Ctrl-C.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "prefix for auto-assigned names")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 0, "quiet period before rebuilding (default from config)")

	return cmd
}

func runWatch(ctx context.Context, opts *WatchOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger(cmd.ErrOrStderr())
	cfg := opts.config()

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = cfg.WatchDebounce
	}

	rebuild := func(path string) error {
		def, result, err := buildFile(path, opts.Prefix, cfg.Prefix, logger)
		if err != nil {
			_ = formatter.Error(errorCode(err, ErrCodeBuildFailed), fmt.Sprintf("%s: %v", path, err), nil)
			return err
		}
		fingerprint, err := result.Fingerprint()
		if err != nil {
			return err
		}
		out := BuildOutput{
			Name:        def.Name,
			Cypher:      result.Cypher,
			Params:      result.Params,
			ParamKeys:   result.ParamKeys(),
			Fingerprint: fingerprint,
		}
		if formatter.Format == "json" {
			return formatter.Success(out)
		}
		fmt.Fprintf(formatter.Writer, "%s %s\n", passMark, path)
		return outputBuildText(formatter, out)
	}

	w, err := watch.New(files, debounce, rebuild, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}

	for _, f := range files {
		// Initial failures are already reported; keep watching so the
		// user can fix the file.
		_ = rebuild(f)
	}
	formatter.VerboseLog("Watching %d file(s), debounce %s", len(files), debounce)

	return w.Run(ctx)
}
