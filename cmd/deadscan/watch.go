package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/panbanda/deadscan/pkg/watch"
)

func newWatchCmd() *cobra.Command {
	flags := &scanFlags{}
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-scan whenever source files change",
		Long: `Runs a scan, then watches the tree and runs a full scan again after
source files or the root package.json change. Changes are batched until the
tree has been quiet for the debounce period.

Reports go to stdout (or --output); status lines go to stderr.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, flags, debounce)
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a rescan")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string, flags *scanFlags, debounce time.Duration) error {
	root := getPath(args)
	cfg, err := loadConfig(cmd, root, flags)
	if err != nil {
		return err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	logger, closer := configureLogger(cfg.Log, logFile, verbose, cmd.ErrOrStderr())
	defer closer.Close()

	rescan := func(ctx context.Context) {
		result, err := scan(ctx, cfg, logger, root, cmd.ErrOrStderr())
		if err != nil {
			if ctx.Err() == nil {
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			return
		}
		if err := render(cmd, cfg, flags.output, result); err != nil {
			color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	opts := []watch.Option{
		watch.WithDebounce(debounce),
		watch.WithOutput(cmd.ErrOrStderr()),
		watch.WithIgnoredFile(cfg.ReportPath(absRoot)),
	}
	if flags.output != "" {
		opts = append(opts, watch.WithIgnoredFile(flags.output))
	}

	w, err := watch.NewWatcher(root, cfg, func(ctx context.Context, changed []string) {
		rescan(ctx)
	}, opts...)
	if err != nil {
		return err
	}
	defer w.Stop()

	rescan(cmd.Context())

	if err := w.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
