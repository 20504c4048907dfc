package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/panbanda/deadscan/internal/output"
	"github.com/panbanda/deadscan/internal/progress"
	"github.com/panbanda/deadscan/internal/report"
	"github.com/panbanda/deadscan/internal/service/analysis"
	"github.com/panbanda/deadscan/pkg/config"
)

var (
	cfgFile      string
	verbose      bool
	logFile      string
	pprofPrefix  string
	pprofCPUFile *os.File
)

// scanFlags are the flags shared by every command that runs a scan.
type scanFlags struct {
	format   string
	output   string
	report   string
	noReport bool
	noColor  bool
	workers  int
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text, json, markdown, toon")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write output to file")
	cmd.Flags().StringVar(&f.report, "report", "", "Path of the persisted JSON report")
	cmd.Flags().BoolVar(&f.noReport, "no-report", false, "Do not write the JSON report")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Number of parallel file readers (0 means 2x CPUs)")
}

// apply overrides config values with the flags set on cmd.
func (f *scanFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = f.format
	}
	if flags.Changed("workers") {
		cfg.Scan.Workers = f.workers
	}
	if flags.Changed("report") {
		path, err := filepath.Abs(f.report)
		if err != nil {
			return err
		}
		cfg.Report.Path = path
		cfg.Report.Enabled = true
	}
	if f.noReport {
		cfg.Report.Enabled = false
	}
	if f.noColor {
		cfg.Output.Color = false
	}
	return nil
}

func newRootCmd() *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "deadscan [path]",
		Short: "Find dead code in JavaScript and TypeScript projects",
		Long: `deadscan scans a JavaScript/TypeScript tree and reports three kinds of
likely-dead code:

  - exports that no file imports
  - package.json dependencies that no file references
  - suspicious patterns: if (false), while (true), commented-out code
    and TODO/FIXME/HACK notes mentioning 2020-2024

Matching is textual, so every finding is a hint to verify and not a proof.
A JSON report is written to <path>/dead-code-report.json unless --no-report is set.

Exit status is 0 when nothing was found, 1 when issues were found and 2 on errors.`,
		Version:            version,
		Args:               cobra.MaximumNArgs(1),
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  startProfile,
		PersistentPostRunE: stopProfile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (TOML, YAML, or JSON)")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a rotated file instead of stderr")
	cmd.PersistentFlags().StringVar(&pprofPrefix, "pprof", "", "Enable pprof profiling (creates <prefix>.cpu.pprof and <prefix>.mem.pprof)")
	flags.register(cmd)

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newMCPCmd())
	return cmd
}

// getPath returns the scan root from args, defaulting to ".".
func getPath(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// loadConfig loads the config for a scan of root and applies flag overrides.
// Without --config the scan root is searched for a config file.
func loadConfig(cmd *cobra.Command, root string, flags *scanFlags) (*config.Config, error) {
	opts := []config.LoadOption{config.WithDir(root)}
	if cfgFile != "" {
		opts = append(opts, config.WithPath(cfgFile))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}

	cfg := result.Config
	if flags != nil {
		if err := flags.apply(cmd, cfg); err != nil {
			return nil, err
		}
	}
	if !slices.Contains(output.Formats, output.Format(cfg.Output.Format)) {
		return nil, fmt.Errorf("unknown output format %q", cfg.Output.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, args []string, flags *scanFlags) error {
	root := getPath(args)
	cfg, err := loadConfig(cmd, root, flags)
	if err != nil {
		return err
	}

	logger, closer := configureLogger(cfg.Log, logFile, verbose, cmd.ErrOrStderr())
	defer closer.Close()

	result, err := scan(cmd.Context(), cfg, logger, root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := render(cmd, cfg, flags.output, result); err != nil {
		return err
	}

	if n := result.Report.TotalIssues(); n > 0 {
		return &IssuesFoundError{Count: n}
	}
	return nil
}

// scan runs one scan with a spinner on progressOut.
func scan(ctx context.Context, cfg *config.Config, logger *slog.Logger, root string, progressOut io.Writer) (*analysis.Result, error) {
	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(logger))

	bar := progress.NewSpinnerTo(progressOut, "Scanning...")
	result, err := svc.Scan(ctx, root, analysis.ScanOptions{OnProgress: bar.Callback()})
	if err != nil {
		bar.Abort()
		return nil, err
	}
	bar.FinishSuccess()
	return result, nil
}

// render writes the human or machine report to stdout or outputFile.
func render(cmd *cobra.Command, cfg *config.Config, outputFile string, result *analysis.Result) error {
	format := output.Format(cfg.Output.Format)
	colored := cfg.Output.Color
	if !colored {
		color.NoColor = true
	}

	var formatter *output.Formatter
	if outputFile != "" {
		f, err := output.NewFormatter(format, outputFile, colored)
		if err != nil {
			return err
		}
		defer f.Close()
		formatter = f
	} else {
		formatter = output.NewWriterFormatter(format, cmd.OutOrStdout(), colored)
	}

	if err := formatter.Output(report.NewView(result.Report, result.FilesScanned)); err != nil {
		return err
	}

	if result.ReportPath != "" {
		color.New(color.Faint).Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", result.ReportPath)
	}
	return nil
}

func startProfile(cmd *cobra.Command, args []string) error {
	if pprofPrefix == "" {
		return nil
	}
	f, err := os.Create(pprofPrefix + ".cpu.pprof")
	if err != nil {
		return fmt.Errorf("failed to create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to start CPU profile: %w", err)
	}
	pprofCPUFile = f
	return nil
}

func stopProfile(cmd *cobra.Command, args []string) error {
	return finishProfile(cmd.ErrOrStderr())
}

// finishProfile stops a running CPU profile and writes the heap profile.
// It is a no-op when no profile is running, so it is safe to call twice.
func finishProfile(w io.Writer) error {
	if pprofCPUFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	pprofCPUFile.Close()
	pprofCPUFile = nil
	color.New(color.FgGreen).Fprintf(w, "CPU profile written to %s.cpu.pprof\n", pprofPrefix)

	memFile, err := os.Create(pprofPrefix + ".mem.pprof")
	if err != nil {
		return fmt.Errorf("failed to create memory profile: %w", err)
	}
	defer memFile.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	color.New(color.FgGreen).Fprintf(w, "Memory profile written to %s.mem.pprof\n", pprofPrefix)
	return nil
}
