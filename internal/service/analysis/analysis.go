// Package analysis orchestrates a dead-code scan: discovery, extraction,
// correlation against the manifest and report persistence.
package analysis

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/panbanda/deadscan/internal/fileproc"
	"github.com/panbanda/deadscan/internal/manifest"
	"github.com/panbanda/deadscan/internal/report"
	"github.com/panbanda/deadscan/internal/scanner"
	"github.com/panbanda/deadscan/pkg/analyzer"
	"github.com/panbanda/deadscan/pkg/analyzer/deadcode"
	"github.com/panbanda/deadscan/pkg/config"
)

// Service runs dead-code scans.
type Service struct {
	config *config.Config
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithLogger sets the logger for scan diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration scans run with.
func (s *Service) Config() *config.Config {
	return s.config
}

// ScanOptions configures one scan.
type ScanOptions struct {
	// SkipReport suppresses persisting the report document even when enabled in config.
	SkipReport bool
	// OnProgress is called after each file is analyzed.
	OnProgress analyzer.ProgressFunc
}

// Result is the outcome of one scan.
type Result struct {
	Root         string
	FilesScanned int
	Report       *deadcode.Report
	// ManifestPath is empty when no manifest was found.
	ManifestPath string
	// ReportPath is empty when the report was not persisted.
	ReportPath string
	FileErrors []fileproc.ProcessingError
}

// Scan analyzes the tree under root.
//
// Structural failures abort the scan before anything is persisted: an invalid
// root, a bad path pattern, or a manifest that exists but does not parse.
// Unreadable files and directories are skipped and listed in the result.
// A cancelled context returns its error and persists nothing.
func (s *Service) Scan(ctx context.Context, root string, opts ScanOptions) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &PathError{Path: root, Err: err}
	}
	if err := scanner.CheckRoot(absRoot); err != nil {
		return nil, &PathError{Path: root, Err: err}
	}

	dc, err := s.newAnalyzer(absRoot)
	if err != nil {
		return nil, err
	}
	defer dc.Close()

	m, err := manifest.Load(s.config.ManifestPath(absRoot))
	if err != nil {
		return nil, err
	}

	if opts.OnProgress != nil {
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(opts.OnProgress))
	}

	s.logger.Debug("scan started", "root", absRoot, "workers", s.config.Scan.Workers)
	files := scanner.NewScanner(s.config).Files(absRoot)
	acc, failed, err := dc.AnalyzeWithErrors(ctx, files)
	if err != nil {
		return nil, err
	}
	for _, fe := range failed {
		s.logger.Debug("file skipped", "path", fe.Path, "error", fe.Err)
	}

	result := &Result{
		Root:         absRoot,
		FilesScanned: acc.Scanned,
		Report:       dc.Correlate(acc, m.Names()),
		FileErrors:   failed,
	}
	if m != nil {
		result.ManifestPath = m.Path
	} else {
		s.logger.Debug("no manifest found, dependency check skipped", "root", absRoot)
	}

	if s.config.Report.Enabled && !opts.SkipReport {
		path := s.config.ReportPath(absRoot)
		if err := report.Write(path, result.Report); err != nil {
			return nil, err
		}
		result.ReportPath = path
	}

	s.logger.Info("scan finished",
		"root", absRoot,
		"files", result.FilesScanned,
		"skipped", len(failed),
		"issues", result.Report.TotalIssues(),
	)
	return result, nil
}

func (s *Service) newAnalyzer(absRoot string) (*deadcode.Analyzer, error) {
	entry, err := config.CompilePatterns(s.config.Exports.EntryPatterns)
	if err != nil {
		return nil, &PatternError{Field: "exports.entry_patterns", Err: err}
	}
	tests, err := config.CompilePatterns(s.config.Exports.TestPatterns)
	if err != nil {
		return nil, &PatternError{Field: "exports.test_patterns", Err: err}
	}

	return deadcode.New(
		deadcode.WithRoot(absRoot),
		deadcode.WithEntryPatterns(entry),
		deadcode.WithTestPatterns(tests),
		deadcode.WithExternalNames(s.config.Exports.ExternalNames),
		deadcode.WithDependencySkipList(s.config.Dependencies.Skip),
		deadcode.WithWorkers(s.config.Scan.Workers),
		deadcode.WithMaxFileSize(s.config.Scan.MaxFileSize),
	), nil
}

// PathError indicates an invalid scan root.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// PatternError indicates a path pattern in the configuration that does not compile.
type PatternError struct {
	Field string
	Err   error
}

func (e *PatternError) Error() string {
	return "invalid pattern in " + e.Field + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
