// Package deadcode finds likely-dead code in JavaScript and TypeScript trees
// by matching source text line by line.
//
// Three kinds of findings are produced: exports whose name is never imported
// anywhere in the tree, declared dependencies that are never referenced, and
// lines that look unreachable or stale. The analysis is heuristic and makes no
// attempt at module resolution.
package deadcode

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"regexp"
	"runtime"

	"github.com/panbanda/deadscan/internal/fileproc"
	"github.com/panbanda/deadscan/pkg/analyzer"
	"github.com/panbanda/deadscan/pkg/source"
)

// Compile-time check that Analyzer implements analyzer.FileAnalyzer.
var _ analyzer.FileAnalyzer[*Accumulator] = (*Analyzer)(nil)

// DefaultExternalNames are export names presumed consumed outside the tree.
var DefaultExternalNames = []string{"Props", "Config", "Options", "Schema", "Type"}

// DefaultSkipList holds fragments of tooling package names never reported unused.
var DefaultSkipList = []string{
	"typescript", "prettier", "eslint", "@types/", "vitest", "jest", "@testing-library",
	"husky", "lint-staged", "tsx", "tsup", "turbo", "postcss", "tailwindcss", "autoprefixer",
}

// DefaultEntryPatterns match files presumed consumed by a runtime or build tool.
var DefaultEntryPatterns = []string{
	`index\.[jt]sx?$`, `main\.[jt]sx?$`, `server\.[jt]sx?$`, `worker\.[jt]sx?$`,
	`app/`, `pages/`, `convex/`,
	`remotion\.config`, `next\.config`, `vite\.config`, `webpack\.config`,
	`tailwind\.config`, `postcss\.config`,
}

// DefaultTestPatterns match test files.
var DefaultTestPatterns = []string{`\.(test|spec)\.[jt]sx?$`}

// Analyzer extracts and correlates dead-code evidence across a file tree.
type Analyzer struct {
	root     string
	rules    PathRules
	external SymbolSet
	skip     []string
	workers  int
	maxSize  int64
	src      source.ContentSource
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithRoot sets the directory file paths are reported relative to.
func WithRoot(root string) Option {
	return func(a *Analyzer) {
		a.root = root
	}
}

// WithEntryPatterns replaces the entry-point path patterns.
func WithEntryPatterns(patterns []*regexp.Regexp) Option {
	return func(a *Analyzer) {
		a.rules.EntryPoints = patterns
	}
}

// WithTestPatterns replaces the test-file path patterns.
func WithTestPatterns(patterns []*regexp.Regexp) Option {
	return func(a *Analyzer) {
		a.rules.Tests = patterns
	}
}

// WithExternalNames replaces the export names presumed consumed externally.
func WithExternalNames(names []string) Option {
	return func(a *Analyzer) {
		a.external = NewSymbolSet(names...)
	}
}

// WithDependencySkipList replaces the dependency skip-list fragments.
func WithDependencySkipList(fragments []string) Option {
	return func(a *Analyzer) {
		a.skip = fragments
	}
}

// WithWorkers sets the number of files read concurrently (0 = 2x NumCPU).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n >= 0 {
			a.workers = n
		}
	}
}

// WithMaxFileSize sets the maximum file size to analyze (0 = no limit).
// Larger files contribute nothing.
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.maxSize = maxSize
	}
}

// WithSource sets where file content is read from.
func WithSource(src source.ContentSource) Option {
	return func(a *Analyzer) {
		a.src = src
	}
}

// New creates a dead-code analyzer with the reference defaults.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		root: ".",
		rules: PathRules{
			EntryPoints: mustCompileAll(DefaultEntryPatterns),
			Tests:       mustCompileAll(DefaultTestPatterns),
		},
		external: NewSymbolSet(DefaultExternalNames...),
		skip:     DefaultSkipList,
		workers:  runtime.NumCPU() * fileproc.DefaultWorkerMultiplier,
		src:      source.NewFilesystem(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func mustCompileAll(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {}

// AnalyzeContent runs every extractor over the text of one file.
// relPath is the slash-separated path relative to the scan root.
func (a *Analyzer) AnalyzeContent(relPath, content string) FileResult {
	file := a.rules.Classify(relPath)
	r := FileResult{
		File:     file,
		Exports:  ExtractExports(content),
		Imports:  ExtractImports(content),
		Packages: ExtractPackages(content),
	}
	if !file.IsTest {
		r.Patterns = FindPatterns(relPath, content)
	}
	return r
}

// AnalyzeFile reads one file from the analyzer's source and extracts from it.
func (a *Analyzer) AnalyzeFile(path string) (FileResult, error) {
	content, err := a.src.Read(path)
	if err != nil {
		return FileResult{}, err
	}
	if a.maxSize > 0 && int64(len(content)) > a.maxSize {
		return FileResult{}, fmt.Errorf("file size %d exceeds limit %d", len(content), a.maxSize)
	}
	return a.AnalyzeContent(a.relPath(path), string(content)), nil
}

func (a *Analyzer) relPath(path string) string {
	rel, err := filepath.Rel(a.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Analyze folds every file the sequence yields into one accumulator.
//
// Files are read on a bounded pool and folded in the order the sequence yielded
// them. Unreadable files contribute nothing and are listed by FileErrors; they
// never fail the scan. A cancelled context returns its error.
func (a *Analyzer) Analyze(ctx context.Context, files iter.Seq[string]) (*Accumulator, error) {
	acc, _, err := a.AnalyzeWithErrors(ctx, files)
	return acc, err
}

// AnalyzeWithErrors is Analyze and also returns the per-file read failures.
func (a *Analyzer) AnalyzeWithErrors(ctx context.Context, files iter.Seq[string]) (*Accumulator, []fileproc.ProcessingError, error) {
	tracker := analyzer.TrackerFromContext(ctx)
	counted := func(yield func(string) bool) {
		for path := range files {
			if tracker != nil {
				tracker.Add(1)
			}
			if !yield(path) {
				return
			}
		}
	}

	analyze := a.AnalyzeFile
	if tracker != nil {
		analyze = func(path string) (FileResult, error) {
			defer tracker.Tick(path)
			return a.AnalyzeFile(path)
		}
	}

	results, errs := fileproc.ForEachSeq(ctx, counted, a.workers, analyze, nil)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	acc := NewAccumulator()
	for _, r := range results {
		Fold(acc, r)
	}

	var failed []fileproc.ProcessingError
	if errs != nil {
		failed = errs.Errors
	}
	return acc, failed, nil
}

// Correlate turns a completed accumulator and the declared dependency names
// into the final report.
func (a *Analyzer) Correlate(acc *Accumulator, declared []string) *Report {
	report := NewReport()
	report.UnusedExports = UnusedExports(acc, a.external)
	report.UnusedDependencies = UnusedDependencies(declared, acc.Packages, a.skip)
	report.UnreachablePatterns = append(report.UnreachablePatterns, acc.Patterns...)
	return report
}
