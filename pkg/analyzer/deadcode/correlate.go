package deadcode

import (
	"regexp"
	"sort"
	"strings"
)

// SourceFile is a scanned file identified by its slash-separated path relative to the scan root.
type SourceFile struct {
	Path         string
	IsEntryPoint bool
	IsTest       bool
}

// PathRules classifies files by path alone.
type PathRules struct {
	EntryPoints []*regexp.Regexp
	Tests       []*regexp.Regexp
}

// Classify derives the entry-point and test flags for a relative path.
func (r PathRules) Classify(relPath string) SourceFile {
	return SourceFile{
		Path:         relPath,
		IsEntryPoint: matchAny(r.EntryPoints, relPath),
		IsTest:       matchAny(r.Tests, relPath),
	}
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// FileResult is everything extracted from one file.
type FileResult struct {
	File     SourceFile
	Exports  []Export
	Imports  SymbolSet
	Packages SymbolSet
	Patterns []PatternFinding
}

// Accumulator is the state folded over all file results of a scan.
type Accumulator struct {
	// Exports of files eligible for the unused-export search, keyed by path.
	Exports map[string][]Export
	// Order of the keys of Exports, in fold order.
	Files []string
	// Imported is every name bound by any import statement in the tree.
	Imported SymbolSet
	// Packages is every package root referenced in the tree.
	Packages SymbolSet
	// Patterns are suspicious-code findings from non-test files, in fold order.
	Patterns []PatternFinding
	// Scanned counts the file results folded in.
	Scanned int
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		Exports:  make(map[string][]Export),
		Imported: NewSymbolSet(),
		Packages: NewSymbolSet(),
	}
}

// Fold merges one file result into acc and returns it.
// Set membership does not depend on fold order; export groups and patterns keep it.
func Fold(acc *Accumulator, r FileResult) *Accumulator {
	acc.Scanned++

	if !r.File.IsEntryPoint && !r.File.IsTest && len(r.Exports) > 0 {
		if _, seen := acc.Exports[r.File.Path]; !seen {
			acc.Files = append(acc.Files, r.File.Path)
		}
		acc.Exports[r.File.Path] = append(acc.Exports[r.File.Path], r.Exports...)
	}

	acc.Imported.Union(r.Imports)
	acc.Packages.Union(r.Packages)

	if !r.File.IsTest {
		acc.Patterns = append(acc.Patterns, r.Patterns...)
	}
	return acc
}

// UnusedExports reports every export whose name is never imported.
// Names in external are presumed consumed outside the tree, as is "default".
func UnusedExports(acc *Accumulator, external SymbolSet) []UnusedExport {
	unused := []UnusedExport{}
	for _, file := range acc.Files {
		for _, exp := range acc.Exports[file] {
			if acc.Imported.Has(exp.Symbol) {
				continue
			}
			if exp.Symbol == "default" || external.Has(exp.Symbol) {
				continue
			}
			unused = append(unused, UnusedExport{File: file, Symbol: exp.Symbol, Line: exp.Line})
		}
	}
	return unused
}

// UnusedDependencies reports declared dependencies that no file references.
// A name containing any skip fragment is never reported. Output is sorted.
func UnusedDependencies(declared []string, packages SymbolSet, skip []string) []string {
	unused := []string{}
	for _, dep := range declared {
		if containsAny(dep, skip) {
			continue
		}
		if !packages.Has(dep) {
			unused = append(unused, dep)
		}
	}
	sort.Strings(unused)
	return unused
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
