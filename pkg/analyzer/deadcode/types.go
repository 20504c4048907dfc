package deadcode

import (
	"sort"
)

// PatternKind classifies a suspicious-code finding.
type PatternKind string

const (
	PatternAlwaysFalse   PatternKind = "always-false-condition"
	PatternInfiniteLoop  PatternKind = "infinite-loop"
	PatternCommentedCode PatternKind = "commented-code"
	PatternStaleTODO     PatternKind = "stale-todo"
)

// String returns the string representation.
func (p PatternKind) String() string {
	return string(p)
}

// Export is one exported symbol recognized in a file.
// Symbol names are not unique within a file or across the tree.
type Export struct {
	Symbol string `json:"symbol" toon:"symbol"`
	Line   int    `json:"line" toon:"line"`
}

// UnusedExport is an export whose name is not imported anywhere in the tree.
type UnusedExport struct {
	File   string `json:"file" toon:"file"`
	Symbol string `json:"symbol" toon:"symbol"`
	Line   int    `json:"line" toon:"line"`
}

// PatternFinding is a line that looks unreachable or stale.
type PatternFinding struct {
	File        string      `json:"file" toon:"file"`
	Line        int         `json:"line" toon:"line"`
	Pattern     PatternKind `json:"pattern" toon:"pattern"`
	Description string      `json:"description" toon:"description"`
}

// FileExports groups the unused exports of one file.
type FileExports struct {
	File    string   `json:"file" toon:"file"`
	Exports []Export `json:"exports" toon:"exports"`
}

// Report is the full, unfiltered result of one scan.
// UnusedDependencies is in lexical order, not manifest declaration order.
type Report struct {
	UnusedExports       []UnusedExport   `json:"unusedExports" toon:"unusedExports"`
	UnusedDependencies  []string         `json:"unusedDependencies" toon:"unusedDependencies"`
	UnreachablePatterns []PatternFinding `json:"unreachablePatterns" toon:"unreachablePatterns"`
}

// NewReport creates a report with empty (non-nil) slices so it serializes as arrays.
func NewReport() *Report {
	return &Report{
		UnusedExports:       []UnusedExport{},
		UnusedDependencies:  []string{},
		UnreachablePatterns: []PatternFinding{},
	}
}

// TotalIssues returns the number of findings across all three categories.
func (r *Report) TotalIssues() int {
	return len(r.UnusedExports) + len(r.UnusedDependencies) + len(r.UnreachablePatterns)
}

// ExportsByFile groups unused exports by file, keeping the order in which files first appear.
func (r *Report) ExportsByFile() []FileExports {
	var groups []FileExports
	index := make(map[string]int)
	for _, ue := range r.UnusedExports {
		i, ok := index[ue.File]
		if !ok {
			i = len(groups)
			index[ue.File] = i
			groups = append(groups, FileExports{File: ue.File})
		}
		groups[i].Exports = append(groups[i].Exports, Export{Symbol: ue.Symbol, Line: ue.Line})
	}
	return groups
}

// SymbolSet is a set of names. The zero value is not usable; use NewSymbolSet.
type SymbolSet map[string]struct{}

// NewSymbolSet creates a set holding the given names.
func NewSymbolSet(names ...string) SymbolSet {
	s := make(SymbolSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts a name.
func (s SymbolSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether the name is present.
func (s SymbolSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union adds every member of other.
func (s SymbolSet) Union(other SymbolSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Sorted returns the members in lexical order.
func (s SymbolSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
