// Package report renders and persists dead-code reports.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/panbanda/deadscan/internal/output"
	"github.com/panbanda/deadscan/pkg/analyzer/deadcode"
)

// View is the human-facing rendering of a scan result.
type View struct {
	Report       *deadcode.Report
	FilesScanned int
}

var _ output.Renderable = (*View)(nil)

// NewView wraps a report for rendering.
func NewView(r *deadcode.Report, filesScanned int) *View {
	if r == nil {
		r = deadcode.NewReport()
	}
	return &View{Report: r, FilesScanned: filesScanned}
}

// RenderData returns the report document, identical to what Write persists.
func (v *View) RenderData() any {
	return v.Report
}

func (v *View) RenderText(w io.Writer, colored bool) error {
	return v.build(colored).RenderText(w, colored)
}

func (v *View) RenderMarkdown(w io.Writer) error {
	return v.build(false).RenderMarkdown(w)
}

// build assembles the sections. Empty categories are left out; the summary is always present.
func (v *View) build(colored bool) *output.Report {
	r := v.Report
	doc := &output.Report{Title: "Dead Code Report"}

	if len(r.UnusedExports) > 0 {
		section := output.Section{Title: fmt.Sprintf("Unused Exports (%d)", len(r.UnusedExports))}
		for _, group := range r.ExportsByFile() {
			lines := make([]string, len(group.Exports))
			for i, exp := range group.Exports {
				lines[i] = fmt.Sprintf("  L%d: %s", exp.Line, exp.Symbol)
			}
			section.Sections = append(section.Sections, output.Section{
				Title:   group.File,
				Content: strings.Join(lines, "\n"),
			})
		}
		doc.Sections = append(doc.Sections, &section)
	}

	if len(r.UnusedDependencies) > 0 {
		lines := make([]string, len(r.UnusedDependencies))
		for i, dep := range r.UnusedDependencies {
			lines[i] = "  - " + dep
		}
		doc.Sections = append(doc.Sections, &output.Section{
			Title:   fmt.Sprintf("Potentially Unused Dependencies (%d)", len(r.UnusedDependencies)),
			Content: strings.Join(lines, "\n"),
		})
	}

	if len(r.UnreachablePatterns) > 0 {
		rows := make([][]string, len(r.UnreachablePatterns))
		for i, p := range r.UnreachablePatterns {
			rows[i] = []string{fmt.Sprintf("%s:%d", p.File, p.Line), p.Pattern.String(), p.Description}
		}
		doc.Sections = append(doc.Sections, output.NewTable(
			fmt.Sprintf("Unreachable/Suspicious Patterns (%d)", len(r.UnreachablePatterns)),
			[]string{"Location", "Pattern", "Description"},
			rows, nil, nil,
		))
	}

	doc.Sections = append(doc.Sections, &output.Section{
		Title:   "Summary",
		Content: v.summary(colored),
	})
	return doc
}

func (v *View) summary(colored bool) string {
	r := v.Report
	count := func(n int) string {
		s := fmt.Sprintf("%d", n)
		if colored {
			return output.CountColor(n, s)
		}
		return s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  Files scanned:       %d\n", v.FilesScanned)
	fmt.Fprintf(&b, "  Unused exports:      %s\n", count(len(r.UnusedExports)))
	fmt.Fprintf(&b, "  Unused dependencies: %s\n", count(len(r.UnusedDependencies)))
	fmt.Fprintf(&b, "  Suspicious patterns: %s\n", count(len(r.UnreachablePatterns)))
	fmt.Fprintf(&b, "  Total issues:        %s", count(r.TotalIssues()))
	return b.String()
}

// WriteError reports a report document that could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Write persists the full report as JSON at path, creating parent directories.
func Write(path string, r *deadcode.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
