package deadcode

import (
	"fmt"
	"strings"
)

// splitLines splits text on '\n' only, so line N of the result is physical line N+1.
func splitLines(content string) []string {
	return strings.Split(content, "\n")
}

// ExtractExports returns the exported symbols of a file in line order.
//
// Matching is per physical line and the three shapes are evaluated independently.
// Export lists spanning several lines are not recognized.
func ExtractExports(content string) []Export {
	var exports []Export
	for i, line := range splitLines(content) {
		if !ClassifyLine(line).Has(ClassExport) {
			continue
		}
		lineNum := i + 1

		if m := namedExportRe.FindStringSubmatch(line); m != nil {
			exports = append(exports, Export{Symbol: m[1], Line: lineNum})
		}

		if m := exportListRe.FindStringSubmatch(line); m != nil {
			for _, entry := range strings.Split(m[1], ",") {
				if strings.Contains(entry, "*") {
					continue
				}
				// The exported name is the one after "as".
				parts := asClauseRe.Split(strings.TrimSpace(entry), -1)
				symbol := strings.TrimSpace(parts[len(parts)-1])
				if symbol == "" {
					continue
				}
				exports = append(exports, Export{Symbol: symbol, Line: lineNum})
			}
		}

		if defaultExportRe.MatchString(line) {
			exports = append(exports, Export{Symbol: "default", Line: lineNum})
		}
	}
	return exports
}

// ExtractImports returns the names bound by import statements anywhere in the text.
//
// For the brace form the name before "as" is recorded, which is the source module's
// name and not the local binding. Exports record the name after "as", so a renamed
// re-export and its renamed import do not pair up.
func ExtractImports(content string) SymbolSet {
	imports := NewSymbolSet()
	if !strings.Contains(content, "import") {
		return imports
	}

	for _, m := range namedImportRe.FindAllStringSubmatch(content, -1) {
		for _, entry := range strings.Split(m[1], ",") {
			parts := asClauseRe.Split(strings.TrimSpace(entry), -1)
			if name := strings.TrimSpace(parts[0]); name != "" {
				imports.Add(name)
			}
		}
	}

	for _, m := range defaultImportRe.FindAllStringSubmatch(content, -1) {
		imports.Add(m[1])
	}

	for _, m := range namespaceImportRe.FindAllStringSubmatch(content, -1) {
		imports.Add(m[1])
	}

	return imports
}

// ExtractPackages returns the external packages referenced by import, from or require.
// Relative and absolute specifiers are ignored; "@scope/name/sub" becomes "@scope/name"
// and "name/sub" becomes "name".
func ExtractPackages(content string) SymbolSet {
	packages := NewSymbolSet()
	for _, m := range packageRefRe.FindAllStringSubmatch(content, -1) {
		packages.Add(PackageRoot(m[1]))
	}
	return packages
}

// PackageRoot reduces a package specifier to the name declared in a manifest.
func PackageRoot(specifier string) string {
	parts := strings.Split(specifier, "/")
	if strings.HasPrefix(specifier, "@") && len(parts) > 1 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// FindPatterns returns the suspicious-code findings of one file.
// A single line can produce several findings.
func FindPatterns(path, content string) []PatternFinding {
	var patterns []PatternFinding
	for i, line := range splitLines(content) {
		trimmed := strings.TrimSpace(line)
		if !ClassifyLine(trimmed).Has(ClassPattern) {
			continue
		}
		lineNum := i + 1

		if alwaysFalseRe.MatchString(trimmed) {
			patterns = append(patterns, PatternFinding{
				File:        path,
				Line:        lineNum,
				Pattern:     PatternAlwaysFalse,
				Description: "if (false) - code block never executes",
			})
		}

		// No attempt is made to find a break in the loop body.
		if infiniteLoopRe.MatchString(trimmed) {
			patterns = append(patterns, PatternFinding{
				File:        path,
				Line:        lineNum,
				Pattern:     PatternInfiniteLoop,
				Description: "while (true) - potential infinite loop",
			})
		}

		if commentedCodeRe.MatchString(trimmed) {
			patterns = append(patterns, PatternFinding{
				File:        path,
				Line:        lineNum,
				Pattern:     PatternCommentedCode,
				Description: "Commented out code - consider removing",
			})
		}

		if m := staleTODORe.FindStringSubmatch(trimmed); m != nil {
			patterns = append(patterns, PatternFinding{
				File:        path,
				Line:        lineNum,
				Pattern:     PatternStaleTODO,
				Description: fmt.Sprintf("Stale %s from 2020-2024", m[1]),
			})
		}
	}
	return patterns
}
