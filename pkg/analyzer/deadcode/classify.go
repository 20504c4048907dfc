package deadcode

import (
	"regexp"
	"strings"
)

// LineClass is a bitmask of the shapes a single line of source text can take.
// A line may carry several bits at once.
type LineClass uint8

const (
	// ClassExport marks a line that starts an export declaration.
	ClassExport LineClass = 1 << iota
	// ClassImport marks a line that may open an import statement.
	ClassImport
	// ClassPackageRef marks a line that may reference a package specifier.
	ClassPackageRef
	// ClassPattern marks a line that matches a suspicious-code pattern.
	ClassPattern
)

// ClassNone is a line with no recognized shape.
const ClassNone LineClass = 0

// Has reports whether every bit of other is set.
func (c LineClass) Has(other LineClass) bool {
	return c&other == other && other != 0
}

// String lists the set bits, in declaration order.
func (c LineClass) String() string {
	if c == ClassNone {
		return "none"
	}
	var parts []string
	for _, named := range []struct {
		bit  LineClass
		name string
	}{
		{ClassExport, "export"},
		{ClassImport, "import"},
		{ClassPackageRef, "package-ref"},
		{ClassPattern, "pattern"},
	} {
		if c&named.bit != 0 {
			parts = append(parts, named.name)
		}
	}
	return strings.Join(parts, "|")
}

// Export shapes. Anchored at the physical start of line: indented exports are not matched.
var (
	namedExportRe   = regexp.MustCompile(`^export\s+(?:const|let|var|function|class|type|interface|enum)\s+(\w+)`)
	exportListRe    = regexp.MustCompile(`^export\s*\{([^}]+)\}`)
	defaultExportRe = regexp.MustCompile(`^export\s+default\s`)
	asClauseRe      = regexp.MustCompile(`\s+as\s+`)
)

// Import shapes. Matched against whole file text, so braces and whitespace may span lines.
var (
	namedImportRe     = regexp.MustCompile(`import\s*\{([^}]+)\}\s*from\s*['"]([^'"]+)['"]`)
	defaultImportRe   = regexp.MustCompile(`import\s+(\w+)\s+from\s*['"]([^'"]+)['"]`)
	namespaceImportRe = regexp.MustCompile(`import\s*\*\s*as\s+(\w+)\s+from\s*['"]([^'"]+)['"]`)
)

// packageRefRe matches a bare package specifier: the first character excludes '.' and '/'.
var packageRefRe = regexp.MustCompile(`(?:import|from|require)\s*\(?['"]([^'"./][^'"]*)['"]\)?`)

// Suspicious-code shapes, applied to trimmed lines.
var (
	alwaysFalseRe   = regexp.MustCompile(`if\s*\(\s*false\s*\)`)
	infiniteLoopRe  = regexp.MustCompile(`while\s*\(\s*true\s*\)`)
	commentedCodeRe = regexp.MustCompile(`^//\s*(?:const|let|var|function|class|if|for|while)\s`)
	staleTODORe     = regexp.MustCompile(`(?i)//\s*(TODO|FIXME|HACK).*202[0-4]`)
)

// ClassifyLine reports the shapes a single physical line can take.
//
// The export bit is exact. The import and package-reference bits are conservative
// keyword checks: a statement spanning several lines always has its keyword on the
// first of them, so a file with no such line cannot produce an import match.
// The pattern bit is evaluated on the trimmed line.
func ClassifyLine(line string) LineClass {
	var c LineClass
	if isExportLine(line) {
		c |= ClassExport
	}
	if strings.Contains(line, "import") {
		c |= ClassImport | ClassPackageRef
	}
	if strings.Contains(line, "from") || strings.Contains(line, "require") {
		c |= ClassPackageRef
	}
	if matchPattern(strings.TrimSpace(line)) {
		c |= ClassPattern
	}
	return c
}

func isExportLine(line string) bool {
	if !strings.HasPrefix(line, "export") {
		return false
	}
	return namedExportRe.MatchString(line) || exportListRe.MatchString(line) || defaultExportRe.MatchString(line)
}

func matchPattern(trimmed string) bool {
	return alwaysFalseRe.MatchString(trimmed) ||
		infiniteLoopRe.MatchString(trimmed) ||
		commentedCodeRe.MatchString(trimmed) ||
		staleTODORe.MatchString(trimmed)
}
