// Package scanner discovers candidate source files under a scan root.
package scanner

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/deadscan/pkg/config"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config     *config.Config
	dirs       map[string]struct{}
	extensions map[string]struct{}
}

// matcher applies gitignore patterns to paths relative to base.
type matcher struct {
	base string
	m    gitignore.Matcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{
		config:     cfg,
		dirs:       make(map[string]struct{}, len(cfg.Exclude.Dirs)),
		extensions: make(map[string]struct{}, len(cfg.Scan.Extensions)),
	}
	for _, d := range cfg.Exclude.Dirs {
		s.dirs[d] = struct{}{}
	}
	for _, ext := range cfg.Scan.Extensions {
		s.extensions[ext] = struct{}{}
	}
	return s
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadMatchers builds the exclusion matchers for a scan rooted at absRoot.
// Config patterns are gitignore syntax relative to the scan root; .gitignore
// files are read from the enclosing repository when enabled.
func (s *Scanner) loadMatchers(absRoot string) []matcher {
	var matchers []matcher

	if len(s.config.Exclude.Patterns) > 0 {
		patterns := make([]gitignore.Pattern, 0, len(s.config.Exclude.Patterns))
		for _, pattern := range s.config.Exclude.Patterns {
			patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
		}
		matchers = append(matchers, matcher{base: absRoot, m: gitignore.NewMatcher(patterns)})
	}

	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(absRoot); gitRoot != "" {
			if gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil); err == nil && len(gitPatterns) > 0 {
				matchers = append(matchers, matcher{base: gitRoot, m: gitignore.NewMatcher(gitPatterns)})
			}
		}
	}

	return matchers
}

func isExcluded(matchers []matcher, absPath string, isDir bool) bool {
	for _, m := range matchers {
		rel, err := filepath.Rel(m.base, absPath)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if m.m.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir) {
			return true
		}
	}
	return false
}

// IsIgnoredDir reports whether a directory name is pruned from traversal:
// an exact ignore-list match, a reserved prefix, or a reserved suffix.
func (s *Scanner) IsIgnoredDir(name string) bool {
	if _, ok := s.dirs[name]; ok {
		return true
	}
	for _, p := range s.config.Exclude.DirPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, suf := range s.config.Exclude.DirSuffixes {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}

// IsSourceFile reports whether a file name has a source extension and is not
// a generated type declaration file.
func (s *Scanner) IsSourceFile(name string) bool {
	if suffix := s.config.Scan.DeclarationSuffix; suffix != "" && strings.HasSuffix(name, suffix) {
		return false
	}
	_, ok := s.extensions[filepath.Ext(name)]
	return ok
}

// Files returns a lazy sequence of source files under root.
//
// Directories that cannot be read are skipped and traversal continues.
// Symlinks resolving outside the root are not followed. Paths are yielded in
// lexical walk order, joined onto root as given.
func (s *Scanner) Files(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		absRoot, err := resolveRoot(root)
		if err != nil {
			return
		}
		matchers := s.loadMatchers(absRoot)

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable directories and entries contribute nothing.
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if path == root {
				return nil
			}

			absPath := filepath.Join(absRoot, mustRel(root, path))

			// Security: validate path stays within root (prevent symlink traversal)
			if d.Type()&fs.ModeSymlink != 0 {
				resolved, err := filepath.EvalSymlinks(path)
				if err != nil || !isWithinRoot(resolved, absRoot) {
					return nil
				}
				info, err := os.Stat(resolved)
				if err != nil || info.IsDir() {
					// Linked directories are not descended into.
					return nil
				}
			}

			if d.IsDir() {
				if s.IsIgnoredDir(d.Name()) || isExcluded(matchers, absPath, true) {
					return filepath.SkipDir
				}
				return nil
			}

			if !s.IsSourceFile(d.Name()) || isExcluded(matchers, absPath, false) {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// ScanDir collects every file Files yields. Unlike Files it reports a root
// that does not exist or is not a directory.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	if err := CheckRoot(root); err != nil {
		return nil, err
	}
	files := make([]string, 0, 256)
	for f := range s.Files(root) {
		files = append(files, f)
	}
	return files, nil
}

// CheckRoot verifies that root is an existing directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}
	return nil
}

func resolveRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	// Resolve any symlinks in the root path
	return filepath.EvalSymlinks(absRoot)
}

func mustRel(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return strings.HasPrefix(absPath, root+string(filepath.Separator)) || absPath == root
}
