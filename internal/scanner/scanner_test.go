package scanner

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/deadscan/internal/testutil"
	"github.com/panbanda/deadscan/pkg/config"
)

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	slices.Sort(out)
	return out
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	require.NotNil(t, s)
	assert.NotNil(t, s.config)

	cfg := config.DefaultConfig()
	s = NewScanner(cfg)
	assert.Same(t, cfg, s.config)
}

func TestScanDir(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"src/a.ts":                  "",
		"src/b.tsx":                 "",
		"src/c.js":                  "",
		"src/d.jsx":                 "",
		"src/e.mjs":                 "",
		"src/f.cjs":                 "",
		"src/types.d.ts":            "",
		"src/readme.md":             "",
		"src/style.css":             "",
		"node_modules/pkg/index.js": "",
		"dist/out.js":               "",
		".venv-tools/x.js":          "",
		"venvfoo/x.js":              "",
		"py-venv/x.js":              "",
		"storybook-static/x.js":     "",
		"lib/nested/deep.ts":        "",
	})

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"lib/nested/deep.ts",
		"src/a.ts",
		"src/b.tsx",
		"src/c.js",
		"src/d.jsx",
		"src/e.mjs",
		"src/f.cjs",
	}, relPaths(t, root, files))
}

func TestScanDir_InvalidRoot(t *testing.T) {
	s := NewScanner(nil)

	_, err := s.ScanDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "a.ts")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = s.ScanDir(file)
	assert.ErrorContains(t, err, "not a directory")
}

func TestFiles_IsLazy(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"a.ts": "", "b.ts": "", "c.ts": "",
	})

	var got []string
	for f := range NewScanner(nil).Files(root) {
		got = append(got, f)
		break
	}
	assert.Len(t, got, 1)
}

func TestFiles_MissingRootYieldsNothing(t *testing.T) {
	count := 0
	for range NewScanner(nil).Files(filepath.Join(t.TempDir(), "missing")) {
		count++
	}
	assert.Zero(t, count)
}

func TestFiles_UnreadableDirectorySkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"ok/a.ts":     "",
		"locked/b.ts": "",
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok/a.ts"}, relPaths(t, root, files))
}

func TestFiles_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{
		"src/a.ts":           "",
		"src/a.generated.ts": "",
		"fixtures/b.ts":      "",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = []string{"*.generated.ts", "fixtures/"}

	files, err := NewScanner(cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, relPaths(t, root, files))
}

func TestFiles_Gitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
	testutil.CreateFileTree(t, root, map[string]string{
		".gitignore":          "generated/\n",
		"src/a.ts":            "",
		"generated/schema.ts": "",
	})

	cfg := config.DefaultConfig()
	files, err := NewScanner(cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"generated/schema.ts", "src/a.ts"}, relPaths(t, root, files))

	cfg.Exclude.Gitignore = true
	files, err = NewScanner(cfg).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, relPaths(t, root, files))
}

func TestFiles_SymlinkOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	testutil.CreateFileTree(t, root, map[string]string{"src/a.ts": ""})
	testutil.CreateFileTree(t, outside, map[string]string{"secret.ts": ""})

	if err := os.Symlink(filepath.Join(outside, "secret.ts"), filepath.Join(root, "src", "link.ts")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files, err := NewScanner(nil).ScanDir(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, relPaths(t, root, files))
}

func TestIsIgnoredDir(t *testing.T) {
	s := NewScanner(nil)
	for _, name := range []string{"node_modules", ".git", ".venv", ".venv311", "venv2", "venv-old", "my-venv", "public"} {
		assert.True(t, s.IsIgnoredDir(name), name)
	}
	for _, name := range []string{"src", "lib", "node_modules2", "my-venvs"} {
		assert.False(t, s.IsIgnoredDir(name), name)
	}
}

func TestIsSourceFile(t *testing.T) {
	s := NewScanner(nil)
	assert.True(t, s.IsSourceFile("a.ts"))
	assert.True(t, s.IsSourceFile("a.cjs"))
	assert.False(t, s.IsSourceFile("a.d.ts"))
	assert.False(t, s.IsSourceFile("a.go"))
	assert.False(t, s.IsSourceFile("Makefile"))
}

func TestIsWithinRoot(t *testing.T) {
	assert.True(t, isWithinRoot("/root/a/b", "/root"))
	assert.True(t, isWithinRoot("/root", "/root"))
	assert.False(t, isWithinRoot("/root2/a", "/root"))
	assert.False(t, isWithinRoot("/other", "/root"))
}
