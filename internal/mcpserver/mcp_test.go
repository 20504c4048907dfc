package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/deadscan/internal/output"
	"github.com/panbanda/deadscan/internal/testutil"
	"github.com/panbanda/deadscan/pkg/config"
)

func sampleTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.CreateFileTree(t, dir, map[string]string{
		"package.json": `{"dependencies": {"lodash": "^4.0.0", "react": "^18.0.0"}}`,
		"src/index.ts": "import { used } from './lib'\nimport _ from 'lodash'\n",
		"src/lib.ts":   "export const used = 1\nexport function orphan() {}\nif (false) {}\n",
	})
	return dir
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestNewServer(t *testing.T) {
	s := NewServer("1.2.3")
	require.NotNil(t, s)
	assert.NotNil(t, s.server)
	assert.NotNil(t, s.config)

	cfg := config.DefaultConfig()
	s = NewServer("", WithConfig(cfg))
	assert.Same(t, cfg, s.config)
}

func TestDescribeFindDeadCode(t *testing.T) {
	desc := describeFindDeadCode()
	assert.Contains(t, desc, "USE WHEN:")
	assert.Contains(t, desc, "INTERPRETING RESULTS:")
	assert.Contains(t, desc, "unusedDependencies")
	assert.Contains(t, desc, "stale-todo")
}

func TestGetFormat(t *testing.T) {
	assert.Equal(t, output.FormatTOON, getFormat(""))
	assert.Equal(t, output.FormatTOON, getFormat("toon"))
	assert.Equal(t, output.FormatJSON, getFormat("json"))
	assert.Equal(t, output.FormatMarkdown, getFormat("markdown"))
	assert.Equal(t, output.FormatMarkdown, getFormat("md"))
	assert.Equal(t, output.FormatTOON, getFormat("xml"))
}

func TestGetPath(t *testing.T) {
	assert.Equal(t, ".", getPath(FindDeadCodeInput{}))
	assert.Equal(t, "/src", getPath(FindDeadCodeInput{Path: "/src"}))
}

func TestToolError(t *testing.T) {
	result, extra, err := toolError("boom")
	require.NoError(t, err)
	assert.Nil(t, extra)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: boom", textOf(t, result))
}

func TestHandleFindDeadCodeJSON(t *testing.T) {
	dir := sampleTree(t)
	s := NewServer("test")

	result, _, err := s.handleFindDeadCode(context.Background(), nil, FindDeadCodeInput{Path: dir, Format: "json"})
	require.NoError(t, err)
	require.False(t, result.IsError, textOf(t, result))

	var got struct {
		FilesScanned int `json:"filesScanned"`
		TotalIssues  int `json:"totalIssues"`
		Report       struct {
			UnusedExports []struct {
				File   string `json:"file"`
				Symbol string `json:"symbol"`
			} `json:"unusedExports"`
			UnusedDependencies  []string         `json:"unusedDependencies"`
			UnreachablePatterns []map[string]any `json:"unreachablePatterns"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &got))

	assert.Equal(t, 2, got.FilesScanned)
	require.Len(t, got.Report.UnusedExports, 1)
	assert.Equal(t, "src/lib.ts", got.Report.UnusedExports[0].File)
	assert.Equal(t, "orphan", got.Report.UnusedExports[0].Symbol)
	assert.Equal(t, []string{"react"}, got.Report.UnusedDependencies)
	assert.Len(t, got.Report.UnreachablePatterns, 1)
	assert.Equal(t, 3, got.TotalIssues)
}

func TestHandleFindDeadCodeDoesNotPersistByDefault(t *testing.T) {
	dir := sampleTree(t)
	s := NewServer("test")

	result, _, err := s.handleFindDeadCode(context.Background(), nil, FindDeadCodeInput{Path: dir})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.NoFileExists(t, filepath.Join(dir, "dead-code-report.json"))

	result, _, err = s.handleFindDeadCode(context.Background(), nil, FindDeadCodeInput{Path: dir, Persist: true})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.FileExists(t, filepath.Join(dir, "dead-code-report.json"))
}

func TestHandleFindDeadCodeFormats(t *testing.T) {
	dir := sampleTree(t)
	s := NewServer("test")

	t.Run("toon", func(t *testing.T) {
		result, _, err := s.handleFindDeadCode(context.Background(), nil, FindDeadCodeInput{Path: dir})
		require.NoError(t, err)
		text := textOf(t, result)
		assert.Contains(t, text, "filesScanned")
		assert.Contains(t, text, "orphan")
	})

	t.Run("markdown", func(t *testing.T) {
		result, _, err := s.handleFindDeadCode(context.Background(), nil, FindDeadCodeInput{Path: dir, Format: "markdown"})
		require.NoError(t, err)
		text := textOf(t, result)
		assert.Contains(t, text, "# Dead Code Report")
		assert.Contains(t, text, "orphan")
		assert.Contains(t, text, "react")
	})
}

func TestHandleFindDeadCodeInvalidPath(t *testing.T) {
	s := NewServer("test")
	missing := filepath.Join(t.TempDir(), "missing")

	result, _, err := s.handleFindDeadCode(context.Background(), nil, FindDeadCodeInput{Path: missing})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "Error:")
}

func TestHandleFindDeadCodeInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"dependencies": []}`), 0644))
	s := NewServer("test")

	result, _, err := s.handleFindDeadCode(context.Background(), nil, FindDeadCodeInput{Path: dir})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestParseFrontmatter(t *testing.T) {
	t.Run("with frontmatter", func(t *testing.T) {
		desc, body := parseFrontmatter([]byte("---\ndescription: Clean up\n---\n\nDo the thing.\n"))
		assert.Equal(t, "Clean up", desc)
		assert.Equal(t, "Do the thing.\n", body)
	})

	t.Run("without frontmatter", func(t *testing.T) {
		desc, body := parseFrontmatter([]byte("Plain body"))
		assert.Empty(t, desc)
		assert.Equal(t, "Plain body", body)
	})

	t.Run("unterminated frontmatter", func(t *testing.T) {
		content := "---\ndescription: x\nbody"
		desc, body := parseFrontmatter([]byte(content))
		assert.Empty(t, desc)
		assert.Equal(t, content, body)
	})
}

func TestLoadPrompts(t *testing.T) {
	docs := loadPrompts()
	require.NotEmpty(t, docs)

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.Name)
		assert.NotEmpty(t, doc.Description, doc.Name)
		assert.NotEmpty(t, doc.Body, doc.Name)
		assert.NotContains(t, doc.Body, "description:", doc.Name)
	}
	assert.Contains(t, names, "cleanup-dead-code")
	assert.Contains(t, names, "audit-dependencies")
}

func TestPromptHandler(t *testing.T) {
	handler := makePromptHandler("desc", "body text")
	result, err := handler(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "desc", result.Description)
	require.Len(t, result.Messages, 1)
	text, ok := result.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "body text", text.Text)
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("v1.4.0")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "io.github.panbanda/deadscan", m.Name)
	assert.Equal(t, "1.4.0", m.Version)
	require.Len(t, m.Packages, 1)
	assert.Equal(t, "ghcr.io/panbanda/deadscan:1.4.0", m.Packages[0].Identifier)
	assert.Equal(t, "stdio", m.Packages[0].Transport.Type)

	data, err = GenerateManifest("dev")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "0.0.0", m.Version)
}
