package mcpserver

import (
	"bytes"
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/deadscan/internal/output"
	"github.com/panbanda/deadscan/internal/report"
	"github.com/panbanda/deadscan/internal/service/analysis"
	"github.com/panbanda/deadscan/pkg/analyzer/deadcode"
)

// FindDeadCodeInput is the input of the find_dead_code tool.
type FindDeadCodeInput struct {
	Path    string `json:"path,omitempty" jsonschema:"Scan root. Defaults to the current directory."`
	Format  string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
	Persist bool   `json:"persist,omitempty" jsonschema:"Also write the JSON report under the scan root when enabled in config."`
}

// findDeadCodeResult is the payload returned to the client.
type findDeadCodeResult struct {
	Root         string           `json:"root" toon:"root"`
	FilesScanned int              `json:"filesScanned" toon:"filesScanned"`
	TotalIssues  int              `json:"totalIssues" toon:"totalIssues"`
	Report       *deadcode.Report `json:"report" toon:"report"`
}

func getPath(input FindDeadCodeInput) string {
	if input.Path == "" {
		return "."
	}
	return input.Path
}

func getFormat(format string) output.Format {
	switch format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

// formatOutput renders the scan result. Markdown uses the report view.
func formatOutput(res findDeadCodeResult, format output.Format) (string, error) {
	var buf bytes.Buffer
	switch format {
	case output.FormatJSON:
		if err := output.WriteJSON(&buf, res); err != nil {
			return "", err
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	case output.FormatMarkdown:
		if err := report.NewView(res.Report, res.FilesScanned).RenderMarkdown(&buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return output.MarshalTOON(res)
	}
}

func toolResult(res findDeadCodeResult, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(res, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleFindDeadCode(ctx context.Context, req *mcp.CallToolRequest, input FindDeadCodeInput) (*mcp.CallToolResult, any, error) {
	svc := analysis.New(analysis.WithConfig(s.config), analysis.WithLogger(s.logger))

	result, err := svc.Scan(ctx, getPath(input), analysis.ScanOptions{SkipReport: !input.Persist})
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(findDeadCodeResult{
		Root:         result.Root,
		FilesScanned: result.FilesScanned,
		TotalIssues:  result.Report.TotalIssues(),
		Report:       result.Report,
	}, getFormat(input.Format))
}
