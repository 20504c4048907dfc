package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/panbanda/deadscan/internal/mcpserver"
	"github.com/panbanda/deadscan/pkg/config"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Long: `Starts an MCP server over stdio transport that exposes the dead-code scan
as a tool LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "deadscan": {
        "command": "deadscan",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - find_dead_code    Unused exports, unused dependencies and suspicious patterns

Configuration is loaded from --config or the current directory at startup.
Logs go to stderr or --log-file, never to stdout.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}

	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the MCP registry server.json",
		Args:  cobra.NoArgs,
		RunE:  runMCPManifest,
	}
	manifestCmd.Flags().StringP("output", "o", "", "Write the manifest to file")

	cmd.AddCommand(manifestCmd)
	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	var opts []config.LoadOption
	if cfgFile != "" {
		opts = append(opts, config.WithPath(cfgFile))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return err
	}

	logger, closer := configureLogger(result.Config.Log, logFile, verbose, cmd.ErrOrStderr())
	defer closer.Close()

	server := mcpserver.NewServer(version,
		mcpserver.WithConfig(result.Config),
		mcpserver.WithLogger(logger),
	)
	return server.Run(cmd.Context())
}

func runMCPManifest(cmd *cobra.Command, args []string) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
