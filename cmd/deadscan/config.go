package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/panbanda/deadscan/pkg/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	validateCmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Validate a configuration file",
		Long: `Validates a deadscan configuration file for syntax errors and invalid values.

Examples:
  deadscan config validate                      # Validates default config locations
  deadscan config validate -c deadscan.toml     # Validates specific file
  deadscan config validate ./web                # Searches ./web and ./web/.deadscan`,
		Args: cobra.MaximumNArgs(1),
		RunE: runConfigValidate,
	}

	showCmd := &cobra.Command{
		Use:   "show [dir]",
		Short: "Show the effective configuration",
		Long: `Shows the merged configuration from defaults and config file.

Examples:
  deadscan config show                    # Show effective config as TOML
  deadscan config show --format yaml      # Show it as YAML
  deadscan config show -c deadscan.toml   # Show config from specific file`,
		Args: cobra.MaximumNArgs(1),
		RunE: runConfigShow,
	}
	showCmd.Flags().StringP("format", "f", "toml", "Output format: toml or yaml")

	cmd.AddCommand(validateCmd)
	cmd.AddCommand(showCmd)
	return cmd
}

func loadConfigResult(args []string) (*config.LoadResult, error) {
	opts := []config.LoadOption{config.WithDir(getPath(args))}
	if cfgFile != "" {
		opts = append(opts, config.WithPath(cfgFile))
	}
	return config.LoadConfig(opts...)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	result, err := loadConfigResult(args)
	if err != nil {
		color.New(color.FgRed).Fprintln(out, "Configuration validation failed:")
		fmt.Fprintf(out, "  - %s\n", err)
		return err
	}

	if result.Source != "" {
		color.New(color.FgGreen).Fprintf(out, "Configuration valid: %s\n", result.Source)
	} else {
		color.New(color.FgYellow).Fprintln(out, "No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	result, err := loadConfigResult(args)
	if err != nil {
		return err
	}

	if result.Source != "" {
		fmt.Fprintf(out, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(out, "# Default configuration (no config file found)")
	}

	format, _ := cmd.Flags().GetString("format")
	var content []byte
	switch format {
	case "toml":
		content, err = toml.Marshal(result.Config)
	case "yaml", "yml":
		content, err = yaml.Marshal(result.Config)
	default:
		return fmt.Errorf("unknown config format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(out, string(content))

	return nil
}
