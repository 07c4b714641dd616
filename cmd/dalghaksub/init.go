package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skybow044/dalghaksub/internal/config"
)

//go:embed templates/dalghaksub.yaml
var configTemplate embed.FS

// templatePath is the configuration template inside configTemplate.
const templatePath = "templates/dalghaksub.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new dalghaksub configuration file",
		Long: `Initialize creates a new .dalghaksub configuration file in the current directory.

The generated file lists every setting with its default value:
- Channel, message count and output files
- Flag annotation and the geolocation backend
- Proxy, Tor and request pacing

Examples:
  # Create .dalghaksub in current directory
  dalghaksub init

  # Create config file at a specific path
  dalghaksub init -o myconfig.yaml

  # Force overwrite existing file
  dalghaksub init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may hold proxy credentials.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to change settings such as:")
	fmt.Fprintln(out, "  - The channel and the number of messages to collect")
	fmt.Fprintln(out, "  - Flag annotation and the geolocation backend")
	fmt.Fprintln(out, "  - A SOCKS5 proxy or the embedded Tor daemon")

	return nil
}
