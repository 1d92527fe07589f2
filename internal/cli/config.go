package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shapecloud/pkg/config"
)

// configCommand creates the config file command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configPathCommand())

	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented config file with the default options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				def, err := config.DefaultPath()
				if err != nil {
					return fmt.Errorf("get config path: %w", err)
				}
				path = def
			}
			if path == "-" {
				return config.WriteDefault(cmd.OutOrStdout())
			}
			written, err := writeDefaultConfig(path, force)
			if err != nil {
				return err
			}
			if !written {
				printWarning("Config file already exists (use --force to overwrite)")
				printFile(path)
				return nil
			}
			printSuccess("Wrote config file")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "", `config file to write ("-" for stdout)`)
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the default config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultPath()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			status := "missing"
			if _, err := os.Stat(path); err == nil {
				status = "present"
			}
			printKeyValue("config", path)
			printKeyValue("status", status)
			return nil
		},
	}
}

// writeDefaultConfig writes the default config to path. It reports false
// without writing when the file exists and force is unset.
func writeDefaultConfig(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	var buf bytes.Buffer
	if err := config.WriteDefault(&buf); err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
