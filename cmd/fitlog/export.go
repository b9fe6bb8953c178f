// ABOUTME: CLI command for exporting on-device data.
// ABOUTME: Supports JSON and YAML.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export on-device data",
	Long: `Export every record stored on this device.

FORMATS:

  json   Full JSON export (suitable for backup)
  yaml   YAML export, progress grouped by metric type

EXAMPLES:

  fitlog export json                  # Print JSON
  fitlog export json -o backup.json   # Save to file
  fitlog export yaml`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error

		switch args[0] {
		case "json":
			data, err = localDB.ExportJSON(cmd.Context())
		case "yaml":
			data, err = localDB.ExportYAML(cmd.Context())
		default:
			return fmt.Errorf("unknown format: %s (use json or yaml)", args[0])
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
			return nil
		}

		fmt.Println(string(data))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}
