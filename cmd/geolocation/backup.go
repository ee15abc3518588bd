// ABOUTME: Backup command for exporting locations to YAML
// ABOUTME: Creates portable backup files for moving records between stores

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harper/geolocation/internal/storage"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a YAML backup of all locations",
	Long: `Create a YAML backup file containing every stored location with its
resolved position, GPS position, capture time and request.

The backup file can be used to:
- Move records between machines
- Switch between the sqlite and badger backends
- Restore after data loss

Examples:
  geolocation backup --output locations.yaml
  geolocation backup -o ~/backups/locations-$(date +%Y%m%d).yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		data, err := storage.ExportToYAML(store)
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}

		if output == "" {
			// Default filename with timestamp
			output = fmt.Sprintf("locations-%s.yaml", time.Now().Format("20060102-150405"))
		}

		if err := os.WriteFile(output, data, 0600); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}

		records, _ := store.GetAll()

		color.Green("Backup created: %s", output)
		fmt.Fprintf(cmd.OutOrStdout(), "  %d locations\n", len(records))

		return nil
	},
}

func init() {
	backupCmd.Flags().StringP("output", "o", "", "output file (default: locations-YYYYMMDD-HHMMSS.yaml)")

	rootCmd.AddCommand(backupCmd)
}
