// ABOUTME: Import command for restoring locations from a YAML backup
// ABOUTME: Supports importing backup files created by the backup command

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harper/geolocation/internal/storage"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import locations from a YAML backup",
	Long: `Import locations from a YAML backup file.

This restores data from a backup created with 'geolocation backup'.
Imported records receive new ids.

WARNING: This will add to existing data, not replace it.
Use 'geolocation rm --all' first if you want a clean import.

Examples:
  geolocation import locations.yaml
  geolocation import ~/backups/locations-20241214.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm && !askYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Import data from '%s'? [y/N] ", filename)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
			return nil
		}

		n, err := storage.ImportFromYAML(store, data)
		if err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}

		records, _ := store.GetAll()

		color.Green("Import complete")
		fmt.Fprintf(cmd.OutOrStdout(), "  %d imported, %d locations in database\n", n, len(records))

		return nil
	},
}

func init() {
	importCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(importCmd)
}
