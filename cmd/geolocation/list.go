// ABOUTME: Location list command
// ABOUTME: Lists every stored location record, oldest first

package main

import (
	"encoding/json"
	"fmt"

	"github.com/harper/geolocation/internal/ui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := repo.ListLocations(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("failed to list locations: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		if len(records) == 0 {
			fmt.Fprintln(out, "No locations stored yet. Use 'geolocation locate' to add one.")
			return nil
		}

		for _, rec := range records {
			fmt.Fprintln(out, ui.FormatRecord(rec))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "print records as JSON")

	rootCmd.AddCommand(listCmd)
}
