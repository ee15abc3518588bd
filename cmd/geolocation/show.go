// ABOUTME: Location show command
// ABOUTME: Prints one stored location record in detail

package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/harper/geolocation/internal/ui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one stored location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		rec, err := repo.GetLocation(commandContext(cmd), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		fmt.Fprintln(out, ui.FormatRecordDetail(rec))
		return nil
	},
}

// parseID parses a positive record id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid location id %q", s)
	}
	return id, nil
}

func init() {
	showCmd.Flags().Bool("json", false, "print the record as JSON")

	rootCmd.AddCommand(showCmd)
}
