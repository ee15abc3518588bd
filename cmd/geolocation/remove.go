// ABOUTME: Location remove command
// ABOUTME: Deletes one stored location or, with --all, every stored location

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove [id]",
	Aliases: []string{"rm"},
	Short:   "Remove one location or all locations",
	Long: `Remove a stored location by id, or every stored location with --all.

Removing an id that does not exist is not an error.

Examples:
  geolocation rm 3
  geolocation rm --all --confirm`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			return fmt.Errorf("give either a location id or --all")
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		ctx := commandContext(cmd)

		if all {
			if !confirm && !askYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), "Remove all stored locations? [y/N] ") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			if err := repo.DeleteAllLocations(ctx); err != nil {
				return fmt.Errorf("failed to remove locations: %w", err)
			}
			color.Green("✓ Removed all locations")
			return nil
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if !confirm && !askYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove location #%d? [y/N] ", id)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err := repo.DeleteLocation(ctx, id); err != nil {
			return fmt.Errorf("failed to remove location: %w", err)
		}
		color.Green("✓ Removed location #%d", id)
		return nil
	},
}

// askYesNo prints prompt and reports whether the answer was y or yes.
func askYesNo(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func init() {
	removeCmd.Flags().Bool("all", false, "remove every stored location")
	removeCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(removeCmd)
}
