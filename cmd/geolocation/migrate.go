// ABOUTME: Migration command for copying location data between storage backends
// ABOUTME: Supports sqlite-to-badger and badger-to-sqlite with a non-empty target check

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/harper/geolocation/internal/config"
	"github.com/harper/geolocation/internal/storage"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate data between storage backends",
	Long: `Copy all location records from the current backend into another backend.

Records keep their order; the target assigns new ids. The config file is
NOT updated; verify the migration then set "backend" in config.json.

Examples:
  geolocation migrate --to badger
  geolocation migrate --to sqlite --target-dir ~/geolocation-sqlite
  geolocation migrate --to badger --force`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	target, _ := cmd.Flags().GetString("to")
	targetDir, _ := cmd.Flags().GetString("target-dir")
	force, _ := cmd.Flags().GetBool("force")

	if target != "sqlite" && target != "badger" {
		return fmt.Errorf("invalid target backend %q: must be \"sqlite\" or \"badger\"", target)
	}

	source := appConfig.GetBackend()
	sourceDir := appConfig.GetDataDir()
	if targetDir == "" {
		targetDir = sourceDir
	} else {
		targetDir = config.ExpandPath(targetDir)
	}
	if target == source && filepath.Clean(targetDir) == filepath.Clean(sourceDir) {
		return fmt.Errorf("target backend %q is the current backend in the same directory", target)
	}

	// Only the backend's own location is checked, so sqlite and badger may share a data dir.
	targetPath := filepath.Join(targetDir, "badger")
	if target == "sqlite" {
		targetPath = filepath.Join(targetDir, "locations.db")
	}
	nonEmpty, err := targetExists(targetPath)
	if err != nil {
		return fmt.Errorf("check target: %w", err)
	}
	if nonEmpty && !force {
		return fmt.Errorf("target %q already has data; use --force to write into it", targetPath)
	}

	dst, err := config.OpenBackend(target, targetDir)
	if err != nil {
		return fmt.Errorf("open target storage (%s): %w", target, err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("closing target storage")
		}
	}()

	out := cmd.OutOrStdout()
	color.Yellow("Migrating location data:")
	fmt.Fprintf(out, "  Source:  %s (%s)\n", source, sourceDir)
	fmt.Fprintf(out, "  Target:  %s (%s)\n", target, targetDir)

	summary, err := storage.MigrateData(store, dst)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	color.Green("Migration complete!")
	fmt.Fprintf(out, "  Locations: %d\n", summary.Locations)
	color.Yellow("Note: config.json was NOT updated. To switch to the new backend, edit:")
	fmt.Fprintf(out, "  %s\n", config.GetConfigPath())
	fmt.Fprintf(out, "  Set \"backend\": %q and \"data_dir\": %q\n", target, targetDir)
	return nil
}

// targetExists reports whether a sqlite file or a non-empty badger dir is at path.
func targetExists(path string) (bool, error) {
	if filepath.Ext(path) != ".db" {
		return storage.IsDirNonEmpty(path)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func init() {
	migrateCmd.Flags().String("to", "", "target backend (sqlite or badger)")
	migrateCmd.Flags().String("target-dir", "", "target data directory (defaults to the current data dir)")
	migrateCmd.Flags().Bool("force", false, "allow writing into a target that already has data")
	_ = migrateCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(migrateCmd)
}
