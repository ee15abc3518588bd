// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config and wires the store, resolver, sharer and repository for subcommands

package main

import (
	"context"
	"fmt"

	"github.com/harper/geolocation/internal/config"
	"github.com/harper/geolocation/internal/dispatch"
	"github.com/harper/geolocation/internal/logging"
	"github.com/harper/geolocation/internal/metrics"
	"github.com/harper/geolocation/internal/repository"
	"github.com/harper/geolocation/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	appConfig  *config.Config
	store      storage.LocationStore
	repo       *repository.LocationRepository
	pool       *dispatch.Pool
	appMetrics *metrics.Metrics
	logger     = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "geolocation",
	Short: "Resolve radio signatures into locations and keep a local log",
	Long: `
  ┌─┐┌─┐┌─┐┬  ┌─┐┌─┐┌─┐┌┬┐┬┌─┐┌┐┌
  │ ┬├┤ │ ││  │ ││  ├─┤ │ ││ ││││
  └─┘└─┘└─┘┴─┘└─┘└─┘┴ ┴ ┴ ┴└─┘┘└┘

  Resolve cell towers, Wi-Fi and Bluetooth observations into positions
  and keep them next to the device's own GPS fix

Examples:
  geolocation locate scan.json --gps-lat 48.19 --gps-lng 16.31 --gps-accuracy 5
  geolocation locate scan.json --gps-device /dev/ttyUSB0
  geolocation list
  geolocation show 3
  geolocation export 3 --format geojson
  geolocation rm --all`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = logging.Default(verbose)

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
			cfg.DataDir = dataDir
		}
		if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
			cfg.Backend = backend
		}

		return openRepository(cfg)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeRepository()
	},
}

// openRepository builds the global repository from cfg.
func openRepository(cfg *config.Config) error {
	appConfig = cfg

	var err error
	store, err = cfg.OpenStorage()
	if err != nil {
		store = nil
		return fmt.Errorf("failed to open %s store: %w", cfg.GetBackend(), err)
	}

	resolver, err := cfg.OpenResolver()
	if err != nil {
		_ = closeRepository()
		return fmt.Errorf("failed to configure provider: %w", err)
	}

	sharer, err := cfg.OpenSharer()
	if err != nil {
		_ = closeRepository()
		return fmt.Errorf("failed to configure sharing: %w", err)
	}

	pool = dispatch.NewPool(cfg.GetWorkers())
	appMetrics = metrics.New()
	repo = repository.New(store, resolver, sharer,
		repository.WithPool(pool),
		repository.WithLogger(logger),
		repository.WithMetrics(appMetrics),
		repository.WithUniqueExportNames(cfg.Share.UniqueNames),
	)

	logger.Debug().
		Str("backend", cfg.GetBackend()).
		Str("data_dir", cfg.GetDataDir()).
		Str("provider", cfg.GetProvider()).
		Int("workers", cfg.GetWorkers()).
		Msg("repository ready")
	return nil
}

// closeRepository drains background work before closing the store.
func closeRepository() error {
	if repo != nil {
		repo.Close()
		repo = nil
	}
	if pool != nil {
		pool.Shutdown()
		pool = nil
	}
	if store != nil {
		err := store.Close()
		store = nil
		return err
	}
	return nil
}

// commandContext returns the command's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (overrides config)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend: sqlite or badger (overrides config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}
