// ABOUTME: Geolocation configuration management with backend and provider selection
// ABOUTME: Handles settings file, defaults, and factories for store, resolver, and sharer

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/geolocation/internal/mls"
	"github.com/harper/geolocation/internal/share"
	"github.com/harper/geolocation/internal/storage"
)

// APIKeyEnv overrides the configured API key when set.
const APIKeyEnv = "GEOLOCATION_API_KEY"

// Config stores geolocation configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "badger".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage.
	// SQLite puts locations.db here, Badger uses a badger/ subdirectory.
	// Supports ~ expansion. Defaults to ~/.local/share/geolocation.
	DataDir string `json:"data_dir,omitempty"`

	// CacheDir receives exported text files. Defaults to ~/.cache/geolocation.
	CacheDir string `json:"cache_dir,omitempty"`

	// Provider selects the resolution service: "mls" (default) or "google".
	Provider string `json:"provider,omitempty"`

	// Endpoint overrides the provider URL.
	Endpoint string `json:"endpoint,omitempty"`

	// APIKey is sent with every resolution request.
	APIKey string `json:"api_key,omitempty"`

	// Timeout bounds one resolution call, as a Go duration string.
	Timeout string `json:"timeout,omitempty"`

	// Workers is the size of the background pool.
	Workers int `json:"workers,omitempty"`

	Share ShareConfig `json:"share"`
}

// ShareConfig selects where exported text goes.
type ShareConfig struct {
	// Backend is "cache" (default) or "s3".
	Backend string `json:"backend,omitempty"`

	// UniqueNames writes each export to its own file.
	UniqueNames bool `json:"unique_names,omitempty"`

	// Authority names the content:// authority for cache handles.
	Authority string `json:"authority,omitempty"`

	S3 S3Config `json:"s3"`
}

// S3Config holds object storage settings for the s3 share backend.
type S3Config struct {
	Endpoint  string `json:"endpoint,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Region    string `json:"region,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	UseSSL    bool   `json:"use_ssl,omitempty"`
	Expiry    string `json:"expiry,omitempty"`
}

// defaultDBFilename is the SQLite database filename inside DataDir.
const defaultDBFilename = "locations.db"

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return "sqlite"
	}
	return c.Backend
}

// GetProvider returns the configured provider, defaulting to "mls".
func (c *Config) GetProvider() string {
	if c.Provider == "" {
		return "mls"
	}
	return c.Provider
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetCacheDir returns the export directory with ~ expanded,
// defaulting to the standard XDG cache directory.
func (c *Config) GetCacheDir() string {
	if c.CacheDir == "" {
		return xdgDir("XDG_CACHE_HOME", ".cache")
	}
	return ExpandPath(c.CacheDir)
}

// GetAPIKey returns the API key, preferring the environment.
func (c *Config) GetAPIKey() string {
	if key := os.Getenv(APIKeyEnv); key != "" {
		return key
	}
	return c.APIKey
}

// GetTimeout parses Timeout, defaulting to mls.DefaultTimeout.
func (c *Config) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return mls.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", c.Timeout)
	}
	return d, nil
}

// GetWorkers returns the pool size, defaulting to 1.
func (c *Config) GetWorkers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// defaultDataDir returns the default XDG data directory for geolocation.
func defaultDataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, "geolocation")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a LocationStore based on the configured backend.
func (c *Config) OpenStorage() (storage.LocationStore, error) {
	return OpenBackend(c.GetBackend(), c.GetDataDir())
}

// OpenBackend opens the named storage backend rooted at dataDir.
func OpenBackend(backend, dataDir string) (storage.LocationStore, error) {
	switch backend {
	case "sqlite":
		return storage.NewSQLiteDB(filepath.Join(dataDir, defaultDBFilename))
	case "badger":
		return storage.NewBadgerStore(filepath.Join(dataDir, "badger"))
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// OpenResolver creates the resolution client for the configured provider.
func (c *Config) OpenResolver() (mls.Resolver, error) {
	timeout, err := c.GetTimeout()
	if err != nil {
		return nil, err
	}

	switch c.GetProvider() {
	case "mls":
		return mls.NewClient(c.Endpoint, c.GetAPIKey(), mls.WithTimeout(timeout)), nil
	case "google":
		if c.GetAPIKey() == "" {
			return nil, fmt.Errorf("google provider requires an API key")
		}
		return mls.NewGoogleResolver(c.GetAPIKey(), c.Endpoint, timeout)
	default:
		return nil, fmt.Errorf("unknown provider: %q", c.Provider)
	}
}

// OpenSharer creates the export target for the configured share backend.
func (c *Config) OpenSharer() (share.Sharer, error) {
	switch c.Share.Backend {
	case "", "cache":
		return share.NewCacheSharer(c.GetCacheDir(), c.Share.Authority), nil
	case "s3":
		s3 := c.Share.S3
		var expiry time.Duration
		if s3.Expiry != "" {
			d, err := time.ParseDuration(s3.Expiry)
			if err != nil {
				return nil, fmt.Errorf("invalid share expiry %q: %w", s3.Expiry, err)
			}
			expiry = d
		}
		return share.NewS3Sharer(share.S3Config{
			Endpoint:  s3.Endpoint,
			Bucket:    s3.Bucket,
			Prefix:    s3.Prefix,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			UseSSL:    s3.UseSSL,
			Expiry:    expiry,
		})
	default:
		return nil, fmt.Errorf("unknown share backend: %q", c.Share.Backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "geolocation", "config.json")
}

// Load reads config from disk. On first run a default config is written.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{Backend: "sqlite", Provider: "mls"}
			if saveErr := cfg.Save(); saveErr != nil {
				fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", saveErr)
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk, replacing the previous file atomically.
func (c *Config) Save() error {
	path := GetConfigPath()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
