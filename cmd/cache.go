package cmd

import (
	"fmt"
	"time"

	"github.com/gitretro/gitretro/internal"
	"github.com/gitretro/gitretro/internal/contract"
	"github.com/gitretro/gitretro/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads the minimal configuration needed for cache operations,
// skipping organization and token validation.
func cacheSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	cfg.CacheDir = viper.GetString("cache-dir")
	if cfg.CacheDir == "" {
		cfg.CacheDir = ".cache"
	}
	ttlHours := viper.GetInt("cache-ttl-hours")
	if ttlHours <= 0 {
		ttlHours = contract.DefaultCacheTTLHours
	}
	cfg.CacheTTL = time.Duration(ttlHours) * time.Hour
	return nil
}

// cacheCmd focused on cache management.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the collected metrics cache (improves performance)",
	Long: `Manage the on-disk cache of collected repository metrics.

Gitretro caches each repository's collected metrics per reporting window
so repeated runs skip the API entirely until the entry expires.

Subcommands:
  status - Show cache statistics
  clear  - Remove expired or all cached entries

Examples:
  # Check cache status
  gitretro cache status

  # Remove entries older than two days
  gitretro cache clear --older-than 48`,
}

// cacheStatusCmd shows cache statistics.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics",
	Long: `Show the number of valid and expired entries in the cache
directory, and their combined size on disk.

Examples:
  # Check cache status
  gitretro cache status`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		store, err := iocache.NewFileStore(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			internal.FatalError("Failed to open cache", err)
		}
		stats, err := store.Stats()
		if err != nil {
			internal.FatalError("Failed to get cache status", err)
		}
		fmt.Println("Cache statistics:")
		fmt.Printf("  Directory:       %s\n", cfg.CacheDir)
		fmt.Printf("  Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("  Valid entries:   %d\n", stats.ValidEntries)
		fmt.Printf("  Expired entries: %d\n", stats.ExpiredEntries)
		fmt.Printf("  Total size:      %.2f MB\n", float64(stats.TotalSizeBytes)/(1024*1024))
	},
}

// cacheClearCmd removes cached entries.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached metrics entries",
	Long: `Delete cached metrics entries from the cache directory.

Without flags, entries older than the configured TTL are removed. Use
--older-than to override the age cutoff in hours, or 0 to remove every
entry.

Examples:
  # Remove expired entries
  gitretro cache clear

  # Remove everything
  gitretro cache clear --older-than 0`,
	PreRunE: cacheSetup,
	Run: func(cmd *cobra.Command, _ []string) {
		store, err := iocache.NewFileStore(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			internal.FatalError("Failed to open cache", err)
		}

		maxAge := cfg.CacheTTL
		if cmd.Flags().Changed("older-than") {
			maxAge = time.Duration(viper.GetInt("older-than")) * time.Hour
		}

		removed, err := store.Sweep(maxAge)
		if err != nil {
			internal.FatalError("Failed to clear cache", err)
		}
		fmt.Printf("Removed %d cache entry(ies)\n", removed)
	},
}
