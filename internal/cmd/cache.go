package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hargabyte/headercvt/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Render cache management commands",
	Long: `Commands for managing the render cache (.headercvt/cache.db by default).

The cache is used by 'headercvt extract' when cache.enabled is set in the
configuration. A header whose content and settings are unchanged is replayed
from the cache instead of being parsed again.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Display the number of cached headers, the size of the cached text and the age of the entries.`,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached render",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func openCache() (*cache.Cache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return c, nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.GetStats()
	if err != nil {
		return err
	}

	size := "-"
	if info, err := os.Stat(c.Path()); err == nil {
		size = formatBytes(info.Size())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache: %s\n", stats.Location)
	fmt.Fprintf(out, "Size: %s\n", size)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Headers:     %d\n", stats.Entries)
	fmt.Fprintf(out, "Cached text: %s\n", formatBytes(stats.Bytes))
	if stats.Entries > 0 {
		fmt.Fprintf(out, "Oldest:      %s\n", stats.Oldest)
		fmt.Fprintf(out, "Newest:      %s\n", stats.Newest)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	n, err := c.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached render(s)\n", n)
	return nil
}
