package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clay-good/reviewr/internal/cache"
	"github.com/clay-good/reviewr/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show result cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		stats, err := c.GetStats()
		if err != nil {
			exitCode = ExitRuntimeError
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil
		}
		fmt.Printf("Directory: %s\n", stats.Dir)
		fmt.Printf("Entries:   %d\n", stats.Entries)
		fmt.Printf("Size:      %d bytes\n", stats.TotalBytes)
		fmt.Printf("Expired:   %d\n", stats.Expired)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached analysis results",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		if err := c.Clear(); err != nil {
			exitCode = ExitRuntimeError
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return nil
		}
		fmt.Println("Cache cleared.")
		return nil
	},
}

// openCache resolves the configured cache directory even when caching is
// disabled for analysis, so stats and clear always work on it.
func openCache() (*cache.Cache, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, err
	}
	return cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
