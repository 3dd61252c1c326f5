package cmd

import (
	"encoding/json"
	"fmt"

	"tbl-merger/core/cache"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cacheCmd is the parent command for merge cache maintenance.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the merged file cache",
}

// cacheListCmd prints cache entries.
var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached merges",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openCache()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(c.Entries(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

// cachePruneCmd removes entries not used by recent passes.
var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cache entries unused by recent merge passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, logg, err := openCache()
		if err != nil {
			return err
		}
		removed := c.RemoveExpiredItems()
		if err := c.Persist(); err != nil {
			return err
		}
		logg.Info("Cache pruned", zap.Int("removed", removed), zap.Int("remaining", len(c.Entries())))
		return nil
	},
}

// cacheClearCmd removes every entry.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached merge",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, logg, err := openCache()
		if err != nil {
			return err
		}
		removed := c.Clear()
		if err := c.Persist(); err != nil {
			return err
		}
		logg.Info("Cache cleared", zap.Int("removed", removed))
		return nil
	},
}

var cacheFix bool

// cacheVerifyCmd compares the cache index with the artifacts on disk.
var cacheVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Find orphaned artifacts and entries whose artifact is gone",
	Long: `Compares the cache index with the files in the cache directory and reports
artifacts no entry refers to and entries whose artifact is missing.
Do not run while a merge pass is in progress.

Examples:
  # Report only
  tbl-merger cache verify

  # Delete orphans and drop broken entries
  tbl-merger cache verify --fix`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, logg, err := openCache()
		if err != nil {
			return err
		}
		plan, err := c.Reconcile()
		if err != nil {
			return err
		}

		fmt.Println("\n=== Cache Verification ===")
		fmt.Printf("Entries: %d\n", len(c.Entries()))
		fmt.Printf("Orphaned Files: %d\n", len(plan.Orphans))
		fmt.Printf("Missing Artifacts: %d\n", len(plan.Missing))

		if plan.Empty() || !cacheFix {
			return nil
		}
		fixed, err := c.ApplyPlan(plan)
		if err != nil {
			logg.Warn("Some fixes failed", zap.Error(err))
		}
		if err := c.Persist(); err != nil {
			return err
		}
		fmt.Printf("Fixed: %d\n", fixed)
		return nil
	},
}

func openCache() (*cache.MergedFileCache, *zap.Logger, error) {
	cfg, logg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	c, err := cache.Open(cfg.Cache, logg)
	if err != nil {
		return nil, nil, err
	}
	return c, logg, nil
}

func init() {
	RootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd, cachePruneCmd, cacheClearCmd, cacheVerifyCmd)
	cacheVerifyCmd.Flags().BoolVar(&cacheFix, "fix", false, "Delete orphans and drop entries with missing artifacts")
}
