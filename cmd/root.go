package cmd

import (
	"fmt"
	"os"

	"tbl-merger/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configDir is where the .env file is looked up.
var configDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tbl-merger",
	Short: "Battle table merger",
	Long: `tbl-merger combines modded battle tables field by field against their
baseline, so several mods can edit the same table without overwriting each other.
Merged tables are cached and reused until the contributing mods change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console logger with ISO8601 timestamps for CLI errors.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing the .env file")
}
