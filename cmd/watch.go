package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tbl-merger/feature/merge"
	"tbl-merger/feature/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd merges once, then again after every change to the mods directory.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Merge now and again whenever mods change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		return runWatch(ctx, a)
	},
}

// runWatch runs a pass immediately and after each burst of mod changes.
func runWatch(ctx context.Context, a *app) error {
	w, err := watch.New(a.mods.Dir(), a.cfg.Watch, a.logger)
	if err != nil {
		return err
	}

	pass := func(ctx context.Context) {
		report, _, err := a.service.RunPass(ctx)
		if err != nil {
			a.logger.Error("Merge pass failed", zap.Error(err))
			return
		}
		a.logger.Info("Mods merged",
			zap.String("pass_id", report.ID),
			zap.Int("merged", report.Count(merge.OutcomeMerged)),
			zap.Int("cached", report.Count(merge.OutcomeCached)))
	}

	pass(ctx)
	a.logger.Info("Watching mods directory", zap.String("dir", a.mods.Dir()))
	return w.Run(ctx, pass)
}

func init() {
	RootCmd.AddCommand(watchCmd)
}
