package history

import (
	"context"

	"tbl-merger/feature/merge"

	"go.uber.org/zap"
)

// Recorder stores pass reports and trims old ones.
type Recorder struct {
	repo   *Repository
	keep   int
	logger *zap.Logger
}

// NewRecorder creates a merge.Recorder backed by repo.
func NewRecorder(repo *Repository, keep int, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, keep: keep, logger: logger}
}

// Record implements merge.Recorder.
func (r *Recorder) Record(ctx context.Context, report *merge.Report) error {
	if err := r.repo.Record(ctx, report); err != nil {
		return err
	}
	if r.keep <= 0 {
		return nil
	}
	removed, err := r.repo.Prune(ctx, r.keep)
	if err != nil {
		r.logger.Warn("Failed to prune merge history", zap.Error(err))
		return nil
	}
	if removed > 0 {
		r.logger.Debug("Pruned merge history", zap.Int64("removed", removed))
	}
	return nil
}
