package history

import (
	"context"
	"errors"
	"fmt"

	"tbl-merger/feature/merge"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a pass does not exist.
var ErrNotFound = errors.New("merge pass not found")

// Repository stores merge pass reports.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository over db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the history tables.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&PassRecord{}, &UnitRecord{}); err != nil {
		return fmt.Errorf("failed to migrate history tables: %w", err)
	}
	return nil
}

// Record stores a pass and its units.
func (r *Repository) Record(ctx context.Context, report *merge.Report) error {
	rec := fromReport(report)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to store merge pass %s: %w", report.ID, err)
	}
	return nil
}

// Recent returns the latest passes, newest first, without their units.
func (r *Repository) Recent(ctx context.Context, limit int) ([]PassRecord, error) {
	var passes []PassRecord
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&passes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list merge passes: %w", err)
	}
	return passes, nil
}

// Get returns one pass with its units.
func (r *Repository) Get(ctx context.Context, id string) (*PassRecord, error) {
	var pass PassRecord
	err := r.db.WithContext(ctx).
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("logical_path") }).
		First(&pass, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load merge pass %s: %w", id, err)
	}
	return &pass, nil
}

// Prune deletes all but the newest keep passes.
func (r *Repository) Prune(ctx context.Context, keep int) (int64, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&PassRecord{}).
		Order("started_at DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("failed to select merge passes to prune: %w", err)
	}
	if keep < 0 {
		keep = 0
	}
	if len(ids) <= keep {
		return 0, nil
	}
	cutoff := ids[keep:]

	var removed int64
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pass_id IN ?", cutoff).Delete(&UnitRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", cutoff).Delete(&PassRecord{})
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune merge passes: %w", err)
	}
	return removed, nil
}
