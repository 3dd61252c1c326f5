package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"tbl-merger/core/database"
	"tbl-merger/feature/merge"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func setupSQLite(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	repo := NewRepository(db)
	require.NoError(t, repo.Migrate())
	return repo
}

func report(id string, started time.Time) *merge.Report {
	return &merge.Report{
		ID:        id,
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Expired:   1,
		Units: []merge.UnitResult{
			{Path: "R2/BATTLE/TABLE/SKILL.TBL", Type: "skill", Outcome: merge.OutcomeMerged, Origins: []string{"mod-a", "mod-b"}, Artifact: "/cache/ab/abcd"},
			{Path: "R2/BATTLE/TABLE/ITEM.TBL", Type: "item", Outcome: merge.OutcomeNotFound, Origins: []string{"mod-a"}, Error: "not found"},
		},
	}
}

func TestRepository_RecordAndGet(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()
	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, report("pass-1", started)))

	pass, err := repo.Get(ctx, "pass-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), pass.DurationMs)
	assert.Equal(t, 1, pass.Merged)
	assert.Equal(t, 1, pass.NotFound)
	assert.Equal(t, 1, pass.Expired)
	require.Len(t, pass.Units, 2)
	assert.Equal(t, "R2/BATTLE/TABLE/ITEM.TBL", pass.Units[0].LogicalPath)
	assert.Equal(t, []string{"mod-a", "mod-b"}, pass.Units[1].Origins)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_RecentAndPrune(t *testing.T) {
	repo := setupSQLite(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(ctx, report(fmt.Sprintf("pass-%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "pass-4", recent[0].ID)
	assert.Equal(t, "pass-3", recent[1].ID)

	removed, err := repo.Prune(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	all, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	_, err = repo.Get(ctx, "pass-0")
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err = repo.Prune(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRepository_RecordFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `merge_passes`")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Record(context.Background(), report("pass-1", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecentQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "started_at", "duration_ms", "merged", "cached", "not_found", "failed", "expired"}).
		AddRow("pass-9", time.Now(), 12, 3, 7, 0, 0, 2)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `merge_passes` ORDER BY started_at DESC LIMIT ?")).
		WillReturnRows(rows)

	passes, err := repo.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, 7, passes[0].Cached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecorder_PrunesAfterRecord(t *testing.T) {
	repo := setupSQLite(t)
	rec := NewRecorder(repo, 2, zap.NewNop())
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	var _ merge.Recorder = rec
	for i := 0; i < 4; i++ {
		require.NoError(t, rec.Record(ctx, report(fmt.Sprintf("pass-%d", i), base.Add(time.Duration(i)*time.Second))))
	}

	all, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
