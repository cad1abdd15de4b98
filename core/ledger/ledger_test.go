package ledger_test

import (
	"context"
	"errors"
	"testing"

	"dem-manager/core/database"
	"dem-manager/core/ledger"
	"dem-manager/core/tile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	l := ledger.New(db, zap.NewNop())
	require.NoError(t, l.Migrate(context.Background()))
	return l
}

func TestLedger_RecordLifecycle(t *testing.T) {
	ctx := context.Background()
	l := setupLedger(t)

	require.NoError(t, l.Record(ctx, "N46E007", "SRTM3", tile.StatusDownloadScheduled, nil))
	require.NoError(t, l.Record(ctx, "N46E007", "SRTM3", tile.StatusDownloading, nil))
	require.NoError(t, l.Record(ctx, "N46E007", "SRTM3", tile.StatusDownloadFailed, errors.New("connection reset")))
	require.NoError(t, l.Record(ctx, "N46E007", "SRTM3", tile.StatusDownloading, nil))
	require.NoError(t, l.Record(ctx, "N46E007", "SRTM3", tile.StatusReadingScheduled, nil))

	rows, err := l.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "N46E007", rows[0].TileID)
	assert.Equal(t, "SRTM3", rows[0].Source)
	assert.Equal(t, tile.StatusReadingScheduled.String(), rows[0].Status)
	assert.Equal(t, 2, rows[0].Attempts)
	assert.Equal(t, "connection reset", rows[0].LastError)
}

func TestLedger_ListByStatus(t *testing.T) {
	ctx := context.Background()
	l := setupLedger(t)

	require.NoError(t, l.Record(ctx, "N46E007", "SRTM3", tile.StatusDownloadFailed, errors.New("404")))
	require.NoError(t, l.Record(ctx, "N46E007", "SRTM1", tile.StatusDownloading, nil))
	require.NoError(t, l.Record(ctx, "S01W002", "SRTM3", tile.StatusDownloadFailed, errors.New("404")))

	failed, err := l.List(ctx, tile.StatusDownloadFailed.String())
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "N46E007", failed[0].TileID)
	assert.Equal(t, "S01W002", failed[1].TileID)

	require.NoError(t, l.Forget(ctx, "N46E007"))
	all, err := l.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "S01W002", all[0].TileID)
}

func TestLedger_Disabled(t *testing.T) {
	ctx := context.Background()
	l := ledger.New(nil, nil)

	assert.False(t, l.Enabled())
	assert.NoError(t, l.Migrate(ctx))
	assert.NoError(t, l.Record(ctx, "N46E007", "SRTM3", tile.StatusDownloading, nil))
	assert.NoError(t, l.Forget(ctx, "N46E007"))
	rows, err := l.List(ctx, "")
	assert.NoError(t, err)
	assert.Empty(t, rows)

	var nilLedger *ledger.Ledger
	assert.NoError(t, nilLedger.Record(ctx, "N46E007", "SRTM3", tile.StatusDownloading, nil))
}

func TestLedger_RecordError(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec("INSERT INTO `tile_downloads`").WillReturnError(errors.New("disk full"))
	sqlMock.ExpectRollback()

	l := ledger.New(db, zap.NewNop())
	err = l.Record(context.Background(), "N46E007", "SRTM3", tile.StatusDownloading, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
