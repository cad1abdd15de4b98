package reconcile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dem-manager/core/database"
	"dem-manager/core/ledger"
	"dem-manager/core/reconcile"
	"dem-manager/core/source"
	"dem-manager/core/storage/mocks"
	"dem-manager/core/tile"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTileIndexer_LocalSet(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"N46E007.hgt",
		"N46E008.hgt.zip",
		"S01W072.SRTMGL3.hgt.zip",
		"N47E007.SRTMGL1.hgt.zip",
		"readme.txt",
		"X99Y999.hgt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "N48E007.hgt"), 0o755))

	src := source.Source{Name: "SRTM3", Directory: dir, Type: tile.SRTM3}
	got, err := reconcile.TileIndexer{}.LocalSet(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, set("N46E007", "N46E008", "S01W072"), got)

	missing := source.Source{Name: "SRTM3", Directory: filepath.Join(dir, "absent"), Type: tile.SRTM3}
	got, err = reconcile.TileIndexer{}.LocalSet(context.Background(), missing)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTileIndexer_RemoteSet(t *testing.T) {
	client := new(mocks.Client)
	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "srtm3/N46E007.hgt.zip"}
	ch <- minio.ObjectInfo{Key: "srtm3/N46E008.hgt.zip"}
	ch <- minio.ObjectInfo{Key: "srtm3/index.json"}
	close(ch)
	client.On("ListObjects", mock.Anything, "dem", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	x := reconcile.TileIndexer{Client: client}
	got, err := x.RemoteSet(context.Background(), srtm3)
	require.NoError(t, err)
	assert.Equal(t, set("N46E007", "N46E008"), got)

	httpSource := source.Source{Name: "SRTM1", DownloadURL: "https://example.com/srtm1"}
	_, err = x.RemoteSet(context.Background(), httpSource)
	assert.ErrorIs(t, err, reconcile.ErrNotListable)
}

func TestTileIndexer_LedgerIndex(t *testing.T) {
	ctx := context.Background()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	l := ledger.New(db, zap.NewNop())
	require.NoError(t, l.Migrate(ctx))
	require.NoError(t, l.Record(ctx, "N46E007", "SRTM3", tile.StatusDownloadFailed, assert.AnError))
	require.NoError(t, l.Record(ctx, "N46E007", "SRTM1", tile.StatusReadingScheduled, nil))

	got, err := reconcile.TileIndexer{Ledger: l}.LedgerIndex(ctx, srtm3)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"N46E007": "DOWNLOAD_FAILED"}, got)

	empty, err := reconcile.TileIndexer{Ledger: ledger.New(nil, nil)}.LedgerIndex(ctx, srtm3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
