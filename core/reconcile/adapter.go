package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"dem-manager/core/fetch"
	"dem-manager/core/hgt"
	"dem-manager/core/ledger"
	"dem-manager/core/source"
	"dem-manager/core/storage"
	"dem-manager/core/tile"
)

// ErrNotListable is returned by Indexer.RemoteSet for sources that cannot be listed.
var ErrNotListable = errors.New("remote source cannot be listed")

// Indexer loads the three views of a source.
type Indexer interface {
	LocalSet(ctx context.Context, src source.Source) (map[string]struct{}, error)
	RemoteSet(ctx context.Context, src source.Source) (map[string]struct{}, error)
	LedgerIndex(ctx context.Context, src source.Source) (map[string]string, error)
}

// TileIndexer reads the source directory, lists s3:// download locations through the
// storage client and reads the download ledger.
type TileIndexer struct {
	Client storage.Client
	Ledger *ledger.Ledger
}

// LocalSet returns the ids of the tile files in the source directory. A missing directory
// is empty.
func (x TileIndexer) LocalSet(ctx context.Context, src source.Source) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	entries, err := os.ReadDir(src.Directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return set, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", src.Directory, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := tileFileID(e.Name(), src.Type); ok {
			set[id] = struct{}{}
		}
	}
	return set, nil
}

// tileFileID returns the tile id of a file name accepted for typ.
func tileFileID(name string, typ tile.Type) (string, bool) {
	id, _, ok := strings.Cut(name, ".")
	if !ok {
		return "", false
	}
	if _, _, err := tile.ParseID(id); err != nil {
		return "", false
	}
	for _, candidate := range hgt.FileNames(id, typ) {
		if candidate == name {
			return id, true
		}
	}
	return "", false
}

// RemoteSet lists the tiles of an s3:// download location.
func (x TileIndexer) RemoteSet(ctx context.Context, src source.Source) (map[string]struct{}, error) {
	if !strings.HasPrefix(src.DownloadURL, "s3://") || x.Client == nil {
		return nil, ErrNotListable
	}
	ids, err := fetch.S3Transport{Client: x.Client}.ListRemote(ctx, src.DownloadURL)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// LedgerIndex returns the last download status of every tile of the source.
func (x TileIndexer) LedgerIndex(ctx context.Context, src source.Source) (map[string]string, error) {
	index := make(map[string]string)
	rows, err := x.Ledger.List(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.Source == src.Name {
			index[r.TileID] = r.Status
		}
	}
	return index, nil
}
