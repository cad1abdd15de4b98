// Package source describes where elevation tiles come from.
package source

import (
	"path/filepath"
	"sort"

	"dem-manager/core/tile"
)

// Source is one configured elevation data source. The ordered list of sources is the
// provider's search path.
type Source struct {
	// Name identifies the source in logs and in the download ledger.
	Name string `json:"name"`
	// Directory holds the local tile files.
	Directory string `json:"directory"`
	// Type is the resolution of every tile in this source.
	Type tile.Type `json:"type"`
	// DownloadURL is the base location missing tiles are fetched from
	// (http(s)://host/path or s3://bucket/prefix). Empty disables downloads.
	DownloadURL string `json:"download_url"`
	// AutoDownload allows fetching missing tiles when the provider has downloads enabled.
	AutoDownload bool `json:"auto_download"`
}

// CanDownload reports whether missing tiles of this source may be fetched.
func (s Source) CanDownload() bool {
	return s.AutoDownload && s.DownloadURL != ""
}

// Ordered returns a copy of sources with the preferred resolution first. The relative
// order of sources within each resolution is kept.
func Ordered(sources []Source, preferred tile.Type) []Source {
	out := append([]Source(nil), sources...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Type == preferred && out[j].Type != preferred
	})
	return out
}

// Config describes the two SRTM sources.
type Config struct {
	// DataDir is the root directory; tiles live in DataDir/SRTM1 and DataDir/SRTM3.
	DataDir string `mapstructure:"data_dir" default:"./data"`
	// SRTM1URL is the download location of one arc-second tiles.
	SRTM1URL string `mapstructure:"srtm1_url" default:""`
	// SRTM3URL is the download location of three arc-second tiles.
	SRTM3URL string `mapstructure:"srtm3_url" default:""`
}

// FromConfig builds the SRTM1 and SRTM3 sources.
func FromConfig(cfg Config) []Source {
	build := func(typ tile.Type, url string) Source {
		return Source{
			Name:         typ.String(),
			Directory:    filepath.Join(cfg.DataDir, typ.String()),
			Type:         typ,
			DownloadURL:  url,
			AutoDownload: url != "",
		}
	}
	return []Source{
		build(tile.SRTM1, cfg.SRTM1URL),
		build(tile.SRTM3, cfg.SRTM3URL),
	}
}
