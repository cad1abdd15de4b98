package provider

// Config holds the engine settings of the elevation section.
type Config struct {
	// CacheSizeMiB is the initial tile cache limit.
	CacheSizeMiB int64 `mapstructure:"cache_size_mib" default:"512"`
	// MinCacheSizeMiB and MaxCacheSizeMiB bound every later limit change.
	MinCacheSizeMiB int64 `mapstructure:"min_cache_size_mib" default:"1"`
	MaxCacheSizeMiB int64 `mapstructure:"max_cache_size_mib" default:"65536"`
	// AutoDownload fetches tiles missing from every local source.
	AutoDownload bool `mapstructure:"auto_download" default:"false"`
	// PreferredResolution orders the sources and sets the grid resolution (SRTM1, SRTM3).
	PreferredResolution string `mapstructure:"preferred_resolution" default:"SRTM1"`
	// Interpolation is used by point queries (none, bilinear).
	Interpolation string `mapstructure:"interpolation" default:"bilinear"`
	// QueueCapacity is the read backlog; submissions beyond it are rejected.
	QueueCapacity int `mapstructure:"queue_capacity" default:"4096"`
}

const mib = 1 << 20
