// Package config provides configuration management for the DEM manager.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file loaded with godotenv.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, request area limit)
//   - Log: Logging level and format
//   - Storage: S3/MinIO credentials used by s3:// download sources
//   - Database: optional download ledger connection
//   - Elevation: tile cache size, auto download, preferred resolution, interpolation
//   - Sources: local SRTM directories and download locations
//   - Fetch: download worker count and queue size
//
// Every key maps to an environment variable by replacing dots with underscores, so
// elevation.cache_size_mib is set with ELEVATION_CACHE_SIZE_MIB.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Elevation.CacheSizeMiB)
package config
