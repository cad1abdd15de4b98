// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines the
// configuration structure and the request limits the HTTP features enforce.
//
// # Configuration
//
// The Config struct defines the HTTP port, the API key and the largest area a raster,
// contour, hillshade or extremes request may cover.
//
// # Usage
//
// This package is embedded by core/config and read by the elevation feature to reject
// oversized requests before they reach the provider.
package server
