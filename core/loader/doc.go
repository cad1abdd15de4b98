// Package loader registers the HTTP features of the server.
//
// A feature bundles a service and its handler behind the Feature interface:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager keeps the registered features and mounts the enabled ones with LoadAll.
// The server ships two of them: elevation (point, raster, contour, hillshade and
// extremes queries) and tiles (cache inspection, prefetch, download ledger and settings).
package loader
