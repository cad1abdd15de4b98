package server

import "fmt"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// MaxAreaDegrees caps the area (in square degrees) a single raster request may cover.
	MaxAreaDegrees float64 `mapstructure:"max_area_degrees" default:"4"`
	// HillshadeMaxWidth caps the width of rendered hillshade images.
	HillshadeMaxWidth int `mapstructure:"hillshade_max_width" default:"4096"`
}

// Validate checks the server settings.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.MaxAreaDegrees <= 0 {
		return fmt.Errorf("max_area_degrees must be positive, got %v", c.MaxAreaDegrees)
	}
	if c.HillshadeMaxWidth <= 0 {
		return fmt.Errorf("hillshade_max_width must be positive, got %d", c.HillshadeMaxWidth)
	}
	return nil
}

// AllowsArea reports whether a request spanning width x height degrees is accepted.
func (c Config) AllowsArea(width, height float64) bool {
	return width*height <= c.MaxAreaDegrees
}
