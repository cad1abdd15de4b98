package tile

import (
	"fmt"
	"strings"
)

// Type is the sample spacing class of a tile.
type Type int

const (
	// TypeUnknown is used by placeholder tiles that carry no samples.
	TypeUnknown Type = iota
	// SRTM1 tiles have one arc-second spacing (3601x3601 samples).
	SRTM1
	// SRTM3 tiles have three arc-second spacing (1201x1201 samples).
	SRTM3
)

// SideLength returns the number of samples along one edge of a tile of this type.
func (t Type) SideLength() int {
	switch t {
	case SRTM1:
		return 3601
	case SRTM3:
		return 1201
	default:
		return 0
	}
}

// SampleCount returns the number of samples in a tile of this type.
func (t Type) SampleCount() int {
	side := t.SideLength()
	return side * side
}

func (t Type) String() string {
	switch t {
	case SRTM1:
		return "SRTM1"
	case SRTM3:
		return "SRTM3"
	default:
		return "UNKNOWN"
	}
}

// ParseType parses "SRTM1" or "SRTM3" (case-insensitive).
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SRTM1":
		return SRTM1, nil
	case "SRTM3":
		return SRTM3, nil
	default:
		return TypeUnknown, fmt.Errorf("unknown tile type %q", s)
	}
}

// Interpolation selects how elevations between raster cells are computed.
type Interpolation int

const (
	// None returns the nearest raster cell.
	None Interpolation = iota
	// Bilinear interpolates between the four surrounding raster cells.
	Bilinear
)

func (i Interpolation) String() string {
	if i == Bilinear {
		return "bilinear"
	}
	return "none"
}

// ParseInterpolation parses "none" or "bilinear" (case-insensitive).
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "bilinear":
		return Bilinear, nil
	default:
		return None, fmt.Errorf("unknown interpolation mode %q", s)
	}
}
