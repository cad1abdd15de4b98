package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ErrInvalidBBox is returned for malformed bounding boxes.
var ErrInvalidBBox = errors.New("invalid bbox")

// ParseBBox parses "west,south,east,north" in degrees. A west edge greater than the east
// edge describes a box crossing the 180° meridian.
func ParseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: want west,south,east,north, got %q", ErrInvalidBBox, s)
	}

	var v [4]float64
	for i, p := range parts {
		f, ok := parseFinite(p)
		if !ok {
			return orb.Bound{}, fmt.Errorf("%w: %q is not a number", ErrInvalidBBox, p)
		}
		v[i] = f
	}
	west, south, east, north := v[0], v[1], v[2], v[3]

	if south < -90 || north > 90 || south >= north {
		return orb.Bound{}, fmt.Errorf("%w: latitude range [%v,%v]", ErrInvalidBBox, south, north)
	}
	if west < -180 || west > 180 || east < -180 || east > 180 || west == east {
		return orb.Bound{}, fmt.Errorf("%w: longitude range [%v,%v]", ErrInvalidBBox, west, east)
	}

	return orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}, nil
}

// FormatBBox is the inverse of ParseBBox.
func FormatBBox(b orb.Bound) string {
	return fmt.Sprintf("%g,%g,%g,%g", b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat())
}

// ParseLatLon parses a coordinate pair and checks its range.
func ParseLatLon(lat, lon string) (orb.Point, error) {
	la, ok := parseFinite(lat)
	if !ok {
		return orb.Point{}, fmt.Errorf("invalid latitude %q", lat)
	}
	lo, ok := parseFinite(lon)
	if !ok {
		return orb.Point{}, fmt.Errorf("invalid longitude %q", lon)
	}
	if la < -90 || la > 90 {
		return orb.Point{}, fmt.Errorf("latitude %v out of range", la)
	}
	if lo < -180 || lo > 180 {
		return orb.Point{}, fmt.Errorf("longitude %v out of range", lo)
	}
	return orb.Point{lo, la}, nil
}

// parseFinite parses a float, rejecting NaN and infinities.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
