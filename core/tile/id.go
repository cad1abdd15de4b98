package tile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidID is returned when a tile identifier cannot be parsed.
var ErrInvalidID = errors.New("invalid tile id")

// FormatID returns the identifier of the tile whose south-west corner is (lat, lon).
func FormatID(lat, lon int) string {
	ns, ew := 'N', 'E'
	if lat < 0 {
		ns = 'S'
		lat = -lat
	}
	if lon < 0 {
		ew = 'W'
		lon = -lon
	}
	return fmt.Sprintf("%c%02d%c%03d", ns, lat, ew, lon)
}

// ParseID parses an identifier such as "N46E007" or "S01W180" into the signed
// latitude/longitude of the tile's south-west corner.
func ParseID(id string) (lat, lon int, err error) {
	if len(id) != 7 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	n, errN := strconv.Atoi(id[1:3])
	e, errE := strconv.Atoi(id[4:7])
	if errN != nil || errE != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	ns, ew := id[0], id[3]
	switch ns {
	case 'N':
	case 'S':
		n = -n
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	switch ew {
	case 'E':
	case 'W':
		e = -e
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if n < -90 || n > 89 || e < -180 || e > 179 {
		return 0, 0, fmt.Errorf("%w: %q out of range", ErrInvalidID, id)
	}
	return n, e, nil
}

// CellFor returns the south-west corner of the tile covering (lat, lon).
// The north pole row and the +180 meridian fold onto the last tile of their axis.
func CellFor(lat, lon float64) (int, int) {
	latDeg := int(math.Floor(lat))
	if latDeg > 89 {
		latDeg = 89
	}
	lonDeg := int(math.Floor(lon))
	if lonDeg > 179 {
		lonDeg = 179
	}
	return latDeg, lonDeg
}

// IDFor returns the identifier of the tile covering (lat, lon).
func IDFor(lat, lon float64) string {
	return FormatID(CellFor(lat, lon))
}
