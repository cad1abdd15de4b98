package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"dem-manager/core/tile"

	"github.com/paulmach/orb"
	"golang.org/x/image/draw"
)

// ErrTooFewSamples is returned when an area is too small to shade.
var ErrTooFewSamples = errors.New("hillshade needs at least 3x3 samples")

// MetersPerDegree is the length of one degree of latitude.
const MetersPerDegree = 111320.0

// HillshadeImage is a shaded relief image and its placement.
type HillshadeImage struct {
	Image *image.NRGBA
	// Bound spans the centres of the corner pixels.
	Bound orb.Bound
}

// Hillshade shades bounds. Only cells with a full 3×3 neighbourhood inside bounds are
// shaded; withPerimeter pads the result with a transparent border so the image keeps the
// size of bounds.
func Hillshade(acc Accessor, bounds IndexBounds, altitude, azimuth float64, withPerimeter bool) (*HillshadeImage, error) {
	if bounds.Width() < 3 || bounds.Height() < 3 {
		return nil, fmt.Errorf("%w, got %dx%d", ErrTooFewSamples, bounds.Width(), bounds.Height())
	}

	inner := bounds.Expand(-1)
	out := inner
	if withPerimeter {
		out = bounds
	}
	img := image.NewNRGBA(image.Rect(0, 0, out.Width(), out.Height()))

	zenith := (90 - altitude) * math.Pi / 180
	azimuthMath := math.Mod(360-azimuth+90, 360) * math.Pi / 180
	cosZen, sinZen := math.Cos(zenith), math.Sin(zenith)
	step := acc.Step()
	dy := step * MetersPerDegree

	var win [3][3]float64
	for i := inner.South; i <= inner.North; i++ {
		lat := acc.CoordinateAtIndex(i, inner.West).Lat()
		dx := dy * math.Cos(lat*math.Pi/180)
		if dx < 1e-6 {
			dx = 1e-6
		}
		y := out.North - i
		for j := inner.West; j <= inner.East; j++ {
			if !window(acc, i, j, &win) {
				continue
			}
			// Horn's method; win[0] is the northern row.
			a, b, c := win[0][0], win[0][1], win[0][2]
			d, f := win[1][0], win[1][2]
			g, h, k := win[2][0], win[2][1], win[2][2]
			dzdx := ((c + 2*f + k) - (a + 2*d + g)) / (8 * dx)
			dzdy := ((g + 2*h + k) - (a + 2*b + c)) / (8 * dy)

			slope := math.Atan(math.Hypot(dzdx, dzdy))
			aspect := aspectOf(dzdx, dzdy)

			shade := cosZen*math.Cos(slope) + sinZen*math.Sin(slope)*math.Cos(azimuthMath-aspect)
			shade = math.Max(0, math.Min(1, shade))
			v := uint8(math.Round(shade * 255))
			img.SetNRGBA(j-out.West, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	sw := acc.CoordinateAtIndex(out.South, out.West)
	ne := acc.CoordinateAtIndex(out.North, out.East)
	return &HillshadeImage{Image: img, Bound: orb.Bound{Min: sw, Max: ne}}, nil
}

// window loads the 3×3 neighbourhood of (i, j), northern row first. It reports false
// when a sample is void.
func window(acc Accessor, i, j int, win *[3][3]float64) bool {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := acc.ElevationAtIndex(i+1-r, j-1+c)
			if v == tile.Void {
				return false
			}
			win[r][c] = float64(v)
		}
	}
	return true
}

func aspectOf(dzdx, dzdy float64) float64 {
	if dzdx != 0 {
		aspect := math.Atan2(dzdy, -dzdx)
		if aspect < 0 {
			aspect += 2 * math.Pi
		}
		return aspect
	}
	switch {
	case dzdy > 0:
		return math.Pi / 2
	case dzdy < 0:
		return 2*math.Pi - math.Pi/2
	}
	return 0
}

// Scaled returns the image resized to width pixels, keeping the aspect ratio. A width
// that is not positive or equal to the current width returns the image itself.
func (h *HillshadeImage) Scaled(width int) image.Image {
	src := h.Image.Bounds()
	if width <= 0 || width == src.Dx() || src.Dx() == 0 {
		return h.Image
	}
	height := int(math.Max(1, math.Round(float64(src.Dy())*float64(width)/float64(src.Dx()))))
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), h.Image, src, draw.Src, nil)
	return dst
}

// EncodePNG writes the image, scaled to width when positive, as PNG.
func (h *HillshadeImage) EncodePNG(w io.Writer, width int) error {
	if err := png.Encode(w, h.Scaled(width)); err != nil {
		return fmt.Errorf("failed to encode hillshade: %w", err)
	}
	return nil
}
