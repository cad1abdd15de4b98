package raster

import (
	"dem-manager/core/tile"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Segment is one piece of an isoline.
type Segment struct {
	A orb.Point
	B orb.Point
}

// ContourSet holds the segments of one isovalue.
type ContourSet struct {
	Isovalue int
	Segments []Segment
}

// Cell edges.
const (
	edgeBottom = iota
	edgeRight
	edgeTop
	edgeLeft
)

type edgePair [2]int

// Segments per configuration, keyed by tl<<3 | tr<<2 | br<<1 | bl. Saddles (5, 10) are
// resolved separately.
var cases = [16][]edgePair{
	0:  nil,
	1:  {{edgeLeft, edgeBottom}},
	2:  {{edgeBottom, edgeRight}},
	3:  {{edgeLeft, edgeRight}},
	4:  {{edgeTop, edgeRight}},
	6:  {{edgeBottom, edgeTop}},
	7:  {{edgeLeft, edgeTop}},
	8:  {{edgeLeft, edgeTop}},
	9:  {{edgeTop, edgeBottom}},
	11: {{edgeTop, edgeRight}},
	12: {{edgeLeft, edgeRight}},
	13: {{edgeBottom, edgeRight}},
	14: {{edgeLeft, edgeBottom}},
	15: nil,
}

// saddle returns the segments of case 5 (bl, tr above) or 10 (tl, br above). When the
// centre is above, the below corners are cut off; otherwise the above corners are.
func saddle(config int, centreAbove bool) []edgePair {
	cutBottomLeft := []edgePair{{edgeLeft, edgeBottom}, {edgeTop, edgeRight}}
	cutTopLeft := []edgePair{{edgeLeft, edgeTop}, {edgeBottom, edgeRight}}
	if (config == 5) == centreAbove {
		return cutTopLeft
	}
	return cutBottomLeft
}

type corner struct {
	p orb.Point
	v float64
}

// Contours extracts the isolines of every isovalue over bounds.
func Contours(acc Accessor, bounds IndexBounds, isovalues []int) []ContourSet {
	sets := make([]ContourSet, len(isovalues))
	for k, iso := range isovalues {
		sets[k].Isovalue = iso
	}
	if len(isovalues) == 0 || bounds.Width() < 2 || bounds.Height() < 2 {
		return sets
	}

	for i := bounds.South; i < bounds.North; i++ {
		for j := bounds.West; j < bounds.East; j++ {
			bl := acc.ElevationAtIndex(i, j)
			br := acc.ElevationAtIndex(i, j+1)
			tr := acc.ElevationAtIndex(i+1, j+1)
			tl := acc.ElevationAtIndex(i+1, j)
			if bl == tile.Void || br == tile.Void || tr == tile.Void || tl == tile.Void {
				continue
			}
			lo, hi := minMax4(bl, br, tr, tl)

			var cs [4]corner
			loaded := false
			for k, iso := range isovalues {
				if int(hi) < iso || int(lo) >= iso {
					continue
				}
				if !loaded {
					cs = [4]corner{
						{acc.CoordinateAtIndex(i, j), float64(bl)},
						{acc.CoordinateAtIndex(i, j+1), float64(br)},
						{acc.CoordinateAtIndex(i+1, j+1), float64(tr)},
						{acc.CoordinateAtIndex(i+1, j), float64(tl)},
					}
					loaded = true
				}
				sets[k].Segments = appendCell(sets[k].Segments, cs, float64(iso))
			}
		}
	}
	return sets
}

// appendCell adds the segments of one cell. Corners are ordered bl, br, tr, tl.
func appendCell(dst []Segment, cs [4]corner, iso float64) []Segment {
	config := 0
	if cs[3].v >= iso {
		config |= 8
	}
	if cs[2].v >= iso {
		config |= 4
	}
	if cs[1].v >= iso {
		config |= 2
	}
	if cs[0].v >= iso {
		config |= 1
	}

	pairs := cases[config]
	if config == 5 || config == 10 {
		centre := (cs[0].v + cs[1].v + cs[2].v + cs[3].v) / 4
		pairs = saddle(config, centre >= iso)
	}
	for _, pair := range pairs {
		a := crossing(cs, pair[0], iso)
		b := crossing(cs, pair[1], iso)
		if a == b {
			continue
		}
		dst = append(dst, Segment{A: a, B: b})
	}
	return dst
}

// crossing interpolates where iso crosses an edge.
func crossing(cs [4]corner, edge int, iso float64) orb.Point {
	var p, q corner
	switch edge {
	case edgeBottom:
		p, q = cs[0], cs[1]
	case edgeRight:
		p, q = cs[1], cs[2]
	case edgeTop:
		p, q = cs[3], cs[2]
	default:
		p, q = cs[0], cs[3]
	}
	t := (iso - p.v) / (q.v - p.v)
	return orb.Point{
		p.p[0] + t*(q.p[0]-p.p[0]),
		p.p[1] + t*(q.p[1]-p.p[1]),
	}
}

func minMax4(a, b, c, d int16) (int16, int16) {
	lo, hi := a, a
	for _, v := range [3]int16{b, c, d} {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Count returns the total number of segments.
func Count(sets []ContourSet) int {
	n := 0
	for _, s := range sets {
		n += len(s.Segments)
	}
	return n
}

// FeatureCollection converts contour sets to GeoJSON, one MultiLineString per isovalue.
// Isovalues without segments are left out.
func FeatureCollection(sets []ContourSet) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, set := range sets {
		if len(set.Segments) == 0 {
			continue
		}
		mls := make(orb.MultiLineString, 0, len(set.Segments))
		for _, s := range set.Segments {
			mls = append(mls, orb.LineString{s.A, s.B})
		}
		f := geojson.NewFeature(mls)
		f.Properties["elevation"] = set.Isovalue
		fc.Append(f)
	}
	return fc
}
