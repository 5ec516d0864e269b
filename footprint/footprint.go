// Package footprint implements the Footprint value type: an affine grid
// (top-left corner, pixel scale, rotation) paired with an integer pixel
// rectangle (rsize). It is the C1 component of the raster scheduler: a pure,
// immutable value type with no I/O and no dependency on any other package in
// this module.
//
// Grounded on original_source/buzzard/_footprint.py, _footprint_intersection.py,
// _footprint_tile.py and _footprint_move.py, adapted from a dynamically typed
// numpy-backed implementation to a small fixed-field Go struct. Only the
// operations spec.md §4.1 names are implemented; the rest of the original's
// surface (burning geometries, GDAL dataset helpers, plotting) is out of
// scope per spec.md §1.
package footprint

import (
	"fmt"
	"math"
)

// BoundaryEffect selects how Tile handles a size that doesn't evenly divide
// the Footprint.
type BoundaryEffect int

const (
	// BoundaryExtend keeps the last tile full-size, so it may extend past the
	// Footprint's edge.
	BoundaryExtend BoundaryEffect = iota
	// BoundaryExclude drops any tile that would cross the Footprint's edge.
	BoundaryExclude
	// BoundaryOverlap keeps every tile full-size, sliding the last one back so
	// it stays inside the Footprint (tiles at the edge overlap their neighbor).
	BoundaryOverlap
	// BoundaryShrink keeps every tile's origin on the grid but shrinks the
	// trailing tile in each dimension to fit exactly; yields variable tile sizes.
	BoundaryShrink
	// BoundaryException requires an exact fit and returns an error otherwise.
	BoundaryException
)

// Footprint is an affine transform (top-left corner, per-axis pixel scale,
// rotation) plus an integer pixel rectangle. Immutable after construction.
type Footprint struct {
	tlx, tly     float64
	scalex, scaley float64 // signed; scaley is conventionally negative for north-up grids
	angle        float64   // radians
	rsizex, rsizey int
}

// New constructs a Footprint. rsize must be strictly positive in both axes.
// angle != 0 requires env.AllowComplexFootprint at the call site that uses
// grid-dependent operations (Tile, SliceIn, Intersection); New itself never
// consults env and always succeeds for a geometrically valid input.
func New(tl [2]float64, scale [2]float64, rsize [2]int, angle float64) (Footprint, error) {
	if rsize[0] <= 0 || rsize[1] <= 0 {
		return Footprint{}, fmt.Errorf("footprint: rsize must be > 0, got %v", rsize)
	}
	if scale[0] == 0 || scale[1] == 0 {
		return Footprint{}, fmt.Errorf("footprint: scale must be non-zero, got %v", scale)
	}
	return Footprint{
		tlx: tl[0], tly: tl[1],
		scalex: scale[0], scaley: scale[1],
		angle:  angle,
		rsizex: rsize[0], rsizey: rsize[1],
	}, nil
}

// IsAxisAligned reports whether the Footprint has zero rotation.
func (fp Footprint) IsAxisAligned() bool { return fp.angle == 0 }

// Scale returns the (x, y) pixel scale. Conventionally scaley is negative
// for a north-up grid (y decreases as the raster row index increases).
func (fp Footprint) Scale() [2]float64 { return [2]float64{fp.scalex, fp.scaley} }

// Angle returns the rotation in radians.
func (fp Footprint) Angle() float64 { return fp.angle }

// RSize returns the (rsizex, rsizey) integer pixel rectangle.
func (fp Footprint) RSize() [2]int { return [2]int{fp.rsizex, fp.rsizey} }

// Shape returns (rows, cols) = (rsizey, rsizex), the numpy-array-shape
// convention used when indexing pixel data.
func (fp Footprint) Shape() [2]int { return [2]int{fp.rsizey, fp.rsizex} }

// TL returns the top-left corner in spatial coordinates.
func (fp Footprint) TL() [2]float64 { return fp.rasterToSpatial(0, 0) }

// TR returns the top-right corner in spatial coordinates.
func (fp Footprint) TR() [2]float64 { return fp.rasterToSpatial(float64(fp.rsizex), 0) }

// BL returns the bottom-left corner in spatial coordinates.
func (fp Footprint) BL() [2]float64 { return fp.rasterToSpatial(0, float64(fp.rsizey)) }

// BR returns the bottom-right corner in spatial coordinates.
func (fp Footprint) BR() [2]float64 { return fp.rasterToSpatial(float64(fp.rsizex), float64(fp.rsizey)) }

// Extent returns the axis-aligned bounding box (minx, miny, maxx, maxy) of
// the four corners, meaningful even when the Footprint is rotated.
func (fp Footprint) Extent() (minx, miny, maxx, maxy float64) {
	corners := [][2]float64{fp.TL(), fp.TR(), fp.BL(), fp.BR()}
	minx, miny = math.Inf(1), math.Inf(1)
	maxx, maxy = math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		minx = math.Min(minx, c[0])
		maxx = math.Max(maxx, c[0])
		miny = math.Min(miny, c[1])
		maxy = math.Max(maxy, c[1])
	}
	return
}

// rasterToSpatial maps a (px, py) pixel-space coordinate (fractional allowed)
// to a spatial-space coordinate, honoring rotation.
func (fp Footprint) rasterToSpatial(px, py float64) [2]float64 {
	ct, st := math.Cos(fp.angle), math.Sin(fp.angle)
	dx := px * fp.scalex
	dy := py * fp.scaley
	return [2]float64{
		fp.tlx + dx*ct - dy*st,
		fp.tly + dx*st + dy*ct,
	}
}

// spatialToRasterF maps a spatial-space coordinate to a fractional (px, py)
// pixel-space coordinate; the inverse of rasterToSpatial.
func (fp Footprint) spatialToRasterF(x, y float64) (px, py float64) {
	ct, st := math.Cos(fp.angle), math.Sin(fp.angle)
	dx := x - fp.tlx
	dy := y - fp.tly
	rx := dx*ct + dy*st
	ry := -dx*st + dy*ct
	return rx / fp.scalex, ry / fp.scaley
}

// IndexOp selects the rounding rule used by SpatialToRaster.
type IndexOp int

const (
	OpFloor IndexOp = iota
	OpRound
	OpCeil
)

// SpatialToRaster converts a spatial (x, y) point to an integer pixel index,
// rounding per op (default: floor, matching the original's spatial_to_raster).
func (fp Footprint) SpatialToRaster(x, y float64, op IndexOp) (px, py int) {
	fx, fy := fp.spatialToRasterF(x, y)
	switch op {
	case OpRound:
		return int(math.Round(fx)), int(math.Round(fy))
	case OpCeil:
		return int(math.Ceil(fx)), int(math.Ceil(fy))
	default:
		return int(math.Floor(fx)), int(math.Floor(fy))
	}
}

// RasterToSpatial converts an integer pixel index to its spatial-space
// pixel-center coordinate.
func (fp Footprint) RasterToSpatial(px, py int) (x, y float64) {
	p := fp.rasterToSpatial(float64(px)+0.5, float64(py)+0.5)
	return p[0], p[1]
}

// significantThreshold returns the absolute tolerance for comparing two
// coordinate-like values under env's `significant` digits setting: the
// original's "relative digits" precision system (spec.md §4.1).
func significantThreshold(significant float64, values ...float64) float64 {
	m := 0.0
	for _, v := range values {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	if m == 0 {
		m = 1
	}
	return m * math.Pow(10, -significant)
}

func closeEnough(a, b, significant float64) bool {
	return math.Abs(a-b) <= significantThreshold(significant, a, b)
}

// SameGrid reports whether fp and other share pixel corners up to the
// env-configured `significant` relative precision: same scale, same
// rotation, and a translation that is an integer number of pixels in the
// shared grid. Never errors — returns false on any mismatch.
func (fp Footprint) SameGrid(other Footprint, significant float64) bool {
	if !closeEnough(fp.scalex, other.scalex, significant) {
		return false
	}
	if !closeEnough(fp.scaley, other.scaley, significant) {
		return false
	}
	if !closeEnough(math.Mod(fp.angle, 2*math.Pi), math.Mod(other.angle, 2*math.Pi), significant) {
		return false
	}
	// Express other's top-left in fp's pixel space; must land on an integer.
	px, py := fp.spatialToRasterF(other.tlx, other.tly)
	thr := significantThreshold(significant, px, py)
	return math.Abs(px-math.Round(px)) <= thr && math.Abs(py-math.Round(py)) <= thr
}

// Equals reports whether fp and other describe the same grid and the same
// pixel rectangle.
func (fp Footprint) Equals(other Footprint, significant float64) bool {
	if fp.rsizex != other.rsizex || fp.rsizey != other.rsizey {
		return false
	}
	if !fp.SameGrid(other, significant) {
		return false
	}
	px, py := fp.spatialToRasterF(other.tlx, other.tly)
	return math.Round(px) == 0 && math.Round(py) == 0
}

// ShareArea reports whether fp's and other's extents overlap (possibly on
// different grids). Used by the query planner to detect production
// footprints fully outside the raster (spec.md §4.3).
func (fp Footprint) ShareArea(other Footprint) bool {
	aMinX, aMinY, aMaxX, aMaxY := fp.Extent()
	bMinX, bMinY, bMaxX, bMaxY := other.Extent()
	if aMaxX <= bMinX || bMaxX <= aMinX {
		return false
	}
	if aMaxY <= bMinY || bMaxY <= aMinY {
		return false
	}
	return true
}

// Move returns a copy of fp translated so its top-left corner is tl,
// keeping the same scale, angle and rsize. Any tl is accepted, including
// one not reachable by an integer number of pixels from fp's current grid:
// Move redefines the grid itself rather than resampling onto it.
func (fp Footprint) Move(tl [2]float64) Footprint {
	next := fp
	next.tlx, next.tly = tl[0], tl[1]
	return next
}

// Sub returns the sub-footprint of fp starting at pixel (px, py) with pixel
// size (sx, sy), same scale/angle/grid as fp. px, py, and the resulting
// rectangle may fall partly or fully outside fp's own rsize: Sub only
// reparents the grid, it never clips (callers combine it with Intersect or
// SliceIn when clipping is wanted). sx, sy must be > 0.
func (fp Footprint) Sub(px, py, sx, sy int) (Footprint, error) {
	if sx <= 0 || sy <= 0 {
		return Footprint{}, fmt.Errorf("footprint: sub size must be > 0, got (%d,%d)", sx, sy)
	}
	return fp.sub(px, py, sx, sy), nil
}

func (fp Footprint) String() string {
	return fmt.Sprintf("Footprint(tl=(%.6f,%.6f) scale=(%.6g,%.6g) angle=%.6f rsize=(%d,%d))",
		fp.tlx, fp.tly, fp.scalex, fp.scaley, fp.angle, fp.rsizex, fp.rsizey)
}
