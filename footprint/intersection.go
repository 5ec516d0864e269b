package footprint

import (
	"fmt"
	"math"
)

// ErrGridMismatch is returned by Intersection when Homogeneous is requested
// but the inputs do not all share a grid (spec.md §4.1, §7 GridMismatch).
type ErrGridMismatch struct {
	A, B Footprint
}

func (e *ErrGridMismatch) Error() string {
	return fmt.Sprintf("footprint: grid mismatch between %v and %v", e.A, e.B)
}

// IntersectionOptions configures Intersection (spec.md §4.1).
type IntersectionOptions struct {
	// Significant is the precision used for SameGrid checks when Homogeneous
	// is set. Zero means env.Defaults().Significant.
	Significant float64
	// Homogeneous requires every input footprint to share a grid; a
	// disagreement is reported as *ErrGridMismatch rather than silently
	// picking one grid.
	Homogeneous bool
	// AlignOn selects which input's grid (scale, angle, pixel phase) the
	// result is snapped to. -1 (default) means the first footprint.
	AlignOn int
}

// Intersection returns the minimal Footprint, on the grid named by
// opts.AlignOn, whose extent bounds the common area of all of fps.
// Requires len(fps) >= 1; with exactly one input it returns that input.
func Intersection(fps []Footprint, opts IntersectionOptions) (Footprint, error) {
	if len(fps) == 0 {
		return Footprint{}, fmt.Errorf("footprint: intersection requires at least one footprint")
	}
	significant := opts.Significant
	if significant == 0 {
		significant = 9.0
	}
	alignOn := opts.AlignOn
	if alignOn < 0 || alignOn >= len(fps) {
		alignOn = 0
	}
	ref := fps[alignOn]

	if opts.Homogeneous {
		for i, fp := range fps {
			if i == alignOn {
				continue
			}
			if !fp.SameGrid(ref, significant) {
				return Footprint{}, &ErrGridMismatch{A: ref, B: fp}
			}
		}
	}

	// Interval intersection: the overlap's lower bound is the max of the
	// inputs' lower bounds, its upper bound is the min of the inputs' upper
	// bounds (not the union's bounding box).
	minx, miny := math.Inf(-1), math.Inf(-1)
	maxx, maxy := math.Inf(1), math.Inf(1)
	for _, fp := range fps {
		a, b, c, d := fp.Extent()
		minx = math.Max(minx, a)
		maxx = math.Min(maxx, c)
		miny = math.Max(miny, b)
		maxy = math.Min(maxy, d)
	}
	if maxx <= minx || maxy <= miny {
		return Footprint{}, fmt.Errorf("footprint: intersection is empty or degenerate")
	}

	// Snap the extent's corners onto ref's pixel grid.
	col0, row0 := ref.SpatialToRaster(minx, maxy, OpFloor) // maxy is the "top" in a north-up grid
	col1, row1 := ref.SpatialToRaster(maxx, miny, OpCeil)
	if col1 <= col0 {
		col1 = col0 + 1
	}
	if row1 <= row0 {
		row1 = row0 + 1
	}
	return ref.sub(col0, row0, col1-col0, row1-row0), nil
}

// Intersect is the binary convenience form of Intersection, matching the
// original's `fp & other` operator (used for the scheduler's same_grid fast
// path: sample_fp = raster.fp ∩ prod_fp, spec.md §4.3).
func Intersect(a, b Footprint, significant float64) (Footprint, error) {
	return Intersection([]Footprint{a, b}, IntersectionOptions{Significant: significant, Homogeneous: true})
}

// sub returns the sub-footprint of fp starting at pixel (px, py) with pixel
// size (sx, sy), same scale/angle as fp. px, py may be negative or beyond
// fp's rsize: sub does not clip, it only reparents the grid.
func (fp Footprint) sub(px, py, sx, sy int) Footprint {
	tl := fp.rasterToSpatial(float64(px), float64(py))
	return Footprint{
		tlx: tl[0], tly: tl[1],
		scalex: fp.scalex, scaley: fp.scaley,
		angle:  fp.angle,
		rsizex: sx, rsizey: sy,
	}
}
