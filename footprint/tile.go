package footprint

import (
	"fmt"
	"math"
)

// Tile partitions fp into a grid of sub-footprints of pixel size `size`,
// with per-axis `overlap`, honoring boundary for the trailing tile in each
// dimension. Grounded on original_source/buzzard/_footprint_tile.py.
func (fp Footprint) Tile(size [2]int, overlap [2]int, boundary BoundaryEffect) ([]Footprint, error) {
	if size[0] <= 0 || size[1] <= 0 {
		return nil, fmt.Errorf("footprint: tile size must be > 0, got %v", size)
	}
	xs, xsizes, err := tileAxis(fp.rsizex, size[0], overlap[0], boundary)
	if err != nil {
		return nil, fmt.Errorf("footprint: tile x axis: %w", err)
	}
	ys, ysizes, err := tileAxis(fp.rsizey, size[1], overlap[1], boundary)
	if err != nil {
		return nil, fmt.Errorf("footprint: tile y axis: %w", err)
	}

	out := make([]Footprint, 0, len(xs)*len(ys))
	for yi, y0 := range ys {
		for xi, x0 := range xs {
			out = append(out, fp.sub(x0, y0, xsizes[xi], ysizes[yi]))
		}
	}
	return out, nil
}

// TileCount splits fp into exactly count=(countx, county) tiles. The ideal
// per-tile size is ceil(rsize/count); the trailing tile in each dimension
// shrinks to cover the remainder exactly (boundary is always effectively
// "shrink" here — this mirrors tile_count(..., boundary_effect='shrink')
// as used by the query planner to bound resample sub-tile size, spec.md §4.3).
func (fp Footprint) TileCount(count [2]int) ([]Footprint, error) {
	countx, county := count[0], count[1]
	if countx <= 0 || county <= 0 {
		return nil, fmt.Errorf("footprint: tile_count requires positive counts, got %v", count)
	}
	tileW := ceilDiv(fp.rsizex, countx)
	tileH := ceilDiv(fp.rsizey, county)

	out := make([]Footprint, 0, countx*county)
	for ty := 0; ty < county; ty++ {
		y0 := ty * tileH
		h := tileH
		if y0+h > fp.rsizey {
			h = fp.rsizey - y0
		}
		if h <= 0 {
			continue
		}
		for tx := 0; tx < countx; tx++ {
			x0 := tx * tileW
			w := tileW
			if x0+w > fp.rsizex {
				w = fp.rsizex - x0
			}
			if w <= 0 {
				continue
			}
			out = append(out, fp.sub(x0, y0, w, h))
		}
	}
	return out, nil
}

func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}

// tileAxis computes the (start, size) pairs for one axis of Tile.
func tileAxis(total, size, overlap int, boundary BoundaryEffect) (starts, sizes []int, err error) {
	step := size - overlap
	if step <= 0 {
		return nil, nil, fmt.Errorf("size must be greater than overlap")
	}

	if boundary == BoundaryException {
		if (total-size)%step != 0 {
			return nil, nil, fmt.Errorf("exact tiling required but %d does not divide evenly (size=%d overlap=%d)", total, size, overlap)
		}
	}

	n := 1
	if total > size {
		n = 1 + ceilDiv(total-size, step)
	}

	for i := 0; i < n; i++ {
		start := i * step
		last := i == n-1
		switch {
		case !last:
			starts = append(starts, start)
			sizes = append(sizes, size)
		case boundary == BoundaryExtend || boundary == BoundaryException:
			starts = append(starts, start)
			sizes = append(sizes, size)
		case boundary == BoundaryOverlap:
			s := start
			if s+size > total {
				s = total - size
				if s < 0 {
					s = 0
				}
			}
			starts = append(starts, s)
			sizes = append(sizes, size)
		case boundary == BoundaryShrink:
			sz := total - start
			if sz <= 0 {
				continue
			}
			if sz > size {
				sz = size
			}
			starts = append(starts, start)
			sizes = append(sizes, sz)
		case boundary == BoundaryExclude:
			if start+size > total {
				continue
			}
			starts = append(starts, start)
			sizes = append(sizes, size)
		default:
			starts = append(starts, start)
			sizes = append(sizes, size)
		}
	}
	if len(starts) == 0 {
		starts = []int{0}
		sizes = []int{total}
	}
	return starts, sizes, nil
}

// Dilate grows fp by count pixels on every side, keeping the same grid.
func (fp Footprint) Dilate(count int) Footprint {
	return fp.sub(-count, -count, fp.rsizex+2*count, fp.rsizey+2*count)
}

// Erode shrinks fp by count pixels on every side, keeping the same grid.
// The result may have a non-positive rsize if count is large relative to fp;
// callers should treat such a result as "empty".
func (fp Footprint) Erode(count int) Footprint {
	return fp.sub(count, count, fp.rsizex-2*count, fp.rsizey-2*count)
}
