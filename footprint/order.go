package footprint

import "sort"

// Cell identifies a tile by its integer position within a tiling grid, not
// by its Footprint value — used to sort a batch of cache tiles (or any
// other per-cell unit of work) for spatial locality before scheduling reads
// or writes, independent of the Footprints' own reflect order.
//
// Adapted from the teacher's web-mercator Hilbert tile sort
// (internal/tile/... in the teacher repo, originally keyed by slippy-map
// z/x/y); here it operates on a generic 2D grid index with no notion of
// zoom level or projection, since Footprint carries no spatial reference.
type Cell struct {
	Col, Row int
}

// SortByHilbert orders cells along a Hilbert space-filling curve over an
// n x n grid (n = next power of two >= max(cols, rows)+1), so cells close
// on the curve are close in (col, row) too. This improves on-disk and
// cache locality when draining a large batch of cache tiles (spec.md §4.6
// "distinct cache tiles in priority order").
func SortByHilbert(cells []Cell) {
	if len(cells) <= 1 {
		return
	}
	maxCoord := 0
	for _, c := range cells {
		if c.Col > maxCoord {
			maxCoord = c.Col
		}
		if c.Row > maxCoord {
			maxCoord = c.Row
		}
	}
	n := uint64(1)
	for n <= uint64(maxCoord) {
		n <<= 1
	}

	indices := make([]uint64, len(cells))
	for i, c := range cells {
		indices[i] = hilbertIndex(uint64(c.Col), uint64(c.Row), n)
	}
	sort.Sort(hilbertSorter{cells: cells, indices: indices})
}

// hilbertIndex converts (x, y) to a Hilbert curve index on an n x n grid.
// n must be a power of two.
func hilbertIndex(x, y, n uint64) uint64 {
	var d uint64
	for s := n / 2; s > 0; s /= 2 {
		var rx, ry uint64
		if (x & s) > 0 {
			rx = 1
		}
		if (y & s) > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		if ry == 0 {
			if rx == 1 {
				x = s*2 - 1 - x
				y = s*2 - 1 - y
			}
			x, y = y, x
		}
	}
	return d
}

type hilbertSorter struct {
	cells   []Cell
	indices []uint64
}

func (s hilbertSorter) Len() int           { return len(s.cells) }
func (s hilbertSorter) Less(i, j int) bool { return s.indices[i] < s.indices[j] }
func (s hilbertSorter) Swap(i, j int) {
	s.cells[i], s.cells[j] = s.cells[j], s.cells[i]
	s.indices[i], s.indices[j] = s.indices[j], s.indices[i]
}
