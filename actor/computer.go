package actor

import (
	"github.com/pkg/errors"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/raster"
)

// tilePiece is one computation tile's contribution to a cache tile.
type tilePiece struct {
	FP    footprint.Footprint
	Array *pixel.Array
	Mask  *pixel.Mask
}

// Computer runs a recipe's compute_array for every computation tile
// overlapping a cache tile (spec.md §4.6 "Computer: submits compute_array
// (fp, primitive_fps, primitive_arrays, raster_ref_or_None) to
// computation_pool"). raster_ref is never threaded through: process-pool
// picklability concerns (spec.md §4.5) don't apply to goroutines.
type Computer struct {
	Raster     *raster.Scheduled
	Gate       *ComputationGate
	Collector  *PrimitiveCollector
}

// Pieces computes (deduped via Gate) every computation tile overlapping
// cacheFP and returns them unordered; the caller (CacheSupervisor's
// pipeline) decides whether a Merger pass is needed.
func (c *Computer) Pieces(cacheFP footprint.Footprint) ([]tilePiece, error) {
	var overlapping []footprint.Footprint
	for _, ct := range c.Raster.ComputationTiles {
		if ct.ShareArea(cacheFP) {
			overlapping = append(overlapping, ct)
		}
	}
	if len(overlapping) == 0 {
		// No computation tiling configured: the whole cache tile is its own
		// computation unit.
		overlapping = []footprint.Footprint{cacheFP}
	}

	pieces := make([]tilePiece, 0, len(overlapping))
	for _, ctFP := range overlapping {
		arr, mask, err := c.Gate.Get(ctFP, func() (*pixel.Array, *pixel.Mask, error) {
			primArrays, primFPs, err := c.Collector.Collect(ctFP)
			if err != nil {
				return nil, nil, err
			}
			arr, mask, err := c.Raster.Compute(ctFP, primFPs, primArrays)
			if err != nil {
				return nil, nil, errors.Wrap(err, "actor: compute_array")
			}
			return arr, mask, nil
		})
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, tilePiece{FP: ctFP, Array: arr, Mask: mask})
	}
	return pieces, nil
}
