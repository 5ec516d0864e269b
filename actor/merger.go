package actor

import (
	"github.com/pkg/errors"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/raster"
)

// Merger combines a cache tile's pieces when it intersects more than one
// computation tile (spec.md §4.6 "Merger: if a cache tile intersects
// multiple computation tiles, submits merge_arrays(fp, {fp->arr}, raster)
// to merge_pool"). A single-piece cache tile skips Merger entirely —
// CacheSupervisor's pipeline only invokes it when len(pieces) > 1.
type Merger struct {
	Raster *raster.Scheduled
}

// Merge combines pieces into cacheFP's full array/mask via the raster's
// user-supplied MergeFunc.
func (m *Merger) Merge(cacheFP footprint.Footprint, pieces []tilePiece) (*pixel.Array, *pixel.Mask, error) {
	if m.Raster.Merge == nil {
		return nil, nil, errors.Errorf("actor: cache tile %s spans %d computation tiles but no merge_arrays was supplied", cacheFP, len(pieces))
	}
	byFP := make(map[footprint.Footprint]*pixel.Array, len(pieces))
	for _, p := range pieces {
		byFP[p.FP] = p.Array
	}
	arr, mask, err := m.Raster.Merge(cacheFP, byFP)
	if err != nil {
		return nil, nil, errors.Wrap(err, "actor: merge_arrays")
	}
	return arr, mask, nil
}
