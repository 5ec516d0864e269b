package actor

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/rasterflow/rasterflow/filecache"
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
)

// CacheExtractor serves a read of an already-ready cache tile from disk
// (spec.md §4.6 "CacheExtractor. When a cache file is ready, responds to
// Sampler reads by scheduling I/O via the io pool against the on-disk
// file"). Read always runs inside an io_pool worker goroutine (submitted by
// CacheSupervisor), never the scheduler thread, so singleflight.Group.Do's
// blocking wait is safe here and collapses concurrent rereads of the same
// tile — the disk-read analogue of ComputationGate's compute-side dedup.
type CacheExtractor struct {
	Cache *filecache.Cache
	group singleflight.Group
}

// Read returns the decoded array/mask for a tile already known ready. A
// checksum mismatch surfaces as (nil, nil, false, nil): the file is
// corrupted, not erroring — the caller re-triggers recomputation.
func (e *CacheExtractor) Read(fp footprint.Footprint) (array *pixel.Array, mask *pixel.Mask, found bool, err error) {
	type result struct {
		array *pixel.Array
		mask  *pixel.Mask
		found bool
	}
	v, err, _ := e.group.Do(fmtTileKey(fp), func() (interface{}, error) {
		data, found, err := e.Cache.Read(fp)
		if err != nil {
			return nil, errors.Wrap(err, "actor: cache_extractor")
		}
		if !found {
			return result{found: false}, nil
		}
		arr, msk, err := pixel.DecodeTile(data)
		if err != nil {
			return nil, errors.Wrapf(err, "actor: cache_extractor: decoding %s", fp)
		}
		return result{array: arr, mask: msk, found: true}, nil
	})
	if err != nil {
		return nil, nil, false, err
	}
	r := v.(result)
	return r.array, r.mask, r.found, nil
}
