package actor

import (
	"github.com/rasterflow/rasterflow/filecache"
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
)

// Writer persists a computed (and possibly merged) cache tile to disk
// (spec.md §4.6 "Writer. Consumes (cache_fp, merged_array). ... writes
// tile, fsyncs, computes checksum, atomically renames ... notifies
// Supervisor"). The temp-write/fsync/rename/checksum discipline itself
// lives in package filecache (C9); Writer's own job is only to encode the
// in-memory tile into bytes filecache can persist.
type Writer struct {
	Cache *filecache.Cache
}

// Write encodes array/mask and persists them under cacheFP's key, returning
// the content checksum the filename will carry.
func (w *Writer) Write(cacheFP footprint.Footprint, array *pixel.Array, mask *pixel.Mask) (checksum string, err error) {
	data := pixel.EncodeTile(array, mask)
	return w.Cache.Write(cacheFP, data)
}
