// Package driver specifies the one interface this library needs from a
// raster file I/O backend. Implementing real codecs (GeoTIFF, COG, ...)
// is explicitly out of scope (spec.md §1 "Raster file I/O primitives (a
// backend providing open/read/write/create for one tile)"); this package
// only names the contract the raster and actor packages consume, plus a
// small in-memory implementation that backs in-memory rasters.
package driver

import (
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
)

// Handle is one open raster file, as returned by an OpenFunc. A
// concrete backend (GeoTIFF, etc.) implements this; this library only
// consumes it.
type Handle interface {
	// Read returns the requested channels over fp in fp's own grid; it does
	// not remap — callers run the result through the remap package.
	Read(fp footprint.Footprint, channels []int) (*pixel.Array, *pixel.Mask, error)

	// Write persists array/mask over fp, in fp's own grid.
	Write(fp footprint.Footprint, array *pixel.Array, mask *pixel.Mask) error

	Close() error
}

// OpenFunc opens a Handle. Sampler calls it once per direct read and closes
// the Handle afterwards; it is not routed through a driverpool.Pool.
type OpenFunc func() (Handle, error)
