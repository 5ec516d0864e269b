package driver

import (
	"fmt"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/remap"
)

// MemoryHandle is an in-memory Handle backing an InMem raster: it always
// has data for exactly one Footprint (its fp), and serves sub-regions or
// differently-gridded reads by running them through the remap kernel —
// the same kernel a real driver-backed raster relies on for anything that
// isn't an exact slice.
type MemoryHandle struct {
	fp       footprint.Footprint
	array    *pixel.Array
	mask     *pixel.Mask
	srcNodata *float64
}

// NewMemoryHandle wraps array/mask, which must already match fp's shape.
func NewMemoryHandle(fp footprint.Footprint, array *pixel.Array, mask *pixel.Mask, srcNodata *float64) (*MemoryHandle, error) {
	rows, cols := fp.Shape()[0], fp.Shape()[1]
	if array.Rows != rows || array.Cols != cols {
		return nil, fmt.Errorf("driver: array shape (%d,%d) does not match footprint shape (%d,%d)",
			array.Rows, array.Cols, rows, cols)
	}
	if mask == nil {
		mask = pixel.NewMask(rows, cols)
	}
	return &MemoryHandle{fp: fp, array: array, mask: mask, srcNodata: srcNodata}, nil
}

func (h *MemoryHandle) Read(fp footprint.Footprint, channels []int) (*pixel.Array, *pixel.Mask, error) {
	array, mask, err := remap.Remap(h.fp, fp, h.array, h.mask, remap.Options{
		SrcNodata:          h.srcNodata,
		DstNodata:          0,
		MaskMode:           remap.MaskDilate,
		Interpolation:      remap.InterpNearest,
		AllowInterpolation: true,
		Significant:        9.0,
	})
	if err != nil {
		return nil, nil, err
	}
	return selectChannels(array, channels), mask, nil
}

func (h *MemoryHandle) Write(fp footprint.Footprint, array *pixel.Array, mask *pixel.Mask) error {
	if !fp.Equals(h.fp, 9.0) {
		return fmt.Errorf("driver: MemoryHandle only supports writing its own full footprint")
	}
	h.array = array
	h.mask = mask
	return nil
}

func (h *MemoryHandle) Close() error { return nil }

func selectChannels(array *pixel.Array, channels []int) *pixel.Array {
	if channels == nil {
		return array
	}
	out := pixel.NewArray(array.Rows, array.Cols, len(channels))
	for row := 0; row < array.Rows; row++ {
		for col := 0; col < array.Cols; col++ {
			for i, ch := range channels {
				out.Set(row, col, i, array.At(row, col, ch))
			}
		}
	}
	return out
}
