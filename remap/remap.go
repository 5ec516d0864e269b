// Package remap implements the C2 component: a pure function mapping an
// array and/or mask from one Footprint's grid onto another's. Grounded on
// original_source/buzzard/_raster_remap.py's three-way
// identity/same-grid-slice/resample split, with the per-pixel sampling
// idiom adapted from the teacher's internal/tile/resample.go
// (nearestSampleCached/bilinearSampleCached).
package remap

import (
	"fmt"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
)

// MaskMode selects how a mask is treated by the resample path: erode keeps
// a destination pixel valid only when fully covered by valid source
// pixels, dilate keeps it valid when any contributing source pixel is
// valid (spec.md §4.1).
type MaskMode int

const (
	MaskDilate MaskMode = iota
	MaskErode
)

// Options configures Remap. Significant of zero means env.Defaults().Significant.
type Options struct {
	SrcNodata          *float64
	DstNodata          float64
	MaskMode           MaskMode
	Interpolation      Interpolation
	AllowInterpolation bool
	Significant        float64
}

// Remap transforms array and/or mask from srcFP's referential to dstFP's.
// Either array, mask, or both may be provided; whichever is nil is skipped
// and nil is returned in its place. array must have shape srcFP.Shape();
// mask, when given, must too.
//
// - srcFP == dstFP: returns the inputs unchanged.
// - srcFP.SameGrid(dstFP): an index-only slice into a dstNodata-filled
//   destination.
// - otherwise: resampling, with nodata-aware interpolation (array) and
//   erode/dilate coverage thresholding (mask).
func Remap(srcFP, dstFP footprint.Footprint, array *pixel.Array, mask *pixel.Mask, opts Options) (*pixel.Array, *pixel.Mask, error) {
	if array == nil && mask == nil {
		return nil, nil, fmt.Errorf("remap: provide at least array or mask")
	}
	significant := opts.Significant
	if significant == 0 {
		significant = 9.0
	}
	if array != nil {
		shape := srcFP.Shape()
		if array.Rows != shape[0] || array.Cols != shape[1] {
			return nil, nil, fmt.Errorf("remap: array shape (%d,%d) does not match src_fp shape (%d,%d)", array.Rows, array.Cols, shape[0], shape[1])
		}
	}
	if mask != nil {
		shape := srcFP.Shape()
		if mask.Rows != shape[0] || mask.Cols != shape[1] {
			return nil, nil, fmt.Errorf("remap: mask shape (%d,%d) does not match src_fp shape (%d,%d)", mask.Rows, mask.Cols, shape[0], shape[1])
		}
	}

	switch {
	case srcFP.Equals(dstFP, significant):
		return array, mask, nil
	case srcFP.SameGrid(dstFP, significant):
		return remapSameGrid(srcFP, dstFP, array, mask, opts)
	default:
		if !opts.AllowInterpolation {
			return nil, nil, &ErrInterpolationForbidden{SrcFP: srcFP, DstFP: dstFP}
		}
		return remapResample(srcFP, dstFP, array, mask, opts)
	}
}

func remapSameGrid(srcFP, dstFP footprint.Footprint, array *pixel.Array, mask *pixel.Mask, opts Options) (*pixel.Array, *pixel.Mask, error) {
	readSlice, err := dstFP.SliceIn(srcFP, true)
	if err != nil {
		return nil, nil, err
	}
	writeSlice, err := srcFP.SliceIn(dstFP, true)
	if err != nil {
		return nil, nil, err
	}
	rows, cols := overlapShape(readSlice, writeSlice)

	dstShape := dstFP.Shape()
	var dstArray *pixel.Array
	if array != nil {
		dstArray = pixel.NewArray(dstShape[0], dstShape[1], array.Bands)
		dstArray.Fill(opts.DstNodata)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				for b := 0; b < array.Bands; b++ {
					v := array.At(readSlice.Row0+r, readSlice.Col0+c, b)
					dstArray.Set(writeSlice.Row0+r, writeSlice.Col0+c, b, v)
				}
			}
		}
	}

	var dstMask *pixel.Mask
	if mask != nil {
		dstMask = pixel.NewMask(dstShape[0], dstShape[1])
		dstMask.Fill(false)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				v := mask.At(readSlice.Row0+r, readSlice.Col0+c)
				dstMask.Set(writeSlice.Row0+r, writeSlice.Col0+c, v)
			}
		}
	}
	return dstArray, dstMask, nil
}

func overlapShape(a, b footprint.Slice) (rows, cols int) {
	as, bs := a.Shape(), b.Shape()
	rows, cols = as[0], as[1]
	if bs[0] < rows {
		rows = bs[0]
	}
	if bs[1] < cols {
		cols = bs[1]
	}
	return
}

func remapResample(srcFP, dstFP footprint.Footprint, array *pixel.Array, mask *pixel.Mask, opts Options) (*pixel.Array, *pixel.Mask, error) {
	px, py := dstFP.MeshgridRasterIn(srcFP)
	boxW, boxH := boxExtent(srcFP, dstFP)
	dstShape := dstFP.Shape()

	var dstArray *pixel.Array
	if array != nil {
		dstArray = pixel.NewArray(dstShape[0], dstShape[1], array.Bands)
		for row := 0; row < dstShape[0]; row++ {
			for col := 0; col < dstShape[1]; col++ {
				fx, fy := px[row][col], py[row][col]
				for b := 0; b < array.Bands; b++ {
					v, nodataWeight := sampleArrayBand(array, b, fx, fy, opts.Interpolation, boxW, boxH, opts.SrcNodata)
					if opts.SrcNodata != nil && nodataWeight > 0 {
						dstArray.Set(row, col, b, opts.DstNodata)
					} else {
						dstArray.Set(row, col, b, v)
					}
				}
			}
		}
	}

	var dstMask *pixel.Mask
	if mask != nil {
		outside := 1.0
		if opts.MaskMode == MaskErode {
			outside = 0
		}
		dstMask = pixel.NewMask(dstShape[0], dstShape[1])
		for row := 0; row < dstShape[0]; row++ {
			for col := 0; col < dstShape[1]; col++ {
				fx, fy := px[row][col], py[row][col]
				w := sampleMaskWeighted(mask, fx, fy, opts.Interpolation, boxW, boxH, outside)
				var valid bool
				if opts.MaskMode == MaskErode {
					valid = w >= 1-1e-9
				} else {
					valid = w > 1e-9
				}
				dstMask.Set(row, col, valid)
			}
		}
	}
	return dstArray, dstMask, nil
}
