package remap

import "github.com/rasterflow/rasterflow/footprint"

// BuildSamplingFootprint computes the region of srcFP that resampling dstFP
// needs to read, on srcFP's own grid: dstFP's bounding box expressed in
// srcFP's raster space, dilated by the kernel's support radius, then clipped
// to srcFP (spec.md §4.1 "Sampling-footprint computation").
//
// ok is false when dstFP and srcFP don't overlap at all — the caller should
// fill the whole destination with dst_nodata without calling Remap. An error
// is only returned when allowInterpolation is false.
func BuildSamplingFootprint(srcFP, dstFP footprint.Footprint, method Interpolation, allowInterpolation bool, significant float64) (sampleFP footprint.Footprint, ok bool, err error) {
	if !allowInterpolation {
		return footprint.Footprint{}, false, &ErrInterpolationForbidden{SrcFP: srcFP, DstFP: dstFP}
	}

	minx, miny, maxx, maxy := dstFP.Extent()
	c0x, c0y := srcFP.SpatialToRaster(minx, maxy, footprint.OpFloor)
	c1x, c1y := srcFP.SpatialToRaster(maxx, miny, footprint.OpCeil)
	if c1x <= c0x {
		c1x = c0x + 1
	}
	if c1y <= c0y {
		c1y = c0y + 1
	}

	candidate, err := srcFP.Sub(c0x, c0y, c1x-c0x, c1y-c0y)
	if err != nil {
		return footprint.Footprint{}, false, err
	}
	dilated := candidate.Dilate(method.Dilation())

	clipped, err := footprint.Intersect(dilated, srcFP, significant)
	if err != nil {
		return footprint.Footprint{}, false, nil
	}
	return clipped, true, nil
}

// boxExtent returns, for a dstFP resampled from srcFP, the number of source
// pixels one destination pixel spans along each axis — the box width
// InterpArea uses to decide how many neighbors to average.
func boxExtent(srcFP, dstFP footprint.Footprint) (boxW, boxH float64) {
	ssx, ssy := srcFP.Scale()
	dsx, dsy := dstFP.Scale()[0], dstFP.Scale()[1]
	boxW = absRatio(dsx, ssx)
	boxH = absRatio(dsy, ssy)
	return
}

func absRatio(a, b float64) float64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if b == 0 {
		return 1
	}
	return a / b
}
