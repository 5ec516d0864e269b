package footprint

// MeshgridRaster returns, for every pixel of fp, its (col, row) integer
// raster-space index as two row-major flattened slices of length
// rsizex*rsizey. Mirrors buzzard's Footprint.meshgrid_raster.
func (fp Footprint) MeshgridRaster() (cols, rows []int) {
	n := fp.rsizex * fp.rsizey
	cols = make([]int, n)
	rows = make([]int, n)
	i := 0
	for y := 0; y < fp.rsizey; y++ {
		for x := 0; x < fp.rsizex; x++ {
			cols[i] = x
			rows[i] = y
			i++
		}
	}
	return
}

// MeshgridSpatial returns, for every pixel of fp, its spatial-space center
// coordinate as two row-major flattened slices. Mirrors
// Footprint.meshgrid_spatial.
func (fp Footprint) MeshgridSpatial() (xs, ys []float64) {
	n := fp.rsizex * fp.rsizey
	xs = make([]float64, n)
	ys = make([]float64, n)
	i := 0
	for y := 0; y < fp.rsizey; y++ {
		for x := 0; x < fp.rsizex; x++ {
			p := fp.rasterToSpatial(float64(x)+0.5, float64(y)+0.5)
			xs[i] = p[0]
			ys[i] = p[1]
			i++
		}
	}
	return
}

// MeshgridRasterIn expresses every pixel center of fp in other's fractional
// raster space; used by the remap kernel to build the resampling map
// (spec.md §4.1 "build a meshgrid of dst_fp pixel centers expressed in
// src_fp raster coordinates").
func (fp Footprint) MeshgridRasterIn(other Footprint) (px, py [][]float64) {
	px = make([][]float64, fp.rsizey)
	py = make([][]float64, fp.rsizey)
	for y := 0; y < fp.rsizey; y++ {
		px[y] = make([]float64, fp.rsizex)
		py[y] = make([]float64, fp.rsizex)
		for x := 0; x < fp.rsizex; x++ {
			p := fp.rasterToSpatial(float64(x)+0.5, float64(y)+0.5)
			fx, fy := other.spatialToRasterF(p[0], p[1])
			px[y][x] = fx
			py[y][x] = fy
		}
	}
	return
}
