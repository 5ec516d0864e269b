package remap

import (
	"math"

	"github.com/rasterflow/rasterflow/pixel"
)

// Interpolation selects the resampling kernel used when source and
// destination footprints don't share a grid (spec.md §4.1).
type Interpolation int

const (
	InterpArea Interpolation = iota
	InterpNearest
	InterpLinear
	InterpCubic
	InterpLanczos4
)

func (i Interpolation) String() string {
	switch i {
	case InterpArea:
		return "area"
	case InterpNearest:
		return "nearest"
	case InterpLinear:
		return "linear"
	case InterpCubic:
		return "cubic"
	case InterpLanczos4:
		return "lanczos4"
	default:
		return "unknown"
	}
}

// Dilation is the number of extra source pixels BuildSamplingFootprint pads
// on every side so the kernel always has enough neighbors to sample
// (spec.md §4.1: "1 for nearest, 2 for linear/area, 4 for cubic/lanczos").
func (i Interpolation) Dilation() int {
	switch i {
	case InterpNearest:
		return 1
	case InterpCubic, InterpLanczos4:
		return 4
	default:
		return 2
	}
}

// taps1D returns, for a center-indexed fractional coordinate cx (cx == k
// means exactly at the center of source pixel k), the source pixel indices
// and weights the kernel draws from. boxWidth is only consulted for
// InterpArea: the number of source pixels one destination pixel spans along
// this axis.
func taps1D(method Interpolation, cx, boxWidth float64) (offsets []int, weights []float64) {
	k0 := int(math.Floor(cx))
	t := cx - float64(k0)

	switch method {
	case InterpNearest:
		if t < 0.5 {
			return []int{k0}, []float64{1}
		}
		return []int{k0 + 1}, []float64{1}

	case InterpLinear:
		return []int{k0, k0 + 1}, []float64{1 - t, t}

	case InterpCubic:
		offs := []int{k0 - 1, k0, k0 + 1, k0 + 2}
		ws := make([]float64, 4)
		sum := 0.0
		for i, o := range offs {
			ws[i] = cubicWeight(math.Abs(cx - float64(o)))
			sum += ws[i]
		}
		normalize(ws, sum)
		return offs, ws

	case InterpLanczos4:
		offs := make([]int, 8)
		ws := make([]float64, 8)
		sum := 0.0
		for i := -3; i <= 4; i++ {
			offs[i+3] = k0 + i
			ws[i+3] = lanczosWeight(math.Abs(cx-float64(k0+i)), 4)
			sum += ws[i+3]
		}
		normalize(ws, sum)
		return offs, ws

	case InterpArea:
		if boxWidth <= 1.0001 {
			// Not downsampling on this axis: area degenerates to linear.
			return []int{k0, k0 + 1}, []float64{1 - t, t}
		}
		half := boxWidth / 2
		lo := int(math.Round(cx - half))
		hi := int(math.Round(cx + half))
		if hi <= lo {
			hi = lo + 1
		}
		n := hi - lo
		offs := make([]int, n)
		ws := make([]float64, n)
		w := 1.0 / float64(n)
		for i := 0; i < n; i++ {
			offs[i] = lo + i
			ws[i] = w
		}
		return offs, ws

	default:
		return []int{k0}, []float64{1}
	}
}

func normalize(ws []float64, sum float64) {
	if sum == 0 {
		return
	}
	for i := range ws {
		ws[i] /= sum
	}
}

// cubicWeight is the Keys cubic convolution kernel with a=-0.5 (the
// "Catmull-Rom" variant most image libraries default to for bicubic).
func cubicWeight(d float64) float64 {
	const a = -0.5
	switch {
	case d <= 1:
		return (a+2)*d*d*d - (a+3)*d*d + 1
	case d < 2:
		return a*d*d*d - 5*a*d*d + 8*a*d - 4*a
	default:
		return 0
	}
}

// lanczosWeight is the windowed-sinc Lanczos kernel of radius a.
func lanczosWeight(d, a float64) float64 {
	if d == 0 {
		return 1
	}
	if d >= a {
		return 0
	}
	piD := math.Pi * d
	return a * math.Sin(piD) * math.Sin(piD/a) / (piD * piD)
}

// sampleRaw reads arr at (row, col, band), reporting invalid when the index
// falls outside arr's bounds or equals srcNodata (nil disables the check).
func sampleRaw(arr *pixel.Array, band, row, col int, srcNodata *float64) (value float64, invalid bool) {
	if row < 0 || row >= arr.Rows || col < 0 || col >= arr.Cols {
		return 0, true
	}
	v := arr.At(row, col, band)
	if srcNodata != nil && v == *srcNodata {
		return v, true
	}
	return v, false
}

// sampleArrayBand resamples one band of arr at (fx, fy), fx/fy being
// corner-indexed fractional source-pixel coordinates (as produced by
// footprint.MeshgridRasterIn). It returns the resampled value and, when
// srcNodata is set, the fraction of contributing kernel weight that landed
// on a nodata or out-of-bounds sample — a nonzero nodataWeight means the
// caller should use dstNodata instead of value (spec.md §4.1 "prevent
// nodata bleeding through interpolation").
func sampleArrayBand(arr *pixel.Array, band int, fx, fy float64, method Interpolation, boxW, boxH float64, srcNodata *float64) (value, nodataWeight float64) {
	cx, cy := fx-0.5, fy-0.5
	xo, xw := taps1D(method, cx, boxW)
	yo, yw := taps1D(method, cy, boxH)

	var sum, wsum, nodataSum float64
	for yi, row := range yo {
		for xi, col := range xo {
			w := xw[xi] * yw[yi]
			wsum += w
			if srcNodata == nil {
				v, _ := sampleRaw(arr, band, row, col, nil)
				sum += v * w
				continue
			}
			v, invalid := sampleRaw(arr, band, row, col, srcNodata)
			if invalid {
				nodataSum += w
				continue
			}
			sum += v * w
		}
	}
	if wsum == 0 {
		return 0, 1
	}
	if srcNodata == nil {
		return sum / wsum, 0
	}
	return sum / wsum, nodataSum / wsum
}

// sampleMaskWeighted resamples a boolean mask at (fx, fy), treating
// out-of-bounds samples as outsideValue (0 for erode, 1 for dilate —
// spec.md §4.1 "erode ... dilate").
func sampleMaskWeighted(mask *pixel.Mask, fx, fy float64, method Interpolation, boxW, boxH, outsideValue float64) float64 {
	cx, cy := fx-0.5, fy-0.5
	xo, xw := taps1D(method, cx, boxW)
	yo, yw := taps1D(method, cy, boxH)

	var sum, wsum float64
	for yi, row := range yo {
		for xi, col := range xo {
			w := xw[xi] * yw[yi]
			wsum += w
			var v float64
			if row < 0 || row >= mask.Rows || col < 0 || col >= mask.Cols {
				v = outsideValue
			} else if mask.At(row, col) {
				v = 1
			}
			sum += v * w
		}
	}
	if wsum == 0 {
		return outsideValue
	}
	return sum / wsum
}
