package remap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
)

func mustFP(t *testing.T, tl [2]float64, scale [2]float64, rsize [2]int) footprint.Footprint {
	t.Helper()
	fp, err := footprint.New(tl, scale, rsize, 0)
	require.NoError(t, err)
	return fp
}

func fillRowCol(a *pixel.Array) {
	for row := 0; row < a.Rows; row++ {
		for col := 0; col < a.Cols; col++ {
			a.Set(row, col, 0, float64(row*100+col))
		}
	}
}

func TestRemapIdentity(t *testing.T) {
	fp := mustFP(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	arr := pixel.NewArray(10, 10, 1)
	fillRowCol(arr)

	out, _, err := Remap(fp, fp, arr, nil, Options{})
	require.NoError(t, err)
	require.Same(t, arr, out)
}

func TestRemapSameGridSlice(t *testing.T) {
	src := mustFP(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	dst := mustFP(t, [2]float64{3, 7}, [2]float64{1, -1}, [2]int{4, 4})
	arr := pixel.NewArray(10, 10, 1)
	fillRowCol(arr)

	out, _, err := Remap(src, dst, arr, nil, Options{DstNodata: -1})
	require.NoError(t, err)
	require.Equal(t, 4, out.Rows)
	require.Equal(t, 4, out.Cols)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			require.Equal(t, float64((r+3)*100+(c+3)), out.At(r, c, 0))
		}
	}
}

func TestRemapSameGridFullyOutside(t *testing.T) {
	src := mustFP(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	dst := mustFP(t, [2]float64{20, 20}, [2]float64{1, -1}, [2]int{5, 5})
	arr := pixel.NewArray(10, 10, 1)
	fillRowCol(arr)

	out, _, err := Remap(src, dst, arr, nil, Options{DstNodata: -99})
	require.NoError(t, err)
	for i := range out.Data {
		require.Equal(t, -99.0, out.Data[i])
	}
}

func TestRemapInterpolationForbidden(t *testing.T) {
	src := mustFP(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	dst := mustFP(t, [2]float64{0.5, 10}, [2]float64{1, -1}, [2]int{10, 10})
	arr := pixel.NewArray(10, 10, 1)

	_, _, err := Remap(src, dst, arr, nil, Options{AllowInterpolation: false})
	require.Error(t, err)
	var forbidden *ErrInterpolationForbidden
	require.ErrorAs(t, err, &forbidden)
}

func TestRemapNearestUpsample(t *testing.T) {
	src := mustFP(t, [2]float64{0, 4}, [2]float64{1, -1}, [2]int{4, 4})
	dst := mustFP(t, [2]float64{0, 4}, [2]float64{0.5, -0.5}, [2]int{8, 8})
	arr := pixel.NewArray(4, 4, 1)
	fillRowCol(arr)

	out, _, err := Remap(src, dst, arr, nil, Options{
		AllowInterpolation: true,
		Interpolation:      InterpNearest,
		DstNodata:          -1,
	})
	require.NoError(t, err)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			want := float64((row/2)*100 + col/2)
			require.Equal(t, want, out.At(row, col, 0))
		}
	}
}

func TestRemapMaskErodeDilate(t *testing.T) {
	src := mustFP(t, [2]float64{0, 4}, [2]float64{1, -1}, [2]int{4, 4})
	dst := mustFP(t, [2]float64{0.5, 3.5}, [2]float64{1, -1}, [2]int{3, 3})
	mask := pixel.NewMask(4, 4)
	mask.Fill(true)
	mask.Set(0, 0, false)

	_, outErode, err := Remap(src, dst, nil, mask, Options{
		AllowInterpolation: true,
		Interpolation:      InterpLinear,
		MaskMode:           MaskErode,
	})
	require.NoError(t, err)
	require.False(t, outErode.At(0, 0), "erode: pixel touching the invalid source corner must be invalid")

	_, outDilate, err := Remap(src, dst, nil, mask, Options{
		AllowInterpolation: true,
		Interpolation:      InterpLinear,
		MaskMode:           MaskDilate,
	})
	require.NoError(t, err)
	require.True(t, outDilate.At(0, 0), "dilate: pixel touching any valid source contact must be valid")
}
