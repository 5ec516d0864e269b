package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
)

func TestMemoryHandleReadsExactFootprintUnchanged(t *testing.T) {
	fp, err := footprint.New([2]float64{0, 10}, [2]float64{1, -1}, [2]int{4, 4}, 0)
	require.NoError(t, err)
	array := pixel.NewArray(4, 4, 1)
	for i := range array.Data {
		array.Data[i] = float64(i)
	}
	h, err := NewMemoryHandle(fp, array, nil, nil)
	require.NoError(t, err)

	got, mask, err := h.Read(fp, nil)
	require.NoError(t, err)
	require.Equal(t, array.Data, got.Data)
	for _, v := range mask.Data {
		require.True(t, v)
	}
}

func TestMemoryHandleSelectsChannels(t *testing.T) {
	fp, err := footprint.New([2]float64{0, 10}, [2]float64{1, -1}, [2]int{2, 2}, 0)
	require.NoError(t, err)
	array := pixel.NewArray(2, 2, 3)
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			for b := 0; b < 3; b++ {
				array.Set(row, col, b, float64(b+1))
			}
		}
	}
	h, err := NewMemoryHandle(fp, array, nil, nil)
	require.NoError(t, err)

	got, _, err := h.Read(fp, []int{2, 0})
	require.NoError(t, err)
	require.Equal(t, 2, got.Bands)
	require.Equal(t, 3.0, got.At(0, 0, 0))
	require.Equal(t, 1.0, got.At(0, 0, 1))
}

func TestNewMemoryHandleRejectsShapeMismatch(t *testing.T) {
	fp, err := footprint.New([2]float64{0, 10}, [2]float64{1, -1}, [2]int{4, 4}, 0)
	require.NoError(t, err)
	array := pixel.NewArray(3, 3, 1)
	_, err = NewMemoryHandle(fp, array, nil, nil)
	require.Error(t, err)
}
