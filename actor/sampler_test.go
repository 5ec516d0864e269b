package actor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
)

// TestBlitReadsOffsetWhenSrcExtendsPastDstOrigin covers the case a
// whole-fp query can never exercise: a cache tile overlapping the sample
// footprint's top-left corner, where the tile extends above/left of it. A
// destination pixel must read from the tile pixel at the matching offset,
// not from the tile's own (0,0).
func TestBlitReadsOffsetWhenSrcExtendsPastDstOrigin(t *testing.T) {
	raster, err := footprint.New([2]float64{0, 100}, [2]float64{1, -1}, [2]int{100, 100}, 0)
	require.NoError(t, err)

	// Cache tile (0,0)-(20,20).
	tileFP, err := raster.Sub(0, 0, 20, 20)
	require.NoError(t, err)

	// Sample footprint starting at raster pixel (10,10), size 20x20: it
	// overlaps tileFP only in tileFP's bottom-right 10x10 quadrant.
	sampleFP, err := raster.Sub(10, 10, 20, 20)
	require.NoError(t, err)

	src := pixel.NewArray(20, 20, 1)
	for row := 0; row < 20; row++ {
		for col := 0; col < 20; col++ {
			src.Set(row, col, 0, float64(row*100+col))
		}
	}
	srcMask := pixel.NewMask(20, 20)

	dst := pixel.NewArray(20, 20, 1)
	dstMask := pixel.NewMask(20, 20)
	dstMask.Fill(false)

	blit(dst, dstMask, sampleFP, src, srcMask, tileFP)

	// dst(0,0) must come from tile pixel (10,10), not tile pixel (0,0).
	require.Equal(t, float64(10*100+10), dst.At(0, 0, 0))
	require.True(t, dstMask.At(0, 0))

	// Only the top-left 10x10 block of dst is covered by this one tile.
	require.Equal(t, float64(19*100+19), dst.At(9, 9, 0))
	require.False(t, dstMask.At(10, 10), "outside this tile's overlap, dst must stay untouched")
	require.Equal(t, 0.0, dst.At(15, 15, 0))
}

func TestBlitNoOverlapIsNoop(t *testing.T) {
	raster, err := footprint.New([2]float64{0, 100}, [2]float64{1, -1}, [2]int{100, 100}, 0)
	require.NoError(t, err)
	tileFP, err := raster.Sub(0, 0, 20, 20)
	require.NoError(t, err)
	sampleFP, err := raster.Sub(50, 50, 20, 20)
	require.NoError(t, err)

	src := pixel.NewArray(20, 20, 1)
	src.Fill(7)
	srcMask := pixel.NewMask(20, 20)

	dst := pixel.NewArray(20, 20, 1)
	dstMask := pixel.NewMask(20, 20)
	dstMask.Fill(false)

	blit(dst, dstMask, sampleFP, src, srcMask, tileFP)

	for _, v := range dst.Data {
		require.Equal(t, 0.0, v)
	}
	for _, v := range dstMask.Data {
		require.False(t, v)
	}
}
