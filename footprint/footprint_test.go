package footprint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, tl [2]float64, scale [2]float64, rsize [2]int) Footprint {
	t.Helper()
	fp, err := New(tl, scale, rsize, 0)
	require.NoError(t, err)
	return fp
}

func TestSameGridReflexive(t *testing.T) {
	fp := mustNew(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	require.True(t, fp.SameGrid(fp, 9))
	require.True(t, fp.Equals(fp, 9))
}

func TestSliceInRoundTrip(t *testing.T) {
	src := mustNew(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	dst := mustNew(t, [2]float64{3, 7}, [2]float64{1, -1}, [2]int{4, 4})

	require.True(t, dst.SameGrid(src, 9))

	sl, err := dst.SliceIn(src, false)
	require.NoError(t, err)
	require.Equal(t, Slice{Row0: 3, Row1: 7, Col0: 3, Col1: 7}, sl)

	// Indexing src's meshgrid at sl should recover dst's meshgrid.
	cols, rows := src.MeshgridRaster()
	dcols, drows := dst.MeshgridRaster()
	k := 0
	for y := sl.Row0; y < sl.Row1; y++ {
		for x := sl.Col0; x < sl.Col1; x++ {
			idx := y*src.rsizex + x
			require.Equal(t, cols[idx]-sl.Col0, dcols[k])
			require.Equal(t, rows[idx]-sl.Row0, drows[k])
			k++
		}
	}
}

func TestShareArea(t *testing.T) {
	a := mustNew(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	b := mustNew(t, [2]float64{20, 20}, [2]float64{1, -1}, [2]int{5, 5})
	require.False(t, a.ShareArea(b))

	c := mustNew(t, [2]float64{5, 8}, [2]float64{1, -1}, [2]int{5, 5})
	require.True(t, a.ShareArea(c))
}

func TestTileCountShrink(t *testing.T) {
	fp := mustNew(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	tiles, err := fp.TileCount([2]int{3, 1})
	require.NoError(t, err)
	require.Len(t, tiles, 3)
	require.Equal(t, [2]int{4, 10}, tiles[0].RSize())
	require.Equal(t, [2]int{4, 10}, tiles[1].RSize())
	require.Equal(t, [2]int{2, 10}, tiles[2].RSize())
}

func TestIntersectionGridMismatch(t *testing.T) {
	a := mustNew(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	b := mustNew(t, [2]float64{0.5, 10}, [2]float64{1, -1}, [2]int{10, 10})
	_, err := Intersect(a, b, 9)
	var mismatch *ErrGridMismatch
	require.ErrorAs(t, err, &mismatch)
}
