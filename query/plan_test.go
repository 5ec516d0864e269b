package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/remap"
)

func mustFP(t *testing.T, tl [2]float64, scale [2]float64, rsize [2]int) footprint.Footprint {
	t.Helper()
	fp, err := footprint.New(tl, scale, rsize, 0)
	require.NoError(t, err)
	return fp
}

func rasterFixture(t *testing.T) (RasterInfo, footprint.Footprint) {
	t.Helper()
	fp := mustFP(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{10, 10})
	tiles, err := fp.Tile([2]int{5, 5}, [2]int{0, 0}, footprint.BoundaryExtend)
	require.NoError(t, err)
	return RasterInfo{
		FP:                 fp,
		CacheTiles:         tiles,
		Interpolation:      remap.InterpLinear,
		AllowInterpolation: true,
	}, fp
}

func TestPlanSameGridFullyInside(t *testing.T) {
	raster, _ := rasterFixture(t)
	prodFP := mustFP(t, [2]float64{2, 8}, [2]float64{1, -1}, [2]int{3, 3})

	plan, err := Build(raster, []footprint.Footprint{prodFP})
	require.NoError(t, err)
	require.Len(t, plan.Items, 1)

	item := plan.Items[0]
	require.True(t, item.SameGrid)
	require.True(t, item.SharesArea)
	require.NotNil(t, item.SampleFP)
	require.Equal(t, []footprint.Footprint{prodFP}, item.ResampleFPs)
	require.NotEmpty(t, item.CacheTiles, "a 3x3 sample footprint must overlap at least one 5x5 cache tile")
}

func TestPlanOutsideRaster(t *testing.T) {
	raster, _ := rasterFixture(t)
	prodFP := mustFP(t, [2]float64{100, 100}, [2]float64{1, -1}, [2]int{3, 3})

	plan, err := Build(raster, []footprint.Footprint{prodFP})
	require.NoError(t, err)

	item := plan.Items[0]
	require.False(t, item.SharesArea)
	require.Nil(t, item.SampleFP)
	require.Empty(t, item.CacheTiles)
	require.Equal(t, []footprint.Footprint{prodFP}, item.ResampleFPs)
}

func TestPlanResamplingDifferentGrid(t *testing.T) {
	raster, _ := rasterFixture(t)
	prodFP := mustFP(t, [2]float64{1, 9}, [2]float64{0.5, -0.5}, [2]int{6, 6})

	plan, err := Build(raster, []footprint.Footprint{prodFP})
	require.NoError(t, err)

	item := plan.Items[0]
	require.False(t, item.SameGrid)
	require.True(t, item.SharesArea)
	require.NotNil(t, item.SampleFP)
	require.NotEmpty(t, item.CacheTiles)
}

func TestPlanMaxResamplingSizeSplits(t *testing.T) {
	raster, _ := rasterFixture(t)
	raster.MaxResamplingSize = 2
	prodFP := mustFP(t, [2]float64{0, 10}, [2]float64{0.5, -0.5}, [2]int{8, 8})

	plan, err := Build(raster, []footprint.Footprint{prodFP})
	require.NoError(t, err)

	item := plan.Items[0]
	require.Greater(t, len(item.ResampleFPs), 1, "resample must split when max_resampling_size is exceeded")
	for _, rfp := range item.ResampleFPs {
		_, ok := item.ResampleSampleDep[rfp]
		require.True(t, ok)
	}
}

func TestPlanCacheTileProducersInverseIndex(t *testing.T) {
	raster, _ := rasterFixture(t)
	a := mustFP(t, [2]float64{0, 10}, [2]float64{1, -1}, [2]int{3, 3})
	b := mustFP(t, [2]float64{1, 9}, [2]float64{1, -1}, [2]int{3, 3})

	plan, err := Build(raster, []footprint.Footprint{a, b})
	require.NoError(t, err)
	require.NotEmpty(t, plan.CacheTiles)

	for _, ct := range plan.CacheTiles {
		producers := plan.CacheTileProducers[ct]
		require.NotEmpty(t, producers)
		for _, idx := range producers {
			require.Contains(t, plan.Items[idx].CacheTiles, ct)
		}
	}
}
