package dataset

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/raster"
	"github.com/rasterflow/rasterflow/remap"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.PollInterval = time.Millisecond
	return opts
}

func squareFP(t *testing.T, size int) footprint.Footprint {
	t.Helper()
	fp, err := footprint.New([2]float64{0, float64(size)}, [2]float64{1, -1}, [2]int{size, size}, 0)
	require.NoError(t, err)
	return fp
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.MaxActive = 0
	_, err := New(opts)
	require.Error(t, err)
	require.IsType(t, &ErrConfig{}, err)
}

func TestWrapNumpyRasterRoundTripsThroughGetData(t *testing.T) {
	ds, err := New(testOptions())
	require.NoError(t, err)
	defer ds.Close()

	fp := squareFP(t, 4)
	array := pixel.NewArray(4, 4, 1)
	for i := range array.Data {
		array.Data[i] = float64(i)
	}

	h, err := ds.WrapNumpyRaster("roofs", RasterParams{FP: fp, Dtype: "float64", ChannelCount: 1}, array, nil, nil)
	require.NoError(t, err)
	require.Equal(t, InMem, h.Kind)

	got, err := ds.Get("roofs")
	require.NoError(t, err)
	require.Same(t, h, got)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	gotArr, gotMask, err := h.GetData(ctx, fp, nil, 0, remap.InterpNearest)
	require.NoError(t, err)
	require.Equal(t, array.Data, gotArr.Data)
	for _, v := range gotMask.Data {
		require.True(t, v)
	}
}

func TestRegisterRejectsDuplicateKey(t *testing.T) {
	ds, err := New(testOptions())
	require.NoError(t, err)
	defer ds.Close()

	fp := squareFP(t, 2)
	array := pixel.NewArray(2, 2, 1)

	_, err = ds.WrapNumpyRaster("dup", RasterParams{FP: fp, ChannelCount: 1}, array, nil, nil)
	require.NoError(t, err)

	_, err = ds.WrapNumpyRaster("dup", RasterParams{FP: fp, ChannelCount: 1}, array, nil, nil)
	require.Error(t, err)
}

func TestGetUnknownKeyFails(t *testing.T) {
	ds, err := New(testOptions())
	require.NoError(t, err)
	defer ds.Close()

	_, err = ds.Get("does-not-exist")
	require.Error(t, err)
	require.IsType(t, &ErrUnknownKey{}, err)
}

func TestCreateRasterRecipeRequiresComputeFunc(t *testing.T) {
	ds, err := New(testOptions())
	require.NoError(t, err)
	defer ds.Close()

	_, err = ds.CreateRasterRecipe("recipe", RecipeParams{
		RasterParams:       RasterParams{FP: squareFP(t, 4), ChannelCount: 1},
		AutomaticRemapping: true,
	})
	require.Error(t, err)
	require.IsType(t, &ErrConfig{}, err)
}

func TestCreateRasterRecipeRejectsManualRemapping(t *testing.T) {
	ds, err := New(testOptions())
	require.NoError(t, err)
	defer ds.Close()

	compute := func(fp footprint.Footprint, primFPs map[string]footprint.Footprint, primArrays map[string]*pixel.Array) (*pixel.Array, *pixel.Mask, error) {
		return pixel.NewArray(1, 1, 1), nil, nil
	}

	_, err = ds.CreateRasterRecipe("recipe", RecipeParams{
		RasterParams:       RasterParams{FP: squareFP(t, 4), ChannelCount: 1},
		Compute:            compute,
		AutomaticRemapping: false,
	})
	require.Error(t, err)
}

func TestCreateRasterRecipeComputesOnDemand(t *testing.T) {
	ds, err := New(testOptions())
	require.NoError(t, err)
	defer ds.Close()

	fp := squareFP(t, 4)
	called := 0
	compute := func(cfp footprint.Footprint, primFPs map[string]footprint.Footprint, primArrays map[string]*pixel.Array) (*pixel.Array, *pixel.Mask, error) {
		called++
		shape := cfp.Shape()
		arr := pixel.NewArray(shape[0], shape[1], 1)
		arr.Fill(42)
		return arr, nil, nil
	}

	h, err := ds.CreateRasterRecipe("recipe", RecipeParams{
		RasterParams:       RasterParams{FP: fp, ChannelCount: 1},
		Compute:            compute,
		AutomaticRemapping: true,
	})
	require.NoError(t, err)
	require.Equal(t, Recipe, h.Kind)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	arr, _, err := h.GetData(ctx, fp, nil, 0, remap.InterpNearest)
	require.NoError(t, err)
	require.Equal(t, 42.0, arr.At(0, 0, 0))
	require.Equal(t, 1, called)
}

func TestCreateCachedRasterRecipeRequiresCacheDir(t *testing.T) {
	ds, err := New(testOptions())
	require.NoError(t, err)
	defer ds.Close()

	compute := func(fp footprint.Footprint, primFPs map[string]footprint.Footprint, primArrays map[string]*pixel.Array) (*pixel.Array, *pixel.Mask, error) {
		return pixel.NewArray(1, 1, 1), nil, nil
	}

	_, err = ds.CreateCachedRasterRecipe("cached", CachedRecipeParams{
		RecipeParams: RecipeParams{
			RasterParams:       RasterParams{FP: squareFP(t, 4), ChannelCount: 1},
			Compute:            compute,
			AutomaticRemapping: true,
		},
		CacheTileCount: [2]int{2, 2},
	})
	require.Error(t, err)
	require.IsType(t, &ErrConfig{}, err)
}

func TestCreateCachedRasterRecipeWritesThroughCache(t *testing.T) {
	ds, err := New(testOptions())
	require.NoError(t, err)
	defer ds.Close()

	fp := squareFP(t, 4)
	compute := func(cfp footprint.Footprint, primFPs map[string]footprint.Footprint, primArrays map[string]*pixel.Array) (*pixel.Array, *pixel.Mask, error) {
		shape := cfp.Shape()
		arr := pixel.NewArray(shape[0], shape[1], 1)
		arr.Fill(7)
		return arr, nil, nil
	}

	h, err := ds.CreateCachedRasterRecipe("cached", CachedRecipeParams{
		RecipeParams: RecipeParams{
			RasterParams:       RasterParams{FP: fp, ChannelCount: 1},
			Compute:            compute,
			AutomaticRemapping: true,
		},
		CacheDir:       t.TempDir(),
		CacheTileCount: [2]int{2, 2},
	})
	require.NoError(t, err)
	require.Equal(t, CachedRecipe, h.Kind)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	arr, _, err := h.GetData(ctx, fp, nil, 0, remap.InterpNearest)
	require.NoError(t, err)
	require.Equal(t, 7.0, arr.At(0, 0, 0))
}

func TestHandleOperationsFailAfterClose(t *testing.T) {
	ds, err := New(testOptions())
	require.NoError(t, err)

	fp := squareFP(t, 2)
	array := pixel.NewArray(2, 2, 1)
	h, err := ds.WrapNumpyRaster("roofs", RasterParams{FP: fp, ChannelCount: 1}, array, nil, nil)
	require.NoError(t, err)

	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close(), "Close must be idempotent")

	_, err = h.QueueData(context.Background(), []footprint.Footprint{fp}, nil, 0, remap.InterpNearest, 1)
	require.Error(t, err)
	require.IsType(t, &ErrSchedulerDead{}, err)

	_, err = ds.WrapNumpyRaster("other", RasterParams{FP: fp, ChannelCount: 1}, array, nil, nil)
	require.Error(t, err)
}

var _ raster.Backend = (*Handle)(nil)
