package dataset

import (
	"github.com/google/uuid"

	"github.com/rasterflow/rasterflow/actor"
	"github.com/rasterflow/rasterflow/driver"
	"github.com/rasterflow/rasterflow/filecache"
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/raster"
	"github.com/rasterflow/rasterflow/remap"
	"github.com/rasterflow/rasterflow/workpool"
)

// RasterParams are the attributes every Handle needs regardless of Kind
// (spec.md §3 "Raster (core view)": stored/working Footprint, dtype,
// channel schema, mode, wkt_stored).
type RasterParams struct {
	FP           footprint.Footprint
	Dtype        string
	ChannelCount int
	Channels     []raster.ChannelSchema // defaulted (zero-value schema per channel) if nil
	Mode         raster.Mode
	WKTStored    string

	MaxResamplingSize  int // 0 = unset, never split a resample (spec.md §4.3)
	Interpolation      remap.Interpolation
	AllowInterpolation bool
	Significant        float64 // 0 = default (9.0)
}

func (p RasterParams) channelSchema() []raster.ChannelSchema {
	if p.Channels != nil {
		return p.Channels
	}
	return make([]raster.ChannelSchema, p.ChannelCount)
}

// newHandle assembles the common raster.Scheduled + actor.RasterActors
// pair every constructor below wires up, differing only in which fields
// of sch are populated before this is called.
func (d *Dataset) newHandle(kind Kind, sch *raster.Scheduled) *Handle {
	return &Handle{
		Kind:      kind,
		UID:       sch.UID,
		scheduled: sch,
		actors:    actor.NewRasterActors(sch, d.bus, d.observers),
		ds:        d,
	}
}

// OpenRaster opens a file-backed raster (spec.md §6 "open_raster(path,
// driver, options, mode)"). Raster file I/O is an out-of-scope external
// collaborator (spec.md §1): open is the caller-supplied driver.OpenFunc
// that actually knows how to read/write the backing format, taking the
// place of the source's `path`/`driver`/`options` triple at the one point
// this library touches a real codec.
func (d *Dataset) OpenRaster(key string, open driver.OpenFunc, params RasterParams) (*Handle, error) {
	if open == nil {
		return nil, &ErrConfig{Reason: "open_raster requires a non-nil driver.OpenFunc"}
	}
	sch := &raster.Scheduled{
		Info: raster.Info{
			FPStored: params.FP, FP: params.FP, Dtype: params.Dtype,
			ChannelCount: params.ChannelCount, Channels: params.channelSchema(),
			Mode: params.Mode, WKTStored: params.WKTStored,
		},
		UID:                uuid.New(),
		MaxResamplingSize:  params.MaxResamplingSize,
		Interpolation:       params.Interpolation,
		AllowInterpolation: params.AllowInterpolation,
		Significant:        params.Significant,
		Open:               open,
		IOPool:              workpool.New(1),
		ResamplePool:        workpool.New(1),
	}
	h := d.newHandle(FileBacked, sch)
	if err := d.register(key, h); err != nil {
		return nil, err
	}
	return h, nil
}

// CreateRaster creates a new file-backed raster via the same caller-
// supplied driver.OpenFunc boundary as OpenRaster (spec.md §6
// "create_raster(path, fp, dtype, channel_count, channels_schema, driver,
// options, sr, ow)"); ow (overwrite) is the caller's concern inside its
// own OpenFunc, since file creation itself is the out-of-scope codec work.
func (d *Dataset) CreateRaster(key string, open driver.OpenFunc, params RasterParams) (*Handle, error) {
	params.Mode = raster.ModeWrite
	return d.OpenRaster(key, open, params)
}

// WrapNumpyRaster registers an in-memory array as a raster (spec.md §6
// "wrap_numpy_raster(fp, array, channels_schema, sr, mode)"). array/mask
// must already be shaped to fp (driver.NewMemoryHandle's own check).
func (d *Dataset) WrapNumpyRaster(key string, params RasterParams, array *pixel.Array, mask *pixel.Mask, srcNodata *float64) (*Handle, error) {
	mh, err := driver.NewMemoryHandle(params.FP, array, mask, srcNodata)
	if err != nil {
		return nil, err
	}
	sch := &raster.Scheduled{
		Info: raster.Info{
			FPStored: params.FP, FP: params.FP, Dtype: params.Dtype,
			ChannelCount: params.ChannelCount, Channels: params.channelSchema(),
			Mode: params.Mode, WKTStored: params.WKTStored,
		},
		UID:                uuid.New(),
		MaxResamplingSize:  params.MaxResamplingSize,
		Interpolation:       params.Interpolation,
		AllowInterpolation: params.AllowInterpolation,
		Significant:        params.Significant,
		Open:               func() (driver.Handle, error) { return mh, nil },
		IOPool:              workpool.New(1),
		ResamplePool:        workpool.New(1),
	}
	h := d.newHandle(InMem, sch)
	if err := d.register(key, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Primitive is one named upstream dependency of a recipe (spec.md §3
// "Primitive binding"), referencing an already-registered Handle of this
// same Dataset so the dependency graph is acyclic by construction (spec.md
// §9 "recipes may only depend on already-constructed rasters; the
// construction order makes the dependency graph acyclic" — enforced here
// structurally, since a caller cannot obtain a *Handle for a raster that
// does not yet exist).
type Primitive struct {
	Upstream         *Handle
	Channels         []int
	ConvertFootprint func(footprint.Footprint) footprint.Footprint
}

// RecipeParams adds a recipe's compute/merge/primitive/pool configuration
// to RasterParams (spec.md §6 "create_raster_recipe(fp, dtype,
// channel_count, channels_schema, sr, compute_array, merge_arrays,
// queue_data_per_primitive, convert_footprint_per_primitive,
// computation_pool, merge_pool, resample_pool, computation_tiles,
// max_computation_size, max_resampling_size, automatic_remapping,
// debug_observers)").
type RecipeParams struct {
	RasterParams

	Compute    raster.ComputeFunc
	Merge      raster.MergeFunc
	Primitives map[string]Primitive

	ComputationPool interface{} // *workpool.Pool, nil, or a PoolsContainer alias key
	MergePool       interface{}
	ResamplePool    interface{}

	// ComputationTileCount splits FP into a countx*county grid of
	// computation tiles (spec.md §3 "computation_tiles (cover of fp, may
	// overlap)"); zero value means "no tiling, one computation unit".
	ComputationTileCount [2]int

	// AutomaticRemapping must be true: the off-grid/partial-extent direct-
	// dispatch mode the source supports when false (spec.md's `Automatic
	// Remapping` design note, "the scheduler will call your compute_array
	// function for any kind of Footprint") requires compute_array itself to
	// implement resampling and nodata padding, bypassing the query
	// planner/Resampler entirely. This is a recipe-author-facing escape
	// hatch, not scheduler machinery C1-C9 need to support, and is declined
	// here rather than silently downgraded to the always-on default.
	AutomaticRemapping bool
}

func (d *Dataset) resolvePool(p interface{}) (*workpool.Pool, error) {
	return d.pools.Resolve(p)
}

// CreateRasterRecipe creates an uncached, scheduler-managed recipe (spec.md
// §6); its pixels are produced on demand by Compute and never persisted.
func (d *Dataset) CreateRasterRecipe(key string, params RecipeParams) (*Handle, error) {
	if params.Compute == nil {
		return nil, &ErrConfig{Reason: "create_raster_recipe requires a non-nil compute_array"}
	}
	if !params.AutomaticRemapping {
		return nil, &ErrConfig{Reason: "automatic_remapping=false is not supported"}
	}

	computationPool, err := d.resolvePool(params.ComputationPool)
	if err != nil {
		return nil, err
	}
	mergePool, err := d.resolvePool(params.MergePool)
	if err != nil {
		return nil, err
	}
	resamplePool, err := d.resolvePool(params.ResamplePool)
	if err != nil {
		return nil, err
	}
	if computationPool == nil {
		computationPool = workpool.New(1)
	}
	if resamplePool == nil {
		resamplePool = workpool.New(1)
	}
	if mergePool == nil {
		mergePool = workpool.New(1)
	}

	var computationTiles []footprint.Footprint
	if params.ComputationTileCount[0] > 0 && params.ComputationTileCount[1] > 0 {
		computationTiles, err = params.FP.TileCount(params.ComputationTileCount)
		if err != nil {
			return nil, err
		}
	}

	primitives, err := buildPrimitiveBindings(params.Primitives)
	if err != nil {
		return nil, err
	}

	sch := &raster.Scheduled{
		Info: raster.Info{
			FPStored: params.FP, FP: params.FP, Dtype: params.Dtype,
			ChannelCount: params.ChannelCount, Channels: params.channelSchema(),
			Mode: raster.ModeRead, WKTStored: params.WKTStored,
		},
		UID:                uuid.New(),
		ComputationTiles:   computationTiles,
		MaxResamplingSize:  params.MaxResamplingSize,
		Interpolation:       params.Interpolation,
		AllowInterpolation: params.AllowInterpolation,
		Significant:        params.Significant,
		Primitives:         primitives,
		Compute:            params.Compute,
		Merge:              params.Merge,
		ComputationPool:    computationPool,
		MergePool:          mergePool,
		ResamplePool:       resamplePool,
	}
	h := d.newHandle(Recipe, sch)
	if err := d.register(key, h); err != nil {
		return nil, err
	}
	return h, nil
}

// CachedRecipeParams adds on-disk cache persistence to RecipeParams
// (spec.md §6 "create_cached_raster_recipe(..., cache_dir, ow,
// cache_tiles, computation_tiles, io_pool, ...)").
type CachedRecipeParams struct {
	RecipeParams

	CacheDir       string
	Overwrite      bool
	CacheTileCount [2]int // required: must partition FP (spec.md §3 "cache_tiles (partition of fp, non-overlapping)")
	IOPool         interface{}
}

// CreateCachedRasterRecipe creates a scheduler-managed, disk-persisted
// recipe (spec.md §6).
func (d *Dataset) CreateCachedRasterRecipe(key string, params CachedRecipeParams) (*Handle, error) {
	if params.CacheDir == "" {
		return nil, &ErrConfig{Reason: "create_cached_raster_recipe requires a non-empty cache_dir"}
	}
	if params.CacheTileCount[0] <= 0 || params.CacheTileCount[1] <= 0 {
		return nil, &ErrConfig{Reason: "create_cached_raster_recipe requires a positive cache_tiles count"}
	}

	h, err := d.CreateRasterRecipe("", params.RecipeParams)
	if err != nil {
		return nil, err
	}
	// CreateRasterRecipe already registered h anonymously; unregister it
	// and build the real, cache-backed Handle from its raster.Scheduled
	// instead. This avoids duplicating every validation/pool-resolution
	// step above for the cached case.
	d.mu.Lock()
	for i, a := range d.anon {
		if a == h {
			d.anon = append(d.anon[:i], d.anon[i+1:]...)
			break
		}
	}
	d.mu.Unlock()
	d.killRaster(h)

	cache, err := filecache.Open(params.CacheDir, params.Overwrite)
	if err != nil {
		return nil, err
	}
	ioPool, err := d.resolvePool(params.IOPool)
	if err != nil {
		return nil, err
	}
	if ioPool == nil {
		ioPool = workpool.New(1)
	}

	cacheTiles, err := params.FP.TileCount(params.CacheTileCount)
	if err != nil {
		return nil, err
	}

	sch := h.scheduled
	sch.UID = uuid.New()
	sch.Cache = cache
	sch.CacheTiles = cacheTiles
	sch.IOPool = ioPool

	h2 := d.newHandle(CachedRecipe, sch)
	if err := d.register(key, h2); err != nil {
		return nil, err
	}
	return h2, nil
}

func buildPrimitiveBindings(primitives map[string]Primitive) (map[string]raster.PrimitiveBinding, error) {
	if len(primitives) == 0 {
		return nil, nil
	}
	out := make(map[string]raster.PrimitiveBinding, len(primitives))
	for name, p := range primitives {
		if p.Upstream == nil {
			return nil, &ErrConfig{Reason: "primitive \"" + name + "\" has a nil Upstream"}
		}
		out[name] = raster.PrimitiveBinding{
			Name:             name,
			Upstream:         p.Upstream,
			Channels:         p.Channels,
			ConvertFootprint: p.ConvertFootprint,
		}
	}
	return out, nil
}
