// Package raster holds the data-model types spec.md §3 describes:
// channel schema, the read contract every raster exposes, the extra
// bookkeeping a scheduler-managed ("scheduled") raster carries, cache
// tile state, and primitive bindings for recipes. It is consumed by
// package actor (C7) and assembled by package dataset (C11); it holds no
// scheduling logic of its own.
package raster

import (
	"context"

	"github.com/google/uuid"

	"github.com/rasterflow/rasterflow/driver"
	"github.com/rasterflow/rasterflow/filecache"
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/remap"
	"github.com/rasterflow/rasterflow/workpool"
)

// Mode is a raster's ownership/access mode (spec.md §3 "ownership
// mode∈{read, write}").
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
)

// ChannelSchema describes one channel's interpretation (spec.md §3
// "channel-schema (nodata, interpretation, offset, scale, mask)").
type ChannelSchema struct {
	Nodata         *float64
	Interpretation string
	Offset         float64
	Scale          float64
	HasMask        bool
}

// Backend is the read (and, for recipes, compute-backed) contract every
// raster exposes (spec.md §3 "get_data(fp, channels, dst_nodata,
// interpolation) -> array").
type Backend interface {
	GetData(ctx context.Context, fp footprint.Footprint, channels []int, dstNodata float64, interpolation remap.Interpolation) (*pixel.Array, *pixel.Mask, error)
}

// Info is the essential attribute set every raster carries (spec.md §3
// "Raster (core view)").
type Info struct {
	FPStored     footprint.Footprint // the Footprint as originally stored
	FP           footprint.Footprint // the working Footprint (may be a view)
	Dtype        string
	ChannelCount int
	Channels     []ChannelSchema
	Mode         Mode
	WKTStored    string
}

// ComputeFunc is a recipe's pixel-producing function (spec.md §4.6
// "Computer: submits compute_array(fp, primitive_fps, primitive_arrays,
// raster_ref_or_None)"). raster_ref is omitted here: a ComputeFunc
// receives only the footprint and its primitives' footprints and arrays,
// never a reference to the raster itself.
type ComputeFunc func(fp footprint.Footprint, primitiveFPs map[string]footprint.Footprint, primitiveArrays map[string]*pixel.Array) (*pixel.Array, *pixel.Mask, error)

// MergeFunc combines the pieces of a cache tile that spans more than one
// computation tile (spec.md §4.6 "Merger: ... submits merge_arrays(fp,
// {fp→arr}, raster)").
type MergeFunc func(fp footprint.Footprint, pieces map[footprint.Footprint]*pixel.Array) (*pixel.Array, *pixel.Mask, error)

// PrimitiveBinding is one named upstream dependency of a recipe (spec.md
// §3 "Primitive binding. For recipes: a map name -> (upstream_raster,
// curried params, footprint_transform)").
type PrimitiveBinding struct {
	Name             string
	Upstream         Backend
	Channels         []int
	ConvertFootprint func(footprint.Footprint) footprint.Footprint
}

// CacheTileState is one cache tile's lifecycle state (spec.md §3 "Cache
// tile ... State is one of: unknown, absent, checking, ready, writing,
// missing_after_corruption").
type CacheTileState int

const (
	StateUnknown CacheTileState = iota
	StateAbsent
	StateChecking
	StateReady
	StateWriting
	StateMissingAfterCorruption
)

func (s CacheTileState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAbsent:
		return "absent"
	case StateChecking:
		return "checking"
	case StateReady:
		return "ready"
	case StateWriting:
		return "writing"
	case StateMissingAfterCorruption:
		return "missing_after_corruption"
	default:
		return "invalid"
	}
}

// Scheduled is the full state of one scheduler-managed raster (spec.md §3
// "Scheduled raster extras"): its identity, its cache/computation
// tilings, its pools, its recipe bindings (if any), and its persistence.
type Scheduled struct {
	Info

	UID uuid.UUID

	// CacheTiles partitions FP (non-overlapping); ComputationTiles covers FP
	// and may overlap (spec.md §3).
	CacheTiles       []footprint.Footprint
	ComputationTiles []footprint.Footprint

	MaxResamplingSize  int
	Interpolation      remap.Interpolation
	AllowInterpolation bool
	Significant        float64

	// Primitives and Compute/Merge are nil for a plain file-backed or
	// in-memory raster; non-nil identifies a recipe.
	Primitives map[string]PrimitiveBinding
	Compute    ComputeFunc
	Merge      MergeFunc

	Cache *filecache.Cache // nil for an uncached recipe or a plain raster

	// Open allocates a driver.Handle for this raster's stored data (spec.md
	// §3 "Raster (core view)" get_data contract); Sampler calls it directly
	// for each uncached read. Nil for a recipe, which instead produces
	// pixels through Compute.
	Open driver.OpenFunc

	ComputationPool *workpool.Pool
	MergePool       *workpool.Pool
	ResamplePool    *workpool.Pool
	IOPool          *workpool.Pool
}

// IsRecipe reports whether this raster computes its pixels from
// primitives rather than being backed directly by a driver or an
// in-memory array.
func (s *Scheduled) IsRecipe() bool { return s.Compute != nil }

// IsCached reports whether completed tiles are persisted to disk.
func (s *Scheduled) IsCached() bool { return s.Cache != nil }
