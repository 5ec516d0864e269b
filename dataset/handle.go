package dataset

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rasterflow/rasterflow/actor"
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/raster"
	"github.com/rasterflow/rasterflow/remap"
)

// Kind tags what backs a Handle's pixels (spec.md §9 "Dynamic dispatch
// replacement: ... compresses in a systems language to a single raster
// record with a tag {FileBacked, InMem, Recipe, CachedRecipe} plus a
// trait/interface for the queue_data/get_data contract; schema/mode are
// fields, not type levels").
type Kind int

const (
	FileBacked Kind = iota
	InMem
	Recipe
	CachedRecipe
)

func (k Kind) String() string {
	switch k {
	case FileBacked:
		return "file_backed"
	case InMem:
		return "in_mem"
	case Recipe:
		return "recipe"
	case CachedRecipe:
		return "cached_recipe"
	default:
		return "invalid"
	}
}

// Handle is one registered raster, uniformly represented regardless of
// Kind: every Handle carries the same raster.Scheduled state and the same
// C7 actor set, parameterized by which fields are populated (Compute/Cache
// nil for a plain FileBacked/InMem source, CacheTiles empty for an
// uncached one). This is what lets Sampler/Producer/CacheSupervisor stay
// kind-agnostic (see actor/sampler.go's CacheTiles-empty direct-read
// branch): the fixed actor set is the trait, Kind is only bookkeeping and
// constructor-time validation.
type Handle struct {
	Kind Kind
	UID  uuid.UUID

	scheduled *raster.Scheduled
	actors    *actor.RasterActors

	ds *Dataset
}

// FP returns the raster's working Footprint.
func (h *Handle) FP() footprint.Footprint { return h.scheduled.FP }

// Info returns the raster's core attribute set.
func (h *Handle) Info() raster.Info { return h.scheduled.Info }

// GetData is the synchronous single-footprint read contract every raster
// exposes (spec.md §3 "get_data(fp, channels, dst_nodata, interpolation)
// -> array"), implemented as a one-item QueueData followed by a blocking
// read of its only result.
func (h *Handle) GetData(ctx context.Context, fp footprint.Footprint, channels []int, dstNodata float64, interpolation remap.Interpolation) (*pixel.Array, *pixel.Mask, error) {
	out, err := h.QueueData(ctx, []footprint.Footprint{fp}, channels, dstNodata, interpolation, 1)
	if err != nil {
		return nil, nil, err
	}
	r, ok := <-out
	if !ok {
		return nil, nil, fmt.Errorf("dataset: get_data: query channel closed with no result")
	}
	return r.Array, r.Mask, r.Err
}

// QueueData schedules an async read of every footprint in prodFPs and
// returns the bounded output channel results are delivered on, in input
// order (spec.md §3 "Query... weak reference to output channel; max
// output queue size"; §6 "scheduled rasters add queue_data(fps, ...)
// returning a bounded queue"). maxQueueSize<=0 means unbounded.
func (h *Handle) QueueData(ctx context.Context, prodFPs []footprint.Footprint, channels []int, dstNodata float64, interpolation remap.Interpolation, maxQueueSize int) (<-chan raster.QueryResult, error) {
	if h.ds.isClosed() {
		return nil, &ErrSchedulerDead{}
	}
	bufSize := maxQueueSize
	if bufSize <= 0 {
		bufSize = len(prodFPs)
	}
	if bufSize < 1 {
		bufSize = 1
	}
	q := &raster.Query{
		ID:            uuid.NewString(),
		ProdFPs:       prodFPs,
		Channels:      channels,
		DstNodata:     dstNodata,
		Interpolation: interpolation,
		Ctx:           ctx,
		Out:           make(chan raster.QueryResult, bufSize),
		MaxQueueSize:  maxQueueSize,
	}
	if _, err := h.actors.QueriesHandler.NewQuery(q, prodFPs); err != nil {
		return nil, err
	}
	return q.Out, nil
}

// IterData is QueueData plus an iterator-friendly spelling: it returns a
// func yielding one result at a time, matching spec.md §6's "iter_data(fps,
// ...) returning a stream" without committing to a particular Go iterator
// protocol generation.
func (h *Handle) IterData(ctx context.Context, prodFPs []footprint.Footprint, channels []int, dstNodata float64, interpolation remap.Interpolation, maxQueueSize int) (func() (raster.QueryResult, bool), error) {
	out, err := h.QueueData(ctx, prodFPs, channels, dstNodata, interpolation, maxQueueSize)
	if err != nil {
		return nil, err
	}
	return func() (raster.QueryResult, bool) {
		r, ok := <-out
		return r, ok
	}, nil
}
