// Package actor implements the C7 component: the fixed set of cooperating
// state machines spec.md §4.6 assigns to each scheduler-managed raster —
// QueriesHandler, Producer, Resampler, Sampler, CacheSupervisor (folding in
// Reader/CacheExtractor's read-dispatch role), Writer, Merger, Computer,
// PrimitiveCollector and ComputationGate.
//
// Grounded on spec.md §4.6 throughout; spec.md §9 flags the original's
// ActorBuilder/ActorCollection as containing bugs/unfinished branches whose
// intended semantics "must be inferred from Producer/PrimitiveCollector
// usage" — this package is that inferred, corrected object model, not a
// literal port. Per spec.md §5 ("single-threaded cooperative... all actor
// code runs on the scheduler thread"), every actor here is free to call
// another actor's synchronous, non-blocking accessor methods directly
// (e.g. Sampler asking CacheSupervisor whether a tile is already ready)
// in addition to exchanging bus.Msg for the asynchronous, pool-crossing
// notifications (a read/compute/write completing on a worker goroutine).
// Anything that can block (disk I/O, resampling, user compute) is always
// offloaded to one of the raster's workpool.Pool instances and only
// re-enters the scheduler thread as a completion message.
package actor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rasterflow/rasterflow/bus"
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/remap"
)

// Addresses, one set per raster UID.
func queriesHandlerAddr(uid uuid.UUID) bus.Address { return bus.RasterAddress(uid, "QueriesHandler") }
func producerAddr(uid uuid.UUID) bus.Address       { return bus.RasterAddress(uid, "Producer") }
func resamplerAddr(uid uuid.UUID) bus.Address      { return bus.RasterAddress(uid, "Resampler") }
func samplerAddr(uid uuid.UUID) bus.Address        { return bus.RasterAddress(uid, "Sampler") }
func supervisorAddr(uid uuid.UUID) bus.Address     { return bus.RasterAddress(uid, "CacheSupervisor") }

func poolAdapterAddr(uid uuid.UUID, name string) bus.Address {
	return bus.RasterAddress(uid, "PoolAdapter."+name)
}

// Verbs exchanged over the bus between actors of one raster.
const (
	verbInitQuery       = "init_query"
	verbCancelQuery     = "cancel_query"
	verbRasterFailed    = "raster_failed"
	verbTileReady       = "tile_ready"
	verbTileFailed      = "tile_failed"
	verbTileComputed    = "tile_computed" // internal, CacheSupervisor -> itself via pool completion
	verbScheduleOneRead = "schedule_one_read"
	verbDoneOneSampling = "done_one_sampling"
	verbScheduleResample = "schedule_one_resample"
	verbDoneResampling   = "done_one_resampling"
)

// waiterRef identifies a requesting query item; Sampler passes it when it
// registers interest in a cache tile with CacheSupervisor, and
// CacheSupervisor lists it when it fans a readiness or failure notice back
// out to every interested item.
type waiterRef struct {
	QueryID string
	ItemIdx int
}

// initQueryArgs is Producer's "init_query" payload.
type initQueryArgs struct {
	Query *queryHandle
}

// tileReadyArgs/tileFailedArgs are CacheSupervisor -> Sampler notices.
type tileReadyArgs struct {
	Fp      footprint.Footprint
	Waiters []waiterRef
}

type tileFailedArgs struct {
	Fp      footprint.Footprint
	Waiters []waiterRef
	Err     error
}

// scheduleOneReadArgs is Producer -> Sampler.
type scheduleOneReadArgs struct {
	QueryID    string
	ItemIdx    int
	SampleFP   footprint.Footprint
	CacheTiles []footprint.Footprint // empty => direct (uncached) read
	Channels   []int
	DstNodata  float64
}

// doneOneSamplingArgs is Sampler -> Producer.
type doneOneSamplingArgs struct {
	QueryID string
	ItemIdx int
	Array   *pixel.Array
	Mask    *pixel.Mask
	Err     error
}

// scheduleResampleArgs is Producer -> Resampler.
type scheduleResampleArgs struct {
	QueryID       string
	ItemIdx       int
	SubFP         footprint.Footprint
	SampleFP      *footprint.Footprint // nil => no overlap, full nodata
	Array         *pixel.Array
	Mask          *pixel.Mask
	DstNodata     float64
	Interpolation remap.Interpolation
}

// doneResamplingArgs is Resampler -> Producer.
type doneResamplingArgs struct {
	QueryID string
	ItemIdx int
	SubFP   footprint.Footprint
	Array   *pixel.Array
	Mask    *pixel.Mask
	Err     error
}

// cancelQueryArgs is QueriesHandler -> Producer/CacheSupervisor.
type cancelQueryArgs struct {
	QueryID string
}

// rasterFailedArgs is CacheSupervisor -> QueriesHandler/Producer, broadcast
// once compute_array fails terminally for this raster (spec.md §4.6/§7
// "ComputeFailed ... scheduler marks the raster's compute path as failed
// and stops scheduling new work for it").
type rasterFailedArgs struct {
	Err error
}

func fmtTileKey(fp footprint.Footprint) string {
	return fmt.Sprintf("%v", fp)
}
