package raster

import (
	"context"

	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/remap"
)

// QueryResult is one produced item, delivered in input order (spec.md
// §4.6 Producer "Ordering guarantee: for a query, results are yielded in
// the order of the input footprint list").
type QueryResult struct {
	Index int
	Array *pixel.Array
	Mask  *pixel.Mask
	Err   error
}

// Query is one scheduled read (spec.md §3 "Query. Identified by object
// identity. Carries: ordered list of production footprints; requested
// channels; dst_nodata; interpolation; weak reference to output channel;
// max output queue size.").
//
// The original holds a weak reference to the output channel so a query
// whose consumer has walked away can be garbage-collected and cancelled
// without an explicit close. Go's GC offers nothing equivalent for a
// channel a goroutine might still be selecting on, and the idiomatic
// replacement for "the consumer is gone" is a context the consumer
// cancels — the same substitution package env already makes for the
// original's thread-local option stack. Ctx.Err() != nil is this Query's
// liveness check (see QueriesHandler.ReceiveNothing).
type Query struct {
	ID            string
	ProdFPs       []footprint.Footprint
	Channels      []int
	DstNodata     float64
	Interpolation remap.Interpolation
	Ctx           context.Context
	Out           chan QueryResult
	MaxQueueSize  int
}

// Alive reports whether the query's consumer is still listening.
func (q *Query) Alive() bool { return q.Ctx.Err() == nil }

// TrySend delivers r without blocking, honoring MaxQueueSize back-pressure
// (spec.md §5 "Producer does not start resampling a produce item when
// pushing it would exceed the bound"). It reports whether the send
// succeeded; on false, the caller should retry on a later tick.
func (q *Query) TrySend(r QueryResult) bool {
	select {
	case q.Out <- r:
		return true
	default:
		return false
	}
}
