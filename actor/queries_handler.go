package actor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rasterflow/rasterflow/bus"
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/observer"
	"github.com/rasterflow/rasterflow/query"
	"github.com/rasterflow/rasterflow/raster"
)

// queryHandle bundles a raster.Query with its immutable Plan (spec.md §4.3
// "Output is immutable and uniquely owned by the query"). It holds no
// mutable state: cancellation is detected through Query's own context.
type queryHandle struct {
	Query *raster.Query
	Plan  *query.Plan
}

// QueriesHandler is the entry point for one raster (spec.md §4.6
// "QueriesHandler. Entry point."). NewQuery is called directly by package
// dataset (an external thread, in spec.md's terms) rather than addressed
// over the bus, since its caller needs the output channel back
// synchronously; it then hands the derived Query off to Producer over the
// bus like every other cross-actor notification.
type QueriesHandler struct {
	uid  uuid.UUID
	bus  *bus.Bus
	obs  *observer.Manager
	info query.RasterInfo

	mu      sync.Mutex
	live    map[string]*queryHandle
	failed  error // set once, terminal (spec.md §7 "SchedulerDead"-equivalent for one raster)
}

// NewQueriesHandler constructs the handler for one scheduled raster.
func NewQueriesHandler(uid uuid.UUID, b *bus.Bus, obs *observer.Manager, info query.RasterInfo) *QueriesHandler {
	return &QueriesHandler{uid: uid, bus: b, obs: obs, info: info, live: make(map[string]*queryHandle)}
}

func (h *QueriesHandler) Address() bus.Address { return queriesHandlerAddr(h.uid) }

// NewQuery plans prodFPs against the raster, creates the Query, and enqueues
// it to Producer. It returns the Query (carrying the output channel) even
// when the raster has already failed terminally: the caller will observe
// the failure on its first read of Out.
func (h *QueriesHandler) NewQuery(q *raster.Query, prodFPs []footprint.Footprint) (*raster.Query, error) {
	h.mu.Lock()
	failed := h.failed
	h.mu.Unlock()
	if failed != nil {
		q.TrySend(raster.QueryResult{Err: failed})
		close(q.Out)
		return q, nil
	}

	plan, err := query.Build(h.info, prodFPs)
	if err != nil {
		return nil, err
	}
	qh := &queryHandle{Query: q, Plan: plan}

	h.mu.Lock()
	h.live[q.ID] = qh
	h.mu.Unlock()

	h.obs.FireQueryCreated(q.ID)
	h.bus.Put(bus.Msg{To: producerAddr(h.uid), Verb: verbInitQuery, Args: &initQueryArgs{Query: qh}})
	return q, nil
}

// Receive handles "raster_failed", broadcast by CacheSupervisor once a
// compute_array error is terminal for this raster.
func (h *QueriesHandler) Receive(m bus.Msg) []bus.Msg {
	switch m.Verb {
	case verbRasterFailed:
		args := m.Args.(*rasterFailedArgs)
		h.mu.Lock()
		h.failed = args.Err
		ids := make([]string, 0, len(h.live))
		for id := range h.live {
			ids = append(ids, id)
		}
		h.mu.Unlock()
		// Producer owns actually failing every in-flight item; QueriesHandler
		// only needs to stop admitting new queries (done above) and forward
		// the broadcast to Producer for the ones already running.
		return []bus.Msg{{To: producerAddr(h.uid), Verb: verbRasterFailed, Args: args}}
	}
	return nil
}

// ReceiveNothing checks every live query's consumer for cancellation
// (spec.md §4.6 "on every tick checks liveness of the weak reference,
// triggering cancel on drop").
func (h *QueriesHandler) ReceiveNothing() []bus.Msg {
	h.mu.Lock()
	var dropped []string
	for id, qh := range h.live {
		if !qh.Query.Alive() {
			dropped = append(dropped, id)
			delete(h.live, id)
		}
	}
	h.mu.Unlock()

	if len(dropped) == 0 {
		return nil
	}
	var out []bus.Msg
	for _, id := range dropped {
		h.obs.FireQueryDropped(id)
		out = append(out, bus.Msg{To: producerAddr(h.uid), Verb: verbCancelQuery, Args: &cancelQueryArgs{QueryID: id}})
		out = append(out, bus.Msg{To: supervisorAddr(h.uid), Verb: verbCancelQuery, Args: &cancelQueryArgs{QueryID: id}})
	}
	return out
}
