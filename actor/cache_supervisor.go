package actor

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rasterflow/rasterflow/bus"
	"github.com/rasterflow/rasterflow/filecache"
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/observer"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/raster"
)

const readyCacheSize = 256

// tileState is one cache tile's lifecycle bookkeeping (spec.md §3 "Cache
// tile ... State is one of: unknown, absent, checking, ready, writing,
// missing_after_corruption").
type tileState struct {
	state   raster.CacheTileState
	waiters []waiterRef
}

type tileData struct {
	Array *pixel.Array
	Mask  *pixel.Mask
}

// CacheSupervisor owns one raster's cache-tile state machine, folding in
// the spec's separate Reader role (spec.md §4.6 "Reader / CacheSupervisor"):
// resolving unknown tiles via a lazy scan, dispatching checksum validation
// and recompute, deduping concurrent demand for the same tile, and fanning
// readiness or failure back out to every waiting Producer item.
//
// Only ever touched from the scheduler's own goroutine (EnsureTile is
// called directly by Sampler; Receive is called by the
// scheduler; pool completions arrive as messages drained on the scheduler
// thread too) — so, per spec.md §5's single-threaded-cooperative model, its
// maps need no lock of their own.
type CacheSupervisor struct {
	uid uuid.UUID
	bus *bus.Bus
	obs *observer.Manager

	raster    *raster.Scheduled
	computer  *Computer
	merger    *Merger
	writer    *Writer
	extractor *CacheExtractor

	states     map[footprint.Footprint]*tileState
	readyCache *lru.Cache[footprint.Footprint, tileData]

	rasterFailed bool
}

func NewCacheSupervisor(uid uuid.UUID, b *bus.Bus, obs *observer.Manager, r *raster.Scheduled) *CacheSupervisor {
	ready, _ := lru.New[footprint.Footprint, tileData](readyCacheSize)
	return &CacheSupervisor{
		uid: uid, bus: b, obs: obs, raster: r,
		computer:  &Computer{Raster: r, Gate: &ComputationGate{}, Collector: &PrimitiveCollector{Primitives: r.Primitives, Interp: r.Interpolation}},
		merger:    &Merger{Raster: r},
		writer:    &Writer{Cache: r.Cache},
		extractor: &CacheExtractor{Cache: r.Cache},
		states:    make(map[footprint.Footprint]*tileState),
		readyCache: ready,
	}
}

func (s *CacheSupervisor) Address() bus.Address { return supervisorAddr(s.uid) }

// GetReady returns a tile's decoded content if it is currently resident
// (spec.md §4.6 Sampler "Pool-adjacent optimization: ... read directly into
// a pre-allocated destination slice" — collapsed unconditionally true per
// DESIGN.md's Open Question #2, so Sampler always finds ready data already
// in memory rather than re-reading it).
func (s *CacheSupervisor) GetReady(fp footprint.Footprint) (*pixel.Array, *pixel.Mask, bool) {
	td, ok := s.readyCache.Get(fp)
	if !ok {
		return nil, nil, false
	}
	return td.Array, td.Mask, true
}

// EnsureTile registers w's interest in fp. If fp is already resident it
// returns it immediately with ok=true and sends no notification; otherwise
// it kicks off (or piggybacks on) the tile's pipeline and returns ok=false —
// a later "tile_ready"/"tile_failed" message to Sampler follows.
func (s *CacheSupervisor) EnsureTile(fp footprint.Footprint, w waiterRef) (*pixel.Array, *pixel.Mask, bool) {
	if arr, mask, ok := s.GetReady(fp); ok {
		return arr, mask, true
	}
	st, exists := s.states[fp]
	if !exists {
		st = &tileState{state: raster.StateUnknown}
		s.states[fp] = st
	}
	st.waiters = append(st.waiters, w)
	if !exists {
		s.kickoff(fp)
	}
	return nil, nil, false
}

func (s *CacheSupervisor) kickoff(fp footprint.Footprint) {
	st := s.states[fp]
	if s.raster.Cache == nil {
		// Uncached recipe or uncached raster reaching the supervisor is a
		// caller error: Producer should never populate CacheTiles for these.
		st.state = raster.StateAbsent
		s.submitCompute(fp)
		return
	}
	st.state = raster.StateChecking
	checksum, found, err := s.raster.Cache.Lookup(fp)
	if err != nil {
		s.bus.Put(bus.Msg{To: s.Address(), Verb: verbTileComputed, Args: &tileComputedArgs{Fp: fp, Err: err}})
		return
	}
	if !found {
		st.state = raster.StateAbsent
		s.submitCompute(fp)
		return
	}
	_ = checksum
	s.submitRead(fp)
}

type readResult struct {
	array *pixel.Array
	mask  *pixel.Mask
	found bool
}

func (s *CacheSupervisor) submitRead(fp footprint.Footprint) {
	s.raster.IOPool.Submit(s.priority(fp), func() (interface{}, error) {
		arr, mask, found, err := s.extractor.Read(fp)
		return readResult{arr, mask, found}, err
	}, func(result interface{}, err error) []bus.Msg {
		if err != nil {
			return []bus.Msg{{To: s.Address(), Verb: verbTileComputed, Args: &tileComputedArgs{Fp: fp, Err: err}}}
		}
		rr := result.(readResult)
		if !rr.found {
			return []bus.Msg{{To: s.Address(), Verb: verbTileComputed, Args: &tileComputedArgs{Fp: fp, Corrupted: true}}}
		}
		return []bus.Msg{{To: s.Address(), Verb: verbTileComputed, Args: &tileComputedArgs{Fp: fp, Array: rr.array, Mask: rr.mask}}}
	})
}

func (s *CacheSupervisor) submitCompute(fp footprint.Footprint) {
	s.raster.ComputationPool.Submit(s.priority(fp), func() (interface{}, error) {
		return s.computer.Pieces(fp)
	}, func(result interface{}, err error) []bus.Msg {
		if err != nil {
			return []bus.Msg{{To: s.Address(), Verb: verbTileComputed, Args: &tileComputedArgs{Fp: fp, Err: err, ComputeErr: true}}}
		}
		pieces := result.([]tilePiece)
		if len(pieces) == 1 {
			s.submitWrite(fp, pieces[0].Array, pieces[0].Mask)
			return nil
		}
		s.submitMerge(fp, pieces)
		return nil
	})
}

func (s *CacheSupervisor) submitMerge(fp footprint.Footprint, pieces []tilePiece) {
	s.raster.MergePool.Submit(s.priority(fp), func() (interface{}, error) {
		arr, mask, err := s.merger.Merge(fp, pieces)
		return tileData{arr, mask}, err
	}, func(result interface{}, err error) []bus.Msg {
		if err != nil {
			return []bus.Msg{{To: s.Address(), Verb: verbTileComputed, Args: &tileComputedArgs{Fp: fp, Err: err}}}
		}
		td := result.(tileData)
		s.submitWrite(fp, td.Array, td.Mask)
		return nil
	})
}

func (s *CacheSupervisor) submitWrite(fp footprint.Footprint, array *pixel.Array, mask *pixel.Mask) {
	st := s.states[fp]
	st.state = raster.StateWriting
	s.raster.IOPool.Submit(s.priority(fp), func() (interface{}, error) {
		_, err := s.writer.Write(fp, array, mask)
		return tileData{array, mask}, err
	}, func(result interface{}, err error) []bus.Msg {
		if err != nil {
			return []bus.Msg{{To: s.Address(), Verb: verbTileComputed, Args: &tileComputedArgs{Fp: fp, Err: err}}}
		}
		td := result.(tileData)
		return []bus.Msg{{To: s.Address(), Verb: verbTileComputed, Args: &tileComputedArgs{Fp: fp, Array: td.Array, Mask: td.Mask}}}
	})
}

// priority mirrors spec.md §4.3 ("priority = first production index that
// needs it"): lower waiting item indices run sooner.
func (s *CacheSupervisor) priority(fp footprint.Footprint) int {
	st, ok := s.states[fp]
	if !ok || len(st.waiters) == 0 {
		return 0
	}
	min := st.waiters[0].ItemIdx
	for _, w := range st.waiters[1:] {
		if w.ItemIdx < min {
			min = w.ItemIdx
		}
	}
	return -min
}

type tileComputedArgs struct {
	Fp        footprint.Footprint
	Array     *pixel.Array
	Mask      *pixel.Mask
	Err       error
	Corrupted bool
	ComputeErr bool
}

func (s *CacheSupervisor) Receive(m bus.Msg) []bus.Msg {
	switch m.Verb {
	case verbTileComputed:
		return s.receiveTileComputed(m.Args.(*tileComputedArgs))
	case verbCancelQuery:
		args := m.Args.(*cancelQueryArgs)
		for _, st := range s.states {
			st.waiters = filterWaiters(st.waiters, args.QueryID)
		}
		return nil
	}
	return nil
}

func (s *CacheSupervisor) ReceiveNothing() []bus.Msg { return nil }

func (s *CacheSupervisor) receiveTileComputed(args *tileComputedArgs) []bus.Msg {
	st, ok := s.states[args.Fp]
	if !ok {
		return nil
	}

	if args.Corrupted {
		s.obs.FireCacheTileCorrupted(s.uid.String(), filecache.Key(args.Fp))
		wasReady := st.state == raster.StateReady
		if wasReady {
			st.state = raster.StateMissingAfterCorruption
		} else {
			st.state = raster.StateAbsent
		}
		s.submitCompute(args.Fp)
		return nil
	}

	if args.Err != nil {
		waiters := st.waiters
		st.waiters = nil
		st.state = raster.StateAbsent
		if args.ComputeErr {
			s.rasterFailed = true
			return []bus.Msg{{To: queriesHandlerAddr(s.uid), Verb: verbRasterFailed, Args: &rasterFailedArgs{Err: args.Err}}}
		}
		return []bus.Msg{{To: samplerAddr(s.uid), Verb: verbTileFailed, Args: &tileFailedArgs{Fp: args.Fp, Waiters: waiters, Err: args.Err}}}
	}

	st.state = raster.StateReady
	s.readyCache.Add(args.Fp, tileData{args.Array, args.Mask})
	waiters := st.waiters
	st.waiters = nil
	s.obs.FireCacheTileReady(s.uid.String(), filecache.Key(args.Fp))
	return []bus.Msg{{To: samplerAddr(s.uid), Verb: verbTileReady, Args: &tileReadyArgs{Fp: args.Fp, Waiters: waiters}}}
}

func filterWaiters(waiters []waiterRef, queryID string) []waiterRef {
	out := waiters[:0]
	for _, w := range waiters {
		if w.QueryID != queryID {
			out = append(out, w)
		}
	}
	return out
}
