package actor

import (
	"github.com/google/uuid"

	"github.com/rasterflow/rasterflow/bus"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/query"
	"github.com/rasterflow/rasterflow/raster"
)

// itemState tracks one production footprint's journey from plan to
// delivered QueryResult.
type itemState struct {
	item query.Item

	sampleArr *pixel.Array
	sampleMsk *pixel.Mask
	sampleErr error

	pendingSubs int
	out         *pixel.Array
	outMask     *pixel.Mask
	subErr      error

	done   bool
	result raster.QueryResult
}

type producerQuery struct {
	qh         *queryHandle
	items      []*itemState
	dispatched int // count of items whose read (or synthesis) has started
	delivered  int // count successfully pushed to Query.Out
	cancelled  bool
	closed     bool // Query.Out has been closed; query is finished
}

// Producer drives one query's items through Sampler and Resampler,
// respecting input order and max_queue_size back-pressure (spec.md §4.6
// "Producer. Drains items in input order ... does not start resampling a
// produce item when pushing it would exceed the bound").
type Producer struct {
	uid uuid.UUID
	bus *bus.Bus

	queries map[string]*producerQuery
}

func NewProducer(uid uuid.UUID, b *bus.Bus) *Producer {
	return &Producer{uid: uid, bus: b, queries: make(map[string]*producerQuery)}
}

func (p *Producer) Address() bus.Address { return producerAddr(p.uid) }

func (p *Producer) Receive(m bus.Msg) []bus.Msg {
	var out []bus.Msg
	switch m.Verb {
	case verbInitQuery:
		p.onInit(m.Args.(*initQueryArgs).Query)
	case verbDoneOneSampling:
		out = p.onSampleDone(m.Args.(*doneOneSamplingArgs))
	case verbDoneResampling:
		p.onResampleDone(m.Args.(*doneResamplingArgs))
	case verbCancelQuery:
		if q, ok := p.queries[m.Args.(*cancelQueryArgs).QueryID]; ok {
			q.cancelled = true
		}
	case verbRasterFailed:
		args := m.Args.(*rasterFailedArgs)
		for _, q := range p.queries {
			q.qh.Query.TrySend(raster.QueryResult{Err: args.Err})
			q.cancelled = true
		}
	}
	for id, q := range p.queries {
		out = append(out, p.drain(q)...)
		if q.cancelled || q.closed {
			delete(p.queries, id)
		}
	}
	return out
}

func (p *Producer) ReceiveNothing() []bus.Msg {
	var out []bus.Msg
	for id, q := range p.queries {
		out = append(out, p.drain(q)...)
		if q.cancelled || q.closed {
			delete(p.queries, id)
		}
	}
	return out
}

func (p *Producer) onInit(qh *queryHandle) {
	items := make([]*itemState, len(qh.Plan.Items))
	for i, it := range qh.Plan.Items {
		items[i] = &itemState{item: it}
	}
	p.queries[qh.Query.ID] = &producerQuery{qh: qh, items: items}
}

// drain dispatches newly-admissible items and flushes delivered results in
// input order; it is called after every message and every idle tick so
// back-pressure relief (a TrySend succeeding, or max_queue_size freeing up)
// is picked up promptly.
func (p *Producer) drain(q *producerQuery) []bus.Msg {
	var out []bus.Msg
	if q.closed {
		return out
	}

	for q.delivered < len(q.items) && q.items[q.delivered].done {
		if !q.qh.Query.TrySend(q.items[q.delivered].result) {
			break
		}
		q.items[q.delivered] = nil
		q.delivered++
	}
	if q.delivered >= len(q.items) {
		close(q.qh.Query.Out)
		q.closed = true
		return out
	}
	if q.cancelled {
		close(q.qh.Query.Out)
		q.closed = true
		return out
	}

	window := q.qh.Query.MaxQueueSize
	for q.dispatched < len(q.items) {
		if window > 0 && q.dispatched-q.delivered >= window {
			break
		}
		out = append(out, p.startItem(q, q.dispatched)...)
		q.dispatched++
	}
	return out
}

func (p *Producer) startItem(q *producerQuery, idx int) []bus.Msg {
	it := q.items[idx]
	if it.item.SampleFP == nil {
		return p.fanOutResample(q, idx, nil, nil)
	}
	return []bus.Msg{{To: samplerAddr(p.uid), Verb: verbScheduleOneRead, Args: &scheduleOneReadArgs{
		QueryID:    q.qh.Query.ID,
		ItemIdx:    idx,
		SampleFP:   *it.item.SampleFP,
		CacheTiles: it.item.CacheTiles,
		Channels:   q.qh.Query.Channels,
		DstNodata:  q.qh.Query.DstNodata,
	}}}
}

func (p *Producer) onSampleDone(args *doneOneSamplingArgs) []bus.Msg {
	q, ok := p.queries[args.QueryID]
	if !ok || args.ItemIdx >= len(q.items) {
		return nil
	}
	it := q.items[args.ItemIdx]
	if it == nil {
		return nil
	}
	if args.Err != nil {
		p.finishItem(q, args.ItemIdx, nil, nil, args.Err)
		return nil
	}
	return p.fanOutResample(q, args.ItemIdx, args.Array, args.Mask)
}

// fanOutResample dispatches one Resampler request per resample sub-tile of
// item idx. array/mask are the already-read sample data (nil when the item
// shares no area with the raster, in which case every sub-tile's dep is
// nil too and Resampler synthesizes an all-nodata tile directly).
func (p *Producer) fanOutResample(q *producerQuery, idx int, array *pixel.Array, mask *pixel.Mask) []bus.Msg {
	it := q.items[idx]
	it.pendingSubs = len(it.item.ResampleFPs)
	var out []bus.Msg
	for _, rfp := range it.item.ResampleFPs {
		dep := it.item.ResampleSampleDep[rfp]
		if dep != nil {
			// array/mask cover the item's whole SampleFP, so that (not dep's
			// narrower window) is the footprint Resampler remaps from.
			dep = it.item.SampleFP
		}
		msg := bus.Msg{To: resamplerAddr(p.uid), Verb: verbScheduleResample, Args: &scheduleResampleArgs{
			QueryID:       q.qh.Query.ID,
			ItemIdx:       idx,
			SubFP:         rfp,
			SampleFP:      dep,
			Array:         array,
			Mask:          mask,
			DstNodata:     q.qh.Query.DstNodata,
			Interpolation: q.qh.Query.Interpolation,
		}}
		out = append(out, msg)
	}
	return out
}

func (p *Producer) onResampleDone(args *doneResamplingArgs) {
	q, ok := p.queries[args.QueryID]
	if !ok || args.ItemIdx >= len(q.items) {
		return
	}
	it := q.items[args.ItemIdx]
	if it == nil {
		return
	}
	if args.Err != nil && it.subErr == nil {
		it.subErr = args.Err
	}
	if args.Array != nil {
		if it.out == nil {
			shape := it.item.ProdFP.Shape()
			it.out = pixel.NewArray(shape[0], shape[1], args.Array.Bands)
			it.outMask = pixel.NewMask(shape[0], shape[1])
			it.outMask.Fill(false)
		}
		blit(it.out, it.outMask, it.item.ProdFP, args.Array, args.Mask, args.SubFP)
	}
	it.pendingSubs--
	if it.pendingSubs <= 0 {
		if it.subErr != nil {
			p.finishItem(q, args.ItemIdx, nil, nil, it.subErr)
		} else {
			p.finishItem(q, args.ItemIdx, it.out, it.outMask, nil)
		}
	}
}

func (p *Producer) finishItem(q *producerQuery, idx int, array *pixel.Array, mask *pixel.Mask, err error) {
	it := q.items[idx]
	it.done = true
	it.result = raster.QueryResult{Index: idx, Array: array, Mask: mask, Err: err}
}
