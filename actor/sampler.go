package actor

import (
	"github.com/google/uuid"

	"github.com/rasterflow/rasterflow/bus"
	"github.com/rasterflow/rasterflow/footprint"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/raster"
)

// samplePending is one in-flight "read SampleFP" request, waiting on one or
// more cache tiles to become ready.
type samplePending struct {
	req       *scheduleOneReadArgs
	remaining map[footprint.Footprint]bool
	failed    error
}

// Sampler fetches the raw array/mask a query item needs, either straight
// from the cache tiles covering it (spec.md §4.6 "Sampler: given a set of
// ready cache tiles, slices/assembles the sample footprint") or, for an
// uncached raster, directly from its driver.Handle (or, for an uncached
// recipe, from its computed pieces). It never resamples into
// production space itself — that is Resampler's job, one step later.
type Sampler struct {
	uid    uuid.UUID
	bus    *bus.Bus
	raster *raster.Scheduled
	sup    *CacheSupervisor

	pending map[waiterRef]*samplePending
}

func NewSampler(uid uuid.UUID, b *bus.Bus, r *raster.Scheduled, sup *CacheSupervisor) *Sampler {
	return &Sampler{uid: uid, bus: b, raster: r, sup: sup, pending: make(map[waiterRef]*samplePending)}
}

func (s *Sampler) Address() bus.Address { return samplerAddr(s.uid) }

func (s *Sampler) Receive(m bus.Msg) []bus.Msg {
	switch m.Verb {
	case verbScheduleOneRead:
		return s.startRead(m.Args.(*scheduleOneReadArgs))
	case verbTileReady:
		args := m.Args.(*tileReadyArgs)
		return s.onTileDone(args.Fp, args.Waiters, nil)
	case verbTileFailed:
		args := m.Args.(*tileFailedArgs)
		return s.onTileDone(args.Fp, args.Waiters, args.Err)
	}
	return nil
}

func (s *Sampler) ReceiveNothing() []bus.Msg { return nil }

func (s *Sampler) startRead(req *scheduleOneReadArgs) []bus.Msg {
	if len(req.CacheTiles) == 0 {
		s.submitDirectRead(req)
		return nil
	}

	w := waiterRef{QueryID: req.QueryID, ItemIdx: req.ItemIdx}
	p := &samplePending{req: req, remaining: make(map[footprint.Footprint]bool, len(req.CacheTiles))}
	s.pending[w] = p

	allReady := true
	for _, ct := range req.CacheTiles {
		if _, _, ok := s.sup.EnsureTile(ct, w); !ok {
			p.remaining[ct] = true
			allReady = false
		}
	}
	if allReady {
		delete(s.pending, w)
		s.submitAssemble(req)
	}
	return nil
}

func (s *Sampler) onTileDone(fp footprint.Footprint, waiters []waiterRef, tileErr error) []bus.Msg {
	var out []bus.Msg
	for _, w := range waiters {
		p, ok := s.pending[w]
		if !ok {
			continue
		}
		if tileErr != nil {
			p.failed = tileErr
		}
		delete(p.remaining, fp)
		if len(p.remaining) == 0 {
			delete(s.pending, w)
			if p.failed != nil {
				out = append(out, bus.Msg{To: producerAddr(s.uid), Verb: verbDoneOneSampling, Args: &doneOneSamplingArgs{
					QueryID: w.QueryID, ItemIdx: w.ItemIdx, Err: p.failed,
				}})
				continue
			}
			s.submitAssemble(p.req)
		}
	}
	return out
}

// submitAssemble blits every cache tile covering req.SampleFP into a single
// destination array, offloaded to the resample pool since the per-pixel
// copy cost scales with tile count.
func (s *Sampler) submitAssemble(req *scheduleOneReadArgs) {
	s.raster.ResamplePool.Submit(0, func() (interface{}, error) {
		dst := pixel.NewArray(req.SampleFP.Shape()[0], req.SampleFP.Shape()[1], s.raster.ChannelCount)
		dstMask := pixel.NewMask(req.SampleFP.Shape()[0], req.SampleFP.Shape()[1])
		dstMask.Fill(false)
		for _, ct := range req.CacheTiles {
			arr, mask, ok := s.sup.GetReady(ct)
			if !ok {
				continue
			}
			blit(dst, dstMask, req.SampleFP, arr, mask, ct)
		}
		return tileData{selectChannels(dst, req.Channels), dstMask}, nil
	}, func(result interface{}, err error) []bus.Msg {
		if err != nil {
			return []bus.Msg{{To: producerAddr(s.uid), Verb: verbDoneOneSampling, Args: &doneOneSamplingArgs{
				QueryID: req.QueryID, ItemIdx: req.ItemIdx, Err: err,
			}}}
		}
		td := result.(tileData)
		return []bus.Msg{{To: producerAddr(s.uid), Verb: verbDoneOneSampling, Args: &doneOneSamplingArgs{
			QueryID: req.QueryID, ItemIdx: req.ItemIdx, Array: td.Array, Mask: td.Mask,
		}}}
	})
}

func (s *Sampler) submitDirectRead(req *scheduleOneReadArgs) {
	pool := s.raster.IOPool
	if s.raster.Open == nil {
		pool = s.raster.ComputationPool
	}
	pool.Submit(0, func() (interface{}, error) {
		if s.raster.Open == nil {
			pieces, err := s.sup.computer.Pieces(req.SampleFP)
			if err != nil {
				return nil, err
			}
			dst := pixel.NewArray(req.SampleFP.Shape()[0], req.SampleFP.Shape()[1], s.raster.ChannelCount)
			dstMask := pixel.NewMask(req.SampleFP.Shape()[0], req.SampleFP.Shape()[1])
			dstMask.Fill(false)
			for _, p := range pieces {
				blit(dst, dstMask, req.SampleFP, p.Array, p.Mask, p.FP)
			}
			return tileData{selectChannels(dst, req.Channels), dstMask}, nil
		}
		h, err := s.raster.Open()
		if err != nil {
			return nil, err
		}
		defer h.Close()
		arr, mask, err := h.Read(req.SampleFP, req.Channels)
		if err != nil {
			return nil, err
		}
		return tileData{arr, mask}, nil
	}, func(result interface{}, err error) []bus.Msg {
		if err != nil {
			return []bus.Msg{{To: producerAddr(s.uid), Verb: verbDoneOneSampling, Args: &doneOneSamplingArgs{
				QueryID: req.QueryID, ItemIdx: req.ItemIdx, Err: err,
			}}}
		}
		td := result.(tileData)
		return []bus.Msg{{To: producerAddr(s.uid), Verb: verbDoneOneSampling, Args: &doneOneSamplingArgs{
			QueryID: req.QueryID, ItemIdx: req.ItemIdx, Array: td.Array, Mask: td.Mask,
		}}}
	})
}

// blit copies src (shaped to srcFP, same grid as dstFP) into dst at the
// offset srcFP occupies within dstFP, reading from the corresponding offset
// within src — srcFP need not be contained in dstFP (a cache tile
// overlapping dstFP's top/left corner extends above/left of it), so the
// write-side slice alone isn't enough to tell which src pixel a dst pixel
// comes from. Same read/write-slice split as remap.remapSameGrid.
func blit(dst *pixel.Array, dstMask *pixel.Mask, dstFP footprint.Footprint, src *pixel.Array, srcMask *pixel.Mask, srcFP footprint.Footprint) {
	writeSl, err := srcFP.SliceIn(dstFP, true)
	if err != nil || writeSl.Empty() {
		return
	}
	readSl, err := dstFP.SliceIn(srcFP, true)
	if err != nil || readSl.Empty() {
		return
	}
	rows, cols := writeSl.Shape()[0], writeSl.Shape()[1]
	if rs := readSl.Shape()[0]; rs < rows {
		rows = rs
	}
	if cs := readSl.Shape()[1]; cs < cols {
		cols = cs
	}
	bands := dst.Bands
	if src.Bands < bands {
		bands = src.Bands
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			for band := 0; band < bands; band++ {
				dst.Set(writeSl.Row0+row, writeSl.Col0+col, band, src.At(readSl.Row0+row, readSl.Col0+col, band))
			}
			if srcMask == nil || srcMask.At(readSl.Row0+row, readSl.Col0+col) {
				dstMask.Set(writeSl.Row0+row, writeSl.Col0+col, true)
			}
		}
	}
}

func selectChannels(array *pixel.Array, channels []int) *pixel.Array {
	if channels == nil {
		return array
	}
	out := pixel.NewArray(array.Rows, array.Cols, len(channels))
	for row := 0; row < array.Rows; row++ {
		for col := 0; col < array.Cols; col++ {
			for i, ch := range channels {
				out.Set(row, col, i, array.At(row, col, ch))
			}
		}
	}
	return out
}
