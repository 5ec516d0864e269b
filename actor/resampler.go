package actor

import (
	"github.com/google/uuid"

	"github.com/rasterflow/rasterflow/bus"
	"github.com/rasterflow/rasterflow/env"
	"github.com/rasterflow/rasterflow/pixel"
	"github.com/rasterflow/rasterflow/raster"
	"github.com/rasterflow/rasterflow/remap"
)

// Resampler maps one already-read sample array into one resample
// sub-footprint's own grid (spec.md §4.6 "Resampler: submits remap(...) to
// resample_pool"). A nil SampleFP (the production footprint shares no area
// with the raster, or a split sub-tile fell entirely outside it) skips the
// remap kernel and produces an all-nodata tile directly.
type Resampler struct {
	uid    uuid.UUID
	bus    *bus.Bus
	raster *raster.Scheduled
}

func NewResampler(uid uuid.UUID, b *bus.Bus, r *raster.Scheduled) *Resampler {
	return &Resampler{uid: uid, bus: b, raster: r}
}

func (r *Resampler) Address() bus.Address { return resamplerAddr(r.uid) }

func (r *Resampler) Receive(m bus.Msg) []bus.Msg {
	if m.Verb != verbScheduleResample {
		return nil
	}
	args := m.Args.(*scheduleResampleArgs)

	if args.SampleFP == nil {
		shape := args.SubFP.Shape()
		out := pixel.NewArray(shape[0], shape[1], r.raster.ChannelCount)
		out.Fill(args.DstNodata)
		mask := pixel.NewMask(shape[0], shape[1])
		mask.Fill(false)
		return []bus.Msg{{To: producerAddr(r.uid), Verb: verbDoneResampling, Args: &doneResamplingArgs{
			QueryID: args.QueryID, ItemIdx: args.ItemIdx, SubFP: args.SubFP, Array: out, Mask: mask,
		}}}
	}

	r.raster.ResamplePool.Submit(0, func() (interface{}, error) {
		arr, mask, err := remap.Remap(*args.SampleFP, args.SubFP, args.Array, args.Mask, remap.Options{
			DstNodata:          args.DstNodata,
			MaskMode:           remap.MaskDilate,
			Interpolation:      args.Interpolation,
			AllowInterpolation: r.raster.AllowInterpolation,
			Significant:        env.Defaults().Significant,
		})
		return tileData{arr, mask}, err
	}, func(result interface{}, err error) []bus.Msg {
		if err != nil {
			return []bus.Msg{{To: producerAddr(r.uid), Verb: verbDoneResampling, Args: &doneResamplingArgs{
				QueryID: args.QueryID, ItemIdx: args.ItemIdx, SubFP: args.SubFP, Err: err,
			}}}
		}
		td := result.(tileData)
		return []bus.Msg{{To: producerAddr(r.uid), Verb: verbDoneResampling, Args: &doneResamplingArgs{
			QueryID: args.QueryID, ItemIdx: args.ItemIdx, SubFP: args.SubFP, Array: td.Array, Mask: td.Mask,
		}}}
	})
	return nil
}

func (r *Resampler) ReceiveNothing() []bus.Msg { return nil }
