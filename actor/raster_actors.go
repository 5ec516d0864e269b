package actor

import (
	"github.com/google/uuid"

	"github.com/rasterflow/rasterflow/bus"
	"github.com/rasterflow/rasterflow/observer"
	"github.com/rasterflow/rasterflow/query"
	"github.com/rasterflow/rasterflow/raster"
	"github.com/rasterflow/rasterflow/scheduler"
)

// RasterActors bundles one raster's full C7 actor set plus the pool
// adapters that let the scheduler poll its workpool.Pools every tick.
type RasterActors struct {
	QueriesHandler  *QueriesHandler
	Producer        *Producer
	Resampler       *Resampler
	Sampler         *Sampler
	CacheSupervisor *CacheSupervisor
}

// NewRasterActors constructs and wires every actor for one scheduled
// raster (spec.md §4.6's fixed actor set, one instance per raster).
func NewRasterActors(r *raster.Scheduled, b *bus.Bus, obs *observer.Manager) *RasterActors {
	uid := r.UID
	info := query.RasterInfo{
		FP:                 r.FP,
		CacheTiles:         r.CacheTiles,
		MaxResamplingSize:  r.MaxResamplingSize,
		Interpolation:      r.Interpolation,
		AllowInterpolation: r.AllowInterpolation,
		Significant:        r.Significant,
	}
	sup := NewCacheSupervisor(uid, b, obs, r)
	return &RasterActors{
		QueriesHandler:  NewQueriesHandler(uid, b, obs, info),
		Producer:        NewProducer(uid, b),
		Resampler:       NewResampler(uid, b, r),
		Sampler:         NewSampler(uid, b, r, sup),
		CacheSupervisor: sup,
	}
}

// Register adds every actor of this raster, plus a poolAdapter for each of
// its non-nil workpool.Pools, to s so the scheduler starts ticking them
// (spec.md §4.5 "on receive_nothing: ... pop the highest-priority waiting
// job"; a pool only runs when something polls it).
func (ra *RasterActors) Register(s *scheduler.Scheduler, r *raster.Scheduled) {
	s.Register(ra.QueriesHandler)
	s.Register(ra.Producer)
	s.Register(ra.Resampler)
	s.Register(ra.Sampler)
	s.Register(ra.CacheSupervisor)

	uid := r.UID
	if r.ComputationPool != nil {
		s.Register(newPoolAdapter(poolAdapterAddr(uid, "computation"), r.ComputationPool))
	}
	if r.MergePool != nil {
		s.Register(newPoolAdapter(poolAdapterAddr(uid, "merge"), r.MergePool))
	}
	if r.ResamplePool != nil {
		s.Register(newPoolAdapter(poolAdapterAddr(uid, "resample"), r.ResamplePool))
	}
	if r.IOPool != nil {
		s.Register(newPoolAdapter(poolAdapterAddr(uid, "io"), r.IOPool))
	}
}

// Unregister removes every actor and pool adapter registered by Register,
// e.g. when a raster is killed (spec.md §7 "Dataset.close: ... kill_raster
// per raster").
func (ra *RasterActors) Unregister(s *scheduler.Scheduler, r *raster.Scheduled) {
	s.Unregister(ra.QueriesHandler.Address())
	s.Unregister(ra.Producer.Address())
	s.Unregister(ra.Resampler.Address())
	s.Unregister(ra.Sampler.Address())
	s.Unregister(ra.CacheSupervisor.Address())

	uid := r.UID
	s.Unregister(poolAdapterAddr(uid, "computation"))
	s.Unregister(poolAdapterAddr(uid, "merge"))
	s.Unregister(poolAdapterAddr(uid, "resample"))
	s.Unregister(poolAdapterAddr(uid, "io"))
}
