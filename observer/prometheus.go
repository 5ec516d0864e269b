package observer

import "github.com/prometheus/client_golang/prometheus"

// PrometheusObserver implements every event interface in this package,
// backing each with a counter so a Dataset's debug events can
// be scraped instead of only logged. It is one concrete observer among
// however many debug_observers a Dataset is constructed with (spec.md
// §4.8); nothing else in this package depends on it.
type PrometheusObserver struct {
	objectsAllocated  *prometheus.CounterVec
	queriesCreated    prometheus.Counter
	queriesDropped    prometheus.Counter
	cacheTilesReady   *prometheus.CounterVec
	cacheCorruptions  *prometheus.CounterVec
	poolJobsEnqueued  *prometheus.CounterVec
	poolJobsDone      *prometheus.CounterVec
	poolJobsFailed    *prometheus.CounterVec
	schedulerCrashes  prometheus.Counter
}

// NewPrometheusObserver registers its metrics on reg and returns an
// observer ready to pass to observer.New.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	p := &PrometheusObserver{
		objectsAllocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rasterflow_objects_allocated_total",
			Help: "Objects allocated, by kind (raster, query, ...).",
		}, []string{"kind"}),
		queriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rasterflow_queries_created_total",
			Help: "Queries created across all rasters.",
		}),
		queriesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rasterflow_queries_dropped_total",
			Help: "Queries dropped (cancelled or errored) across all rasters.",
		}),
		cacheTilesReady: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rasterflow_cache_tiles_ready_total",
			Help: "Cache tiles that transitioned to ready, by raster UID.",
		}, []string{"raster"}),
		cacheCorruptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rasterflow_cache_tile_corruptions_total",
			Help: "Cache tiles detected as corrupted, by raster UID.",
		}, []string{"raster"}),
		poolJobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rasterflow_pool_jobs_enqueued_total",
			Help: "Pool-offload jobs enqueued, by pool name.",
		}, []string{"pool"}),
		poolJobsDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rasterflow_pool_jobs_done_total",
			Help: "Pool-offload jobs completed successfully, by pool name.",
		}, []string{"pool"}),
		poolJobsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rasterflow_pool_jobs_failed_total",
			Help: "Pool-offload jobs that completed with an error, by pool name.",
		}, []string{"pool"}),
		schedulerCrashes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rasterflow_scheduler_crashes_total",
			Help: "Scheduler crashes, terminal per Dataset.",
		}),
	}
	reg.MustRegister(
		p.objectsAllocated, p.queriesCreated, p.queriesDropped,
		p.cacheTilesReady, p.cacheCorruptions,
		p.poolJobsEnqueued, p.poolJobsDone, p.poolJobsFailed,
		p.schedulerCrashes,
	)
	return p
}

func (p *PrometheusObserver) OnObjectAllocated(kind, uid string) {
	p.objectsAllocated.WithLabelValues(kind).Inc()
}

func (p *PrometheusObserver) OnQueryCreated(queryID string) { p.queriesCreated.Inc() }

func (p *PrometheusObserver) OnQueryDropped(queryID string) { p.queriesDropped.Inc() }

func (p *PrometheusObserver) OnCacheTileReady(rasterUID, tileKey string) {
	p.cacheTilesReady.WithLabelValues(rasterUID).Inc()
}

func (p *PrometheusObserver) OnCacheTileCorrupted(rasterUID, tileKey string) {
	p.cacheCorruptions.WithLabelValues(rasterUID).Inc()
}

func (p *PrometheusObserver) OnPoolJobEnqueued(poolName string, priority int) {
	p.poolJobsEnqueued.WithLabelValues(poolName).Inc()
}

func (p *PrometheusObserver) OnPoolJobDone(poolName string, failed bool) {
	if failed {
		p.poolJobsFailed.WithLabelValues(poolName).Inc()
		return
	}
	p.poolJobsDone.WithLabelValues(poolName).Inc()
}

func (p *PrometheusObserver) OnSchedulerCrashed(reason string) { p.schedulerCrashes.Inc() }
