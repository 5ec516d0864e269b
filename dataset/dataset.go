// Package dataset implements the C11 component: the owner of every
// registered raster, the single scheduler thread driving their actors, the
// process-wide driver-handle pool, and the pool-alias registry scheduled
// rasters draw their workpool.Pools from.
//
// Grounded on original_source/buzzard/_dataset.py (Dataset) and
// _dataset_pools_container.py (PoolsContainer). The original's keyed
// registry (`ds.roofs`, `ds['roofs']`, attribute/item sugar) is explicitly
// out of scope (spec.md §1 "High-level user API sugar (keyed dataset
// registry, CLI, deprecation shims)"); Dataset here keeps a plain
// map[string]*Handle instead, with Get/lookup as ordinary methods.
package dataset

import (
	"context"
	"fmt"
	"sync"

	"github.com/rasterflow/rasterflow/bus"
	"github.com/rasterflow/rasterflow/driverpool"
	"github.com/rasterflow/rasterflow/observer"
	"github.com/rasterflow/rasterflow/scheduler"

	"github.com/sirupsen/logrus"
)

// Dataset owns the scheduler thread, the message bus every raster's
// actors share, the process-wide driver-handle pool (C3), and the pool
// aliases scheduled rasters resolve their pool parameters through.
type Dataset struct {
	opts Options
	log  *logrus.Entry

	bus       *bus.Bus
	scheduler *scheduler.Scheduler
	drivers   *driverpool.Pool
	observers *observer.Manager
	pools     *PoolsContainer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	rasters map[string]*Handle
	anon    []*Handle
}

// New constructs a Dataset (spec.md §6 "Dataset constructor options (all
// optional)"). The scheduler starts ticking immediately on its own
// goroutine; it keeps running until Close.
func New(opts Options) (*Dataset, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	drivers, err := driverpool.New(opts.MaxActive)
	if err != nil {
		return nil, &ErrConfig{Reason: err.Error()}
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := bus.New(1024)
	d := &Dataset{
		opts:      opts,
		log:       opts.Logger.WithField("component", "dataset"),
		bus:       b,
		scheduler: scheduler.New(b),
		drivers:   drivers,
		observers: observer.New(opts.DebugObservers...),
		pools:     newPoolsContainer(),
		ctx:       ctx,
		cancel:    cancel,
		rasters:   make(map[string]*Handle),
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.scheduler.Run(ctx, opts.PollInterval)
	}()

	return d, nil
}

// Pools returns the pool-alias registry scheduled raster constructors
// resolve their pool parameters through (spec.md §6 "Pool parameters...
// a hashable alias mapped through the Dataset's PoolsContainer").
func (d *Dataset) Pools() *PoolsContainer { return d.pools }

func (d *Dataset) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Get looks up a raster registered under key (spec.md's high-level
// keyed-registry sugar is out of scope, but callers still need a way back
// to a Handle created elsewhere).
func (d *Dataset) Get(key string) (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.rasters[key]
	if !ok {
		return nil, &ErrUnknownKey{Key: key}
	}
	return h, nil
}

// register adds h to the Dataset's registry (keyed, or anonymous when key
// is empty) and starts its actor set ticking.
func (d *Dataset) register(key string, h *Handle) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return &ErrSchedulerDead{}
	}
	if key != "" {
		if _, exists := d.rasters[key]; exists {
			d.mu.Unlock()
			return &ErrConfig{Reason: fmt.Sprintf("key %q is already registered", key)}
		}
		d.rasters[key] = h
	} else {
		d.anon = append(d.anon, h)
	}
	d.mu.Unlock()

	h.actors.Register(d.scheduler, h.scheduled)
	d.observers.FireObjectAllocated(h.Kind.String(), h.UID.String())
	return nil
}

// killRaster unregisters one raster's actor set without touching the
// scheduler's own lifecycle, e.g. to free resources for a raster the
// caller is done with before Close (spec.md §7's per-raster teardown is
// implied by C11's "lifecycle boundary" responsibility even though the
// source exposes it only via `with ... .close`/`.delete` context
// managers, which are the "High-level user API sugar" spec.md §1 excludes).
func (d *Dataset) killRaster(h *Handle) {
	h.actors.Unregister(d.scheduler, h.scheduled)
}

// Close stops accepting new rasters and queries, gives the scheduler a
// bounded number of ticks to flush in-flight pool completions (so writes
// already on disk get their completion messages processed and queries
// already satisfied get delivered), unregisters every raster's actors,
// and stops the scheduler thread (spec.md §7 "SchedulerDead: after any
// fatal scheduler error; subsequent API calls ... fail with this kind" —
// the same terminal state Close deliberately puts the Dataset into).
func (d *Dataset) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	rasters := make([]*Handle, 0, len(d.rasters)+len(d.anon))
	for _, h := range d.rasters {
		rasters = append(rasters, h)
	}
	rasters = append(rasters, d.anon...)
	d.mu.Unlock()

	const drainTicks = 16
	for i := 0; i < drainTicks; i++ {
		if !d.scheduler.Tick(d.ctx, 0) {
			break
		}
	}

	for _, h := range rasters {
		d.killRaster(h)
	}

	d.cancel()
	d.wg.Wait()
	d.pools.close()
	d.log.Info("dataset closed")
	return nil
}
