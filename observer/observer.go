// Package observer implements the C10 component: a multicast of named
// debug events to optional user-supplied callbacks. Observers never
// influence scheduling or results; a Dataset with zero observers behaves
// identically to one with several.
//
// Grounded on spec.md §4.8 ("Observers expose optional methods
// on_<event_name>. The manager routes events without reflection cost
// after a first lookup"). Go has no structural "optional method" dispatch
// at call time the way the original's duck-typed on_<event_name> lookup
// does, so each event gets its own one-method interface; Register performs
// the type assertions once, at registration, and caches the matching
// callbacks into per-event slices — emitting an event is then a plain
// slice iteration, which is the Go-idiomatic reading of "no reflection
// cost after a first lookup".
package observer

// The event interfaces below name every event spec.md §4.8 lists.
// Observers implement whichever subset they care about.

type ObjectAllocatedObserver interface {
	OnObjectAllocated(kind, uid string)
}

type QueryCreatedObserver interface {
	OnQueryCreated(queryID string)
}

type QueryDroppedObserver interface {
	OnQueryDropped(queryID string)
}

type CacheTileReadyObserver interface {
	OnCacheTileReady(rasterUID, tileKey string)
}

type CacheTileCorruptedObserver interface {
	OnCacheTileCorrupted(rasterUID, tileKey string)
}

type PoolJobEnqueuedObserver interface {
	OnPoolJobEnqueued(poolName string, priority int)
}

type PoolJobDoneObserver interface {
	OnPoolJobDone(poolName string, failed bool)
}

type SchedulerCrashedObserver interface {
	OnSchedulerCrashed(reason string)
}

// Manager multicasts events to every registered observer that implements
// the matching interface.
type Manager struct {
	objectAllocated    []func(kind, uid string)
	queryCreated       []func(queryID string)
	queryDropped       []func(queryID string)
	cacheTileReady     []func(rasterUID, tileKey string)
	cacheTileCorrupted []func(rasterUID, tileKey string)
	poolJobEnqueued    []func(poolName string, priority int)
	poolJobDone        []func(poolName string, failed bool)
	schedulerCrashed   []func(reason string)
}

// New creates a Manager with the given observers registered (spec.md
// "Dataset constructor options ... debug_observers (sequence)").
func New(observers ...interface{}) *Manager {
	m := &Manager{}
	for _, o := range observers {
		m.Register(o)
	}
	return m
}

// Register resolves obs's applicable event interfaces once and caches
// them; later Fire* calls never type-assert obs again.
func (m *Manager) Register(obs interface{}) {
	if o, ok := obs.(ObjectAllocatedObserver); ok {
		m.objectAllocated = append(m.objectAllocated, o.OnObjectAllocated)
	}
	if o, ok := obs.(QueryCreatedObserver); ok {
		m.queryCreated = append(m.queryCreated, o.OnQueryCreated)
	}
	if o, ok := obs.(QueryDroppedObserver); ok {
		m.queryDropped = append(m.queryDropped, o.OnQueryDropped)
	}
	if o, ok := obs.(CacheTileReadyObserver); ok {
		m.cacheTileReady = append(m.cacheTileReady, o.OnCacheTileReady)
	}
	if o, ok := obs.(CacheTileCorruptedObserver); ok {
		m.cacheTileCorrupted = append(m.cacheTileCorrupted, o.OnCacheTileCorrupted)
	}
	if o, ok := obs.(PoolJobEnqueuedObserver); ok {
		m.poolJobEnqueued = append(m.poolJobEnqueued, o.OnPoolJobEnqueued)
	}
	if o, ok := obs.(PoolJobDoneObserver); ok {
		m.poolJobDone = append(m.poolJobDone, o.OnPoolJobDone)
	}
	if o, ok := obs.(SchedulerCrashedObserver); ok {
		m.schedulerCrashed = append(m.schedulerCrashed, o.OnSchedulerCrashed)
	}
}

func (m *Manager) FireObjectAllocated(kind, uid string) {
	for _, f := range m.objectAllocated {
		f(kind, uid)
	}
}

func (m *Manager) FireQueryCreated(queryID string) {
	for _, f := range m.queryCreated {
		f(queryID)
	}
}

func (m *Manager) FireQueryDropped(queryID string) {
	for _, f := range m.queryDropped {
		f(queryID)
	}
}

func (m *Manager) FireCacheTileReady(rasterUID, tileKey string) {
	for _, f := range m.cacheTileReady {
		f(rasterUID, tileKey)
	}
}

func (m *Manager) FireCacheTileCorrupted(rasterUID, tileKey string) {
	for _, f := range m.cacheTileCorrupted {
		f(rasterUID, tileKey)
	}
}

func (m *Manager) FirePoolJobEnqueued(poolName string, priority int) {
	for _, f := range m.poolJobEnqueued {
		f(poolName, priority)
	}
}

func (m *Manager) FirePoolJobDone(poolName string, failed bool) {
	for _, f := range m.poolJobDone {
		f(poolName, failed)
	}
}

func (m *Manager) FireSchedulerCrashed(reason string) {
	for _, f := range m.schedulerCrashed {
		f(reason)
	}
}
