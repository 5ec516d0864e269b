// Package driverpool implements the C3 component: a process-wide bounded
// cache of idle driver handles (e.g. an open GDAL dataset handle), keyed by
// raster UID, shared by every raster a Dataset owns.
//
// Grounded on
// original_source/buzzard/_datasource_back_activation_pool.py
// (BackDataSourceActivationPoolMixin): activate/acquire/deactivate with an
// idle multimap ordered MRU-to-LRU (original_source/buzzard/test's
// MultiOrderedDict — push_front/pop_first_occurrence/pop_back), and a
// used-count per UID. The idle multimap is reimplemented here with
// container/list rather than ported verbatim, since Go has no map+list
// combination type in the standard library.
package driverpool

import (
	"container/list"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// UID identifies a raster for pooling purposes (spec.md §3 "UID (fresh on
// construction)").
type UID = uuid.UUID

// Allocator creates a new driver handle. Its result is opaque to the pool;
// callers type-assert it to their own driver handle type.
type Allocator func() (interface{}, error)

type idleEntry struct {
	uid    UID
	handle interface{}
}

// Pool is a process-wide LRU of idle driver handles bounded by max_active.
// |idle| + Σused ≤ max_active holds at every observable point (spec.md §8).
type Pool struct {
	mu        sync.Mutex
	maxActive int
	sem       *semaphore.Weighted // tracks |idle|+Σused against max_active
	idle      *list.List          // front = MRU, back = LRU
	used      map[UID]int
}

// New creates a Pool bounded by maxActive, which must be >= 1
// (spec.md §7 ConfigError "max_active<1").
func New(maxActive int) (*Pool, error) {
	if maxActive < 1 {
		return nil, errors.New("driverpool: max_active must be >= 1")
	}
	return &Pool{
		maxActive: maxActive,
		sem:       semaphore.NewWeighted(int64(maxActive)),
		idle:      list.New(),
		used:      make(map[UID]int),
	}, nil
}

// Activate ensures at least one handle (idle or used) exists for uid,
// allocating one via allocate if none does. It never hands ownership to the
// caller — use Acquire for a scoped borrow.
func (p *Pool) Activate(uid UID, allocate Allocator) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.used[uid] > 0 || p.frontIdleLocked(uid) != nil {
		return nil
	}
	if _, err := p.ensureSlotLocked(); err != nil {
		return err
	}
	handle, err := allocate()
	if err != nil {
		p.sem.Release(1)
		return errors.Wrap(err, "driverpool: activate: allocator failed")
	}
	p.idle.PushFront(&idleEntry{uid: uid, handle: handle})
	return nil
}

// Lease is a scoped borrow of a driver handle; call Release exactly once
// when done, typically via defer.
type Lease struct {
	pool     *Pool
	uid      UID
	handle   interface{}
	released bool
}

// Handle returns the borrowed driver handle.
func (l *Lease) Handle() interface{} { return l.handle }

// Release returns the handle to the pool's idle set (front, i.e. MRU).
// Safe to call more than once.
func (l *Lease) Release() {
	if l.released {
		return
	}
	l.released = true
	p := l.pool
	p.mu.Lock()
	p.used[l.uid]--
	p.idle.PushFront(&idleEntry{uid: l.uid, handle: l.handle})
	p.mu.Unlock()
}

// Acquire pops an idle handle for uid if one exists, else evicts the
// globally least-recently-used idle handle (regardless of its uid) and
// allocates a fresh one. The allocator call happens outside the pool's
// lock, matching the original's acquire_driver_object (unlike Activate,
// which allocates under lock).
func (p *Pool) Acquire(uid UID, allocate Allocator) (*Lease, error) {
	p.mu.Lock()
	var handle interface{}
	needAlloc := false

	if e := p.frontIdleLocked(uid); e != nil {
		handle = e.Value.(*idleEntry).handle
		p.idle.Remove(e)
	} else {
		if _, err := p.ensureSlotLocked(); err != nil {
			p.mu.Unlock()
			return nil, err
		}
		needAlloc = true
	}
	p.used[uid]++
	p.mu.Unlock()

	if needAlloc {
		var err error
		handle, err = allocate()
		if err != nil {
			p.mu.Lock()
			p.used[uid]--
			p.sem.Release(1)
			p.mu.Unlock()
			return nil, errors.Wrap(err, "driverpool: acquire: allocator failed")
		}
	}
	return &Lease{pool: p, uid: uid, handle: handle}, nil
}

// Deactivate drops every idle handle for uid. It fails with ErrInUse if any
// handle for uid is currently leased out.
func (p *Pool) Deactivate(uid UID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.used[uid] > 0 {
		return &ErrInUse{UID: uid}
	}
	n := 0
	var next *list.Element
	for e := p.idle.Front(); e != nil; e = next {
		next = e.Next()
		if e.Value.(*idleEntry).uid == uid {
			p.idle.Remove(e)
			n++
		}
	}
	if n > 0 {
		p.sem.Release(int64(n))
	}
	delete(p.used, uid)
	return nil
}

// ensureSlotLocked makes room for one more handle within max_active,
// evicting the globally LRU idle handle if the budget is already full.
// acquiredFresh reports whether a new semaphore permit was taken rather than
// an evicted handle's permit reused; either way the caller now holds one
// permit and releases it if the subsequent allocation fails.
func (p *Pool) ensureSlotLocked() (acquiredFresh bool, err error) {
	if p.sem.TryAcquire(1) {
		return true, nil
	}
	if e := p.idle.Back(); e != nil {
		p.idle.Remove(e)
		return false, nil
	}
	return false, &ErrPoolExhausted{MaxActive: p.maxActive}
}

func (p *Pool) frontIdleLocked(uid UID) *list.Element {
	for e := p.idle.Front(); e != nil; e = e.Next() {
		if e.Value.(*idleEntry).uid == uid {
			return e
		}
	}
	return nil
}

// IdleCount returns the number of idle handles for uid.
func (p *Pool) IdleCount(uid UID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for e := p.idle.Front(); e != nil; e = e.Next() {
		if e.Value.(*idleEntry).uid == uid {
			n++
		}
	}
	return n
}

// UsedCount returns the number of leased-out handles for uid.
func (p *Pool) UsedCount(uid UID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used[uid]
}

// TotalActive returns |idle| + Σused across every uid.
func (p *Pool) TotalActive() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := p.idle.Len()
	for _, n := range p.used {
		total += n
	}
	return total
}
