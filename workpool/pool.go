// Package workpool implements the C8 component: a pool-offload adapter
// wrapping a bounded set of worker goroutines behind a priority waiting
// room, with completions delivered back to the caller as bus messages
// rather than through blocking Futures.
//
// Grounded on spec.md §4.5 ("waiting list of WaitingJob{priority, on_start},
// in_flight set of WorkingJob{future, on_done}, a slots counter ... on
// receive_nothing: while slots>0 and waiting not empty, pop the
// highest-priority waiting job"). The job-submission/worker-goroutine shape
// is adapted from the teacher's internal/tile/generator.go
// (jobs-channel-plus-WaitGroup-plus-atomic-counters), generalized from "one
// FIFO job channel, fixed worker count" to "one priority waiting room, a
// semaphore-bounded slot count, explicit start/cancel control from the
// scheduler's poll loop" since C8 must be driven cooperatively
// (receive_nothing) rather than run its own blocking wait loop.
package workpool

import (
	"container/heap"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/rasterflow/rasterflow/bus"
)

// Task is the real unit of work submitted to the pool; it runs on its own
// goroutine once a slot is available.
type Task func() (result interface{}, err error)

// OnDone is invoked (from the scheduler's own goroutine, via Drain) once a
// task completes; it returns any bus messages the completion produces (e.g.
// "done_one_sampling" to a Producer).
type OnDone func(result interface{}, err error) []bus.Msg

type job struct {
	priority int
	seq      int // insertion order, for FIFO tie-break within equal priority
	task     Task
	onDone   OnDone
}

// Pool is a priority-ordered waiting room over a fixed number of worker
// slots, tracked with a semaphore so Submit/Drain never block.
type Pool struct {
	sem         *semaphore.Weighted
	mu          sync.Mutex
	waiting     jobHeap
	seq         int
	completions chan completion
}

type completion struct {
	j      *job
	result interface{}
	err    error
}

// New creates a Pool with the given number of worker slots (spec.md §4.5
// "slots counter (= pool worker count)").
func New(slots int) *Pool {
	if slots < 1 {
		slots = 1
	}
	return &Pool{
		sem:         semaphore.NewWeighted(int64(slots)),
		completions: make(chan completion, slots*4),
	}
}

// Submit enqueues task at priority (higher runs sooner); onDone is called
// once it completes, from Drain's goroutine.
func (p *Pool) Submit(priority int, task Task, onDone OnDone) {
	p.mu.Lock()
	p.seq++
	heap.Push(&p.waiting, &job{priority: priority, seq: p.seq, task: task, onDone: onDone})
	p.mu.Unlock()
}

// CancelWaiting removes every not-yet-started waiting job for which pred
// returns true (spec.md §4.5 "cancellation by predicate removes matching
// entries from waiting; in-flight jobs cannot be cancelled but their
// results are discarded at the actor level"). In-flight jobs already
// running are left alone; callers are expected to make their own onDone
// a no-op for cancelled work by closing over the same predicate state.
func (p *Pool) CancelWaiting(pred func() bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	kept := p.waiting[:0]
	for _, j := range p.waiting {
		if pred() {
			removed++
			continue
		}
		kept = append(kept, j)
	}
	p.waiting = kept
	heap.Init(&p.waiting)
	return removed
}

// Poll starts as many waiting jobs as available slots allow (spec.md §4.5
// "on receive_nothing: while slots>0 and waiting not empty, pop the
// highest-priority waiting job, call on_start"). Call once per scheduler
// tick, from an actor's ReceiveNothing.
func (p *Pool) Poll() {
	for {
		p.mu.Lock()
		if p.waiting.Len() == 0 {
			p.mu.Unlock()
			return
		}
		if !p.sem.TryAcquire(1) {
			p.mu.Unlock()
			return
		}
		j := heap.Pop(&p.waiting).(*job)
		p.mu.Unlock()
		go p.run(j)
	}
}

func (p *Pool) run(j *job) {
	result, err := j.task()
	p.sem.Release(1)
	p.completions <- completion{j: j, result: result, err: err}
}

// Drain starts newly-runnable waiting jobs, then delivers every completion
// queued since the last Drain as the messages their onDone callbacks
// produce. Call once per scheduler tick.
func (p *Pool) Drain() []bus.Msg {
	p.Poll()
	var out []bus.Msg
	for {
		select {
		case c := <-p.completions:
			out = append(out, c.j.onDone(c.result, c.err)...)
		default:
			return out
		}
	}
}

// Waiting reports how many jobs are queued but not yet started.
func (p *Pool) Waiting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiting.Len()
}

// jobHeap is a max-heap on priority, FIFO among equal priorities.
type jobHeap []*job

func (h jobHeap) Len() int { return len(h) }
func (h jobHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x interface{}) {
	*h = append(*h, x.(*job))
}
func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
