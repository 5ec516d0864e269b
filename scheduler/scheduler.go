// Package scheduler implements the C6 component: a single-threaded
// cooperative event loop driving every actor registered on one bus.
//
// Grounded on spec.md §4.4's four-step tick ("drains the inbox ... polls
// every registered actor's receive_nothing() ... processes messages newly
// produced ... sleeps until the next event or a poll deadline"). The
// teacher has no event loop; the select-with-timeout idiom driving the
// sleep step is adapted from the worker-pool idiom in
// internal/tile/generator.go (a buffered channel drained by a fixed loop),
// generalized from "one job queue, N workers" to "one inbox, one loop,
// many registered actors".
package scheduler

import (
	"context"
	"time"

	"github.com/rasterflow/rasterflow/bus"
)

// Actor is anything the scheduler can dispatch messages to and poll for
// spontaneous work (spec.md §4.4; every C7 actor type implements this).
type Actor interface {
	Address() bus.Address

	// Receive handles one message addressed to this actor, returning any
	// messages it produces as a synchronous consequence (e.g. replies,
	// follow-up requests to other actors).
	Receive(m bus.Msg) []bus.Msg

	// ReceiveNothing is polled once per tick with no message, letting the
	// actor advance spontaneous work (e.g. a Producer noticing a workpool
	// slot freed up). It returns any messages produced.
	ReceiveNothing() []bus.Msg
}

// Scheduler owns a bus and the set of actors registered on it.
type Scheduler struct {
	bus     *bus.Bus
	actors  map[bus.Address]Actor
	order   []bus.Address // registration order, for deterministic polling
	pending []bus.Msg      // messages peeked during the sleep phase
}

// New creates a Scheduler driven by b.
func New(b *bus.Bus) *Scheduler {
	return &Scheduler{bus: b, actors: make(map[bus.Address]Actor)}
}

// Register adds a to the set of actors this scheduler dispatches to and
// polls. Not safe to call concurrently with Run.
func (s *Scheduler) Register(a Actor) {
	addr := a.Address()
	if _, exists := s.actors[addr]; !exists {
		s.order = append(s.order, addr)
	}
	s.actors[addr] = a
}

// Unregister removes an actor, e.g. once its raster has been forgotten.
func (s *Scheduler) Unregister(addr bus.Address) {
	delete(s.actors, addr)
	for i, a := range s.order {
		if a == addr {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Run ticks until ctx is cancelled. pollInterval bounds how long a tick's
// sleep phase waits for a new message before polling ReceiveNothing again;
// it is the scheduler's only latency/throughput knob.
func (s *Scheduler) Run(ctx context.Context, pollInterval time.Duration) {
	for s.tick(ctx, pollInterval) {
	}
}

// Tick runs exactly one iteration of the four-step loop and reports
// whether the caller should keep going. Exposed directly for tests and for
// callers that want to drive the loop themselves (e.g. to single-step it
// deterministically).
func (s *Scheduler) Tick(ctx context.Context, pollInterval time.Duration) bool {
	return s.tick(ctx, pollInterval)
}

func (s *Scheduler) tick(ctx context.Context, pollInterval time.Duration) bool {
	queue := append([]bus.Msg(nil), s.pending...)
	s.pending = nil

	// 1) drain the inbox
	queue = append(queue, s.bus.Drain()...)

	// 2) poll every registered actor's receive_nothing(), in registration
	// order, so polling is deterministic across ticks
	for _, addr := range s.order {
		a, ok := s.actors[addr]
		if !ok {
			continue
		}
		queue = append(queue, a.ReceiveNothing()...)
	}

	// 3) process messages newly produced, including by dispatch itself,
	// until the local queue is empty
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		queue = append(queue, s.dispatch(m)...)
	}

	// 4) sleep until the next inbox event or pollInterval elapses
	select {
	case <-ctx.Done():
		return false
	case m, ok := <-s.bus.Chan():
		if ok {
			s.pending = append(s.pending, m)
		}
		return true
	case <-time.After(pollInterval):
		return true
	}
}

func (s *Scheduler) dispatch(m bus.Msg) []bus.Msg {
	a, ok := s.actors[m.To]
	if !ok {
		return nil
	}
	return a.Receive(m)
}
