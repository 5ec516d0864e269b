// Package bus implements the C5 component: an in-process addressed
// mailbox. Every actor has a stable Address; external threads enqueue
// messages via Put, and the scheduler (package scheduler) drains them.
//
// Grounded on spec.md §4.4 ("the bus has a concurrent inbox the scheduler
// polls. External threads ... put_message into the inbox"); the teacher has
// no actor system of its own, so the channel-as-mailbox idiom is adapted
// from its worker-pool fan-in pattern (internal/tile/generator.go's
// jobs-channel-plus-WaitGroup), generalized from "one job channel" to "one
// addressed inbox per bus, many logical addressees".
package bus

import "fmt"

// Address identifies an actor instance, e.g. "/Raster{uid}/QueriesHandler"
// or "/Global/TopLevel" (spec.md §4.4).
type Address string

// RasterAddress formats the address of a per-raster actor.
func RasterAddress(uid fmt.Stringer, actor string) Address {
	return Address(fmt.Sprintf("/Raster{%s}/%s", uid, actor))
}

// GlobalAddress formats the address of a dataset-wide (non-per-raster) actor.
func GlobalAddress(actor string) Address {
	return Address(fmt.Sprintf("/Global/%s", actor))
}

// Msg is one message: a destination address, a verb naming the handler, and
// opaque arguments the handler type-asserts.
type Msg struct {
	To   Address
	Verb string
	Args interface{}
}

// Bus is a concurrent inbox. Put is safe to call from any goroutine; Drain
// is intended to be called only by the scheduler's own goroutine.
type Bus struct {
	inbox chan Msg
}

// New creates a Bus with the given inbox capacity (messages block on Put
// once the inbox is full, providing natural back-pressure on producers).
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 256
	}
	return &Bus{inbox: make(chan Msg, capacity)}
}

// Put enqueues m, blocking if the inbox is full.
func (b *Bus) Put(m Msg) {
	b.inbox <- m
}

// TryPut enqueues m without blocking; it reports whether the inbox had room.
func (b *Bus) TryPut(m Msg) bool {
	select {
	case b.inbox <- m:
		return true
	default:
		return false
	}
}

// Drain removes and returns every message currently queued, without
// blocking.
func (b *Bus) Drain() []Msg {
	var out []Msg
	for {
		select {
		case m := <-b.inbox:
			out = append(out, m)
		default:
			return out
		}
	}
}

// Chan exposes the underlying channel so the scheduler can select on it
// while sleeping between ticks.
func (b *Bus) Chan() <-chan Msg {
	return b.inbox
}
