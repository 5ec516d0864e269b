package actor

import (
	"github.com/rasterflow/rasterflow/bus"
	"github.com/rasterflow/rasterflow/workpool"
)

// poolAdapter registers one raster's workpool.Pool with the scheduler so it
// gets polled every tick (spec.md §4.5 "on receive_nothing: while slots>0
// and waiting not empty, pop the highest-priority waiting job"; completions
// are delivered as the bus.Msg the submitting actor's OnDone closures
// built, via Pool.Drain). It never receives addressed messages of its own.
type poolAdapter struct {
	addr bus.Address
	pool *workpool.Pool
}

func newPoolAdapter(addr bus.Address, pool *workpool.Pool) *poolAdapter {
	return &poolAdapter{addr: addr, pool: pool}
}

func (a *poolAdapter) Address() bus.Address        { return a.addr }
func (a *poolAdapter) Receive(bus.Msg) []bus.Msg    { return nil }
func (a *poolAdapter) ReceiveNothing() []bus.Msg    { return a.pool.Drain() }
