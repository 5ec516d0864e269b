package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rasterflow/rasterflow/bus"
)

// pingPongActor replies to "ping" with a "pong" sent to replyTo, and counts
// how many times ReceiveNothing was polled.
type pingPongActor struct {
	addr      bus.Address
	replyTo   bus.Address
	received  []bus.Msg
	pollCount int
}

func (a *pingPongActor) Address() bus.Address { return a.addr }

func (a *pingPongActor) Receive(m bus.Msg) []bus.Msg {
	a.received = append(a.received, m)
	if m.Verb == "ping" {
		return []bus.Msg{{To: a.replyTo, Verb: "pong", Args: m.Args}}
	}
	return nil
}

func (a *pingPongActor) ReceiveNothing() []bus.Msg {
	a.pollCount++
	return nil
}

func TestTickDispatchesInboxAndChainedReplies(t *testing.T) {
	b := bus.New(8)
	s := New(b)

	alice := &pingPongActor{addr: "/alice", replyTo: "/bob"}
	bob := &pingPongActor{addr: "/bob"}
	s.Register(alice)
	s.Register(bob)

	b.Put(bus.Msg{To: "/alice", Verb: "ping", Args: 1})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ok := s.Tick(ctx, 10*time.Millisecond)
	require.True(t, ok)

	require.Len(t, alice.received, 1)
	require.Equal(t, "ping", alice.received[0].Verb)
	require.Len(t, bob.received, 1, "bob must have received alice's chained pong reply within the same tick")
	require.Equal(t, "pong", bob.received[0].Verb)
	require.Equal(t, 1, alice.pollCount)
	require.Equal(t, 1, bob.pollCount)
}

func TestTickReturnsFalseWhenContextCancelled(t *testing.T) {
	b := bus.New(4)
	s := New(b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok := s.Tick(ctx, 10*time.Millisecond)
	require.False(t, ok)
}

func TestUnregisterStopsPolling(t *testing.T) {
	b := bus.New(4)
	s := New(b)
	a := &pingPongActor{addr: "/alice"}
	s.Register(a)
	s.Unregister("/alice")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Tick(ctx, 10*time.Millisecond)
	require.Equal(t, 0, a.pollCount)
}

func TestMessageArrivingDuringSleepIsPickedUpNextTick(t *testing.T) {
	b := bus.New(4)
	s := New(b)
	a := &pingPongActor{addr: "/alice"}
	s.Register(a)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		time.Sleep(5 * time.Millisecond)
		b.Put(bus.Msg{To: "/alice", Verb: "ping"})
	}()

	// First tick's drain sees nothing; its sleep phase is the one that
	// observes the message arriving from the goroutine above.
	require.True(t, s.Tick(ctx, 200*time.Millisecond))
	require.Empty(t, a.received)

	// Second tick drains s.pending first and dispatches it.
	require.True(t, s.Tick(ctx, 10*time.Millisecond))
	require.Len(t, a.received, 1)
}
