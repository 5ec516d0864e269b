package workpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rasterflow/rasterflow/bus"
)

func waitForCompletions(t *testing.T, p *Pool, want int, timeout time.Duration) []bus.Msg {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var got []bus.Msg
	for time.Now().Before(deadline) {
		got = append(got, p.Drain()...)
		if len(got) >= want {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d completions, got %d", want, len(got))
	return nil
}

func TestSubmitRunsWithinSlotBudget(t *testing.T) {
	p := New(2)
	for i := 0; i < 5; i++ {
		i := i
		p.Submit(0, func() (interface{}, error) { return i, nil }, func(result interface{}, err error) []bus.Msg {
			return []bus.Msg{{To: "/done", Verb: "x", Args: result}}
		})
	}
	msgs := waitForCompletions(t, p, 5, time.Second)
	require.Len(t, msgs, 5)
}

func TestHigherPriorityStartsFirstWhenSlotsScarce(t *testing.T) {
	p := New(1)
	started := make(chan int, 2)
	block := make(chan struct{})

	p.Submit(0, func() (interface{}, error) {
		started <- 0
		<-block
		return nil, nil
	}, func(interface{}, error) []bus.Msg { return nil })
	p.Poll() // claim the single slot with the low-priority job first

	p.Submit(5, func() (interface{}, error) {
		started <- 5
		return nil, nil
	}, func(interface{}, error) []bus.Msg { return nil })
	p.Submit(1, func() (interface{}, error) {
		started <- 1
		return nil, nil
	}, func(interface{}, error) []bus.Msg { return nil })

	require.Equal(t, 0, <-started)
	close(block)
	waitForCompletions(t, p, 1, time.Second)

	require.Equal(t, 5, <-started, "the higher-priority waiting job must start before the lower one")
	waitForCompletions(t, p, 2, time.Second)
	require.Equal(t, 1, <-started)
}

func TestCancelWaitingRemovesNotYetStartedJobs(t *testing.T) {
	p := New(0) // zero slots round up to 1, but we never Poll, so nothing starts
	p = New(1)
	p.Submit(0, func() (interface{}, error) {
		<-make(chan struct{}) // never returns; occupies the only slot forever
		return nil, nil
	}, func(interface{}, error) []bus.Msg { return nil })
	p.Poll()

	p.Submit(0, func() (interface{}, error) { return "should be cancelled", nil }, func(interface{}, error) []bus.Msg {
		return []bus.Msg{{Verb: "should-not-fire"}}
	})
	require.Equal(t, 1, p.Waiting())

	removed := p.CancelWaiting(func() bool { return true })
	require.Equal(t, 1, removed)
	require.Equal(t, 0, p.Waiting())
}
