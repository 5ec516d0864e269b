package driverpool

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func allocator(tag string) Allocator {
	return func() (interface{}, error) { return tag, nil }
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p, err := New(2)
	require.NoError(t, err)

	uid := uuid.New()
	lease, err := p.Acquire(uid, allocator("a"))
	require.NoError(t, err)
	require.Equal(t, "a", lease.Handle())
	require.Equal(t, 1, p.UsedCount(uid))
	require.Equal(t, 0, p.IdleCount(uid))

	lease.Release()
	require.Equal(t, 0, p.UsedCount(uid))
	require.Equal(t, 1, p.IdleCount(uid))
	require.Equal(t, 1, p.TotalActive())
}

func TestAcquireReusesIdleHandle(t *testing.T) {
	p, err := New(2)
	require.NoError(t, err)
	uid := uuid.New()

	calls := 0
	alloc := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	l1, err := p.Acquire(uid, alloc)
	require.NoError(t, err)
	l1.Release()

	l2, err := p.Acquire(uid, alloc)
	require.NoError(t, err)
	require.Equal(t, 1, calls, "second acquire should reuse the idle handle, not allocate again")
	require.Equal(t, 1, l2.Handle())
}

func TestPoolExhaustedWithNoIdleToEvict(t *testing.T) {
	p, err := New(1)
	require.NoError(t, err)

	uidA := uuid.New()
	uidB := uuid.New()

	l1, err := p.Acquire(uidA, allocator("a"))
	require.NoError(t, err)

	_, err = p.Acquire(uidB, allocator("b"))
	require.Error(t, err)
	var exhausted *ErrPoolExhausted
	require.ErrorAs(t, err, &exhausted)

	l1.Release()
}

func TestAcquireEvictsLRUIdleWhenFull(t *testing.T) {
	p, err := New(1)
	require.NoError(t, err)

	uidA := uuid.New()
	uidB := uuid.New()

	l1, err := p.Acquire(uidA, allocator("a"))
	require.NoError(t, err)
	l1.Release() // uidA now idle, total active == 1 == max_active

	l2, err := p.Acquire(uidB, allocator("b"))
	require.NoError(t, err)
	require.Equal(t, 0, p.IdleCount(uidA), "uidA's idle handle must be evicted to make room")
	require.Equal(t, 1, p.TotalActive())
	l2.Release()
}

func TestDeactivateFailsWhileInUse(t *testing.T) {
	p, err := New(2)
	require.NoError(t, err)
	uid := uuid.New()

	lease, err := p.Acquire(uid, allocator("a"))
	require.NoError(t, err)

	err = p.Deactivate(uid)
	require.Error(t, err)
	var inUse *ErrInUse
	require.ErrorAs(t, err, &inUse)

	lease.Release()
	require.NoError(t, p.Deactivate(uid))
	require.Equal(t, 0, p.TotalActive())
}

func TestActivateIsIdempotent(t *testing.T) {
	p, err := New(2)
	require.NoError(t, err)
	uid := uuid.New()

	calls := 0
	alloc := func() (interface{}, error) {
		calls++
		return calls, nil
	}
	require.NoError(t, p.Activate(uid, alloc))
	require.NoError(t, p.Activate(uid, alloc))
	require.Equal(t, 1, calls)
	require.Equal(t, 1, p.TotalActive())
}
