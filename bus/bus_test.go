package bus

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPutAndDrain(t *testing.T) {
	b := New(4)
	b.Put(Msg{To: "/a", Verb: "x"})
	b.Put(Msg{To: "/b", Verb: "y"})

	got := b.Drain()
	require.Len(t, got, 2)
	require.Equal(t, Address("/a"), got[0].To)
	require.Equal(t, Address("/b"), got[1].To)
	require.Empty(t, b.Drain(), "a second drain on an empty inbox returns nothing")
}

func TestTryPutFailsWhenFull(t *testing.T) {
	b := New(1)
	require.True(t, b.TryPut(Msg{To: "/a"}))
	require.False(t, b.TryPut(Msg{To: "/b"}), "inbox at capacity must reject without blocking")
}

func TestAddressFormatting(t *testing.T) {
	uid := uuid.New()
	addr := RasterAddress(uid, "QueriesHandler")
	require.Equal(t, Address("/Raster{"+uid.String()+"}/QueriesHandler"), addr)
	require.Equal(t, Address("/Global/TopLevel"), GlobalAddress("TopLevel"))
}
