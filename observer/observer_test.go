package observer

import "testing"

import "github.com/stretchr/testify/require"

type recordingObserver struct {
	allocated []string
	ready     []string
}

func (r *recordingObserver) OnObjectAllocated(kind, uid string) {
	r.allocated = append(r.allocated, kind+":"+uid)
}

func (r *recordingObserver) OnCacheTileReady(rasterUID, tileKey string) {
	r.ready = append(r.ready, rasterUID+":"+tileKey)
}

type createdOnlyObserver struct {
	count int
}

func (c *createdOnlyObserver) OnQueryCreated(queryID string) { c.count++ }

func TestManagerRoutesOnlyMatchingEvents(t *testing.T) {
	rec := &recordingObserver{}
	created := &createdOnlyObserver{}
	m := New(rec, created)

	m.FireObjectAllocated("raster", "uid-1")
	m.FireCacheTileReady("uid-1", "tile-key")
	m.FireQueryCreated("q-1")
	m.FireQueryDropped("q-2") // no observer implements this; must not panic

	require.Equal(t, []string{"raster:uid-1"}, rec.allocated)
	require.Equal(t, []string{"uid-1:tile-key"}, rec.ready)
	require.Equal(t, 1, created.count)
}

func TestManagerWithNoObserversFiresNothing(t *testing.T) {
	m := New()
	require.NotPanics(t, func() {
		m.FireObjectAllocated("raster", "x")
		m.FireSchedulerCrashed("boom")
	})
}
