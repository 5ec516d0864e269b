package filecache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rasterflow/rasterflow/footprint"
)

func mustFP(t *testing.T) footprint.Footprint {
	t.Helper()
	fp, err := footprint.New([2]float64{0, 10}, [2]float64{1, -1}, [2]int{4, 4}, 0)
	require.NoError(t, err)
	return fp
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir(), false)
	require.NoError(t, err)
	fp := mustFP(t)

	checksum, err := c.Write(fp, []byte("hello tile"))
	require.NoError(t, err)
	require.Len(t, checksum, 32)

	data, found, err := c.Read(fp)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("hello tile"), data)
}

func TestReadOnFreshCacheFindsNothing(t *testing.T) {
	c, err := Open(t.TempDir(), false)
	require.NoError(t, err)
	_, found, err := c.Read(mustFP(t))
	require.NoError(t, err)
	require.False(t, found)
}

func TestExistingTilesAreAdoptedWithoutOverwrite(t *testing.T) {
	dir := t.TempDir()
	c1, err := Open(dir, false)
	require.NoError(t, err)
	fp := mustFP(t)
	_, err = c1.Write(fp, []byte("persisted"))
	require.NoError(t, err)

	c2, err := Open(dir, false)
	require.NoError(t, err)
	data, found, err := c2.Read(fp)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("persisted"), data)
}

func TestOverwriteClearsDirectory(t *testing.T) {
	dir := t.TempDir()
	c1, err := Open(dir, false)
	require.NoError(t, err)
	fp := mustFP(t)
	_, err = c1.Write(fp, []byte("old"))
	require.NoError(t, err)

	c2, err := Open(dir, true)
	require.NoError(t, err)
	_, found, err := c2.Read(fp)
	require.NoError(t, err)
	require.False(t, found, "ow=true must clear prior tiles")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCorruptionIsDetectedAndFileIsRemoved(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, false)
	require.NoError(t, err)
	fp := mustFP(t)
	checksum, err := c.Write(fp, []byte("original bytes"))
	require.NoError(t, err)

	path := c.pathFor(Key(fp), checksum)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte{0x42})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, found, err := c.Read(fp)
	require.NoError(t, err)
	require.False(t, found, "a checksum mismatch must be reported as not found, not an error")
	require.Nil(t, data)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "the corrupted file must be deleted")
}

func TestRewritingReplacesStaleChecksummedFile(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, false)
	require.NoError(t, err)
	fp := mustFP(t)

	first, err := c.Write(fp, []byte("v1"))
	require.NoError(t, err)
	second, err := c.Write(fp, []byte("v2 longer"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = os.Stat(filepath.Join(dir, Key(fp)+"_"+first+".tif"))
	require.True(t, os.IsNotExist(err), "the stale checksum-named file must be removed on rewrite")

	data, found, err := c.Read(fp)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("v2 longer"), data)
}
