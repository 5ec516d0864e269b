package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rasterflow/rasterflow/workpool"
)

func TestResolveReturnsNilForNilParam(t *testing.T) {
	c := newPoolsContainer()
	pool, err := c.Resolve(nil)
	require.NoError(t, err)
	require.Nil(t, pool)
}

func TestResolvePassesThroughConcretePool(t *testing.T) {
	c := newPoolsContainer()
	p := workpool.New(2)
	got, err := c.Resolve(p)
	require.NoError(t, err)
	require.Same(t, p, got)
}

func TestResolveAutoCreatesAndCachesAliasedPool(t *testing.T) {
	c := newPoolsContainer()
	first, err := c.Resolve("io")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := c.Resolve("io")
	require.NoError(t, err)
	require.Same(t, first, second, "the same alias must resolve to the same pool every time")
	require.Equal(t, 1, c.Len())
}

func TestAliasRejectsRebinding(t *testing.T) {
	c := newPoolsContainer()
	require.NoError(t, c.Alias("io", workpool.New(1)))
	require.Error(t, c.Alias("io", workpool.New(1)))
}

func TestAliasedPoolIsWhatResolveReturns(t *testing.T) {
	c := newPoolsContainer()
	p := workpool.New(3)
	require.NoError(t, c.Alias("compute", p))

	got, err := c.Resolve("compute")
	require.NoError(t, err)
	require.Same(t, p, got)
}

func TestCloseResetsTheContainer(t *testing.T) {
	c := newPoolsContainer()
	_, err := c.Resolve("io")
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.close()
	require.Equal(t, 0, c.Len())
}
