package ordix

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPositionSpreads(t *testing.T) {
	t.Parallel()

	a := hashPosition(Position{File: 0, Offset: 0})
	b := hashPosition(Position{File: 0, Offset: 1})
	c := hashPosition(Position{File: 1, Offset: 0})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, hashPosition(Position{File: 0, Offset: 0}))
}

func TestCacheBoundsResidentNodes(t *testing.T) {
	t.Parallel()

	metaPath := filepath.Join(t.TempDir(), "idx.meta")
	tr, err := New(compareInt64, Int64Codec{},
		WithDegree(3), WithMetadata(metaPath), WithCacheSize(MinCacheSize))
	require.NoError(t, err)
	defer tr.Close()

	for i := int64(1); i <= 500; i++ {
		require.NoError(t, tr.Add(i))
	}

	require.NotNil(t, tr.cache)
	assert.LessOrEqual(t, tr.cache.len(), MinCacheSize)

	// Evicted nodes re-load transparently.
	got := collect(t, tr)
	require.Len(t, got, 500)
	for i, v := range got {
		require.Equal(t, int64(i+1), v)
	}
}

func TestCacheSizeIsRaisedToMinimum(t *testing.T) {
	t.Parallel()

	c, err := newNodeCache[int64](1)
	require.NoError(t, err)
	for i := int64(0); i < int64(MinCacheSize); i++ {
		c.put(Position{File: 0, Offset: i}, &NodeRef[int64]{})
	}
	assert.Equal(t, MinCacheSize, c.len())
}

func TestEvictionDropsResidentNodeOnly(t *testing.T) {
	t.Parallel()

	metaPath := filepath.Join(t.TempDir(), "idx.meta")
	tr, err := New(compareInt64, Int64Codec{}, WithDegree(3), WithMetadata(metaPath))
	require.NoError(t, err)
	defer tr.Close()
	require.NoError(t, tr.Add(1, 2, 3, 4, 5))

	root := tr.Root()
	pos, ok := root.Position()
	require.True(t, ok)

	root.unload()
	assert.Nil(t, root.res.Load(), "resident node dropped")
	gotPos, ok := root.Position()
	require.True(t, ok)
	assert.Equal(t, pos, gotPos, "position survives unload")

	// Next access re-loads from storage.
	keys, err := root.Keys()
	require.NoError(t, err)
	assert.NotEmpty(t, keys)
}

func TestFreshRefIgnoresUnload(t *testing.T) {
	t.Parallel()

	tr := newIntTree(t, WithDegree(3))
	require.NoError(t, tr.Add(1))

	root := tr.Root()
	root.unload() // no position: nothing to re-load from, so keep the node
	keys, err := root.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestFindAfterEviction(t *testing.T) {
	t.Parallel()

	metaPath := filepath.Join(t.TempDir(), "idx.meta")
	tr, err := New(compareInt64, Int64Codec{},
		WithDegree(4), WithMetadata(metaPath), WithCacheSize(MinCacheSize))
	require.NoError(t, err)
	defer tr.Close()

	for i := int64(1); i <= 300; i++ {
		require.NoError(t, tr.Add(i))
	}
	for _, v := range []int64{1, 150, 299, 300} {
		got, ok, err := tr.Find(v)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
}
