package ordix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIteratorEmptyTree(t *testing.T) {
	t.Parallel()

	tr := newIntTree(t, WithDegree(3))
	it := tr.Iterator()
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
	// Exhausted iterators stay exhausted.
	assert.False(t, it.Next())
}

func TestIteratorSingleNode(t *testing.T) {
	t.Parallel()

	tr := newIntTree(t, WithDegree(100))
	require.NoError(t, tr.Add(3, 1, 2))
	assert.Equal(t, []int64{1, 2, 3}, collect(t, tr))
}

func TestIteratorMultiLevel(t *testing.T) {
	t.Parallel()

	tr := newIntTree(t, WithDegree(3))
	require.NoError(t, tr.Add(10, 20, 30, 40, 50, 60, 70))
	assert.Equal(t, []int64{10, 20, 30, 40, 50, 60, 70}, collect(t, tr))
}

func TestIteratorSkipsTombstones(t *testing.T) {
	t.Parallel()

	tr := newIntTree(t, WithDegree(3))
	for i := int64(1); i <= 20; i++ {
		require.NoError(t, tr.Add(i))
	}
	_, err := tr.Delete(1, 7, 13, 20)
	require.NoError(t, err)

	got := collect(t, tr)
	require.Len(t, got, 16)
	for _, v := range got {
		assert.NotContains(t, []int64{1, 7, 13, 20}, v)
	}
}

func TestIteratorYieldsDuplicates(t *testing.T) {
	t.Parallel()

	tr := newIntTree(t, WithDegree(3))
	require.NoError(t, tr.Add(2, 1, 2, 2, 3))
	assert.Equal(t, []int64{1, 2, 2, 2, 3}, collect(t, tr))
}

func TestIteratorAscentStackStaysSmall(t *testing.T) {
	t.Parallel()

	tr := newIntTree(t, WithDegree(3))
	for i := int64(1); i <= 1000; i++ {
		require.NoError(t, tr.Add(i))
	}

	it := tr.Iterator()
	maxDepth := 0
	for it.Next() {
		if len(it.stack) > maxDepth {
			maxDepth = len(it.stack)
		}
	}
	require.NoError(t, it.Err())
	// A degree-3 tree with 1000 keys is at most 9 levels high and the
	// stack never holds more than one root-to-leaf path; 16 leaves
	// headroom above that.
	assert.LessOrEqual(t, maxDepth, 16)
}

func TestIteratorOverReopenedTree(t *testing.T) {
	t.Parallel()

	metaPath := t.TempDir() + "/idx.meta"
	tr, err := New(compareInt64, Int64Codec{}, WithDegree(3), WithMetadata(metaPath))
	require.NoError(t, err)
	for i := int64(50); i >= 1; i-- {
		require.NoError(t, tr.Add(i))
	}
	require.NoError(t, tr.Flush())
	require.NoError(t, tr.Close())

	reopened, err := New(compareInt64, Int64Codec{}, WithMetadata(metaPath))
	require.NoError(t, err)
	defer reopened.Close()

	got := collect(t, reopened)
	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, int64(i+1), v)
	}
}
