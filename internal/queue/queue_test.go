package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSize(t *testing.T) {
	for i := 0; i <= 33; i++ {
		size := computeSize(i)
		assert.GreaterOrEqual(t, size, minSize)
		assert.Zero(t, size&(size+1), "expecting 2^n - 1, got %b", size)
		assert.GreaterOrEqual(t, size, i)
	}
}

func TestEmpty(t *testing.T) {
	q := New[int]()
	require.True(t, q.IsEmpty())
	require.Equal(t, 0, q.Len())
}

func TestAppendFirst(t *testing.T) {
	q := New[int]()
	q.Append(11).Append(12).Append(13)
	require.Equal(t, 3, q.Len())

	v, ok := q.First()
	require.True(t, ok)
	require.Equal(t, 11, v)
	require.Equal(t, 2, q.Len())
}

func TestPrependLast(t *testing.T) {
	q := New[int](1, 2, 3)
	q.Prepend(0)
	v, ok := q.Last()
	require.True(t, ok)
	require.Equal(t, 3, v)

	v, ok = q.First()
	require.True(t, ok)
	require.Equal(t, 0, v)
}

func TestGrowsPastInitialCapacity(t *testing.T) {
	q := New[int]()
	for i := 0; i < 64; i++ {
		q.Append(i)
	}
	require.Equal(t, 64, q.Len())
	for i := 0; i < 64; i++ {
		v, ok := q.First()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	require.True(t, q.IsEmpty())
}

func TestItemsReflectsOrder(t *testing.T) {
	q := New[string]()
	q.Append("a").Append("b").Append("c")
	assert.Equal(t, []string{"a", "b", "c"}, q.Items())
}
