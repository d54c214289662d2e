package bmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyMap(t *testing.T) {
	m := New[int](1)

	_, found := m.Get([]byte{})
	require.False(t, found)

	_, found = m.Get([]byte{1, 2, 3})
	require.False(t, found)
}

func TestEmptyKey(t *testing.T) {
	m := New[int](1)
	empty := []byte{}

	m.Set([]byte("foo"), 123)
	_, found := m.Get(empty)
	require.False(t, found)

	m.Set(empty, 345)
	v, found := m.Get(empty)
	require.True(t, found)
	require.Equal(t, 345, v)
}

func TestKey(t *testing.T) {
	m := New[int](2)
	key := []byte{1, 2, 3}
	key2 := []byte{1, 2}

	m.Set(key, 111)
	m.Set(key2, 222)

	v, found := m.Get(key)
	require.True(t, found)
	require.Equal(t, 111, v)

	key = key[:2]
	v, found = m.Get(key)
	require.True(t, found)
	require.Equal(t, 222, v)
}

func TestStringConvenience(t *testing.T) {
	m := New[string](2)
	m.SetString("/grammars/child.yaml", "Child_")

	v, found := m.GetString("/grammars/child.yaml")
	require.True(t, found)
	require.Equal(t, "Child_", v)

	_, found = m.GetString("/grammars/other.yaml")
	require.False(t, found)
}
