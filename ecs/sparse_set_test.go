package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseSetSwapRemove(t *testing.T) {
	var s sparseSet[string]
	for i, v := range []string{"a", "b", "c", "d"} {
		s.insert(uint32(i*10), v)
	}
	require.Equal(t, 4, s.len())

	assert.True(t, s.remove(10))
	assert.False(t, s.remove(10))
	assert.Equal(t, 3, s.len())

	// the last value moved into the hole
	assert.Equal(t, uint32(30), s.keyAt(1))
	assert.Equal(t, "d", *s.at(1))
	assert.Equal(t, "d", *s.get(30))
	assert.Nil(t, s.get(10))

	s.insert(30, "D")
	assert.Equal(t, "D", *s.get(30))
	assert.Equal(t, 3, s.len())

	s.clear()
	assert.Equal(t, 0, s.len())
	assert.False(t, s.has(0))
}

func TestSparseSetPagesDoNotMove(t *testing.T) {
	var s sparseSet[int]
	first := s.insert(0, 1)
	for i := 1; i < pageSize*4; i++ {
		s.insert(uint32(i), i)
	}
	assert.Same(t, first, s.get(0))
	assert.Len(t, s.pages, 4)
}
