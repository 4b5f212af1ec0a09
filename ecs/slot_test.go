package ecs_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/plus3/ecsrt/ecs"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleEncoding(t *testing.T) {
	tests := []struct {
		index      uint32
		generation uint32
	}{
		{0, 1},
		{1, 1},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x12345678, 0x9ABCDEF0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("index=%d,generation=%d", tt.index, tt.generation), func(t *testing.T) {
			h := ecs.NewHandle(tt.index, tt.generation)
			assert.Equal(t, tt.index, h.Index())
			assert.Equal(t, tt.generation, h.Generation())
			assert.False(t, h.IsZero())
		})
	}

	assert.True(t, ecs.Handle(0).IsZero())
	assert.True(t, ecs.NoEntity.IsZero())
}

func TestSlotStorageBasics(t *testing.T) {
	slots := ecs.NewSlotStorage[string](4)

	a := slots.Insert("a")
	b := slots.Insert("b")
	assert.Equal(t, 2, slots.Len())
	assert.NotEqual(t, a, b)

	v, err := slots.Get(a)
	require.NoError(t, err)
	assert.Equal(t, "a", *v)

	*v = "A"
	v, err = slots.Get(a)
	require.NoError(t, err)
	assert.Equal(t, "A", *v)

	assert.True(t, slots.Remove(a))
	assert.False(t, slots.Remove(a), "second remove of the same handle")
	assert.Equal(t, 1, slots.Len())
}

func TestSlotStorageStaleHandle(t *testing.T) {
	slots := ecs.NewSlotStorage[int](0)

	h := slots.Insert(1)
	require.True(t, slots.Remove(h))

	_, err := slots.Get(h)
	assert.True(t, eris.Is(err, ecs.ErrStaleHandle))

	t.Run("index reuse does not revive the old handle", func(t *testing.T) {
		reused := slots.Insert(2)
		assert.Equal(t, h.Index(), reused.Index())
		assert.NotEqual(t, h.Generation(), reused.Generation())

		_, err := slots.Get(h)
		assert.True(t, eris.Is(err, ecs.ErrStaleHandle))
		assert.False(t, slots.Contains(h))

		v, err := slots.Get(reused)
		require.NoError(t, err)
		assert.Equal(t, 2, *v)
	})

	t.Run("zero handle never resolves", func(t *testing.T) {
		_, err := slots.Get(0)
		assert.Error(t, err)
	})
}

func TestSlotStorageAll(t *testing.T) {
	slots := ecs.NewSlotStorage[int](0)
	handles := make([]ecs.Handle, 0, 10)
	for i := range 10 {
		handles = append(handles, slots.Insert(i))
	}
	slots.Remove(handles[3])
	slots.Remove(handles[7])

	seen := make(map[ecs.Handle]int)
	for h, v := range slots.All() {
		seen[h] = *v
	}
	assert.Len(t, seen, 8)
	assert.NotContains(t, seen, handles[3])
	assert.Equal(t, 9, seen[handles[9]])
}

// Random insert/remove sequences: every handle that was not removed keeps
// resolving to its own value, and every removed handle stays stale.
func TestSlotStorageRandomSequences(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			slots := ecs.NewSlotStorage[int](0)
			live := make(map[ecs.Handle]int)
			var dead []ecs.Handle

			for step := range 2000 {
				if len(live) == 0 || rng.Intn(3) > 0 {
					live[slots.Insert(step)] = step
					continue
				}
				for h := range live {
					require.True(t, slots.Remove(h))
					delete(live, h)
					dead = append(dead, h)
					break
				}
			}

			assert.Equal(t, len(live), slots.Len())
			for h, want := range live {
				v, err := slots.Get(h)
				require.NoError(t, err)
				assert.Equal(t, want, *v)
			}
			for _, h := range dead {
				_, err := slots.Get(h)
				assert.True(t, eris.Is(err, ecs.ErrStaleHandle))
			}
		})
	}
}

func TestSlotStorageHandleAt(t *testing.T) {
	slots := ecs.NewSlotStorage[int](0)
	h := slots.Insert(5)

	got, ok := slots.HandleAt(h.Index())
	assert.True(t, ok)
	assert.Equal(t, h, got)

	slots.Remove(h)
	_, ok = slots.HandleAt(h.Index())
	assert.False(t, ok)

	_, ok = slots.HandleAt(100)
	assert.False(t, ok)
}

func TestSlotStoragePointersSurviveGrowth(t *testing.T) {
	slots := ecs.NewSlotStorage[int](0)
	first := slots.Insert(42)
	ptr, err := slots.Get(first)
	require.NoError(t, err)

	for i := range 1000 {
		slots.Insert(i)
	}

	again, err := slots.Get(first)
	require.NoError(t, err)
	assert.Same(t, ptr, again)
	assert.Equal(t, 42, *ptr)
}
