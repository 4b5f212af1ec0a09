package ecs_test

import (
	"testing"

	"github.com/plus3/ecsrt/ecs"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntity(t *testing.T) {
	storage, _ := newTestStorage()

	e := storage.CreateEntity()
	assert.False(t, e.IsZero())
	assert.True(t, storage.Alive(e))
	assert.Equal(t, 1, storage.Count())

	mask, ok := storage.Mask(e)
	assert.True(t, ok)
	assert.True(t, mask.IsEmpty())
}

func TestAddGetComponent(t *testing.T) {
	storage, types := newTestStorage()
	e := storage.CreateEntity()

	pos := types.Position.Add(storage, e, Position{X: 3, Y: 4})
	require.NotNil(t, pos)
	assert.Equal(t, Position{X: 3, Y: 4}, *pos)

	assert.True(t, types.Position.Has(storage, e))
	assert.False(t, types.Velocity.Has(storage, e))
	assert.Nil(t, types.Velocity.Get(storage, e))

	pos.X = 10
	assert.Equal(t, float32(10), types.Position.Get(storage, e).X)

	mask, _ := storage.Mask(e)
	assert.True(t, mask.Has(types.Position.ComponentId()))
	assert.Equal(t, 1, mask.Count())

	boxed := storage.GetComponent(e, types.Position.ComponentId())
	assert.Equal(t, &Position{X: 10, Y: 4}, boxed)
}

func TestSetComponent(t *testing.T) {
	storage, types := newTestStorage()
	e := storage.CreateEntity()

	types.Score.Set(storage, e, 1)
	assert.Equal(t, Score(1), *types.Score.Get(storage, e))

	types.Score.Set(storage, e, 2)
	assert.Equal(t, Score(2), *types.Score.Get(storage, e))
}

func TestRemoveComponent(t *testing.T) {
	storage, types := newTestStorage()
	e := storage.CreateEntity()
	types.Position.Add(storage, e, Position{})
	types.Velocity.Add(storage, e, Velocity{DX: 1})

	assert.True(t, types.Position.Remove(storage, e))
	assert.False(t, types.Position.Has(storage, e))
	assert.True(t, types.Velocity.Has(storage, e))
	assert.Nil(t, types.Position.Get(storage, e))
}

func TestDestroyEntity(t *testing.T) {
	storage, types := newTestStorage()
	e := storage.CreateEntity()
	types.Position.Add(storage, e, Position{X: 1})
	types.Health.Add(storage, e, Health{Current: 100, Max: 100})

	assert.True(t, storage.DestroyEntity(e))
	assert.False(t, storage.Alive(e))
	assert.Equal(t, 0, storage.Count())
	assert.Nil(t, types.Position.Get(storage, e))

	t.Run("stale destroy is a no-op", func(t *testing.T) {
		assert.False(t, storage.DestroyEntity(e))
	})

	t.Run("reused slot does not expose old components", func(t *testing.T) {
		reused := storage.CreateEntity()
		assert.Equal(t, e.Index(), reused.Index())
		assert.False(t, types.Position.Has(storage, reused))
		assert.Nil(t, types.Position.Get(storage, e))
	})
}

func TestComponentPoolsStayConsistent(t *testing.T) {
	storage, types := newTestStorage()

	entities := make([]ecs.EntityId, 0, 100)
	for i := range 100 {
		e := storage.CreateEntity()
		types.Score.Add(storage, e, Score(i))
		entities = append(entities, e)
	}
	for i := 0; i < 100; i += 3 {
		storage.DestroyEntity(entities[i])
	}

	for i, e := range entities {
		if i%3 == 0 {
			assert.False(t, storage.Alive(e))
			continue
		}
		assert.Equal(t, Score(i), *types.Score.Get(storage, e), "entity %d", i)
	}

	count := 0
	for e, score := range types.Score.Each(storage) {
		assert.True(t, storage.Alive(e))
		assert.NotZero(t, int(*score)%3)
		count++
	}
	assert.Equal(t, 66, count)
}

func TestLifecycleHooks(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	var events []string
	health := ecs.RegisterComponent[Health](registry,
		ecs.OnAdded(func(s *ecs.Storage, e ecs.EntityId, h *Health) {
			events = append(events, "added")
			// the component is fully stored before the hook runs
			assert.Equal(t, 10, h.Current)
			mask, _ := s.Mask(e)
			assert.Equal(t, 1, mask.Count())
		}),
		ecs.OnRemoved(func(s *ecs.Storage, e ecs.EntityId, h *Health) {
			events = append(events, "removed")
			// the final state is still readable
			assert.Equal(t, 7, h.Current)
		}),
	)
	storage := ecs.NewStorage(registry)

	t.Run("add then remove notifies once each, in order", func(t *testing.T) {
		events = nil
		e := storage.CreateEntity()
		h := health.Add(storage, e, Health{Current: 10})
		h.Current = 7
		health.Remove(storage, e)

		assert.Equal(t, []string{"added", "removed"}, events)
		mask, _ := storage.Mask(e)
		assert.False(t, mask.Has(health.ComponentId()))
	})

	t.Run("destroy runs remove hooks", func(t *testing.T) {
		events = nil
		e := storage.CreateEntity()
		health.Add(storage, e, Health{Current: 10}).Current = 7
		storage.DestroyEntity(e)

		assert.Equal(t, []string{"added", "removed"}, events)
	})

	t.Run("set on existing component does not re-run added", func(t *testing.T) {
		events = nil
		e := storage.CreateEntity()
		health.Add(storage, e, Health{Current: 10})
		health.Set(storage, e, Health{Current: 7})

		assert.Equal(t, []string{"added"}, events)
	})
}

func TestRegistry(t *testing.T) {
	types := newTestTypes()

	id, ok := types.Registry.Lookup("Position")
	assert.True(t, ok)
	assert.Equal(t, types.Position.ComponentId(), id)
	assert.Equal(t, "Velocity", types.Velocity.Name())

	infos := types.Registry.Components()
	assert.Len(t, infos, types.Registry.Len())
	for i, info := range infos {
		assert.Equal(t, ecs.ComponentId(i), info.Id)
	}

	t.Run("duplicate registration panics", func(t *testing.T) {
		assert.Panics(t, func() {
			ecs.RegisterComponent[Position](types.Registry)
		})
	})

	t.Run("custom name", func(t *testing.T) {
		r := ecs.NewComponentRegistry()
		ct := ecs.RegisterComponent[Score](r, ecs.WithName[Score]("points"))
		assert.Equal(t, "points", ct.Name())
		_, ok := r.Lookup("Score")
		assert.False(t, ok)
	})

	t.Run("pointer components are rejected", func(t *testing.T) {
		assert.Panics(t, func() {
			ecs.RegisterComponent[*Position](ecs.NewComponentRegistry())
		})
	})
}

func TestHierarchy(t *testing.T) {
	storage, _ := newTestStorage()
	root := storage.CreateEntity()
	child := storage.CreateEntity()
	grandchild := storage.CreateEntity()

	require.NoError(t, storage.SetParent(child, root))
	require.NoError(t, storage.SetParent(grandchild, child))

	parent, ok := storage.Parent(grandchild)
	assert.True(t, ok)
	assert.Equal(t, child, parent)
	assert.Equal(t, 2, storage.Depth(grandchild))
	assert.Equal(t, 0, storage.Depth(root))

	var children []ecs.EntityId
	for c := range storage.Children(root) {
		children = append(children, c)
	}
	assert.Equal(t, []ecs.EntityId{child}, children)

	t.Run("cycles are rejected", func(t *testing.T) {
		err := storage.SetParent(root, grandchild)
		assert.True(t, eris.Is(err, ecs.ErrHierarchyCycle))
		err = storage.SetParent(root, root)
		assert.True(t, eris.Is(err, ecs.ErrHierarchyCycle))
	})

	t.Run("stale parent is rejected", func(t *testing.T) {
		gone := storage.CreateEntity()
		storage.DestroyEntity(gone)
		err := storage.SetParent(child, gone)
		assert.True(t, eris.Is(err, ecs.ErrStaleHandle))
	})

	t.Run("destroying a parent orphans its children", func(t *testing.T) {
		storage.DestroyEntity(child)
		_, ok := storage.Parent(grandchild)
		assert.False(t, ok)
		assert.Equal(t, 0, storage.Depth(grandchild))
		assert.True(t, storage.Alive(grandchild))
	})

	t.Run("detach", func(t *testing.T) {
		e := storage.CreateEntity()
		require.NoError(t, storage.SetParent(e, root))
		require.NoError(t, storage.SetParent(e, ecs.NoEntity))
		_, ok := storage.Parent(e)
		assert.False(t, ok)
	})
}

func TestEntityLink(t *testing.T) {
	storage, _ := newTestStorage()
	target := storage.CreateEntity()

	link := ecs.LinkTo(target)
	got, ok := link.Resolve(storage)
	assert.True(t, ok)
	assert.Equal(t, target, got)

	storage.DestroyEntity(target)
	got, ok = link.Resolve(storage)
	assert.False(t, ok)
	assert.Equal(t, ecs.NoEntity, got)

	// the reused slot must not satisfy the old link
	storage.CreateEntity()
	_, ok = link.Resolve(storage)
	assert.False(t, ok)

	_, ok = ecs.EntityLink{}.Resolve(storage)
	assert.False(t, ok)
}

func TestSingleton(t *testing.T) {
	type Clock struct {
		Elapsed float64
	}
	storage, _ := newTestStorage()

	clock := ecs.NewSingleton(storage, Clock{Elapsed: 1})
	require.True(t, clock.Exists())
	clock.Get().Elapsed += 2

	again := ecs.NewSingleton[Clock](storage)
	assert.Equal(t, 3.0, again.Get().Elapsed)

	var unbound ecs.Singleton[Health]
	unbound.Init(storage)
	assert.False(t, unbound.Exists())
	storage.AddSingleton(Health{Current: 5})
	assert.True(t, unbound.Exists())
	assert.Equal(t, 5, unbound.Get().Current)
}

func TestStorageStats(t *testing.T) {
	storage, types := newTestStorage()

	stats := storage.CollectStats()
	assert.Equal(t, 0, stats.TotalEntityCount)
	assert.Equal(t, 0, stats.SingletonCount)

	for i := range 3 {
		e := storage.CreateEntity()
		types.Score.Add(storage, e, Score(i))
		if i > 0 {
			types.Name.Add(storage, e, Name{Value: "n"})
		}
	}
	ecs.NewSingleton(storage, 3.14)
	ecs.NewQueryView(storage).Declare(types.Score).Build()

	stats = storage.CollectStats()
	assert.Equal(t, 3, stats.TotalEntityCount)
	assert.Equal(t, 5, stats.ComponentCount)
	assert.Equal(t, 1, stats.ViewCount)
	assert.Equal(t, 1, stats.SingletonCount)
	assert.Equal(t, []string{"float64"}, stats.SingletonTypes)

	counts := make(map[string]int)
	for _, c := range stats.ComponentBreakdown {
		counts[c.Name] = c.Count
	}
	assert.Equal(t, 3, counts["Score"])
	assert.Equal(t, 2, counts["Name"])
	assert.Equal(t, 0, counts["Velocity"])
}
