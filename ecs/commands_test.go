package ecs_test

import (
	"testing"

	"github.com/plus3/ecsrt/ecs"
	"github.com/stretchr/testify/assert"
)

// commandSystem queues one batch of commands on its first tick.
type commandSystem struct {
	Query ecs.Query[struct{ *Score }]
	queue func(frame *ecs.UpdateFrame)
	ran   bool
}

func (s *commandSystem) Priority() ecs.TickOrder { return ecs.TickSimulation }

func (s *commandSystem) Process(frame *ecs.UpdateFrame) {
	if s.ran {
		return
	}
	s.ran = true
	s.queue(frame)
}

func TestCommands(t *testing.T) {
	t.Run("spawn", func(t *testing.T) {
		storage, types := newTestStorage()
		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&commandSystem{queue: func(frame *ecs.UpdateFrame) {
			frame.Commands.Spawn(func(s *ecs.Storage, e ecs.EntityId) {
				types.Score.Add(s, e, 7)
			})
			assert.Equal(t, 0, frame.Storage.Count(), "spawn is deferred")
		}})

		scheduler.Once(0)
		assert.Equal(t, 1, storage.Count())
		total := 0
		for _, score := range types.Score.Each(storage) {
			total += int(*score)
		}
		assert.Equal(t, 7, total)
	})

	t.Run("destroy drops later commands for the entity", func(t *testing.T) {
		storage, types := newTestStorage()
		e := storage.CreateEntity()
		types.Score.Add(storage, e, 1)

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&commandSystem{queue: func(frame *ecs.UpdateFrame) {
			ecs.QueueAdd(frame.Commands, types.Name, e, Name{Value: "late"})
			frame.Commands.Remove(e, types.Score)
			frame.Commands.Destroy(e)
			assert.Equal(t, 3, frame.Commands.Len())
		}})

		assert.NotPanics(t, func() { scheduler.Once(0) })
		assert.False(t, storage.Alive(e))
	})

	t.Run("add and remove", func(t *testing.T) {
		storage, types := newTestStorage()
		e := storage.CreateEntity()
		types.Score.Add(storage, e, 1)

		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&commandSystem{queue: func(frame *ecs.UpdateFrame) {
			ecs.QueueAdd(frame.Commands, types.Velocity, e, Velocity{DX: 3})
			frame.Commands.Remove(e, types.Score)
		}})

		scheduler.Once(0)
		assert.False(t, types.Score.Has(storage, e))
		assert.Equal(t, float32(3), types.Velocity.Get(storage, e).DX)
	})

	t.Run("defer runs last", func(t *testing.T) {
		storage, types := newTestStorage()
		var count int
		scheduler := ecs.NewScheduler(storage)
		scheduler.Register(&commandSystem{queue: func(frame *ecs.UpdateFrame) {
			frame.Commands.Defer(func() {
				count = storage.Count()
			})
			frame.Commands.Spawn(func(s *ecs.Storage, e ecs.EntityId) {
				types.Score.Add(s, e, 1)
			})
		}})

		scheduler.Once(0)
		assert.Equal(t, 1, count)
	})
}
