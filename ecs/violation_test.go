//go:build !ecs_shipping

package ecs_test

import (
	"testing"

	"github.com/plus3/ecsrt/ecs"
	"github.com/stretchr/testify/assert"
)

func TestContractViolationsPanic(t *testing.T) {
	storage, types := newTestStorage()
	e := storage.CreateEntity()
	types.Position.Add(storage, e, Position{})

	t.Run("duplicate component", func(t *testing.T) {
		assertViolation(t, ecs.ErrDuplicateComponent, func() {
			types.Position.Add(storage, e, Position{})
		})
	})

	t.Run("missing component", func(t *testing.T) {
		assertViolation(t, ecs.ErrMissingComponent, func() {
			types.Velocity.Remove(storage, e)
		})
	})

	t.Run("stale entity", func(t *testing.T) {
		gone := storage.CreateEntity()
		storage.DestroyEntity(gone)
		assertViolation(t, ecs.ErrStaleHandle, func() {
			types.Position.Add(storage, gone, Position{})
		})
	})

	t.Run("component from another registry", func(t *testing.T) {
		other := newTestTypes()
		assertViolation(t, ecs.ErrUnregisteredComponent, func() {
			other.Velocity.Add(storage, e, Velocity{})
		})
	})

	t.Run("undeclared row access", func(t *testing.T) {
		view := ecs.NewQueryView(storage).ReadAccess(types.Position).Build()
		defer view.Close()
		for row := range view.Range() {
			assertViolation(t, ecs.ErrUndeclaredAccess, func() {
				ecs.Write(row, types.Position)
			})
			assertViolation(t, ecs.ErrUndeclaredAccess, func() {
				ecs.Read(row, types.Health)
			})
			assertViolation(t, ecs.ErrUndeclaredAccess, func() {
				ecs.ReadParent(row, types.Position)
			})
		}
	})
}

type spawningReader struct {
	Query ecs.Query[struct {
		Position *Position `ecs:"read"`
	}]
	priority ecs.TickOrder
}

func (s *spawningReader) Priority() ecs.TickOrder { return s.priority }
func (s *spawningReader) Process(frame *ecs.UpdateFrame) {
	frame.Storage.CreateEntity()
}

func TestStructuralChangeDuringParallelDispatch(t *testing.T) {
	storage, types := newTestStorage()
	e := storage.CreateEntity()
	types.Position.Add(storage, e, Position{})

	scheduler := ecs.NewScheduler(storage, ecs.WithParallelDispatch())
	scheduler.Register(&spawningReader{priority: ecs.TickCamera})
	scheduler.Register(&spawningReader{priority: ecs.TickLight})

	assertViolation(t, ecs.ErrStructuralChange, func() {
		scheduler.Once(0)
	})

	// the storage is usable again once the batch has settled
	assert.False(t, storage.CreateEntity().IsZero())
}
