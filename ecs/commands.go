package ecs

// Commands provides a buffer for deferred ECS operations that are executed at the end of a frame.
// Every system gets its own buffer; the scheduler flushes them in system
// order once the whole tick has run.
type Commands struct {
	spawns  []func(s *Storage, e EntityId)
	deletes []EntityId
	adds    []componentCommand
	removes []componentCommand
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type componentCommand struct {
	entity EntityId
	apply  func(s *Storage)
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues the creation of an entity. build, if given, runs right after
// the entity is created and typically adds its components.
func (c *Commands) Spawn(build func(s *Storage, e EntityId)) {
	c.spawns = append(c.spawns, build)
}

// Destroy queues an entity destruction.
func (c *Commands) Destroy(entity EntityId) {
	c.deletes = append(c.deletes, entity)
}

// Remove queues a component removal.
func (c *Commands) Remove(entity EntityId, component ComponentKey) {
	c.removes = append(c.removes, componentCommand{
		entity: entity,
		apply: func(s *Storage) {
			s.RemoveComponent(entity, component)
		},
	})
}

// QueueAdd queues adding value to entity.
func QueueAdd[T any](c *Commands, component ComponentType[T], entity EntityId, value T) {
	c.adds = append(c.adds, componentCommand{
		entity: entity,
		apply: func(s *Storage) {
			component.Add(s, entity, value)
		},
	})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.deletes) + len(c.adds) + len(c.removes) + len(c.defers)
}

// Flush applies all commands to the provided storage, resetting the buffer
// state. Destructions run first; adds and removes targeting an entity that is
// no longer alive are dropped.
func (c *Commands) Flush(storage *Storage) {
	for _, e := range c.deletes {
		storage.DestroyEntity(e)
	}

	for _, cmd := range c.removes {
		if storage.Alive(cmd.entity) {
			cmd.apply(storage)
		}
	}

	for _, cmd := range c.adds {
		if storage.Alive(cmd.entity) {
			cmd.apply(storage)
		}
	}

	for _, build := range c.spawns {
		e := storage.CreateEntity()
		if build != nil {
			build(storage, e)
		}
	}

	for _, fn := range c.defers {
		fn()
	}

	clear(c.spawns)
	clear(c.adds)
	clear(c.removes)
	clear(c.defers)
	c.spawns = c.spawns[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
