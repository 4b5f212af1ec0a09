package ecs

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// ComponentId is the small integer a component type is assigned when it is
// registered. Pools, masks and hooks are all indexed by it.
type ComponentId uint8

// ComponentKey is implemented by ComponentType and used wherever a component
// type must be named without its Go type, for example when building a QueryView.
type ComponentKey interface {
	ComponentId() ComponentId
	Registry() *ComponentRegistry
}

type hookFunc func(s *Storage, e EntityId, component unsafe.Pointer)

// componentMeta is the registration-time record for one component type.
type componentMeta struct {
	id      ComponentId
	name    string
	typ     reflect.Type
	newPool func() iComponentPool
	added   hookFunc
	removed hookFunc
}

// ComponentRegistry is the static table mapping component types to ids. Each
// Storage is bound to one registry; DefaultRegistry is the process-wide table
// package-level ComponentType variables register into.
type ComponentRegistry struct {
	mu     sync.RWMutex
	metas  []*componentMeta
	byType map[reflect.Type]ComponentId
	byName map[string]ComponentId
}

// DefaultRegistry is the process-wide component registry.
var DefaultRegistry = NewComponentRegistry()

// NewComponentRegistry creates a new component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]ComponentId),
		byName: make(map[string]ComponentId),
	}
}

// ComponentOption configures a component type at registration.
type ComponentOption[T any] func(*componentConfig[T])

type componentConfig[T any] struct {
	name    string
	added   func(s *Storage, e EntityId, c *T)
	removed func(s *Storage, e EntityId, c *T)
}

// WithName overrides the registered name, which defaults to the Go type name.
// Names are what scene documents and query expressions refer to.
func WithName[T any](name string) ComponentOption[T] {
	return func(c *componentConfig[T]) {
		c.name = name
	}
}

// OnAdded registers a hook invoked synchronously after a T is stored on an
// entity, before AddComponent returns.
func OnAdded[T any](fn func(s *Storage, e EntityId, c *T)) ComponentOption[T] {
	return func(c *componentConfig[T]) {
		c.added = fn
	}
}

// OnRemoved registers a hook invoked before a T is erased, so it can still
// read the component's final state.
func OnRemoved[T any](fn func(s *Storage, e EntityId, c *T)) ComponentOption[T] {
	return func(c *componentConfig[T]) {
		c.removed = fn
	}
}

// RegisterComponent registers T with the registry and returns its
// ComponentType. It is meant to initialise a package-level variable so that
// registration happens once, before main:
//
//	var PositionType = ecs.RegisterComponent[Position](ecs.DefaultRegistry)
//
// Registering the same type twice panics.
func RegisterComponent[T any](r *ComponentRegistry, opts ...ComponentOption[T]) ComponentType[T] {
	typ := reflect.TypeFor[T]()
	switch typ.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("components cannot be pointers, maps, channels, functions or interfaces: " + typ.String())
	}

	cfg := componentConfig[T]{name: typ.Name()}
	if cfg.name == "" {
		cfg.name = typ.String()
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byType[typ]; ok {
		panic("component type " + typ.String() + " already registered")
	}
	if _, ok := r.byName[cfg.name]; ok {
		panic("component name " + cfg.name + " already registered")
	}
	if len(r.metas) >= MaxComponents {
		panic(fmt.Sprintf("component registry full (%d types)", MaxComponents))
	}

	meta := &componentMeta{
		id:   ComponentId(len(r.metas)),
		name: cfg.name,
		typ:  typ,
		newPool: func() iComponentPool {
			return &componentPool[T]{}
		},
	}
	if fn := cfg.added; fn != nil {
		meta.added = func(s *Storage, e EntityId, p unsafe.Pointer) {
			fn(s, e, (*T)(p))
		}
	}
	if fn := cfg.removed; fn != nil {
		meta.removed = func(s *Storage, e EntityId, p unsafe.Pointer) {
			fn(s, e, (*T)(p))
		}
	}

	r.metas = append(r.metas, meta)
	r.byType[typ] = meta.id
	r.byName[meta.name] = meta.id

	return ComponentType[T]{id: meta.id, registry: r}
}

// ComponentTypeOf returns the handle for T if it has been registered with r.
func ComponentTypeOf[T any](r *ComponentRegistry) (ComponentType[T], bool) {
	id, ok := r.idOf(reflect.TypeFor[T]())
	if !ok {
		return ComponentType[T]{}, false
	}
	return ComponentType[T]{id: id, registry: r}, true
}

// meta returns the registration record for id.
func (r *ComponentRegistry) meta(id ComponentId) *componentMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.metas) {
		return nil
	}
	return r.metas[id]
}

// idOf resolves a reflect.Type to its id. Only used while building views and
// initialising systems, never on the per-tick path.
func (r *ComponentRegistry) idOf(t reflect.Type) (ComponentId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byType[t]
	return id, ok
}

// Lookup resolves a registered component name to its id.
func (r *ComponentRegistry) Lookup(name string) (ComponentId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// Name returns the registered name of id.
func (r *ComponentRegistry) Name(id ComponentId) string {
	if m := r.meta(id); m != nil {
		return m.name
	}
	return fmt.Sprintf("component#%d", id)
}

// Type returns the Go type registered under id.
func (r *ComponentRegistry) Type(id ComponentId) reflect.Type {
	if m := r.meta(id); m != nil {
		return m.typ
	}
	return nil
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.metas)
}

// ComponentInfo describes a registered component type.
type ComponentInfo struct {
	Id         ComponentId
	Name       string
	Type       reflect.Type
	HasAdded   bool
	HasRemoved bool
}

// Components lists every registered component type in id order.
func (r *ComponentRegistry) Components() []ComponentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]ComponentInfo, len(r.metas))
	for i, m := range r.metas {
		infos[i] = ComponentInfo{
			Id:         m.id,
			Name:       m.name,
			Type:       m.typ,
			HasAdded:   m.added != nil,
			HasRemoved: m.removed != nil,
		}
	}
	return infos
}

// ComponentType is the typed handle returned by RegisterComponent. All typed
// access to a storage goes through it, so the component id is known without
// any runtime type lookup.
type ComponentType[T any] struct {
	id       ComponentId
	registry *ComponentRegistry
}

// ComponentId returns the id assigned at registration.
func (c ComponentType[T]) ComponentId() ComponentId {
	return c.id
}

// Registry returns the registry c was registered with.
func (c ComponentType[T]) Registry() *ComponentRegistry {
	return c.registry
}

// Name returns the registered name.
func (c ComponentType[T]) Name() string {
	return c.registry.Name(c.id)
}

// Add stores value on e and runs the OnAdded hook. It returns nil if the
// operation was deferred because T is being iterated, or if it was rejected
// in a shipping build.
func (c ComponentType[T]) Add(s *Storage, e EntityId, value T) *T {
	if !s.checkRegistry(c.registry, c.id) || !s.checkStructural("add component") {
		return nil
	}
	if s.mustDefer(c.id) {
		s.enqueue(func() {
			if s.Alive(e) {
				c.Add(s, e, value)
			}
		})
		return nil
	}
	pool := s.pool(c.id).(*componentPool[T])
	ptr := s.addComponent(e, c.id, func(index uint32) unsafe.Pointer {
		return unsafe.Pointer(pool.set.insert(index, value))
	})
	return (*T)(ptr)
}

// Set overwrites the T stored on e, adding it (and running OnAdded) if e
// does not hold one yet.
func (c ComponentType[T]) Set(s *Storage, e EntityId, value T) *T {
	if ptr := c.Get(s, e); ptr != nil {
		*ptr = value
		return ptr
	}
	return c.Add(s, e, value)
}

// Get returns e's T, or nil if e is stale or does not hold one.
func (c ComponentType[T]) Get(s *Storage, e EntityId) *T {
	if !s.Alive(e) {
		return nil
	}
	pool, ok := s.pools[c.id].(*componentPool[T])
	if !ok {
		return nil
	}
	return pool.set.get(e.Index())
}

// Has reports whether e holds a T.
func (c ComponentType[T]) Has(s *Storage, e EntityId) bool {
	mask, ok := s.Mask(e)
	return ok && mask.Has(c.id)
}

// Remove runs the OnRemoved hook and erases e's T. It returns false if the
// operation was deferred or rejected.
func (c ComponentType[T]) Remove(s *Storage, e EntityId) bool {
	return s.RemoveComponent(e, c)
}

// Each iterates every live T with its owning entity, in pool order.
func (c ComponentType[T]) Each(s *Storage) func(yield func(EntityId, *T) bool) {
	return func(yield func(EntityId, *T) bool) {
		pool, ok := s.pools[c.id].(*componentPool[T])
		if !ok {
			return
		}
		for pos := 0; pos < pool.set.len(); pos++ {
			index := pool.set.keyAt(pos)
			h, ok := s.entities.HandleAt(index)
			if !ok {
				continue
			}
			if !yield(EntityId(h), pool.set.at(pos)) {
				return
			}
		}
	}
}
