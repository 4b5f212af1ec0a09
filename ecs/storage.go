package ecs

import (
	"iter"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// entityRecord is the only data an entity owns itself: the set of component
// types it holds and, optionally, its parent.
type entityRecord struct {
	mask   Mask
	parent EntityId
}

type singletonEntry struct {
	typ     reflect.Type
	dataPtr unsafe.Pointer
}

// Storage owns the entities of one world, their component pools and the views
// built against them. Handles issued by a Storage are meaningless to any other.
type Storage struct {
	registry *ComponentRegistry
	entities *SlotStorage[entityRecord]
	pools    [MaxComponents]iComponentPool
	views    []*QueryView

	locks    [MaxComponents]atomic.Int32
	held     atomic.Int32
	deferMu  sync.Mutex
	deferred []func()
	flushing bool

	// dispatching is set while the scheduler runs a parallel batch.
	dispatching atomic.Bool

	singletons map[reflect.Type]*singletonEntry
	logger     zerolog.Logger
}

// StorageOption configures a Storage.
type StorageOption func(*Storage)

// WithLogger sets the logger used for contract violations in shipping builds
// and for world dumps.
func WithLogger(logger zerolog.Logger) StorageOption {
	return func(s *Storage) {
		s.logger = logger
	}
}

// WithCapacity preallocates room for n entities.
func WithCapacity(n int) StorageOption {
	return func(s *Storage) {
		s.entities = NewSlotStorage[entityRecord](n)
	}
}

// NewStorage creates a new ECS storage bound to the given component registry
func NewStorage(registry *ComponentRegistry, opts ...StorageOption) *Storage {
	s := &Storage{
		registry:   registry,
		entities:   NewSlotStorage[entityRecord](0),
		singletons: make(map[reflect.Type]*singletonEntry),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the component registry the storage was created with.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// Logger returns the storage's logger.
func (s *Storage) Logger() zerolog.Logger {
	return s.logger
}

// CreateEntity allocates a new entity with no components.
func (s *Storage) CreateEntity() EntityId {
	if !s.checkStructural("create entity") {
		return NoEntity
	}
	return EntityId(s.entities.Insert(entityRecord{}))
}

// DestroyEntity removes every component on e, running their OnRemoved hooks,
// then releases e's slot. Children of e are not destroyed; their parent link
// goes stale and resolves as absent.
//
// If e holds a component type that is currently being ranged over, the
// destruction is queued until the range completes and false is returned.
// Destroying a stale entity is a no-op.
func (s *Storage) DestroyEntity(e EntityId) bool {
	if !s.checkStructural("destroy entity") {
		return false
	}
	rec, err := s.entities.Get(Handle(e))
	if err != nil {
		return false
	}
	if s.anyLocked(rec.mask) {
		s.enqueue(func() {
			if s.Alive(e) {
				s.DestroyEntity(e)
			}
		})
		return false
	}

	// OnRemoved hooks may add components back, so drain until the mask is empty.
	for {
		rec, err = s.entities.Get(Handle(e))
		if err != nil {
			return true
		}
		if rec.mask.IsEmpty() {
			break
		}
		for id := range rec.mask.Ids() {
			if mask, ok := s.Mask(e); ok && mask.Has(id) {
				s.removeComponent(e, id)
			}
		}
	}

	return s.entities.Remove(Handle(e))
}

// Alive reports whether e refers to a live entity.
func (s *Storage) Alive(e EntityId) bool {
	return s.entities.Contains(Handle(e))
}

// Mask returns the component types e currently holds.
func (s *Storage) Mask(e EntityId) (Mask, bool) {
	rec, err := s.entities.Get(Handle(e))
	if err != nil {
		return Mask{}, false
	}
	return rec.mask, true
}

// Count returns the number of live entities.
func (s *Storage) Count() int {
	return s.entities.Len()
}

// Entities iterates every live entity in slot order.
func (s *Storage) Entities() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for h := range s.entities.All() {
			if !yield(EntityId(h)) {
				return
			}
		}
	}
}

// RemoveComponent runs the OnRemoved hook for the component type and then
// erases it from e. It returns false if the removal was queued because the
// type is being ranged over.
func (s *Storage) RemoveComponent(e EntityId, c ComponentKey) bool {
	id := c.ComponentId()
	if !s.checkRegistry(c.Registry(), id) || !s.checkStructural("remove component") {
		return false
	}
	if s.mustDefer(id) {
		s.enqueue(func() {
			if s.Alive(e) {
				s.RemoveComponent(e, c)
			}
		})
		return false
	}
	return s.removeComponent(e, id)
}

// HasComponent reports whether e holds the component type.
func (s *Storage) HasComponent(e EntityId, c ComponentKey) bool {
	mask, ok := s.Mask(e)
	return ok && mask.Has(c.ComponentId())
}

// GetComponent returns e's component as a pointer boxed in an interface, or
// nil. It exists for tooling; systems use ComponentType.Get or a view.
func (s *Storage) GetComponent(e EntityId, id ComponentId) any {
	if !s.Alive(e) || s.pools[id] == nil {
		return nil
	}
	return s.pools[id].value(e.Index())
}

// SetParent makes parent the parent of child. Passing NoEntity detaches
// child. It fails if either handle is stale or if the new edge would make
// child its own ancestor.
func (s *Storage) SetParent(child, parent EntityId) error {
	if !s.checkStructural("set parent") {
		return eris.Wrap(ErrStructuralChange, "set parent")
	}
	rec, err := s.entities.Get(Handle(child))
	if err != nil {
		return eris.Wrapf(err, "set parent of %s", child)
	}
	if parent.IsZero() {
		rec.parent = NoEntity
		return nil
	}
	if !s.Alive(parent) {
		return eris.Wrapf(ErrStaleHandle, "parent %s", parent)
	}
	for p := parent; !p.IsZero(); p, _ = s.Parent(p) {
		if p == child {
			return eris.Wrapf(ErrHierarchyCycle, "%s under %s", child, parent)
		}
	}
	rec.parent = parent
	return nil
}

// Parent returns e's parent. It reports false if e has none, or if the parent
// has been destroyed.
func (s *Storage) Parent(e EntityId) (EntityId, bool) {
	rec, err := s.entities.Get(Handle(e))
	if err != nil || rec.parent.IsZero() {
		return NoEntity, false
	}
	if !s.Alive(rec.parent) {
		return NoEntity, false
	}
	return rec.parent, true
}

// Depth returns the number of live ancestors of e.
func (s *Storage) Depth(e EntityId) int {
	depth := 0
	for p, ok := s.Parent(e); ok; p, ok = s.Parent(p) {
		depth++
	}
	return depth
}

// Children iterates the live entities whose parent is e. The hierarchy is not
// indexed, so this scans every entity.
func (s *Storage) Children(e EntityId) iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		if e.IsZero() {
			return
		}
		for h, rec := range s.entities.All() {
			if rec.parent != e {
				continue
			}
			if !yield(EntityId(h)) {
				return
			}
		}
	}
}

// AddSingleton stores value as the world's single instance of its type,
// replacing any previous one.
func (s *Storage) AddSingleton(value any) {
	typ := reflect.TypeOf(value)
	ptr := reflect.New(typ)
	ptr.Elem().Set(reflect.ValueOf(value))

	if entry, ok := s.singletons[typ]; ok {
		reflect.NewAt(typ, entry.dataPtr).Elem().Set(ptr.Elem())
		return
	}
	s.singletons[typ] = &singletonEntry{
		typ:     typ,
		dataPtr: ptr.UnsafePointer(),
	}
}

func (s *Storage) getSingletonEntry(typ reflect.Type) *singletonEntry {
	return s.singletons[typ]
}

// Pending returns the number of mutations queued behind in-flight ranges.
func (s *Storage) Pending() int {
	s.deferMu.Lock()
	defer s.deferMu.Unlock()
	return len(s.deferred)
}

func (s *Storage) pool(id ComponentId) iComponentPool {
	p := s.pools[id]
	if p == nil {
		p = s.registry.meta(id).newPool()
		s.pools[id] = p
	}
	return p
}

// addComponent records id on e after insert has stored the value, then runs
// the OnAdded hook. It returns the stored component, re-read after the hook
// since the hook may move or remove it.
func (s *Storage) addComponent(e EntityId, id ComponentId, insert func(index uint32) unsafe.Pointer) unsafe.Pointer {
	rec, err := s.entities.Get(Handle(e))
	if err != nil {
		s.violation(eris.Wrapf(err, "add %s to %s", s.registry.Name(id), e))
		return nil
	}
	if rec.mask.Has(id) {
		s.violation(eris.Wrapf(ErrDuplicateComponent, "%s already holds %s", e, s.registry.Name(id)))
		return nil
	}

	ptr := insert(e.Index())
	old := rec.mask
	rec.mask.Set(id)
	s.maskChanged(e, old, rec.mask)

	if hook := s.registry.meta(id).added; hook != nil {
		hook(s, e, ptr)
		if !s.Alive(e) {
			return nil
		}
		return s.pools[id].ptr(e.Index())
	}
	return ptr
}

func (s *Storage) removeComponent(e EntityId, id ComponentId) bool {
	rec, err := s.entities.Get(Handle(e))
	if err != nil {
		s.violation(eris.Wrapf(err, "remove %s from %s", s.registry.Name(id), e))
		return false
	}
	if !rec.mask.Has(id) {
		s.violation(eris.Wrapf(ErrMissingComponent, "%s does not hold %s", e, s.registry.Name(id)))
		return false
	}

	pool := s.pools[id]
	if hook := s.registry.meta(id).removed; hook != nil {
		hook(s, e, pool.ptr(e.Index()))
		// the hook may have removed the component or the entity itself
		rec, err = s.entities.Get(Handle(e))
		if err != nil || !rec.mask.Has(id) {
			return true
		}
	}

	pool.remove(e.Index())
	old := rec.mask
	rec.mask.Clear(id)
	s.maskChanged(e, old, rec.mask)
	return true
}

// maskChanged updates the matched set of every view the changed bits concern.
func (s *Storage) maskChanged(e EntityId, old, mask Mask) {
	changed := old.Xor(mask)
	for _, v := range s.views {
		if v.relevant.Intersects(changed) {
			v.update(e, mask)
		}
	}
}

func (s *Storage) registerView(v *QueryView) {
	s.views = append(s.views, v)
}

func (s *Storage) unregisterView(v *QueryView) {
	for i, other := range s.views {
		if other == v {
			s.views = append(s.views[:i], s.views[i+1:]...)
			return
		}
	}
}

func (s *Storage) checkRegistry(r *ComponentRegistry, id ComponentId) bool {
	if r != s.registry {
		s.violation(eris.Wrapf(ErrUnregisteredComponent, "%s belongs to another registry", r.Name(id)))
		return false
	}
	return true
}

// checkStructural rejects structural mutation while a parallel batch runs.
func (s *Storage) checkStructural(op string) bool {
	if s.dispatching.Load() {
		s.violation(eris.Wrap(ErrStructuralChange, op))
		return false
	}
	return true
}

func (s *Storage) lock(mask Mask) {
	for id := range mask.Ids() {
		s.locks[id].Add(1)
	}
	s.held.Add(1)
}

func (s *Storage) unlock(mask Mask) {
	for id := range mask.Ids() {
		s.locks[id].Add(-1)
	}
	if s.held.Add(-1) == 0 && !s.dispatching.Load() {
		s.flushDeferred()
	}
}

func (s *Storage) mustDefer(id ComponentId) bool {
	return s.locks[id].Load() > 0
}

func (s *Storage) anyLocked(mask Mask) bool {
	for id := range mask.Ids() {
		if s.locks[id].Load() > 0 {
			return true
		}
	}
	return false
}

func (s *Storage) enqueue(op func()) {
	s.deferMu.Lock()
	s.deferred = append(s.deferred, op)
	s.deferMu.Unlock()
}

// flushDeferred applies queued mutations in the order they were issued.
// Mutations queued by hooks while flushing are picked up by the same loop.
func (s *Storage) flushDeferred() {
	if s.flushing {
		return
	}
	s.flushing = true
	defer func() { s.flushing = false }()

	for {
		s.deferMu.Lock()
		ops := s.deferred
		s.deferred = nil
		s.deferMu.Unlock()

		if len(ops) == 0 {
			return
		}
		for _, op := range ops {
			op()
		}
	}
}
