package ecs

import (
	"iter"
	"reflect"
	"strings"
	"unsafe"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// linkedRead is a component read through an EntityLink field of another
// component on the same entity.
type linkedRead struct {
	target ComponentId
	via    ComponentId
	offset uintptr
}

// QueryView declares which component types a system needs and how it
// accesses them, and maintains the set of entities that match.
//
// Matching is mask based: an entity matches when it holds every required
// type (declared, read, written or included) and none of the excluded ones.
// The matched set is updated incrementally as component masks change, never
// rescanned per tick.
//
//	view := ecs.NewQueryView(storage).
//		Declare(TransformType).
//		ReadAccess(CameraType).
//		Exclude(HiddenType).
//		Build()
type QueryView struct {
	storage *Storage

	required    Mask
	excluded    Mask
	reads       Mask
	writes      Mask
	parentReads Mask
	links       []linkedRead

	// relevant holds the types whose presence affects matching; locked holds
	// every type the view touches while ranging.
	relevant Mask
	locked   Mask

	matched   []EntityId
	positions *intmap.Map[uint32, int32]
	built     bool
	closed    bool
}

// NewQueryView starts a view declaration against s. Call Build once every
// type has been declared.
func NewQueryView(s *Storage) *QueryView {
	return &QueryView{storage: s}
}

// Declare requires the component and grants read-write access to it.
func (v *QueryView) Declare(c ComponentKey) *QueryView {
	id := v.key(c)
	v.required.Set(id)
	v.reads.Set(id)
	v.writes.Set(id)
	return v
}

// ReadAccess requires the component and grants read-only access to it.
func (v *QueryView) ReadAccess(c ComponentKey) *QueryView {
	id := v.key(c)
	v.required.Set(id)
	v.reads.Set(id)
	return v
}

// WriteAccess requires the component and grants read-write access to it.
func (v *QueryView) WriteAccess(c ComponentKey) *QueryView {
	return v.Declare(c)
}

// Include requires the component without granting access to it.
func (v *QueryView) Include(c ComponentKey) *QueryView {
	v.required.Set(v.key(c))
	return v
}

// Exclude rejects entities holding the component.
func (v *QueryView) Exclude(c ComponentKey) *QueryView {
	v.excluded.Set(v.key(c))
	return v
}

// Optional grants read-write access to the component without requiring it.
func (v *QueryView) Optional(c ComponentKey) *QueryView {
	id := v.key(c)
	v.reads.Set(id)
	v.writes.Set(id)
	return v
}

// ParentRead grants read access to the component on the entity's parent.
func (v *QueryView) ParentRead(c ComponentKey) *QueryView {
	v.parentReads.Set(v.key(c))
	return v
}

// EntityRead grants read access to the component on the entity referenced by
// the EntityLink field named field of the via component. The via component
// is not required; rows without it read the linked component as absent.
func (v *QueryView) EntityRead(c ComponentKey, via ComponentKey, field string) *QueryView {
	v.entityRead(c, via, field)
	return v
}

func (v *QueryView) entityRead(c ComponentKey, via ComponentKey, field string) linkedRead {
	target, viaId := v.key(c), v.key(via)
	viaType := v.storage.registry.Type(viaId)
	offset, err := linkOffset(viaType, field)
	if err != nil {
		panic(err)
	}
	l := linkedRead{target: target, via: viaId, offset: offset}
	v.links = append(v.links, l)
	return l
}

// Build validates the declaration, computes the initial matched set and
// registers the view so that it tracks later changes.
func (v *QueryView) Build() *QueryView {
	if v.built {
		return v
	}
	if v.required.IsEmpty() {
		panic("query view must require at least one component")
	}
	if v.required.Intersects(v.excluded) {
		panic("query view both requires and excludes " + v.describe(v.required.And(v.excluded)))
	}

	v.relevant = v.required.Or(v.excluded)
	v.locked = v.relevant.Or(v.reads).Or(v.writes).Or(v.parentReads)
	for _, l := range v.links {
		v.locked.Set(l.target)
		v.locked.Set(l.via)
	}

	v.positions = intmap.New[uint32, int32](64)
	for e := range v.storage.Entities() {
		if mask, ok := v.storage.Mask(e); ok && v.match(mask) {
			v.add(e)
		}
	}

	v.storage.registerView(v)
	v.built = true
	return v
}

// Close stops the view tracking its storage.
func (v *QueryView) Close() {
	if !v.built || v.closed {
		return
	}
	v.storage.unregisterView(v)
	v.closed = true
	v.matched = nil
	v.positions = nil
}

// Storage returns the storage the view matches against.
func (v *QueryView) Storage() *Storage {
	return v.storage
}

// Len returns the number of matched entities.
func (v *QueryView) Len() int {
	return len(v.matched)
}

// Matches reports whether e is live and currently matches the view.
func (v *QueryView) Matches(e EntityId) bool {
	mask, ok := v.storage.Mask(e)
	return ok && v.match(mask)
}

// Range iterates the matched entities. While the range is in flight every
// component type the view mentions is locked: adding or removing those
// types, or destroying an entity holding one, is queued and applied once the
// last range over a locked type completes.
func (v *QueryView) Range() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		if !v.built || v.closed {
			return
		}
		v.storage.lock(v.locked)
		defer v.storage.unlock(v.locked)

		for i := 0; i < len(v.matched); i++ {
			if !yield(Row{view: v, entity: v.matched[i]}) {
				return
			}
		}
	}
}

// Entities iterates the matched entity ids under the same locking as Range.
func (v *QueryView) Entities() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for row := range v.Range() {
			if !yield(row.entity) {
				return
			}
		}
	}
}

// Conflicts reports whether v and other cannot run concurrently: one of them
// writes a type the other accesses.
func (v *QueryView) Conflicts(other *QueryView) bool {
	return v.writes.Intersects(other.accessed()) || other.writes.Intersects(v.accessed())
}

// Access returns the types the view reads (through any path) and writes.
func (v *QueryView) Access() (reads Mask, writes Mask) {
	return v.accessed(), v.writes
}

func (v *QueryView) String() string {
	var parts []string
	add := func(label string, m Mask) {
		if !m.IsEmpty() {
			parts = append(parts, label+"("+v.describe(m)+")")
		}
	}
	add("write", v.writes)
	add("read", v.reads.AndNot(v.writes))
	add("include", v.required.AndNot(v.reads))
	add("exclude", v.excluded)
	add("parent", v.parentReads)
	for _, l := range v.links {
		parts = append(parts, "link("+v.storage.registry.Name(l.via)+"->"+v.storage.registry.Name(l.target)+")")
	}
	return strings.Join(parts, " ")
}

func (v *QueryView) accessed() Mask {
	m := v.reads.Or(v.parentReads)
	for _, l := range v.links {
		m.Set(l.target)
		m.Set(l.via)
	}
	return m
}

func (v *QueryView) describe(m Mask) string {
	var names []string
	for id := range m.Ids() {
		names = append(names, v.storage.registry.Name(id))
	}
	return strings.Join(names, ", ")
}

// validate checks that the view can be ranged this tick.
func (v *QueryView) validate() error {
	switch {
	case !v.built:
		return eris.New("query view used before Build")
	case v.closed:
		return eris.New("query view used after Close")
	}
	return nil
}

func (v *QueryView) key(c ComponentKey) ComponentId {
	if v.built {
		panic("query view declarations must precede Build")
	}
	if c.Registry() != v.storage.registry {
		panic(eris.Wrapf(ErrUnregisteredComponent, "%s belongs to another registry", c.Registry().Name(c.ComponentId())))
	}
	return c.ComponentId()
}

func (v *QueryView) match(mask Mask) bool {
	return mask.Contains(v.required) && !mask.Intersects(v.excluded)
}

func (v *QueryView) add(e EntityId) {
	v.positions.Put(e.Index(), int32(len(v.matched)))
	v.matched = append(v.matched, e)
}

// update moves e in or out of the matched set after its mask changed.
func (v *QueryView) update(e EntityId, mask Mask) {
	index := e.Index()
	pos, in := v.positions.Get(index)
	match := v.match(mask)

	switch {
	case match && !in:
		v.add(e)
	case match && in:
		v.matched[pos] = e
	case !match && in:
		last := int32(len(v.matched) - 1)
		moved := v.matched[last]
		v.matched[pos] = moved
		v.positions.Put(moved.Index(), pos)
		v.matched = v.matched[:last]
		v.positions.Del(index)
	}
}

// ptr returns the address of component id on the entity with the given
// index, or nil.
func (v *QueryView) ptr(id ComponentId, index uint32) unsafe.Pointer {
	pool := v.storage.pools[id]
	if pool == nil {
		return nil
	}
	return pool.ptr(index)
}

func (v *QueryView) parentPtr(id ComponentId, e EntityId) unsafe.Pointer {
	parent, ok := v.storage.Parent(e)
	if !ok {
		return nil
	}
	return v.ptr(id, parent.Index())
}

func (v *QueryView) linkedPtr(l linkedRead, e EntityId) unsafe.Pointer {
	via := v.ptr(l.via, e.Index())
	if via == nil {
		return nil
	}
	link := (*EntityLink)(unsafe.Add(via, l.offset))
	target, ok := link.Resolve(v.storage)
	if !ok {
		return nil
	}
	return v.ptr(l.target, target.Index())
}

func (v *QueryView) link(target ComponentId) (linkedRead, bool) {
	for _, l := range v.links {
		if l.target == target {
			return l, true
		}
	}
	return linkedRead{}, false
}

var entityLinkType = reflect.TypeFor[EntityLink]()

// linkOffset finds the EntityLink field named field within t.
func linkOffset(t reflect.Type, field string) (uintptr, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return 0, eris.Errorf("cannot link through %v: not a struct component", t)
	}
	f, ok := t.FieldByName(field)
	if !ok {
		return 0, eris.Errorf("%s has no field %q", t, field)
	}
	if f.Type != entityLinkType {
		return 0, eris.Errorf("%s.%s is %s, not ecs.EntityLink", t, field, f.Type)
	}
	if len(f.Index) != 1 {
		return 0, eris.Errorf("%s.%s must be a direct field", t, field)
	}
	return f.Offset, nil
}

// Row is one matched entity during a QueryView range. Component access goes
// through the Read/Write accessors, which enforce the view's declarations.
type Row struct {
	view   *QueryView
	entity EntityId
}

// Entity returns the row's entity.
func (r Row) Entity() EntityId {
	return r.entity
}

// Has reports whether the row's entity holds the component.
func (r Row) Has(c ComponentKey) bool {
	return r.view.ptr(c.ComponentId(), r.entity.Index()) != nil
}

// Write returns a pointer to the row's component. The view must declare
// write access to it.
func Write[T any](r Row, c ComponentType[T]) *T {
	if !r.view.writes.Has(c.id) {
		r.view.storage.violation(eris.Wrapf(ErrUndeclaredAccess, "write %s", c.Name()))
		return nil
	}
	return (*T)(r.view.ptr(c.id, r.entity.Index()))
}

// Read returns a copy of the row's component. It reports false if the
// component is optional and absent. The view must declare read or write
// access to it.
func Read[T any](r Row, c ComponentType[T]) (T, bool) {
	var zero T
	if !r.view.reads.Has(c.id) {
		r.view.storage.violation(eris.Wrapf(ErrUndeclaredAccess, "read %s", c.Name()))
		return zero, false
	}
	ptr := (*T)(r.view.ptr(c.id, r.entity.Index()))
	if ptr == nil {
		return zero, false
	}
	return *ptr, true
}

// ReadParent returns a copy of the component held by the row entity's
// parent. It reports false if there is no live parent or the parent lacks
// the component.
func ReadParent[T any](r Row, c ComponentType[T]) (T, bool) {
	var zero T
	if !r.view.parentReads.Has(c.id) {
		r.view.storage.violation(eris.Wrapf(ErrUndeclaredAccess, "parent read %s", c.Name()))
		return zero, false
	}
	ptr := (*T)(r.view.parentPtr(c.id, r.entity))
	if ptr == nil {
		return zero, false
	}
	return *ptr, true
}

// ReadLinked returns a copy of the component held by the entity the row's
// declared EntityLink points at. When several links target the same
// component type the first declared one is used. It reports false if the
// link is unset or dangling, or the target lacks the component.
func ReadLinked[T any](r Row, c ComponentType[T]) (T, bool) {
	var zero T
	l, ok := r.view.link(c.id)
	if !ok {
		r.view.storage.violation(eris.Wrapf(ErrUndeclaredAccess, "linked read %s", c.Name()))
		return zero, false
	}
	ptr := (*T)(r.view.linkedPtr(l, r.entity))
	if ptr == nil {
		return zero, false
	}
	return *ptr, true
}
