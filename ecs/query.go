package ecs

import (
	"iter"
	"reflect"
	"slices"
	"strings"
	"unsafe"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// With marks a component type as required but unused in a Query struct.
//
//	type query struct {
//		*Position
//		_ ecs.With[Player]
//	}
type With[C any] struct{}

// Without marks a component type as excluded in a Query struct.
type Without[C any] struct{}

type queryMarker interface {
	markerType() reflect.Type
	excludes() bool
}

func (With[C]) markerType() reflect.Type    { return reflect.TypeFor[C]() }
func (With[C]) excludes() bool              { return false }
func (Without[C]) markerType() reflect.Type { return reflect.TypeFor[C]() }
func (Without[C]) excludes() bool           { return true }

var queryMarkerType = reflect.TypeFor[queryMarker]()

type fieldSource uint8

const (
	sourceSelf fieldSource = iota
	sourceParent
	sourceLink
)

type queryField struct {
	offset   uintptr
	id       ComponentId
	source   fieldSource
	optional bool
	link     linkedRead
}

// Query is a typed QueryView. T is a struct whose fields are pointers to
// component types; each matched entity fills one T.
//
// Embedded pointer fields are required with write access. Named fields take
// an `ecs` tag combining:
//
//	read            required, read-only access
//	write           required, read-write access (the default)
//	optional        not required; the field is nil when absent
//	parent          read from the entity's parent; nil when unresolvable
//	link=Via.Field  read from the entity referenced by the EntityLink
//	                field Field of the component in query field Via
//
// Blank With[C] and Without[C] fields add include and exclude filters.
//
// Read-only access on a typed query is a contract: Go cannot hand out a
// pointer that forbids writes, so systems must not write through read fields.
type Query[T any] struct {
	view   *QueryView
	fields []queryField

	order []EntityId
	depth *intmap.Map[uint32, int32]
}

// NewQuery creates and builds a Query against storage.
func NewQuery[T any](storage *Storage) *Query[T] {
	q := &Query[T]{}
	q.Init(storage)
	return q
}

// Init builds the query's view against storage.
// Called by the Scheduler during system registration.
func (q *Query[T]) Init(storage *Storage) {
	if q.view != nil {
		q.view.Close()
	}

	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("Query type parameter must be a struct")
	}

	view := NewQueryView(storage)
	registry := storage.registry
	fields := make([]queryField, 0, structType.NumField())
	type pendingLink struct {
		field int
		via   string
		name  string
	}
	var links []pendingLink
	byName := make(map[string]ComponentId)

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Type.Implements(queryMarkerType) {
			marker := reflect.Zero(field.Type).Interface().(queryMarker)
			id := mustComponentId(registry, marker.markerType())
			key := idKey{id: id, registry: registry}
			if marker.excludes() {
				view.Exclude(key)
			} else {
				view.Include(key)
			}
			continue
		}

		if field.Type.Kind() != reflect.Ptr {
			panic("Query struct fields must be pointer types: " + field.Name)
		}

		id := mustComponentId(registry, field.Type.Elem())
		key := idKey{id: id, registry: registry}
		qf := queryField{offset: field.Offset, id: id}
		byName[field.Name] = id

		read, optional := false, false
		if !field.Anonymous {
			for _, opt := range strings.Split(field.Tag.Get("ecs"), ",") {
				opt = strings.TrimSpace(opt)
				switch {
				case opt == "", opt == "write":
				case opt == "read":
					read = true
				case opt == "optional":
					optional = true
				case opt == "parent":
					qf.source = sourceParent
				case strings.HasPrefix(opt, "link="):
					via, name, ok := strings.Cut(strings.TrimPrefix(opt, "link="), ".")
					if !ok {
						panic("invalid ecs link tag on " + field.Name + ": want link=Field.LinkField")
					}
					qf.source = sourceLink
					links = append(links, pendingLink{field: len(fields), via: via, name: name})
				default:
					panic("invalid ecs tag value: \"" + opt + "\" on " + field.Name)
				}
			}
		}

		switch {
		case qf.source == sourceParent:
			view.ParentRead(key)
		case qf.source == sourceLink:
		case optional:
			qf.optional = true
			view.Optional(key)
		case read:
			view.ReadAccess(key)
		default:
			view.Declare(key)
		}
		fields = append(fields, qf)
	}

	for _, l := range links {
		via, ok := byName[l.via]
		if !ok {
			panic("ecs link tag references unknown query field " + l.via)
		}
		target := idKey{id: fields[l.field].id, registry: registry}
		fields[l.field].link = view.entityRead(target, idKey{id: via, registry: registry}, l.name)
	}

	q.view = view.Build()
	q.fields = fields
}

// View returns the underlying QueryView.
func (q *Query[T]) View() *QueryView {
	return q.view
}

// Len returns the number of matched entities.
func (q *Query[T]) Len() int {
	return q.view.Len()
}

// Get fills a T for e. It reports false if e does not match the query.
func (q *Query[T]) Get(e EntityId) (T, bool) {
	var result T
	if !q.view.Matches(e) {
		return result, false
	}
	q.fill(e, unsafe.Pointer(&result))
	return result, true
}

// Range iterates matched entities with their filled T. The same T value is
// reused for every entity; copy the pointers out if they must be kept.
func (q *Query[T]) Range() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		var result T
		resultPtr := unsafe.Pointer(&result)

		for row := range q.view.Range() {
			q.fill(row.entity, resultPtr)
			if !yield(row.entity, result) {
				return
			}
		}
	}
}

// Values iterates the filled T values only.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, value := range q.Range() {
			if !yield(value) {
				return
			}
		}
	}
}

// Hierarchical iterates like Range but yields every entity after its
// ancestors, so a parent's values are final before its children read them.
// Entities at the same depth keep matched-set order.
func (q *Query[T]) Hierarchical() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		s := q.view.storage
		s.lock(q.view.locked)
		defer s.unlock(q.view.locked)

		if q.depth == nil {
			q.depth = intmap.New[uint32, int32](len(q.view.matched))
		} else {
			q.depth.Clear()
		}
		q.order = append(q.order[:0], q.view.matched...)
		for _, e := range q.order {
			q.depthOf(e)
		}
		slices.SortStableFunc(q.order, func(a, b EntityId) int {
			da, _ := q.depth.Get(a.Index())
			db, _ := q.depth.Get(b.Index())
			return int(da - db)
		})

		var result T
		resultPtr := unsafe.Pointer(&result)
		for _, e := range q.order {
			q.fill(e, resultPtr)
			if !yield(e, result) {
				return
			}
		}
	}
}

// depthOf memoizes the number of live ancestors of e for this pass.
func (q *Query[T]) depthOf(e EntityId) int32 {
	if d, ok := q.depth.Get(e.Index()); ok {
		return d
	}
	var d int32
	if parent, ok := q.view.storage.Parent(e); ok {
		d = q.depthOf(parent) + 1
	}
	q.depth.Put(e.Index(), d)
	return d
}

func (q *Query[T]) fill(e EntityId, resultPtr unsafe.Pointer) {
	index := e.Index()
	for i := range q.fields {
		f := &q.fields[i]
		var ptr unsafe.Pointer
		switch f.source {
		case sourceSelf:
			ptr = q.view.ptr(f.id, index)
		case sourceParent:
			ptr = q.view.parentPtr(f.id, e)
		case sourceLink:
			ptr = q.view.linkedPtr(f.link, e)
		}
		*(*unsafe.Pointer)(unsafe.Add(resultPtr, f.offset)) = ptr
	}
}

// idKey is a ComponentKey for a type resolved by reflection while a Query is
// initialised.
type idKey struct {
	id       ComponentId
	registry *ComponentRegistry
}

func (k idKey) ComponentId() ComponentId      { return k.id }
func (k idKey) Registry() *ComponentRegistry { return k.registry }

func mustComponentId(r *ComponentRegistry, t reflect.Type) ComponentId {
	id, ok := r.idOf(t)
	if !ok {
		panic(eris.Wrapf(ErrUnregisteredComponent, "%s", t))
	}
	return id
}
